package restir

import (
	"math/rand"

	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/scene"
)

// referenceShadowEpsilon offsets reference-integrator shadow rays off
// the shading surface, mirroring passes.shadowRayEpsilon.
const referenceShadowEpsilon = 1e-3

// SkyModel is the minimal atmosphere interface ReferenceIntegrator
// needs. internal/atmosphere.LUT satisfies it without this package
// importing internal/atmosphere directly.
type SkyModel interface {
	Contribution(sunDir, skyNormal core.Vec3) core.Vec3
}

// ReferenceIntegrator is a brute-force, unbiased direct-lighting
// estimator used only for validation, not as part of the render
// pipeline itself: spec.md's S1 scenario ("per-pixel variance of the
// direct image must fall below 1% of the converged mean") needs a
// converged baseline to measure the reservoir pipeline against, and the
// renderer this pipeline is modeled on ships exactly this kind of
// reference-tracing pass for the same reason. Unlike the direct-initial
// pass, it never resamples or reuses across pixels or frames — every
// call uniformly picks among the scene's lights plus one sky candidate
// and averages sampleCount independent repeats.
type ReferenceIntegrator struct {
	World *scene.World
	BVH   *bvh.BVH
	Sky   SkyModel

	SunDirection       core.Vec3
	SkyExposureHit     float64
	SkyExposureEscaped float64
}

// EstimateDirect returns the Monte-Carlo average of sampleCount
// independent direct-lighting draws at hit: each draw uniformly picks
// among the scene's lights and a sky candidate, evaluates its unshadowed
// contribution, and shadow-tests the pick — the same per-candidate shape
// the reservoir pipeline's initial shading uses, but averaged rather
// than resampled.
func (ref ReferenceIntegrator) EstimateDirect(rng *rand.Rand, hit gbuffer.Entry, viewDir core.Vec3, sampleCount int) core.Vec3 {
	if !hit.Valid || sampleCount <= 0 {
		return core.Vec3{}
	}

	mat := scene.Material{
		BaseColor:   hit.BaseColor,
		Metallic:    hit.Metallic,
		Roughness:   hit.Roughness,
		Reflectance: hit.Reflectance,
	}

	var sum core.Vec3
	for i := 0; i < sampleCount; i++ {
		sum = sum.Add(ref.sampleOnce(rng, hit, mat, viewDir))
	}
	return sum.Multiply(1 / float64(sampleCount))
}

// sampleOnce draws one uniform candidate (a scene light or the sky) and
// returns its shadow-tested contribution divided by its selection
// probability, the standard unbiased Monte-Carlo estimator this
// reference integrator relies on instead of importance resampling.
func (ref ReferenceIntegrator) sampleOnce(rng *rand.Rand, hit gbuffer.Entry, mat scene.Material, viewDir core.Vec3) core.Vec3 {
	lightCount := ref.World.LightCount()
	candidates := lightCount + 1 // +1 for the sky candidate
	pdf := 1.0 / float64(candidates)

	pick := rng.Intn(candidates)
	if pick == lightCount {
		return ref.sampleSky(rng, hit).Multiply(1 / pdf)
	}

	light := ref.World.Light(scene.LightID(pick))
	disk := core.RandomInUnitDisk(rng)
	ls := light.Sample(hit.Position, disk)

	contribution := light.Contribution(ls, mat, hit.Normal, viewDir)
	if contribution.IsZero() {
		return core.Vec3{}
	}
	if !ref.visible(hit, light, ls) {
		return core.Vec3{}
	}
	return contribution.Multiply(1 / pdf)
}

// sampleSky evaluates the same sky-candidate rule direct initial shading
// uses (spec.md §4.3 step 3), without ever being occluded by the BVH.
func (ref ReferenceIntegrator) sampleSky(rng *rand.Rand, hit gbuffer.Entry) core.Vec3 {
	k := ref.SkyExposureHit
	skyNormal := core.RandomCosineDirection(hit.Normal, rng)
	if hit.Escaped {
		k = ref.SkyExposureEscaped
		skyNormal = hit.Normal
	}
	return ref.Sky.Contribution(ref.SunDirection, skyNormal).Multiply(k)
}

// visible casts one shadow ray toward a drawn light sample.
func (ref ReferenceIntegrator) visible(hit gbuffer.Entry, light scene.Light, ls scene.LightSample) bool {
	if ls.Infinite && light.Kind != scene.LightSun {
		return true
	}

	origin := hit.Position.Add(hit.Normal.Multiply(referenceShadowEpsilon))
	if light.Kind == scene.LightSun {
		return !ref.BVH.AnyHit(core.NewRay(origin, ls.Direction), referenceShadowEpsilon, 1e30)
	}
	return !ref.BVH.AnyHit(core.NewRay(origin, ls.Direction), referenceShadowEpsilon, ls.Distance-referenceShadowEpsilon)
}
