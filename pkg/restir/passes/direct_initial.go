package passes

import (
	"context"
	"math/rand"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
	"github.com/restirgo/restir/pkg/scene"
)

// shadowRayEpsilon offsets shadow rays off the shading surface to avoid
// immediate self-intersection.
const shadowRayEpsilon = 1e-3

// DirectInitialShading is the pass that builds each pixel's initial
// direct-lighting reservoir from scratch: one candidate per scene light
// plus a sky candidate, each added by its unshadowed p_hat, then resolved
// against a single traced shadow ray (spec.md §4.3).
type DirectInitialShading struct{}

func (DirectInitialShading) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.Width, f.Height, func(x, y int) {
		runDirectInitial(f, x, y)
	})
}

func runDirectInitial(f *Frame, x, y int) {
	idx := f.idx(x, y)
	hit := f.GBuffer[idx]
	if !hit.Valid {
		f.DirectReservoirs.Curr()[idx] = restir.Reservoir[restir.DirectSample]{}
		f.DirectRadiance[idx] = core.Vec3{}
		return
	}

	res, shaded := buildAndResolveDirectReservoir(f, hit, x, y, passDirectInitialLight, passDirectInitialSky)
	f.DirectReservoirs.Curr()[idx] = res
	f.DirectRadiance[idx] = shaded
}

// buildAndResolveDirectReservoir runs spec.md §4.3's reservoir algorithm
// against an arbitrary shaded surface: stream every light plus a sky
// candidate, weighted by unshadowed contribution, then resolve the
// selected sample against one shadow ray. Shared by direct initial
// shading (§4.3) and indirect initial shading (§4.7), which runs the
// same algorithm at a secondary hit.
func buildAndResolveDirectReservoir(f *Frame, hit gbuffer.Entry, x, y int, lightPass, skyPass uint32) (restir.Reservoir[restir.DirectSample], core.Vec3) {
	rng := f.rng(x, y, lightPass)
	mat := scene.Material{BaseColor: hit.BaseColor, Metallic: hit.Metallic, Roughness: hit.Roughness, Reflectance: hit.Reflectance}
	viewDir := f.CamCurr.Position.Subtract(hit.Position).Normalize()

	res := restir.Reservoir[restir.DirectSample]{}

	for lightID := 0; lightID < f.World.LightCount(); lightID++ {
		light := f.World.Light(scene.LightID(lightID))
		disk := core.RandomInUnitDisk(rng)
		ls := light.Sample(hit.Position, disk)
		contribution := light.Contribution(ls, mat, hit.Normal, viewDir)

		sample := restir.DirectSample{LightID: uint32(lightID), LightContribution: contribution}
		res.Add(rng, sample, sample.PHat())
	}

	skyRNG := f.rng(x, y, skyPass)
	skySample := buildSkySample(f, hit, skyRNG)
	skyWeight := 0.25 * res.WSum
	if res.WSum == 0 {
		skyWeight = 1
	}
	res.Add(skyRNG, skySample, skyWeight)

	shaded := resolveDirectSample(f, hit, res.Sample)
	return res, shaded
}

// buildSkySample evaluates spec.md §4.3 step 3: a sky sample whose
// contribution is k * atmosphere(sun_dir, sky_normal), k depending on
// whether the primary ray escaped to the sky or hit geometry.
func buildSkySample(f *Frame, hit gbuffer.Entry, rng *rand.Rand) restir.DirectSample {
	k := f.Config.SkyExposureHit
	skyNormal := core.RandomCosineDirection(hit.Normal, rng)
	if hit.Escaped {
		k = f.Config.SkyExposureEscaped
		skyNormal = hit.Normal
	}

	contribution := f.Sky.Contribution(f.sunDirection(), skyNormal).Multiply(k)
	return restir.DirectSample{LightID: restir.SkyLight, LightContribution: contribution}
}

// sunDirection returns the first sun light's incoming direction, or a
// default overhead direction if the world has no sun light.
func (f *Frame) sunDirection() core.Vec3 {
	for i := 0; i < f.World.LightCount(); i++ {
		light := f.World.Light(scene.LightID(i))
		if light.Kind == scene.LightSun {
			return light.Normal.Negate().Normalize()
		}
	}
	return core.Vec3{X: 0, Y: 1, Z: 0}
}

// resolveDirectSample casts one shadow ray toward the reservoir's
// selected sample and multiplies its contribution by visibility
// (spec.md §4.3 step 4). Sky samples are never shadowed by the BVH.
func resolveDirectSample(f *Frame, hit gbuffer.Entry, sample restir.DirectSample) core.Vec3 {
	if sample.LightID == restir.SkyLight {
		return sample.LightContribution.Clamp(0, maxFloat)
	}

	light := f.World.Light(scene.LightID(sample.LightID))
	origin := hit.Position.Add(hit.Normal.Multiply(shadowRayEpsilon))

	var visible bool
	switch light.Kind {
	case scene.LightSun:
		dir := light.Normal.Negate().Normalize()
		visible = !f.BVH.AnyHit(core.NewRay(origin, dir), shadowRayEpsilon, maxFloat)
	default:
		toLight := light.Position.Subtract(origin)
		dist := toLight.Length()
		dir := toLight.Multiply(1 / maxf(dist, 1e-6))
		visible = !f.BVH.AnyHit(core.NewRay(origin, dir), shadowRayEpsilon, dist-shadowRayEpsilon)
	}

	if !visible {
		return core.Vec3{}
	}
	return sample.LightContribution.Clamp(0, maxFloat)
}

const maxFloat = 1e30
