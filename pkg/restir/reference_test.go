package restir

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/scene"
)

type constSky struct{ color core.Vec3 }

func (s constSky) Contribution(sunDir, skyNormal core.Vec3) core.Vec3 { return s.color }

func floorWorld() (*scene.World, *bvh.BVH) {
	n := core.Vec3{X: 0, Y: 1, Z: 0}
	tris := []scene.Triangle{
		{P0: core.Vec3{X: -5, Y: 0, Z: -5}, P1: core.Vec3{X: 5, Y: 0, Z: -5}, P2: core.Vec3{X: -5, Y: 0, Z: 5}, N0: n, N1: n, N2: n, Material: 0},
		{P0: core.Vec3{X: 5, Y: 0, Z: -5}, P1: core.Vec3{X: 5, Y: 0, Z: 5}, P2: core.Vec3{X: -5, Y: 0, Z: 5}, N0: n, N1: n, N2: n, Material: 0},
	}
	world := &scene.World{
		Triangles: tris,
		Materials: []scene.Material{{BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.5}},
		Lights: []scene.Light{
			{Kind: scene.LightPoint, Position: core.Vec3{X: 0, Y: 3, Z: 0}, Color: core.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 20},
		},
	}
	return world, bvh.Build(tris)
}

func TestReferenceIntegrator_EstimateDirect_InvalidHitIsZero(t *testing.T) {
	world, tree := floorWorld()
	ref := ReferenceIntegrator{World: world, BVH: tree, Sky: constSky{core.Vec3{X: 1, Y: 1, Z: 1}}}

	rng := rand.New(rand.NewSource(1))
	got := ref.EstimateDirect(rng, gbuffer.Entry{Valid: false}, core.Vec3{X: 0, Y: 1, Z: 0}, 16)

	assert.True(t, got.IsZero())
}

func TestReferenceIntegrator_EstimateDirect_UnoccludedSurfaceIsPositive(t *testing.T) {
	world, tree := floorWorld()
	ref := ReferenceIntegrator{
		World: world, BVH: tree,
		Sky:                constSky{core.Vec3{X: 0.1, Y: 0.1, Z: 0.2}},
		SunDirection:       core.Vec3{X: 0, Y: -1, Z: 0},
		SkyExposureHit:     scene.SkyExposureBoost,
		SkyExposureEscaped: scene.SkyExposureK,
	}

	hit := gbuffer.Entry{
		Valid: true, Position: core.Vec3{X: 0, Y: 0.01, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0},
		BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.5,
	}
	viewDir := core.Vec3{X: 0, Y: 1, Z: 0}

	rng := rand.New(rand.NewSource(42))
	got := ref.EstimateDirect(rng, hit, viewDir, 256)

	assert.Greater(t, got.Luminance(), 0.0)
}

func TestReferenceIntegrator_EstimateDirect_OccludedLightContributesNothing(t *testing.T) {
	world, tree := floorWorld()
	ref := ReferenceIntegrator{World: world, BVH: tree, Sky: constSky{core.Vec3{}}}

	// A point below the floor, facing up toward the light (so the BRDF
	// cosine term alone wouldn't reject it): the floor itself blocks the
	// shadow ray, and the sky candidate's color is exactly zero, so the
	// whole estimate must be zero.
	hit := gbuffer.Entry{
		Valid: true, Position: core.Vec3{X: 0, Y: -0.5, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0},
		BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.5,
	}
	viewDir := core.Vec3{X: 0, Y: 1, Z: 0}

	rng := rand.New(rand.NewSource(7))
	got := ref.EstimateDirect(rng, hit, viewDir, 64)

	assert.True(t, got.IsZero())
}

func TestReferenceIntegrator_EstimateDirect_ZeroSamplesIsZero(t *testing.T) {
	world, tree := floorWorld()
	ref := ReferenceIntegrator{World: world, BVH: tree, Sky: constSky{core.Vec3{X: 1, Y: 1, Z: 1}}}

	hit := gbuffer.Entry{Valid: true, Position: core.Vec3{X: 0, Y: 0.01, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0}}
	got := ref.EstimateDirect(rand.New(rand.NewSource(1)), hit, core.Vec3{X: 0, Y: 1, Z: 0}, 0)

	require.True(t, got.IsZero())
}
