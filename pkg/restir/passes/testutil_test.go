package passes

import (
	"image"
	"image/color"
	"math"

	"github.com/restirgo/restir/config"
	"github.com/restirgo/restir/internal/atmosphere"
	"github.com/restirgo/restir/internal/dispatch"
	"github.com/restirgo/restir/internal/restircam"
	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/scene"
)

// testWorld builds a two-triangle floor lit by one overhead point light,
// small enough for every pass test to trace quickly.
func testWorld() *scene.World {
	n := core.Vec3{X: 0, Y: 1, Z: 0}
	floor := []scene.Triangle{
		{P0: core.Vec3{X: -5, Y: 0, Z: -5}, P1: core.Vec3{X: 5, Y: 0, Z: -5}, P2: core.Vec3{X: -5, Y: 0, Z: 5}, N0: n, N1: n, N2: n, Material: 0},
		{P0: core.Vec3{X: 5, Y: 0, Z: -5}, P1: core.Vec3{X: 5, Y: 0, Z: 5}, P2: core.Vec3{X: -5, Y: 0, Z: 5}, N0: n, N1: n, N2: n, Material: 0},
	}

	return &scene.World{
		Triangles: floor,
		Materials: []scene.Material{{BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.5, Reflectance: 0.04}},
		Lights: []scene.Light{
			{Kind: scene.LightPoint, Position: core.Vec3{X: 0, Y: 3, Z: 0}, Color: core.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 20},
		},
	}
}

// testSky builds a tiny constant-color LUT; tests that exercise the sky
// candidate don't care about its exact color, only that it's finite.
func testSky() *atmosphere.LUT {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 120, B: 200, A: 255})
		}
	}
	return atmosphere.LoadLUT(img, 8, 8)
}

func testCamera(width, height int) restircam.Camera {
	return restircam.New(
		core.Vec3{X: 0, Y: 4, Z: 6},
		core.Vec3{X: 0, Y: 0, Z: 0},
		core.Vec3{X: 0, Y: 1, Z: 0},
		math.Pi/3, float64(width)/float64(height), 0.1, 100,
		width, height,
	)
}

// traceGBuffer stands in for the external primary-visibility pass: one
// camera ray per pixel through tree.
func traceGBuffer(cam restircam.Camera, tree *bvh.BVH, world *scene.World, width, height int) []gbuffer.Entry {
	out := make([]gbuffer.Entry, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ray := cam.Ray(core.Vec2{X: float64(x), Y: float64(y)})
			result := tree.Trace(ray, 1e-3, 1e6)
			idx := y*width + x
			if !result.Found {
				out[idx] = gbuffer.Entry{Valid: true, Escaped: true, Position: ray.At(1e4), Normal: ray.Direction.Negate()}
				continue
			}
			hit := result.Hit
			mat := world.Material(hit.Material)
			out[idx] = gbuffer.Entry{
				Valid: true, Position: hit.Point, Normal: hit.Normal,
				BaseColor: mat.BaseColor, Metallic: mat.Metallic,
				Roughness: mat.Roughness, Reflectance: mat.Reflectance,
				Emissive: mat.Emissive, Depth: hit.T,
			}
		}
	}
	return out
}

// newTestFrame allocates a Frame wired to a small floor-and-light world,
// a static overhead camera and a worker pool, ready for a pass's Run to
// be called directly against it.
func newTestFrame(width, height int) (f *Frame, tree *bvh.BVH, world *scene.World, cam restircam.Camera) {
	world = testWorld()
	tree = bvh.Build(world.Triangles)
	cam = testCamera(width, height)
	sky := testSky()

	cfg := config.Default()
	cfg.Width, cfg.Height = width, height
	cfg.FrameSeed = 0xC0FFEE

	pool := dispatch.New()
	f = NewFrame(cfg, world, tree, sky, pool)
	f.CamCurr = cam
	f.CamPrev = cam

	return f, tree, world, cam
}
