// Command restir-demo drives the reservoir pipeline through a scripted
// multi-frame run over one of a few built-in test scenes, the way the
// teacher's main.go drives its progressive raytracer over a built-in
// scene by name. It exists for manual inspection and benchmarking; the
// library itself (pkg/restir, pkg/restir/passes) has no CLI surface of
// its own (spec.md §6: "the core itself is a library, not a CLI").
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/restirgo/restir/config"
	"github.com/restirgo/restir/internal/atmosphere"
	"github.com/restirgo/restir/internal/dispatch"
	"github.com/restirgo/restir/internal/restircam"
	"github.com/restirgo/restir/internal/restirlog"
	"github.com/restirgo/restir/internal/telemetry"
	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir/passes"
	"github.com/restirgo/restir/pkg/scene"
)

func main() {
	scenario := flag.String("scenario", "stationary", "scenario: stationary, disocclusion, two-lights, sky-only")
	frames := flag.Int("frames", 32, "number of frames to run")
	width := flag.Int("width", 320, "viewport width")
	height := flag.Int("height", 180, "viewport height")
	out := flag.String("out", "restir-demo.png", "output PNG path for the final composite")
	telemetryPort := flag.Int("telemetry-port", 0, "if nonzero, serve BVH heatmap telemetry on this port while rendering")
	flag.Parse()

	logger, err := restirlog.NewZapDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "restir-demo: build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	cfg.Width, cfg.Height = *width, *height

	pool := dispatch.New()
	defer pool.Release()

	sky := loadDemoSky()

	logger.Printf("running scenario=%s frames=%d %dx%d", *scenario, *frames, cfg.Width, cfg.Height)

	result, err := runScenario(context.Background(), *scenario, *frames, cfg, pool, sky, logger, *telemetryPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restir-demo: %v\n", err)
		os.Exit(1)
	}

	if err := saveComposite(result, *out); err != nil {
		fmt.Fprintf(os.Stderr, "restir-demo: save image: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("wrote %s", *out)
}

// worldAt builds the scene.World for a given frame index; scenarios
// whose geometry never moves just ignore the argument.
type worldAt func(frame int) *scene.World

// cameraAt builds the camera for a given frame index; scenarios that
// hold the camera fixed just ignore the frame argument.
type cameraAt func(frame, width, height int) restircam.Camera

// runScenario builds the named test scene's per-frame world/camera
// schedule, then runs the pipeline for the requested frame count,
// returning the last frame's resolved buffers.
func runScenario(ctx context.Context, scenario string, frameCount int, cfg config.PipelineConfig, pool *dispatch.Pool, sky *atmosphere.LUT, logger *restirlog.ZapLogger, telemetryPort int) (*passes.Frame, error) {
	worldFn, camFn, err := buildScene(scenario)
	if err != nil {
		return nil, err
	}

	pipeline := passes.NewPipeline()

	initialWorld := worldFn(0)
	tree := bvh.Build(initialWorld.Triangles)
	f := passes.NewFrame(cfg, initialWorld, tree, sky, pool)
	f.Logger = logger
	f.CamCurr = camFn(0, cfg.Width, cfg.Height)
	f.CamPrev = f.CamCurr

	// The telemetry server and the render loop run concurrently; an
	// errgroup lets a fatal server error (e.g. the port is already bound)
	// surface alongside the render loop's own per-frame errors instead of
	// being swallowed in a fire-and-forget goroutine.
	g, gCtx := errgroup.WithContext(ctx)

	var telemetrySrv *telemetry.Server
	if telemetryPort != 0 {
		telemetrySrv = telemetry.NewServer(telemetryPort)
		g.Go(telemetrySrv.ListenAndServe)
	}

	renderErr := func() error {
		for frame := 0; frame < frameCount; frame++ {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			f.World = worldFn(frame)
			tree = bvh.Build(f.World.Triangles)
			f.BVH = tree

			f.CamPrev = f.CamCurr
			f.CamCurr = camFn(frame, cfg.Width, cfg.Height)

			renderPrimaryVisibility(f, tree)

			if err := pipeline.RunFrame(ctx, f); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}

			if telemetrySrv != nil {
				telemetrySrv.Publish(f.Heatmap)
			}

			stats := f.Heatmap.Summarize()
			logger.WithFrame(uint32(frame)).Printf("bvh mean touched=%.1f max=%d", stats.MeanTouched, stats.MaxTouched)
		}
		return nil
	}()

	if telemetrySrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := telemetrySrv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("telemetry server shutdown: %v", err)
		}
		cancel()
	}

	if err := g.Wait(); err != nil && renderErr == nil {
		return nil, fmt.Errorf("telemetry server: %w", err)
	}
	if renderErr != nil {
		return nil, renderErr
	}

	return f, nil
}

// renderPrimaryVisibility stands in for the external primary-visibility
// pass spec.md §2 names as an upstream collaborator: it traces one
// camera ray per pixel and fills f.GBuffer, so the demo has something
// real to feed the reservoir pipeline.
func renderPrimaryVisibility(f *passes.Frame, tree *bvh.BVH) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			ray := f.CamCurr.Ray(core.Vec2{X: float64(x), Y: float64(y)})
			result := tree.Trace(ray, 1e-3, 1e30)
			idx := y*f.Width + x

			if !result.Found {
				f.GBuffer[idx] = gbuffer.Entry{Valid: true, Escaped: true, Position: ray.At(1e4), Normal: ray.Direction.Negate()}
				continue
			}

			mat := f.World.Material(result.Hit.Material)
			f.GBuffer[idx] = gbuffer.Entry{
				Valid:       true,
				Position:    result.Hit.Point,
				Normal:      result.Hit.Normal,
				BaseColor:   mat.BaseColor,
				Metallic:    mat.Metallic,
				Roughness:   mat.Roughness,
				Reflectance: mat.Reflectance,
				Emissive:    mat.Emissive,
				Depth:       result.Hit.T,
			}
		}
	}
}

// buildScene constructs the per-frame world/camera schedule for one of
// the scripted scenarios named in spec.md §8's end-to-end scenarios.
func buildScene(scenario string) (worldAt, cameraAt, error) {
	switch scenario {
	case "stationary":
		world := planeWithLightScene(1)
		return func(int) *scene.World { return world }, staticCamera(), nil
	case "two-lights":
		world := planeWithLightScene(2)
		return func(int) *scene.World { return world }, staticCamera(), nil
	case "sky-only":
		world := emptySkyScene()
		return func(int) *scene.World { return world }, staticCamera(), nil
	case "disocclusion":
		return movingCubeScene(), staticCamera(), nil
	default:
		return nil, nil, fmt.Errorf("unknown scenario %q", scenario)
	}
}

func staticCamera() cameraAt {
	return func(frame, width, height int) restircam.Camera {
		return restircam.New(
			core.Vec3{X: 0, Y: 2, Z: 6}, core.Vec3{X: 0, Y: 0, Z: 0}, core.Vec3{X: 0, Y: 1, Z: 0},
			math.Pi/3, float64(width)/float64(height), 0.1, 100, width, height,
		)
	}
}

// planeWithLightScene builds a single diffuse ground plane lit by
// lightCount point lights of equal intensity, the geometry spec.md S1
// ("stationary camera, single point light, diffuse plane") and S3 ("two
// equal lights") both describe.
func planeWithLightScene(lightCount int) *scene.World {
	mat := scene.Material{BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.8, Reflectance: 0.04}
	world := &scene.World{Triangles: groundPlane(20), Materials: []scene.Material{mat}}

	positions := []core.Vec3{{X: -2, Y: 3, Z: 2}, {X: 2, Y: 3, Z: 2}}
	for i := 0; i < lightCount; i++ {
		world.Lights = append(world.Lights, scene.Light{
			Kind: scene.LightPoint, Position: positions[i%len(positions)],
			Color: core.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 40,
		})
	}
	return world
}

// emptySkyScene has no geometry at all, so every primary ray escapes to
// the atmosphere — spec.md S4's "a pixel whose primary ray escapes".
func emptySkyScene() *scene.World {
	return &scene.World{
		Lights: []scene.Light{{Kind: scene.LightSun, Normal: core.Vec3{X: 0, Y: -1, Z: -0.3}.Normalize(), Color: core.Vec3{X: 1, Y: 1, Z: 0.95}, Intensity: 20}},
	}
}

// movingCubeScene builds a ground plane plus a cube that translates 0.3
// scene units per frame (~50px at 1920px width) across the camera's view, matching
// spec.md S2's disocclusion scenario: pixels the cube uncovers each
// frame must reproject with confidence 0 and build a fresh reservoir
// rather than inheriting the occluder's history.
func movingCubeScene() worldAt {
	planeMat := scene.Material{BaseColor: core.Vec3{X: 0.8, Y: 0.8, Z: 0.8}, Roughness: 0.8, Reflectance: 0.04}
	cubeMat := scene.Material{BaseColor: core.Vec3{X: 0.2, Y: 0.3, Z: 0.9}, Roughness: 0.5, Reflectance: 0.04}
	light := scene.Light{Kind: scene.LightPoint, Position: core.Vec3{X: 0, Y: 3, Z: 2}, Color: core.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 40}

	return func(frame int) *scene.World {
		cubeX := -3 + float64(frame)*0.3 // ~50px/frame-equivalent lateral motion
		cube := cubeTriangles(core.Vec3{X: cubeX, Y: 0.5, Z: 1}, 0.5)

		plane := groundPlane(20)
		tris := make([]scene.Triangle, 0, len(plane)+len(cube))
		tris = append(tris, plane...)
		for i := range cube {
			cube[i].Material = 1
		}
		tris = append(tris, cube...)

		return &scene.World{
			Triangles: tris,
			Materials: []scene.Material{planeMat, cubeMat},
			Lights:    []scene.Light{light},
		}
	}
}

// groundPlane tessellates a size x size quad centered at the origin into
// two triangles, both using material index 0.
func groundPlane(size float64) []scene.Triangle {
	up := core.Vec3{X: 0, Y: 1, Z: 0}
	p00 := core.Vec3{X: -size, Y: 0, Z: -size}
	p10 := core.Vec3{X: size, Y: 0, Z: -size}
	p01 := core.Vec3{X: -size, Y: 0, Z: size}
	p11 := core.Vec3{X: size, Y: 0, Z: size}

	return []scene.Triangle{
		{P0: p00, P1: p10, P2: p11, N0: up, N1: up, N2: up, Material: 0},
		{P0: p00, P1: p11, P2: p01, N0: up, N1: up, N2: up, Material: 0},
	}
}

// cubeTriangles builds an axis-aligned cube of the given half-extent
// centered at center, as 12 triangles (2 per face). Material is left at
// the zero value; callers overwrite it.
func cubeTriangles(center core.Vec3, half float64) []scene.Triangle {
	corner := func(dx, dy, dz float64) core.Vec3 {
		return core.Vec3{X: center.X + dx*half, Y: center.Y + dy*half, Z: center.Z + dz*half}
	}

	faces := []struct {
		a, b, c, d core.Vec3
		n          core.Vec3
	}{
		{corner(-1, -1, 1), corner(1, -1, 1), corner(1, 1, 1), corner(-1, 1, 1), core.Vec3{Z: 1}},    // front
		{corner(1, -1, -1), corner(-1, -1, -1), corner(-1, 1, -1), corner(1, 1, -1), core.Vec3{Z: -1}}, // back
		{corner(-1, -1, -1), corner(-1, -1, 1), corner(-1, 1, 1), corner(-1, 1, -1), core.Vec3{X: -1}}, // left
		{corner(1, -1, 1), corner(1, -1, -1), corner(1, 1, -1), corner(1, 1, 1), core.Vec3{X: 1}},      // right
		{corner(-1, 1, 1), corner(1, 1, 1), corner(1, 1, -1), corner(-1, 1, -1), core.Vec3{Y: 1}},      // top
		{corner(-1, -1, -1), corner(1, -1, -1), corner(1, -1, 1), corner(-1, -1, 1), core.Vec3{Y: -1}},  // bottom
	}

	tris := make([]scene.Triangle, 0, len(faces)*2)
	for _, fce := range faces {
		tris = append(tris,
			scene.Triangle{P0: fce.a, P1: fce.b, P2: fce.c, N0: fce.n, N1: fce.n, N2: fce.n},
			scene.Triangle{P0: fce.a, P1: fce.c, P2: fce.d, N0: fce.n, N1: fce.n, N2: fce.n},
		)
	}
	return tris
}

// loadDemoSky builds a tiny synthetic two-tone sky gradient (horizon to
// zenith) to stand in for a real captured atmosphere LUT, since spec.md
// treats the LUT itself as an external asset (§6).
func loadDemoSky() *atmosphere.LUT {
	const w, h = 64, 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		horizon := color.NRGBA{R: 235, G: 225, B: 200, A: 255}
		zenith := color.NRGBA{R: 80, G: 140, B: 230, A: 255}
		c := lerpColor(zenith, horizon, t)
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return atmosphere.LoadLUT(img, w, h)
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// saveComposite writes the frame's direct + indirect-diffuse +
// indirect-specular radiance, summed and gamma-corrected, as a PNG.
func saveComposite(f *passes.Frame, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			idx := y*f.Width + x
			hx, hy := x/2, y/2
			hidx := hy*f.HalfWidth + hx

			total := f.DirectRadiance[idx].
				Add(f.IndirectDiffuseRadiance[hidx]).
				Add(f.IndirectSpecularRadiance[hidx])

			c := total.Clamp(0, 1).GammaCorrect(2.2)
			img.Set(x, y, color.RGBA{
				R: uint8(c.X * 255), G: uint8(c.Y * 255), B: uint8(c.Z * 255), A: 255,
			})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
