// Package passes implements the ten reservoir-pipeline compute
// stages spec.md §2 lists (everything between the external primary
// visibility pass and the external denoise/composition pass): G-buffer
// reprojection, direct initial/temporal/spatial/resolve, and indirect
// initial-tracing/initial-shading/temporal/spatial/resolve. Each pass is
// a small struct with a Run method dispatched one tile at a time via
// internal/dispatch, mirroring spec.md §5's "GPU compute dispatch over
// 8x8 thread tiles, no cross-thread sharing" execution model.
package passes

import (
	"context"
	"math/rand"

	"github.com/restirgo/restir/config"
	"github.com/restirgo/restir/internal/atmosphere"
	"github.com/restirgo/restir/internal/dispatch"
	"github.com/restirgo/restir/internal/noise"
	"github.com/restirgo/restir/internal/restircam"
	"github.com/restirgo/restir/internal/restirlog"
	"github.com/restirgo/restir/internal/telemetry"
	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
	"github.com/restirgo/restir/pkg/scene"
)

// Frame bundles everything one frame's passes read and write: the
// external inputs (BVH, world, current/previous cameras, primary
// G-buffer) and the internal state the pipeline owns (reprojection map,
// reservoir rings, output images). Exactly one Frame exists per in-flight
// frame; nothing here is shared across frames except via the Prev() side
// of each Ring.
type Frame struct {
	Config config.PipelineConfig
	World  *scene.World
	BVH    *bvh.BVH

	CamCurr restircam.Camera
	CamPrev restircam.Camera
	Sky     *atmosphere.LUT

	Index int
	Seed  uint64

	Width, Height         int
	HalfWidth, HalfHeight int

	GBuffer      []gbuffer.Entry // full-res, current frame, produced externally
	GBufferPrev  []gbuffer.Entry // full-res, previous frame
	Reprojection []gbuffer.ReprojectionEntry // full-res; indirect passes divide prev_screen_pos by 2 per spec.md §4.8

	DirectReservoirs          *gbuffer.Ring[restir.Reservoir[restir.DirectSample]]
	IndirectDiffuseReservoirs *gbuffer.Ring[restir.Reservoir[restir.IndirectSample]]
	IndirectSpecularReservoirs *gbuffer.Ring[restir.Reservoir[restir.IndirectSample]]

	SecondaryGBufferDiffuse  []gbuffer.Entry // half-res, diffuse-domain indirect initial-tracing output
	SecondaryGBufferSpecular []gbuffer.Entry // half-res, specular-domain indirect initial-tracing output
	IndirectRayDirDiffuse    []core.Vec3     // half-res, the traced diffuse direction (needed by §4.7's cosine term)
	IndirectRayDirSpecular   []core.Vec3     // half-res, the traced specular direction

	DirectRadiance           []core.Vec3
	IndirectDiffuseRadiance  []core.Vec3
	IndirectSpecularRadiance []core.Vec3

	Heatmap *telemetry.Heatmap

	// Logger is optional; when set, Pipeline.RunFrame annotates every
	// stage with "frame"/"pass"/"pixel_count" fields the way the
	// teacher's host logs each render stage. Nil by default so tests and
	// library callers that don't care about logging pay nothing for it.
	Logger *restirlog.ZapLogger

	pool *dispatch.Pool
}

// NewFrame allocates a Frame's buffers for the given dimensions. Half-res
// buffers follow spec.md §3's "indirect passes run at half the viewport
// resolution."
func NewFrame(cfg config.PipelineConfig, world *scene.World, tree *bvh.BVH, sky *atmosphere.LUT, pool *dispatch.Pool) *Frame {
	w, h := cfg.Width, cfg.Height
	hw, hh := (w+1)/2, (h+1)/2

	return &Frame{
		Config: cfg,
		World:  world,
		BVH:    tree,
		Sky:    sky,
		Seed:   cfg.FrameSeed,

		Width: w, Height: h,
		HalfWidth: hw, HalfHeight: hh,

		GBuffer:      make([]gbuffer.Entry, w*h),
		GBufferPrev:  make([]gbuffer.Entry, w*h),
		Reprojection: make([]gbuffer.ReprojectionEntry, w*h),

		DirectReservoirs:           gbuffer.NewRing[restir.Reservoir[restir.DirectSample]](w * h),
		IndirectDiffuseReservoirs:  gbuffer.NewRing[restir.Reservoir[restir.IndirectSample]](hw * hh),
		IndirectSpecularReservoirs: gbuffer.NewRing[restir.Reservoir[restir.IndirectSample]](hw * hh),

		SecondaryGBufferDiffuse:  make([]gbuffer.Entry, hw*hh),
		SecondaryGBufferSpecular: make([]gbuffer.Entry, hw*hh),
		IndirectRayDirDiffuse:    make([]core.Vec3, hw*hh),
		IndirectRayDirSpecular:   make([]core.Vec3, hw*hh),

		DirectRadiance:           make([]core.Vec3, w*h),
		IndirectDiffuseRadiance:  make([]core.Vec3, hw*hh),
		IndirectSpecularRadiance: make([]core.Vec3, hw*hh),

		Heatmap: telemetry.NewHeatmap(w, h),
		pool:    pool,
	}
}

func (f *Frame) idx(x, y int) int     { return y*f.Width + x }
func (f *Frame) halfIdx(x, y int) int { return y*f.HalfWidth + x }

// rng returns the deterministic white-noise stream for one pixel within
// one named pass of this frame (spec.md §9's PRNG seeding contract).
func (f *Frame) rng(x, y int, pass uint32) *rand.Rand {
	return noise.WhiteNoise(f.Seed, int32(x), int32(y), pass)
}

// blueNoise returns the deterministic blue-noise surrogate stream for one
// pixel within one named pass of this frame.
func (f *Frame) blueNoise(x, y int, pass uint32) *noise.BlueNoise {
	return noise.NewBlueNoise(f.Seed, int32(x), int32(y), pass)
}

// dispatchTiles runs fn once per pixel, tiled across the worker pool
// (internal/dispatch), over a width x height domain.
func (f *Frame) dispatchTiles(ctx context.Context, width, height int, fn func(x, y int)) error {
	return f.pool.RunPass(ctx, width, height, func(tile dispatch.Tile) {
		for y := tile.Y0; y < tile.Y1; y++ {
			for x := tile.X0; x < tile.X1; x++ {
				fn(x, y)
			}
		}
	})
}

// EndFrame swaps every reservoir ring and the G-buffer history, advancing
// to the next frame (spec.md §4.10's "swap curr/prev reservoirs", applied
// to every domain this frame touched).
func (f *Frame) EndFrame() {
	f.DirectReservoirs.Swap()
	f.IndirectDiffuseReservoirs.Swap()
	f.IndirectSpecularReservoirs.Swap()
	copy(f.GBufferPrev, f.GBuffer)
	f.Index++
}

// pass identifiers, used only to decorrelate PRNG streams between passes
// that otherwise share a pixel coordinate and frame seed.
const (
	passReprojection uint32 = iota
	passDirectInitialLight
	passDirectInitialSky
	passDirectTemporal
	passDirectSpatial
	passIndirectTraceDirection
	passIndirectInitialLight
	passIndirectInitialSky
	passIndirectTemporalDiffuse
	passIndirectTemporalSpecular
	passIndirectSpatialDiffuse
	passIndirectSpatialSpecular
	passIndirectInitialLightSpecular
	passIndirectInitialSkySpecular
)
