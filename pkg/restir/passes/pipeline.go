package passes

import (
	"context"
	"fmt"
	"strings"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/restir"
)

// Pass is any compute stage a Pipeline can sequence: one Run call over
// one Frame's buffers.
type Pass interface {
	Run(ctx context.Context, f *Frame) error
}

// Pipeline sequences the ten internal compute passes spec.md §2
// describes (everything between the external primary-visibility pass and
// the external denoise/composition stage) in their fixed per-frame order
// (spec.md §5: "the inter-pass order is a strict total order per
// frame"). Each stage is a zero-size pass value; Pipeline itself carries
// no mutable state beyond the ordering.
type Pipeline struct {
	stages []Pass
}

// NewPipeline builds a Pipeline with the default, spec-mandated stage
// order: reprojection, then the direct track (initial/temporal/
// spatial/resolve), then the indirect track (trace/shading/temporal/
// spatial/resolve).
func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: []Pass{
			Reprojection{},
			DirectInitialShading{},
			DirectTemporalResampling{},
			DirectSpatialResampling{},
			DirectResolving{},
			IndirectInitialTracing{},
			IndirectInitialShading{},
			IndirectTemporalResampling{},
			IndirectSpatialResampling{},
			IndirectResolving{},
		},
	}
}

// RunFrame executes every stage in order against f, returning the first
// error encountered (a stage's tile dispatch failing, or ctx being
// canceled). On success it swaps every reservoir ring and the G-buffer
// history via f.EndFrame, so the caller's next RunFrame call sees this
// frame's results as history (spec.md §4.10's "swap curr/prev
// reservoirs").
func (p *Pipeline) RunFrame(ctx context.Context, f *Frame) error {
	for _, stage := range p.stages {
		if err := stage.Run(ctx, f); err != nil {
			return err
		}
		if f.Logger != nil {
			f.Logger.WithFrame(uint32(f.Index)).WithPass(passName(stage), f.Width*f.Height).Printf("pass done")
		}
	}

	f.EndFrame()
	return nil
}

// passName derives a short per-pass identifier from a stage's dynamic
// type (e.g. "DirectTemporalResampling") for WithPass's "pass" field.
func passName(stage Pass) string {
	name := fmt.Sprintf("%T", stage)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// referencePass only decorrelates the reference integrator's PRNG stream
// from the regular pipeline passes; RenderReference never touches any
// reservoir so it shares no other pass identifier.
const referencePass uint32 = 1 << 16

// RenderReference computes a brute-force reference direct-lighting image
// via restir.ReferenceIntegrator directly from the frame's current
// primary G-buffer, touching no reservoir. It exists purely for
// debugging and the test suite's convergence comparisons (spec.md S1's
// "per-pixel variance ... below 1% of the converged mean" needs a
// converged baseline to compare the reservoir pipeline's output
// against).
func (p *Pipeline) RenderReference(f *Frame, samplesPerPixel int) []core.Vec3 {
	ref := restir.ReferenceIntegrator{
		World:              f.World,
		BVH:                f.BVH,
		Sky:                f.Sky,
		SunDirection:       f.sunDirection(),
		SkyExposureHit:     f.Config.SkyExposureHit,
		SkyExposureEscaped: f.Config.SkyExposureEscaped,
	}

	out := make([]core.Vec3, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			idx := f.idx(x, y)
			hit := f.GBuffer[idx]
			if !hit.Valid {
				continue
			}

			rng := f.rng(x, y, referencePass)
			viewDir := f.CamCurr.Position.Subtract(hit.Position).Normalize()
			out[idx] = ref.EstimateDirect(rng, hit, viewDir, samplesPerPixel)
		}
	}
	return out
}
