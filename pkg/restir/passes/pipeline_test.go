package passes

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restirgo/restir/internal/restirlog"
)

func isFiniteVec3(t *testing.T, label string, v [3]float64) {
	t.Helper()
	for i, c := range v {
		assert.Falsef(t, math.IsNaN(c) || math.IsInf(c, 0), "%s channel %d is %v", label, i, c)
		assert.GreaterOrEqualf(t, c, 0.0, "%s channel %d is negative: %v", label, i, c)
	}
}

func TestPipeline_RunFrame_FirstFrameProducesFiniteOutput(t *testing.T) {
	f, tree, world, cam := newTestFrame(12, 12)
	f.GBuffer = traceGBuffer(cam, tree, world, f.Width, f.Height)

	p := NewPipeline()
	require.NoError(t, p.RunFrame(context.Background(), f))

	sawHit := false
	for i, hit := range f.GBuffer {
		if !hit.Valid || hit.Escaped {
			continue
		}
		sawHit = true
		d := f.DirectRadiance[i]
		isFiniteVec3(t, "direct radiance", [3]float64{d.X, d.Y, d.Z})
	}
	assert.True(t, sawHit, "expected the floor to be visible to at least one pixel")

	for i := range f.IndirectDiffuseRadiance {
		d := f.IndirectDiffuseRadiance[i]
		isFiniteVec3(t, "indirect diffuse radiance", [3]float64{d.X, d.Y, d.Z})
		s := f.IndirectSpecularRadiance[i]
		isFiniteVec3(t, "indirect specular radiance", [3]float64{s.X, s.Y, s.Z})
	}
}

func TestPipeline_RunFrame_SwapsReservoirHistoryAcrossFrames(t *testing.T) {
	f, tree, world, cam := newTestFrame(12, 12)
	p := NewPipeline()

	f.GBuffer = traceGBuffer(cam, tree, world, f.Width, f.Height)
	require.NoError(t, p.RunFrame(context.Background(), f))

	// EndFrame must have swapped curr into prev and advanced the frame index.
	assert.Equal(t, 1, f.Index)

	var sawPriorEvidence bool
	for _, res := range f.DirectReservoirs.Prev() {
		if res.MSum > 0 {
			sawPriorEvidence = true
			break
		}
	}
	assert.True(t, sawPriorEvidence, "expected the first frame's direct reservoirs to carry into history")

	// Second frame: same static camera and scene, so temporal resampling
	// should find matching history and keep accumulating m_sum.
	f.GBuffer = traceGBuffer(cam, tree, world, f.Width, f.Height)
	require.NoError(t, p.RunFrame(context.Background(), f))
	assert.Equal(t, 2, f.Index)

	var sawAccumulation bool
	for _, res := range f.DirectReservoirs.Prev() {
		if res.MSum > 1 {
			sawAccumulation = true
			break
		}
	}
	assert.True(t, sawAccumulation, "expected temporal reuse to accumulate m_sum under a static camera")
}

func TestPipeline_RenderReference_MatchesGBufferValidity(t *testing.T) {
	f, tree, world, cam := newTestFrame(8, 8)
	f.GBuffer = traceGBuffer(cam, tree, world, f.Width, f.Height)

	p := NewPipeline()
	out := p.RenderReference(f, 8)

	require.Len(t, out, f.Width*f.Height)
	for i, hit := range f.GBuffer {
		v := out[i]
		if !hit.Valid {
			assert.True(t, v.IsZero())
			continue
		}
		isFiniteVec3(t, "reference radiance", [3]float64{v.X, v.Y, v.Z})
	}
}

func TestPipeline_RunFrame_RunsAllTenStagesWithLoggerAttached(t *testing.T) {
	f, tree, world, cam := newTestFrame(8, 8)
	f.GBuffer = traceGBuffer(cam, tree, world, f.Width, f.Height)

	logger, err := restirlog.NewZapDevelopment()
	require.NoError(t, err)
	f.Logger = logger

	p := NewPipeline()
	require.NoError(t, p.RunFrame(context.Background(), f))
	assert.Len(t, p.stages, 10, "expected ten pipeline stages")
}
