package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
)

func TestResolveIndirectDomain_EmptyReservoirYieldsZero(t *testing.T) {
	primary := gbuffer.Entry{Valid: true, Position: core.Vec3{X: 0, Y: 0, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0}}
	res := restir.Reservoir[restir.IndirectSample]{}

	got := resolveIndirectDomain(primary, res)

	assert.True(t, got.IsZero())
}

func TestResolveIndirectDomain_CoincidentSamplePointYieldsZero(t *testing.T) {
	primary := gbuffer.Entry{Valid: true, Position: core.Vec3{X: 1, Y: 2, Z: 3}, Normal: core.Vec3{X: 0, Y: 1, Z: 0}}
	res := restir.Reservoir[restir.IndirectSample]{
		Sample: restir.IndirectSample{SamplePoint: core.Vec3{X: 1, Y: 2, Z: 3}, Radiance: core.Vec3{X: 1, Y: 1, Z: 1}},
		MSum:   1, W: 1,
	}

	got := resolveIndirectDomain(primary, res)

	assert.True(t, got.IsZero())
}

func TestResolveIndirectDomain_ReconnectsFromCurrentPrimary(t *testing.T) {
	primary := gbuffer.Entry{Valid: true, Position: core.Vec3{X: 0, Y: 0, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0}}
	res := restir.Reservoir[restir.IndirectSample]{
		Sample: restir.IndirectSample{
			SamplePoint: core.Vec3{X: 0, Y: 2, Z: 0}, // straight up: full cosine term
			Radiance:    core.Vec3{X: 2, Y: 4, Z: 6},
		},
		MSum: 1, W: 0.5,
	}

	got := resolveIndirectDomain(primary, res)

	want := res.Sample.Radiance.Multiply(res.W) // cosine == 1
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestResolveIndirectDomain_BackFacingSampleYieldsZero(t *testing.T) {
	primary := gbuffer.Entry{Valid: true, Position: core.Vec3{X: 0, Y: 0, Z: 0}, Normal: core.Vec3{X: 0, Y: 1, Z: 0}}
	res := restir.Reservoir[restir.IndirectSample]{
		Sample: restir.IndirectSample{
			SamplePoint: core.Vec3{X: 0, Y: -2, Z: 0}, // below the surface: cosine <= 0
			Radiance:    core.Vec3{X: 2, Y: 4, Z: 6},
		},
		MSum: 1, W: 0.5,
	}

	got := resolveIndirectDomain(primary, res)

	assert.True(t, got.IsZero())
}

func TestRunIndirectResolve_NoPrimaryZeroesBothDomains(t *testing.T) {
	f, _, _, _ := newTestFrame(4, 4)
	f.IndirectDiffuseRadiance[0] = core.Vec3{X: 1, Y: 1, Z: 1}
	f.IndirectSpecularRadiance[0] = core.Vec3{X: 1, Y: 1, Z: 1}
	// f.GBuffer stays entirely zero-valued (Valid: false), so every
	// quincunx cell's primary lookup misses.

	runIndirectResolve(f, 0, 0)

	assert.True(t, f.IndirectDiffuseRadiance[0].IsZero())
	assert.True(t, f.IndirectSpecularRadiance[0].IsZero())
}
