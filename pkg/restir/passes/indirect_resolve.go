package passes

import (
	"context"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
)

// IndirectResolving is spec.md §4.10: compute each half-res cell's
// outgoing indirect radiance, per domain, as w * cosine(primary_hit,
// sample) * radiance from the final (post temporal+spatial) reservoir.
// The cosine term reconnects from the current pixel's primary surface to
// whichever sample's secondary hit point survived resampling — which may
// have arrived from a neighbor or a past frame with a different
// HitPoint, so the direction is recomputed here rather than reused from
// the original trace.
type IndirectResolving struct{}

func (IndirectResolving) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.HalfWidth, f.HalfHeight, func(hx, hy int) {
		runIndirectResolve(f, hx, hy)
	})
}

func runIndirectResolve(f *Frame, hx, hy int) {
	hidx := f.halfIdx(hx, hy)
	primary, ok := f.primaryEntryForCell(hx, hy)
	if !ok || !primary.Valid {
		f.IndirectDiffuseRadiance[hidx] = core.Vec3{}
		f.IndirectSpecularRadiance[hidx] = core.Vec3{}
		return
	}

	f.IndirectDiffuseRadiance[hidx] = resolveIndirectDomain(primary, f.IndirectDiffuseReservoirs.Curr()[hidx])
	f.IndirectSpecularRadiance[hidx] = resolveIndirectDomain(primary, f.IndirectSpecularReservoirs.Curr()[hidx])
}

// resolveIndirectDomain implements the w * cosine * radiance resolve for
// one domain's reservoir against the current pixel's primary surface.
func resolveIndirectDomain(primary gbuffer.Entry, res restir.Reservoir[restir.IndirectSample]) core.Vec3 {
	if res.MSum <= 0 {
		return core.Vec3{}
	}

	toSample := res.Sample.SamplePoint.Subtract(primary.Position)
	if toSample.LengthSquared() <= 0 {
		return core.Vec3{}
	}

	dir := toSample.Normalize()
	cosine := maxf(0, dir.Dot(primary.Normal))
	return res.Sample.Radiance.Multiply(res.W * cosine)
}
