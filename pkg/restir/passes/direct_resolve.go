package passes

import (
	"context"

	"github.com/restirgo/restir/pkg/core"
)

// DirectResolving is spec.md §2 step 6: emit the shaded direct radiance
// from each pixel's final reservoir, after temporal (§4.4) and spatial
// (§4.5) reuse have had their turn. It re-tests visibility against the
// reservoir's selected sample at the current surface — the same shadow
// query direct initial shading's selected sample got — then weights the
// result by the reservoir's resolved contribution weight W.
type DirectResolving struct{}

func (DirectResolving) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.Width, f.Height, func(x, y int) {
		runDirectResolve(f, x, y)
	})
}

func runDirectResolve(f *Frame, x, y int) {
	idx := f.idx(x, y)
	hit := f.GBuffer[idx]
	if !hit.Valid {
		f.DirectRadiance[idx] = core.Vec3{}
		return
	}

	res := f.DirectReservoirs.Curr()[idx]
	if res.MSum <= 0 {
		f.DirectRadiance[idx] = core.Vec3{}
		return
	}

	shaded := resolveDirectSample(f, hit, res.Sample)
	f.DirectRadiance[idx] = shaded.Multiply(res.W)
}
