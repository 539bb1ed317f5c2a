package passes

import (
	"context"
	"math"

	"github.com/restirgo/restir/pkg/restir"
)

// IndirectSpatialResampling merges up to K neighbor half-res reservoirs
// per domain, gated by geometric similarity and recomputing p_hat at the
// current surface, with per-domain radii and caps (spec.md §4.9).
type IndirectSpatialResampling struct{}

func (IndirectSpatialResampling) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.HalfWidth, f.HalfHeight, func(hx, hy int) {
		runIndirectSpatialDomain(
			f, hx, hy, passIndirectSpatialDiffuse, f.Config.IndirectDiffuseSpatialRadius,
			f.IndirectDiffuseReservoirs.Curr(), f.Config.IndirectDiffuseSpatialCaps,
		)
		runIndirectSpatialDomain(
			f, hx, hy, passIndirectSpatialSpecular, f.Config.IndirectSpecularSpatialRadius,
			f.IndirectSpecularReservoirs.Curr(), f.Config.IndirectTemporalCaps,
		)
	})
}

func runIndirectSpatialDomain(f *Frame, hx, hy int, pass uint32, radius float64, reservoirs []restir.Reservoir[restir.IndirectSample], caps restir.Caps) {
	hidx := f.halfIdx(hx, hy)
	primary, ok := f.primaryEntryForCell(hx, hy)
	if !ok || !primary.Valid {
		return
	}

	res := reservoirs[hidx]
	rng := f.rng(hx, hy, pass)
	jx, jy := frameJitter(uint32(f.Index), hx, hy)

	for try := 0; try < f.Config.IndirectSpatialTries && try < len(spatialOffsets); try++ {
		offset := spatialOffsets[try]
		nx := hx + jx + int(math.Round(offset[0]*radius/8))
		ny := hy + jy + int(math.Round(offset[1]*radius/8))
		if nx < 0 || nx >= f.HalfWidth || ny < 0 || ny >= f.HalfHeight {
			continue
		}

		neighborPrimary, ok := f.primaryEntryForCell(nx, ny)
		if !ok || !neighborPrimary.Valid || evaluateSimilarity(primary, neighborPrimary) < f.Config.SimilarityThreshold {
			continue
		}

		neighbor := reservoirs[f.halfIdx(nx, ny)]
		res.Merge(rng, neighbor, neighbor.Sample.TemporalPHat())
	}

	res.Normalize(res.Sample.TemporalPHat(), caps.MaxW, caps.MaxM)
	reservoirs[hidx] = res
}
