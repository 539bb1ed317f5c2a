package passes

import (
	"context"
	"math"
)

// spatialOffsets is a small low-discrepancy pattern of unit-disk
// directions, scaled by a configured radius and jittered per-frame via
// XOR with a frame-indexed integer (spec.md §4.5: "a low-discrepancy
// pattern ... jittered per-frame via XOR with a frame-indexed 2D
// value").
var spatialOffsets = [5][2]float64{
	{1, 0},
	{0.309, 0.951},
	{-0.809, 0.588},
	{-0.809, -0.588},
	{0.309, -0.951},
}

// frameJitter XORs the frame index against the pixel coordinate to
// produce a deterministic per-frame rotation of the offset pattern.
func frameJitter(frame uint32, x, y int) (jx, jy int) {
	mixed := (uint32(x)*2654435761 ^ uint32(y)*40503 ^ frame) & 0xFF
	return int(mixed % 16) - 8, int((mixed / 16) % 16) - 8
}

// DirectSpatialResampling reuses up to K ≈ 5 neighbor pixels' direct
// reservoirs, rejecting dissimilar surfaces and recomputing p_hat at the
// current surface before merging (spec.md §4.5).
type DirectSpatialResampling struct{}

func (DirectSpatialResampling) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.Width, f.Height, func(x, y int) {
		runDirectSpatial(f, x, y)
	})
}

func runDirectSpatial(f *Frame, x, y int) {
	idx := f.idx(x, y)
	hit := f.GBuffer[idx]
	if !hit.Valid {
		return
	}

	res := f.DirectReservoirs.Curr()[idx]
	rng := f.rng(x, y, passDirectSpatial)
	jx, jy := frameJitter(uint32(f.Index), x, y)

	for try := 0; try < f.Config.DirectSpatialTries && try < len(spatialOffsets); try++ {
		offset := spatialOffsets[try]
		nx := x + jx + int(math.Round(offset[0]*f.Config.DirectSpatialRadius))
		ny := y + jy + int(math.Round(offset[1]*f.Config.DirectSpatialRadius))
		if nx < 0 || nx >= f.Width || ny < 0 || ny >= f.Height {
			continue
		}

		neighborHit := f.GBuffer[f.idx(nx, ny)]
		if evaluateSimilarity(hit, neighborHit) < f.Config.SimilarityThreshold {
			continue
		}

		neighbor := f.DirectReservoirs.Curr()[f.idx(nx, ny)]
		res.Merge(rng, neighbor, directPHatAtSurface(f, hit, neighbor.Sample))
	}

	res.Normalize(res.Sample.PHat(), f.Config.DirectCaps.MaxW, f.Config.DirectCaps.MaxM)
	f.DirectReservoirs.Curr()[idx] = res
}
