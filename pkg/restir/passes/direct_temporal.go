package passes

import (
	"context"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
	"github.com/restirgo/restir/pkg/scene"
)

// DirectTemporalResampling merges the reprojected previous-frame direct
// reservoir into the current one, down-weighting it by confidence² and
// skipping the merge entirely when reprojection is invalid or the
// surfaces disagree (spec.md §4.4).
type DirectTemporalResampling struct{}

func (DirectTemporalResampling) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.Width, f.Height, func(x, y int) {
		runDirectTemporal(f, x, y)
	})
}

func runDirectTemporal(f *Frame, x, y int) {
	idx := f.idx(x, y)
	hit := f.GBuffer[idx]
	if !hit.Valid {
		return
	}

	res := f.DirectReservoirs.Curr()[idx]
	reproj := f.Reprojection[idx]

	if reproj.Valid() {
		px, py := int(reproj.PrevScreenPos.X), int(reproj.PrevScreenPos.Y)
		if px >= 0 && px < f.Width && py >= 0 && py < f.Height {
			prevHit := f.GBufferPrev[f.idx(px, py)]
			if evaluateSimilarity(hit, prevHit) >= f.Config.SimilarityThreshold {
				prior := f.DirectReservoirs.Prev()[f.idx(px, py)]
				prior.MSum *= reproj.Confidence * reproj.Confidence

				rng := f.rng(x, y, passDirectTemporal)
				res.Merge(rng, prior, directPHatAtSurface(f, hit, prior.Sample))
			}
		}
	}

	res.Normalize(res.Sample.PHat(), f.Config.DirectCaps.MaxW, f.Config.DirectCaps.MaxM)
	f.DirectReservoirs.Curr()[idx] = res
}

// directPHatAtSurface recomputes a direct sample's target function as if
// its light had been re-evaluated at the given surface, per spec.md
// §4.4/§4.5's "p_hat at the current surface" requirement. Sky samples
// carry their contribution directly since they have no light to
// re-sample.
func directPHatAtSurface(f *Frame, hit gbuffer.Entry, sample restir.DirectSample) float64 {
	if sample.LightID == restir.SkyLight {
		return sample.LightContribution.Luminance()
	}

	light := f.World.Light(scene.LightID(sample.LightID))
	mat := scene.Material{BaseColor: hit.BaseColor, Metallic: hit.Metallic, Roughness: hit.Roughness, Reflectance: hit.Reflectance}
	viewDir := f.CamCurr.Position.Subtract(hit.Position).Normalize()

	ls := light.Sample(hit.Position, core.Vec2{})
	contribution := light.Contribution(ls, mat, hit.Normal, viewDir)
	return contribution.Luminance()
}
