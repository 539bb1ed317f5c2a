package passes

import (
	"context"
	"math"

	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
)

// diffuseInlineSpatialOffsets is the (±1,±1) neighbor pattern the
// diffuse temporal pass additionally folds in (spec.md §4.8).
var diffuseInlineSpatialOffsets = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// IndirectTemporalResampling merges each domain's reprojected
// previous-frame half-res reservoir into the current one, applying
// confidence², migration compatibility and frame-age attenuation before
// the merge (spec.md §4.8).
type IndirectTemporalResampling struct{}

func (IndirectTemporalResampling) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.HalfWidth, f.HalfHeight, func(hx, hy int) {
		runIndirectTemporalDiffuse(f, hx, hy)
		runIndirectTemporalSpecular(f, hx, hy)
	})
}

func runIndirectTemporalDiffuse(f *Frame, hx, hy int) {
	hidx := f.halfIdx(hx, hy)
	primary, ok := f.primaryEntryForCell(hx, hy)
	if !ok || !primary.Valid {
		return
	}

	res := f.IndirectDiffuseReservoirs.Curr()[hidx]
	rng := f.rng(hx, hy, passIndirectTemporalDiffuse)

	reproj, prevHX, prevHY, migration := f.reprojectedHalfCell(hx, hy, primary)
	if reproj.Valid() && migration >= f.Config.SimilarityThreshold {
		prior := f.IndirectDiffuseReservoirs.Prev()[f.halfIdx(prevHX, prevHY)]
		scalePriorMSum(f, &prior, reproj.Confidence, migration)
		res.Merge(rng, prior, prior.Sample.TemporalPHat())
	}

	// Diffuse variant's inline spatial step (spec.md §4.8): up to 4
	// (±1,±1) neighbors, XOR-jittered per frame; when reprojection
	// failed entirely, start from a disk-radius-16px jitter instead and
	// weaken each neighbor's evidence by taking sqrt(m_sum).
	baseX, baseY := hx, hy
	if !reproj.Valid() {
		jx, jy := frameJitter(uint32(f.Index), hx, hy)
		baseX = hx + jx*16/8
		baseY = hy + jy*16/8
	}

	for i, off := range diffuseInlineSpatialOffsets {
		jx, jy := frameJitter(uint32(f.Index)+uint32(i), hx, hy)
		nx := baseX + off[0] + jx%2
		ny := baseY + off[1] + jy%2
		if nx < 0 || nx >= f.HalfWidth || ny < 0 || ny >= f.HalfHeight {
			continue
		}

		neighborPrimary, ok := f.primaryEntryForCell(nx, ny)
		if !ok || !neighborPrimary.Valid || evaluateSimilarity(primary, neighborPrimary) < f.Config.SimilarityThreshold {
			continue
		}

		neighbor := f.IndirectDiffuseReservoirs.Curr()[f.halfIdx(nx, ny)]
		if !reproj.Valid() {
			neighbor.MSum = math.Sqrt(math.Max(neighbor.MSum, 0))
		}
		res.Merge(rng, neighbor, neighbor.Sample.TemporalPHat())
	}

	res.Normalize(res.Sample.TemporalPHat(), f.Config.IndirectDiffuseTemporalCaps.MaxW, f.Config.IndirectDiffuseTemporalCaps.MaxM)
	f.IndirectDiffuseReservoirs.Curr()[hidx] = res
}

func runIndirectTemporalSpecular(f *Frame, hx, hy int) {
	hidx := f.halfIdx(hx, hy)
	primary, ok := f.primaryEntryForCell(hx, hy)
	if !ok || !primary.Valid {
		return
	}

	res := f.IndirectSpecularReservoirs.Curr()[hidx]
	rng := f.rng(hx, hy, passIndirectTemporalSpecular)

	reproj, prevHX, prevHY, migration := f.reprojectedHalfCell(hx, hy, primary)
	if reproj.Valid() && migration >= f.Config.SimilarityThreshold {
		prior := f.IndirectSpecularReservoirs.Prev()[f.halfIdx(prevHX, prevHY)]
		scalePriorMSum(f, &prior, reproj.Confidence, migration)
		res.Merge(rng, prior, prior.Sample.TemporalPHat())
	}

	res.Normalize(res.Sample.TemporalPHat(), f.Config.IndirectTemporalCaps.MaxW, f.Config.IndirectTemporalCaps.MaxM)
	f.IndirectSpecularReservoirs.Curr()[hidx] = res
}

// scalePriorMSum applies spec.md §4.8's two scalings plus the frame-age
// attenuation to a previous-frame reservoir's m_sum before it is merged.
func scalePriorMSum(f *Frame, prior *restir.Reservoir[restir.IndirectSample], confidence, migration float64) {
	prior.MSum *= confidence * confidence * migration

	age := restir.AgeOf(uint32(f.Index), prior.Sample.Frame)
	if f.Config.UseLegacyAgeAttenuation {
		prior.MSum *= restir.LegacyAgeAttenuation(age, f.Config.AgeAttenuationThreshold)
	} else {
		prior.MSum *= restir.AgeAttenuation(age, f.Config.AgeAttenuationThreshold)
	}
}

// primaryEntryForCell resolves a half-res cell's current-frame primary
// G-buffer entry via the quincunx upsample schedule.
func (f *Frame) primaryEntryForCell(hx, hy int) (gbuffer.Entry, bool) {
	px, py := f.primaryPixelForCell(hx, hy)
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		return gbuffer.Entry{}, false
	}
	return f.GBuffer[f.idx(px, py)], true
}

// reprojectedHalfCell resolves the half-res previous-frame cell a
// current half-res cell maps to, per spec.md §4.8's "prev_screen_pos /
// 2", along with the migration-compatibility score between the current
// and past primary surfaces.
func (f *Frame) reprojectedHalfCell(hx, hy int, primary gbuffer.Entry) (entry gbuffer.ReprojectionEntry, prevHX, prevHY int, migration float64) {
	px, py := f.primaryPixelForCell(hx, hy)
	reproj := f.Reprojection[f.idx(px, py)]
	if !reproj.Valid() {
		return gbuffer.Invalid(), 0, 0, 0
	}

	prevX, prevY := int(reproj.PrevScreenPos.X), int(reproj.PrevScreenPos.Y)
	prevHX, prevHY = prevX/2, prevY/2
	if prevHX < 0 || prevHX >= f.HalfWidth || prevHY < 0 || prevHY >= f.HalfHeight {
		return gbuffer.Invalid(), 0, 0, 0
	}

	pastPrimary := f.GBufferPrev[f.idx(prevX, prevY)]
	migration = evaluateSimilarity(primary, pastPrimary)
	return reproj, prevHX, prevHY, migration
}
