package passes

import (
	"context"
	"math"

	"github.com/restirgo/restir/pkg/gbuffer"
)

// depthAgreementK is the k in exp(-|z_curr - z_prev| / (k * z_curr)),
// per spec.md §4.2.
const depthAgreementK = 0.1

// normalAgreementPower is the small integer power normal agreement is
// raised to (spec.md §4.2: "raised to a small integer power").
const normalAgreementPower = 4

// Reprojection is the first internal pass: for each current pixel,
// reconstruct its previous-frame screen position and a confidence score
// combining normal, depth and screen-bounds agreement (spec.md §4.2).
type Reprojection struct{}

// Run computes f.Reprojection from f.GBuffer, f.GBufferPrev, f.CamCurr
// and f.CamPrev.
func (Reprojection) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.Width, f.Height, func(x, y int) {
		f.Reprojection[f.idx(x, y)] = reprojectPixel(f, x, y)
	})
}

func reprojectPixel(f *Frame, x, y int) gbuffer.ReprojectionEntry {
	curr := f.GBuffer[f.idx(x, y)]
	if !curr.Valid {
		return gbuffer.Invalid()
	}

	prevScreen, _, inBounds := f.CamPrev.Project(curr.Position)
	if !inBounds {
		return gbuffer.Invalid()
	}

	px, py := int(prevScreen.X), int(prevScreen.Y)
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		return gbuffer.Invalid()
	}

	prev := f.GBufferPrev[f.idx(px, py)]
	if !prev.Valid {
		return gbuffer.Invalid()
	}

	normalAgreement := math.Pow(maxf(0, curr.Normal.Dot(prev.Normal)), normalAgreementPower)
	depthAgreement := math.Exp(-math.Abs(curr.Depth-prev.Depth) / (depthAgreementK * maxf(curr.Depth, 1e-6)))

	confidence := normalAgreement * depthAgreement
	if confidence <= 1e-6 {
		return gbuffer.Invalid()
	}

	return gbuffer.ReprojectionEntry{PrevScreenPos: prevScreen, Confidence: clamp01(confidence)}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// evaluateSimilarity scores how similar two G-buffer surfaces are,
// feeding every "similarity < 0.5" gate in spec.md §4.4, §4.5, §4.8 and
// §4.9. It's the same normal/depth agreement product reprojectPixel uses,
// but evaluated between two arbitrary surfaces rather than curr/prev at
// the same pixel.
func evaluateSimilarity(a, b gbuffer.Entry) float64 {
	if !a.Valid || !b.Valid {
		return 0
	}
	normalAgreement := math.Pow(maxf(0, a.Normal.Dot(b.Normal)), normalAgreementPower)
	depthAgreement := math.Exp(-math.Abs(a.Depth-b.Depth) / (depthAgreementK * maxf(a.Depth, 1e-6)))
	return clamp01(normalAgreement * depthAgreement)
}
