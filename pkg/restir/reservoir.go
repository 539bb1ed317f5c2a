// Package restir implements the reservoir resampling algebra and sample
// types at the heart of the pipeline: weighted reservoir sampling's four
// primitive operations (new/add/merge/normalize), the direct and indirect
// sample payloads they carry, and the quincunx half-res/full-res
// upsampling schedule shared by every half-resolution pass.
package restir

import "math/rand"

// Sample is the constraint every reservoir payload satisfies: a target
// function value used to weight resampling. DirectSample and
// IndirectSample are the two instantiations this pipeline uses.
type Sample interface {
	PHat() float64
}

// normalizeEpsilon is the ε floor used by Normalize's denominator, per
// the reservoir algebra's definition: w = clamp(w_sum / max(m_sum*p_hat, ε), 0, max_w).
const normalizeEpsilon = 1e-3

// Reservoir holds a single reweighted sample plus the bookkeeping needed
// to keep combining it with more candidates: the running weight sum, the
// candidate count, and the resolved unbiased contribution weight.
type Reservoir[T Sample] struct {
	Sample T
	WSum   float64
	MSum   float64
	W      float64
}

// New constructs a reservoir holding a single sample s with initial
// weight w: w_sum=w, w=1, m_sum = (w==0 ? 0 : 1).
func New[T Sample](s T, w float64) Reservoir[T] {
	m := 0.0
	if w != 0 {
		m = 1
	}
	return Reservoir[T]{Sample: s, WSum: w, W: 1, MSum: m}
}

// Add streams a new candidate into the reservoir: w_sum += w_new; m_sum
// += 1; then, with probability w_new/w_sum, the candidate replaces the
// held sample. Returns whether the candidate was accepted.
func (r *Reservoir[T]) Add(rng *rand.Rand, s T, w float64) bool {
	r.WSum += w
	r.MSum++

	if r.WSum <= 0 {
		return false
	}
	if rng.Float64() <= w/r.WSum {
		r.Sample = s
		return true
	}
	return false
}

// Merge folds another reservoir's held sample into this one as a single
// candidate, weighted by the neighbor's resolved weight W, its m_sum and the target
// function p_hat evaluated at the *receiving* surface. Reports whether
// the merge happened at all (it's a no-op, returning false, when rhs
// carries no evidence).
func (r *Reservoir[T]) Merge(rng *rand.Rand, rhs Reservoir[T], pHat float64) bool {
	if rhs.MSum <= 0 {
		return false
	}
	r.MSum += rhs.MSum - 1
	r.Add(rng, rhs.Sample, rhs.W*rhs.MSum*pHat)
	return true
}

// Normalize resolves the reservoir's unbiased contribution weight from
// the target function evaluated at the current surface, then caps both w
// and m_sum to the domain's configured limits.
func (r *Reservoir[T]) Normalize(pHat, maxW, maxM float64) {
	denom := r.MSum * pHat
	if denom < normalizeEpsilon {
		denom = normalizeEpsilon
	}

	w := r.WSum / denom
	r.W = clamp(w, 0, maxW)
	if r.MSum > maxM {
		r.MSum = maxM
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Caps bundles the (max_w, max_m) pair a Normalize call uses. spec.md's
// representative values are exposed as package-level defaults below.
type Caps struct {
	MaxW float64
	MaxM float64
}

var (
	// DirectCaps is used by direct temporal and spatial resampling.
	DirectCaps = Caps{MaxW: 5, MaxM: 10}
	// IndirectDiffuseTemporalCaps is used by indirect diffuse temporal resampling.
	IndirectDiffuseTemporalCaps = Caps{MaxW: 10, MaxM: 20}
	// IndirectDiffuseSpatialCaps is used by indirect diffuse spatial resampling.
	IndirectDiffuseSpatialCaps = Caps{MaxW: 10, MaxM: 500}
	// IndirectTemporalCaps is the generic (specular) indirect temporal cap.
	IndirectTemporalCaps = Caps{MaxW: 10, MaxM: 30}
)
