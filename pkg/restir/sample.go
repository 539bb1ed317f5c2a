package restir

import "github.com/restirgo/restir/pkg/core"

// SkyLight is the reserved light_id sentinel meaning "the sky", used by
// DirectSample when the shading contribution came from the atmosphere
// rather than an indexed scene light.
const SkyLight uint32 = ^uint32(0)

// DirectSample is one candidate for direct-lighting reservoir resampling:
// which light it came from and the unshadowed radiance it contributed.
type DirectSample struct {
	LightID           uint32
	LightContribution core.Vec3
}

// PHat is the target function direct resampling weights by: the
// perceived (luminance) magnitude of the sample's contribution.
func (s DirectSample) PHat() float64 {
	return s.LightContribution.Luminance()
}

// minIndirectRadiance is the clamp floor spec.md's indirect sample
// carries so p_hat never collapses to exactly zero.
const minIndirectRadiance = 1e-4

// IndirectSample is one candidate for single-bounce indirect (GI)
// reservoir resampling: the traced radiance and the geometry needed to
// re-evaluate it from a different primary surface during spatial reuse.
type IndirectSample struct {
	Radiance     core.Vec3
	HitPoint     core.Vec3 // primary hit the ray was cast from
	SamplePoint  core.Vec3 // secondary hit (or a distant escape point)
	SampleNormal core.Vec2 // octahedral-encoded unit normal at SamplePoint
	Frame        uint32
}

// ClampRadiance floors each radiance channel to minIndirectRadiance,
// matching spec.md §4's "clamped to a minimum of 1e-4 to avoid zero p_hat".
func (s IndirectSample) ClampRadiance() IndirectSample {
	clamped := s
	clamped.Radiance = core.Vec3{
		X: maxf(s.Radiance.X, minIndirectRadiance),
		Y: maxf(s.Radiance.Y, minIndirectRadiance),
		Z: maxf(s.Radiance.Z, minIndirectRadiance),
	}
	return clamped
}

// PHat is the target function indirect resampling weights by.
func (s IndirectSample) PHat() float64 {
	return s.Radiance.Luminance()
}

// TemporalPHat is p_hat evaluated for temporal reuse. spec.md notes this
// is "identical up to a Jacobian correction that may be elided in an
// initial implementation" — we elide it, matching that guidance, and
// keep the method so callers have one name to call regardless.
func (s IndirectSample) TemporalPHat() float64 {
	return s.PHat()
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
