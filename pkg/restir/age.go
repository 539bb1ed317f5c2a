package restir

// AgeAttenuationThreshold is the frame age beyond which indirect temporal
// reservoirs start being attenuated further (spec.md §4.8/§9).
const AgeAttenuationThreshold = 16

// MaxReservoirAge is the saturation cap spec.md §9 calls for: with 32-bit
// frame counters, wraparound is possible, so age is computed with
// wrapping subtraction and capped here rather than allowed to explode.
const MaxReservoirAge = 64

// AgeOf computes a prior sample's age relative to the current frame using
// wrapping uint32 subtraction (spec.md §9: "the age computation must use
// wrapping subtraction and saturate at a documented cap"), saturating at
// MaxReservoirAge.
func AgeOf(currentFrame, sampleFrame uint32) float64 {
	age := currentFrame - sampleFrame
	if age > MaxReservoirAge {
		return MaxReservoirAge
	}
	return float64(age)
}

// ageAttenuationSpan is the denominator of the attenuation ramp (spec.md
// §9: "1 - (16-age)/32" in the original, corrected below).
const ageAttenuationSpan = 32

// AgeAttenuation is the corrected form of spec.md §4.8's "if the prior
// sample's age exceeds 16 frames, attenuate further by 1 - (16-age)/32":
// taken literally, that formula grows past 1 as age increases past 16
// (1 - (16-age)/32 = 1 + (age-16)/32), which amplifies old samples
// instead of forgetting them. The corrected form clamps the ramp to
// [0,1] so old reservoirs decay toward zero weight instead of growing.
// Ages at or below the threshold are left unattenuated (factor 1).
func AgeAttenuation(age, threshold float64) float64 {
	if age <= threshold {
		return 1
	}
	return 1 - clamp((age-threshold)/ageAttenuationSpan, 0, 1)
}

// LegacyAgeAttenuation reproduces spec.md §9's original (buggy) formula
// verbatim, kept only so PipelineConfig.UseLegacyAgeAttenuation can
// reproduce the original behavior for comparison/debugging.
func LegacyAgeAttenuation(age, threshold float64) float64 {
	if age <= threshold {
		return 1
	}
	return 1 - (threshold-age)/ageAttenuationSpan
}
