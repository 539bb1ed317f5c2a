// Package gbuffer holds the per-pixel records the reservoir pipeline reads
// and writes between passes: the primary visibility G-buffer, the
// reprojection map, and a generic double-buffered ring for reservoir
// storage. Packing into the two-RGBA32F-word layout spec.md describes is
// implementation-local (spec.md §3), so Entry is kept as a plain Go
// struct; Pack/Unpack exist only to demonstrate the wire shape a real GPU
// upload would use.
package gbuffer

import "github.com/restirgo/restir/pkg/core"

// Entry is one pixel's primary-visibility G-buffer record: hit point,
// material parameters and depth, matching spec.md's "G-buffer entry (per
// pixel, two RGBA32F words)".
type Entry struct {
	Position    core.Vec3
	Normal      core.Vec3
	BaseColor   core.Vec3
	Metallic    float64
	Emissive    core.Vec3
	Roughness   float64
	Reflectance float64
	Depth       float64
	Valid       bool // false marks "missing primary hit" (spec.md §4.12)
	Escaped     bool // true when the primary ray left the scene and this entry is the sky escape record
}

// Word0 and Word1 are the two RGBA32F-equivalent words a real compute
// shader would read this entry as.
type Word0 struct{ R, G, B, A float32 } // base_color.rgb, metallic
type Word1 struct{ R, G, B, A float32 } // normal.xy (octahedral), roughness+reflectance packed, depth

// Pack encodes the entry into its two-word wire form. The normal is
// stored octahedral-encoded (see pkg/core's EncodeOctahedral) to fit
// two floats instead of three.
func (e Entry) Pack() (Word0, Word1) {
	oct := core.EncodeOctahedral(e.Normal)
	w0 := Word0{R: float32(e.BaseColor.X), G: float32(e.BaseColor.Y), B: float32(e.BaseColor.Z), A: float32(e.Metallic)}
	w1 := Word1{R: float32(oct.X), G: float32(oct.Y), B: float32(packRoughReflectance(e.Roughness, e.Reflectance)), A: float32(e.Depth)}
	return w0, w1
}

// Unpack rebuilds an Entry from its packed wire words. Emissive isn't
// carried in the two-word layout here (mirroring the real system keeping
// emissive in a separate attachment); callers that need it should read it
// from the scene material directly.
func Unpack(w0 Word0, w1 Word1) Entry {
	normal := core.DecodeOctahedral(core.Vec2{X: float64(w1.R), Y: float64(w1.G)})
	roughness, reflectance := unpackRoughReflectance(float64(w1.B))
	return Entry{
		BaseColor:   core.Vec3{X: float64(w0.R), Y: float64(w0.G), Z: float64(w0.B)},
		Metallic:    float64(w0.A),
		Normal:      normal,
		Roughness:   roughness,
		Reflectance: reflectance,
		Depth:       float64(w1.A),
		Valid:       true,
	}
}

// packRoughReflectance folds two [0,1] values into one float32-precision
// channel: reflectance in the low 12 bits, roughness in the next 12,
// together filling float32's 24-bit significand exactly.
func packRoughReflectance(roughness, reflectance float64) float64 {
	const scale = 4095.0
	r := uint32(clamp01(roughness) * scale)
	f := uint32(clamp01(reflectance) * scale)
	return float64(r<<12 | f)
}

func unpackRoughReflectance(packed float64) (roughness, reflectance float64) {
	const scale = 4095.0
	bits := uint32(packed)
	roughness = float64(bits>>12) / scale
	reflectance = float64(bits&0xFFF) / scale
	return roughness, reflectance
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
