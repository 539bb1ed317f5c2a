package scene

import (
	"math"

	"github.com/restirgo/restir/pkg/core"
)

// LightKind tags which of the four light shapes a Light record describes.
// spec.md §6 treats sun/sky as lights like any other, so direct lighting's
// reservoir sampling (§4.3) never special-cases them beyond this tag.
type LightKind uint8

const (
	LightPoint LightKind = iota
	LightArea
	LightSun
	LightSky
)

// Light is a flat light record covering all four kinds named in spec.md
// §6. Unused fields for a given Kind are simply left zero; a Light is
// consumed by index (LightID) from a World's Lights slice, never through
// virtual dispatch.
type Light struct {
	Kind LightKind

	// Point/area.
	Position core.Vec3
	Radius   float64 // area light disc radius; 0 for a point light

	// Area light orientation (disc normal); also used as the sun's
	// incoming direction for LightSun.
	Normal core.Vec3

	// Shared.
	Color     core.Vec3
	Intensity float64

	// Sun only: angular radius in radians, controlling penumbra softness
	// of its shadow (not modeled further; interface-level per spec.md §1).
	AngularRadius float64
}

// LightID indexes into a World's Lights slice.
type LightID uint32

// LightSample is a drawn point on a light together with the geometric
// terms needed to turn it into radiance: direction from the shading
// point, distance (for point/area falloff and shadow-ray tMax), and a
// flag marking sky/sun lights as directionally infinite.
type LightSample struct {
	Light     LightID
	Direction core.Vec3
	Distance  float64
	Infinite  bool
}

// SkyExposureK and SkyExposureBoost are the single-bounce GI compensation
// constants from spec.md §4.3/§9 and the defaults of the config's
// SkyExposureEscaped and SkyExposureHit: a sky sample is scaled by
// SkyExposureK (k) when the primary ray escaped to the sky and by
// SkyExposureBoost (k/2) when it hit geometry, approximating the energy a
// full multi-bounce sky integral would otherwise contribute.
const (
	SkyExposureK      = 9.0
	SkyExposureBoost  = 4.5
	minLightDirection = 1e-6
)

// Sample draws a point on the light as seen from `from`, returning the
// direction, distance and infinite flag needed for a shadow ray and
// contribution evaluation (spec.md §4.2's "light sample" input).
// disk is a point in the unit disk (see core.RandomInUnitDisk), used to
// jitter the sample across an area light or the sun's angular radius.
func (l Light) Sample(from core.Vec3, disk core.Vec2) LightSample {
	switch l.Kind {
	case LightSun:
		dir := l.Normal.Negate().Normalize()
		if l.AngularRadius > 0 {
			tangent, bitangent := dir.OrthonormalBasis()
			jitter := tangent.Multiply(disk.X * l.AngularRadius).
				Add(bitangent.Multiply(disk.Y * l.AngularRadius))
			dir = dir.Add(jitter).Normalize()
		}
		return LightSample{Direction: dir, Distance: math.MaxFloat64, Infinite: true}

	case LightSky:
		// A sky sample's direction is chosen by the caller (cosine-weighted
		// over the hemisphere, per spec.md §4.3); this records only that
		// it's an infinite, unshadowed-by-scene-depth sample.
		return LightSample{Distance: math.MaxFloat64, Infinite: true}

	case LightArea:
		tangent, bitangent := l.Normal.OrthonormalBasis()
		point := l.Position.
			Add(tangent.Multiply(disk.X * l.Radius)).
			Add(bitangent.Multiply(disk.Y * l.Radius))
		toLight := point.Subtract(from)
		dist := toLight.Length()
		return LightSample{Direction: toLight.Multiply(1 / math.Max(dist, minLightDirection)), Distance: dist}

	default: // LightPoint
		toLight := l.Position.Subtract(from)
		dist := toLight.Length()
		return LightSample{Direction: toLight.Multiply(1 / math.Max(dist, minLightDirection)), Distance: dist}
	}
}

// Contribution evaluates the unshadowed radiance a light sample delivers
// at a shaded point, per spec.md §4.3's `contribution(L, hit, view_dir,
// albedo)`: the light's radiant intensity, any distance falloff, and the
// material's BRDF response, but NOT visibility (a separate shadow-ray
// step owns that).
func (l Light) Contribution(sample LightSample, mat Material, normal, viewDir core.Vec3) core.Vec3 {
	cosTheta := normal.Dot(sample.Direction)
	if cosTheta <= 0 {
		return core.Vec3{}
	}

	radiance := l.Color.Multiply(l.Intensity)

	switch l.Kind {
	case LightSun, LightSky:
		// no inverse-square falloff for directional/infinite lights
	default:
		falloff := 1.0 / math.Max(sample.Distance*sample.Distance, minLightDirection)
		radiance = radiance.Multiply(falloff)
	}

	// diffuseLobe/specularLobe already fold in the cosine term, so this is
	// just the rendering equation's radiance * BRDF product.
	brdf := mat.diffuseLobe(normal, sample.Direction).Add(mat.specularLobe(normal, viewDir, sample.Direction))
	return radiance.MultiplyVec(brdf)
}
