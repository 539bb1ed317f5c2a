package scene

import (
	"math"

	"github.com/restirgo/restir/pkg/core"
)

// AlphaMode mirrors the glTF-style alpha handling the BVH leaf-flags
// encode (see internal/bvhwire): opaque triangles never need an
// any-hit shadow test, blended ones do.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaBlend
)

// Material is a per-material record, matching spec.md §6's "per-material
// record with base_color, metallic, roughness, reflectance, emissive,
// alpha_mode" — a flat struct rather than a polymorphic interface, since
// shading happens against buffer views, not virtual dispatch.
type Material struct {
	BaseColor   core.Vec3
	Metallic    float64
	Roughness   float64
	Reflectance float64
	Emissive    core.Vec3
	AlphaMode   AlphaMode
}

// minIndirectRoughness floors the roughness used for indirect bounces so a
// near-mirror surface doesn't produce an implausibly tight second bounce
// from a single sample (spec.md §4.6).
const minIndirectRoughness = 0.2

// indirectReflectanceDamping scales down reflectance on indirect hits so a
// chain of near-specular bounces doesn't blow out highlights that a single
// indirect sample can't resolve (spec.md §4.6).
const indirectReflectanceDamping = 0.5

// AdjustForIndirect returns a copy of the material with its specular
// response damped for use on a secondary (indirect) hit: reflectance is
// reduced and the roughness floor is widened. This compensates for the
// indirect pass only ever taking one bounce, so an otherwise-mirror
// surface would alias badly without the damping.
func (m Material) AdjustForIndirect() Material {
	adjusted := m
	adjusted.Reflectance *= indirectReflectanceDamping
	if adjusted.Roughness < minIndirectRoughness {
		adjusted.Roughness = minIndirectRoughness
	}
	return adjusted
}

// IsEmissive reports whether the material contributes emitted radiance.
func (m Material) IsEmissive() bool {
	return m.Emissive.X > 0 || m.Emissive.Y > 0 || m.Emissive.Z > 0
}

// diffuseLobe evaluates the Lambertian diffuse term of the material's
// BRDF for a given light direction and surface normal; used by direct and
// indirect initial shading (spec.md §4.3, §4.7) to turn an unshadowed
// light sample into a contribution. Kept intentionally simple: material
// evaluation is interface-level per spec.md §1.
func (m Material) diffuseLobe(normal, lightDir core.Vec3) core.Vec3 {
	cosTheta := normal.Dot(lightDir)
	if cosTheta <= 0 {
		return core.Vec3{}
	}

	kd := 1.0 - m.Metallic
	return m.BaseColor.Multiply(kd * cosTheta / math.Pi)
}

// specularLobe is a crude single-lobe Blinn-Phong stand-in for the
// specular BRDF term, enough to drive §4.3's reservoir weighting and
// §4.6's specular-domain indirect sampling without a full microfacet
// model (material evaluation is interface-level per spec.md §1).
func (m Material) specularLobe(normal, viewDir, lightDir core.Vec3) core.Vec3 {
	cosTheta := normal.Dot(lightDir)
	if cosTheta <= 0 {
		return core.Vec3{}
	}

	half := viewDir.Add(lightDir).Normalize()
	specAngle := max(0, normal.Dot(half))
	shininess := 2.0/max(m.Roughness*m.Roughness, 1e-4) - 2.0

	intensity := 0.0
	if specAngle > 0 {
		intensity = math.Pow(specAngle, shininess) * cosTheta
	}

	tint := core.Vec3{X: 1, Y: 1, Z: 1}.Multiply(1 - m.Metallic).Add(m.BaseColor.Multiply(m.Metallic))
	return tint.Multiply(m.Reflectance * intensity)
}
