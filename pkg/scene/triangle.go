// Package scene holds the flat, GPU-shaped world data the reservoir
// pipeline reads: triangles, materials and lights. These are plain
// records rather than polymorphic interfaces, mirroring how the system
// this pipeline is modeled on passes geometry and shading data to its
// compute stages as storage-buffer views instead of virtual dispatch.
package scene

import "github.com/restirgo/restir/pkg/core"

// MaterialID indexes into a World's Materials slice.
type MaterialID uint32

// Triangle is one GPU-resident triangle: positions, normals and UVs for
// its three vertices plus the material it's painted with.
type Triangle struct {
	P0, P1, P2 core.Vec3
	N0, N1, N2 core.Vec3
	UV0        core.Vec2
	UV1        core.Vec2
	UV2        core.Vec2
	Material   MaterialID
}

// Centroid returns the triangle's centroid, used for BVH splitting.
func (t Triangle) Centroid() core.Vec3 {
	return t.P0.Add(t.P1).Add(t.P2).Multiply(1.0 / 3.0)
}

// BoundingBox returns the triangle's axis-aligned bounding box.
func (t Triangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(t.P0, t.P1, t.P2)
}

// Hit is the result of intersecting a ray with the triangle: the
// barycentric-interpolated position, normal, UV and material, plus the
// ray parameter t.
type Hit struct {
	T        float64
	Point    core.Vec3
	Normal   core.Vec3
	UV       core.Vec2
	Material MaterialID
}

// None reports whether this is an empty ("no hit") record, matching the
// GPU side's sentinel-based Hit::none().
func (h Hit) None() bool {
	return h.Material == NoMaterial
}

// NoMaterial is the sentinel material id used by an empty Hit.
const NoMaterial MaterialID = ^MaterialID(0)

// Intersect performs a Möller–Trumbore ray-triangle intersection against
// this triangle, returning the barycentric-interpolated Hit when the ray
// strikes it within (tMin, tMax). Used by pkg/bvh leaf traversal.
func (t Triangle) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	return intersectTriangle(t, ray, tMin, tMax)
}

// intersectTriangle performs a Möller–Trumbore ray-triangle intersection,
// returning the barycentric-interpolated Hit when the ray strikes the
// triangle within (tMin, tMax).
func intersectTriangle(tri Triangle, ray core.Ray, tMin, tMax float64) (Hit, bool) {
	const epsilon = 1e-8

	edge1 := tri.P1.Subtract(tri.P0)
	edge2 := tri.P2.Subtract(tri.P0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return Hit{}, false // ray parallel to triangle
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(tri.P0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return Hit{}, false
	}

	w := 1 - u - v
	normal := tri.N0.Multiply(w).Add(tri.N1.Multiply(u)).Add(tri.N2.Multiply(v)).Normalize()
	uv := core.Vec2{
		X: tri.UV0.X*w + tri.UV1.X*u + tri.UV2.X*v,
		Y: tri.UV0.Y*w + tri.UV1.Y*u + tri.UV2.Y*v,
	}

	return Hit{
		T:        t,
		Point:    ray.At(t),
		Normal:   normal,
		UV:       uv,
		Material: tri.Material,
	}, true
}
