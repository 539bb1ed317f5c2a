package scene

// World bundles the flat buffers a frame traces against: triangles (backed
// by a BVH built separately in pkg/bvh), materials and lights. It mirrors
// how the system this is modeled on binds triangle/material/light storage
// buffers once per scene load rather than rebuilding per draw call.
type World struct {
	Triangles []Triangle
	Materials []Material
	Lights    []Light
}

// Material looks up a material by id, returning the zero-value Material
// (fully black, non-emissive) for the NoMaterial sentinel.
func (w *World) Material(id MaterialID) Material {
	if id == NoMaterial || int(id) >= len(w.Materials) {
		return Material{}
	}
	return w.Materials[id]
}

// Light looks up a light by id.
func (w *World) Light(id LightID) Light {
	return w.Lights[id]
}

// LightCount reports how many lights are available for sampling, used by
// the direct-lighting initial-sample pass (spec.md §4.3) to stream every
// light into the reservoir, and by the reference integrator to pick a
// light index uniformly.
func (w *World) LightCount() int {
	return len(w.Lights)
}
