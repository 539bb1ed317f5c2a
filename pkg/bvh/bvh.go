// Package bvh builds and traces a bounding volume hierarchy over a
// scene's triangles. Construction follows the median-split recursive
// approach of the raytracer this pipeline grew out of; traversal is
// adapted to also return a "nodes touched" count, since spec.md's BVH
// memory heatmap telemetry needs a per-ray node-touch tally rather than
// just a hit/miss result.
package bvh

import (
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/scene"
)

// leafThreshold mirrors the teacher raytracer's BVH: nodes with this many
// triangles or fewer become leaves rather than splitting further.
const leafThreshold = 8

// Node is one node of the tree: a leaf holds triangle indices into the
// owning BVH's Triangles slice, an internal node holds two children.
type Node struct {
	Bounds       core.AABB
	Left, Right  *Node
	TriangleRefs []int // indices into BVH.Triangles; nil for internal nodes
}

func (n *Node) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// BVH is a bounding volume hierarchy over a fixed triangle set, matching
// spec.md §6's "BVH ... serialized as a flat Vec4 stream" external
// interface at the conceptual level; internal/bvhwire owns the actual
// flattening for wire transfer.
type BVH struct {
	Root      *Node
	Triangles []scene.Triangle
}

// Build constructs a BVH over the given triangles using recursive median
// splitting along each node's longest axis — the same fast-build strategy
// as the host raytracer's core.BVH, chosen there (and here) to avoid an
// O(n² log n) sort-based SAH build while keeping leaf traversal cheap.
func Build(triangles []scene.Triangle) *BVH {
	if len(triangles) == 0 {
		return &BVH{}
	}

	indices := make([]int, len(triangles))
	for i := range indices {
		indices[i] = i
	}

	return &BVH{
		Root:      buildNode(triangles, indices),
		Triangles: triangles,
	}
}

func buildNode(triangles []scene.Triangle, indices []int) *Node {
	bounds := triangles[indices[0]].BoundingBox()
	for _, i := range indices[1:] {
		bounds = bounds.Union(triangles[i].BoundingBox())
	}

	if len(indices) <= leafThreshold {
		return &Node{Bounds: bounds, TriangleRefs: indices}
	}

	axis := bounds.LongestAxis()
	splitPos := axisMid(bounds, axis)

	left, right := partition(triangles, indices, axis, splitPos)
	if len(left) == 0 || len(right) == 0 {
		return &Node{Bounds: bounds, TriangleRefs: indices}
	}

	return &Node{
		Bounds: bounds,
		Left:   buildNode(triangles, left),
		Right:  buildNode(triangles, right),
	}
}

func axisMid(bounds core.AABB, axis int) float64 {
	switch axis {
	case 0:
		return (bounds.Min.X + bounds.Max.X) * 0.5
	case 1:
		return (bounds.Min.Y + bounds.Max.Y) * 0.5
	default:
		return (bounds.Min.Z + bounds.Max.Z) * 0.5
	}
}

func centerOnAxis(c core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

func partition(triangles []scene.Triangle, indices []int, axis int, splitPos float64) (left, right []int) {
	for _, i := range indices {
		if centerOnAxis(triangles[i].Centroid(), axis) < splitPos {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// TraceResult bundles a BVH query's outcome with the telemetry spec.md
// §4.12 asks for: how many nodes the ray touched, feeding the BVH memory
// heatmap (internal/telemetry).
type TraceResult struct {
	Hit          scene.Hit
	Found        bool
	NodesTouched int
}

// Trace finds the closest triangle hit along the ray within (tMin, tMax).
func (b *BVH) Trace(ray core.Ray, tMin, tMax float64) TraceResult {
	if b.Root == nil {
		return TraceResult{}
	}

	result := TraceResult{Hit: scene.Hit{Material: scene.NoMaterial}}
	b.traceNode(b.Root, ray, tMin, tMax, &result)
	return result
}

func (b *BVH) traceNode(node *Node, ray core.Ray, tMin, tMax float64, result *TraceResult) {
	result.NodesTouched++

	if !node.Bounds.Hit(ray, tMin, tMax) {
		return
	}

	if node.isLeaf() {
		closest := tMax
		for _, idx := range node.TriangleRefs {
			if hit, ok := b.Triangles[idx].Intersect(ray, tMin, closest); ok {
				closest = hit.T
				result.Hit = hit
				result.Found = true
			}
		}
		return
	}

	closest := tMax
	if result.Found {
		closest = result.Hit.T
	}
	if node.Left != nil {
		b.traceNode(node.Left, ray, tMin, closest, result)
		if result.Found && result.Hit.T < closest {
			closest = result.Hit.T
		}
	}
	if node.Right != nil {
		b.traceNode(node.Right, ray, tMin, closest, result)
	}
}

// AnyHit reports whether anything blocks the ray within (tMin, tMax),
// without finding the closest hit — the shadow-ray query spec.md's direct
// and indirect resolving passes use (§4.5, §4.10).
func (b *BVH) AnyHit(ray core.Ray, tMin, tMax float64) bool {
	if b.Root == nil {
		return false
	}
	return b.anyHitNode(b.Root, ray, tMin, tMax)
}

func (b *BVH) anyHitNode(node *Node, ray core.Ray, tMin, tMax float64) bool {
	if !node.Bounds.Hit(ray, tMin, tMax) {
		return false
	}

	if node.isLeaf() {
		for _, idx := range node.TriangleRefs {
			tri := b.Triangles[idx]
			if tri.Material != scene.NoMaterial {
				if _, ok := tri.Intersect(ray, tMin, tMax); ok {
					return true
				}
			}
		}
		return false
	}

	if node.Left != nil && b.anyHitNode(node.Left, ray, tMin, tMax) {
		return true
	}
	if node.Right != nil && b.anyHitNode(node.Right, ray, tMin, tMax) {
		return true
	}
	return false
}
