// Package bvhwire (de)serializes a pkg/bvh tree into the flat Vec4
// stream spec.md §6 describes abstractly ("serialized as a flat Vec4
// stream with two opcodes"). The concrete INTERNAL/LEAF layout below is
// grounded directly on strolle's bvh/serialize.rs (recovered from
// original_source via _INDEX.md): an INTERNAL node is four Vec4 words
// (left child's AABB + opcode/right-pointer, then right child's AABB),
// with the left child's own node record always following immediately
// after; a LEAF node is one Vec4 word per contained triangle, each
// carrying a "more triangles follow" flag and an "alpha blending" flag
// alongside its triangle/material id, matching spec.md §6's literal
// "LEAF (one entry per contained triangle, with a more-triangles-follow
// flag and an alpha-blend flag)".
package bvhwire

import (
	"fmt"
	"math"

	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/scene"
)

// Opcode tags a serialized node as either an internal split or a leaf.
// Opcodes are bit-reinterpreted into a Vec4's float32 lane (not
// value-converted), mirroring serialize.rs's `f32::from_bits(..)`.
type Opcode uint32

const (
	OpInternal Opcode = iota
	OpLeaf
)

// leaf entry flag bits, packed into a leaf word's X lane.
const (
	flagGotMoreTriangles uint32 = 1 << 0
	flagHasAlphaBlending uint32 = 1 << 1
)

// Vec4 is one word of the flat wire stream.
type Vec4 struct{ X, Y, Z, W float32 }

func bits(v uint32) float32   { return math.Float32frombits(v) }
func toBits(v float32) uint32 { return math.Float32bits(v) }

// TraversalStackDepth is the fixed per-thread traversal stack size a GPU
// workgroup would allocate for iterative BVH descent (spec.md's "BVH
// flat Vec4 stream ... workgroup stack of 24-32 entries"); exceeding it
// during traversal is the "BVH traversal memory exhaustion" failure mode
// of spec.md §4.12, reported via telemetry rather than treated as fatal.
const TraversalStackDepth = 32

// Buffer is the flat wire-format encoding of a BVH: a single contiguous
// word stream mixing fixed-size internal-node records and variable-length
// leaf triangle chains, exactly as serialize.rs emits it.
type Buffer struct {
	Nodes []Vec4
}

// WordCount reports how many Vec4 words the buffer holds.
func (b Buffer) WordCount() int { return len(b.Nodes) }

// Encode flattens a BVH into its wire Buffer. materials resolves each
// triangle's alpha_mode for the leaf "has_alpha_blending" flag, the way
// serialize.rs looks up `materials[primitive.material_id]`.
func Encode(b *bvh.BVH, materials []scene.Material) Buffer {
	var out Buffer
	if b.Root != nil {
		encodeNode(b.Root, b.Triangles, materials, &out)
	}
	return out
}

func encodeNode(n *bvh.Node, triangles []scene.Triangle, materials []scene.Material, out *Buffer) int {
	ptr := len(out.Nodes)

	if n.TriangleRefs != nil {
		for i, triIdx := range n.TriangleRefs {
			tri := triangles[triIdx]
			mat := materials[tri.Material]

			flags := uint32(0)
			if i+1 < len(n.TriangleRefs) {
				flags |= flagGotMoreTriangles
			}
			if mat.AlphaMode == scene.AlphaBlend {
				flags |= flagHasAlphaBlending
			}

			out.Nodes = append(out.Nodes, Vec4{
				X: bits(flags),
				Y: bits(uint32(triIdx)),
				Z: bits(uint32(tri.Material)),
				W: bits(uint32(OpLeaf)),
			})
		}
		return ptr
	}

	// Reserve the four words this internal record needs; the left
	// child's record is written starting at ptr+4 (left child "implicitly
	// follows"), matching serialize.rs pushing four placeholder words
	// before recursing.
	out.Nodes = append(out.Nodes, Vec4{}, Vec4{}, Vec4{}, Vec4{})

	leftBounds := n.Left.Bounds
	rightBounds := n.Right.Bounds

	encodeNode(n.Left, triangles, materials, out)
	rightPtr := encodeNode(n.Right, triangles, materials, out)

	out.Nodes[ptr+0] = Vec4{float32(leftBounds.Min.X), float32(leftBounds.Min.Y), float32(leftBounds.Min.Z), bits(uint32(OpInternal))}
	out.Nodes[ptr+1] = Vec4{float32(leftBounds.Max.X), float32(leftBounds.Max.Y), float32(leftBounds.Max.Z), bits(uint32(rightPtr))}
	out.Nodes[ptr+2] = Vec4{float32(rightBounds.Min.X), float32(rightBounds.Min.Y), float32(rightBounds.Min.Z), 0}
	out.Nodes[ptr+3] = Vec4{float32(rightBounds.Max.X), float32(rightBounds.Max.Y), float32(rightBounds.Max.Z), 0}
	return ptr
}

// LeafEntry is one decoded triangle reference from a leaf chain.
type LeafEntry struct {
	TriangleID      int32
	MaterialID      int32
	GotMoreTriangle bool
	HasAlphaBlend   bool
}

// Node is a decoded view of one wire-format node: either an internal
// split (two child AABBs plus a right-child word pointer) or a leaf
// (a chain of per-triangle entries).
type Node struct {
	Op Opcode

	// valid when Op == OpInternal.
	LeftBounds, RightBounds core.AABB
	LeftPtr, RightPtr       int

	// valid when Op == OpLeaf.
	Entries []LeafEntry
}

// Decode reads the node record starting at the given word pointer.
func (b Buffer) Decode(ptr int) (Node, error) {
	if ptr < 0 || ptr >= len(b.Nodes) {
		return Node{}, fmt.Errorf("bvhwire: word pointer %d out of range (%d words)", ptr, len(b.Nodes))
	}

	w0 := b.Nodes[ptr]
	switch Opcode(toBits(w0.W)) {
	case OpInternal:
		if ptr+3 >= len(b.Nodes) {
			return Node{}, fmt.Errorf("bvhwire: truncated internal node at %d", ptr)
		}
		w1, w2, w3 := b.Nodes[ptr+1], b.Nodes[ptr+2], b.Nodes[ptr+3]
		return Node{
			Op:          OpInternal,
			LeftBounds:  core.NewAABB(core.Vec3{X: float64(w0.X), Y: float64(w0.Y), Z: float64(w0.Z)}, core.Vec3{X: float64(w1.X), Y: float64(w1.Y), Z: float64(w1.Z)}),
			RightBounds: core.NewAABB(core.Vec3{X: float64(w2.X), Y: float64(w2.Y), Z: float64(w2.Z)}, core.Vec3{X: float64(w3.X), Y: float64(w3.Y), Z: float64(w3.Z)}),
			LeftPtr:     ptr + 4,
			RightPtr:    int(toBits(w1.W)),
		}, nil

	case OpLeaf:
		var entries []LeafEntry
		for i := ptr; ; i++ {
			if i >= len(b.Nodes) {
				return Node{}, fmt.Errorf("bvhwire: truncated leaf chain at %d", ptr)
			}
			w := b.Nodes[i]
			flags := toBits(w.X)
			entry := LeafEntry{
				TriangleID:      int32(toBits(w.Y)),
				MaterialID:      int32(toBits(w.Z)),
				GotMoreTriangle: flags&flagGotMoreTriangles != 0,
				HasAlphaBlend:   flags&flagHasAlphaBlending != 0,
			}
			entries = append(entries, entry)
			if !entry.GotMoreTriangle {
				break
			}
		}
		return Node{Op: OpLeaf, Entries: entries}, nil

	default:
		return Node{}, fmt.Errorf("bvhwire: unknown opcode at word %d", ptr)
	}
}
