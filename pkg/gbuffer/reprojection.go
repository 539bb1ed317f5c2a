package gbuffer

import "github.com/restirgo/restir/pkg/core"

// NoReprojection is the sentinel prev_screen_pos value marking "no
// reprojection" (spec.md's Reprojection entry: "a reserved sentinel in
// prev_screen_pos encodes no reprojection"). A valid prev_screen_pos is
// always non-negative, so a negative coordinate unambiguously means
// invalid.
var NoReprojection = core.Vec2{X: -1, Y: -1}

// ReprojectionEntry is the per-pixel reprojection record of spec.md §3:
// the previous-frame screen position a current pixel maps to, and a
// confidence in [0,1] describing how trustworthy that mapping is.
type ReprojectionEntry struct {
	PrevScreenPos core.Vec2
	Confidence    float64
}

// Valid reports whether this entry carries a usable reprojection.
func (r ReprojectionEntry) Valid() bool {
	return r.PrevScreenPos != NoReprojection && r.Confidence > 0
}

// Invalid constructs the no-reprojection sentinel entry, used for newly
// disoccluded pixels (spec.md S2).
func Invalid() ReprojectionEntry {
	return ReprojectionEntry{PrevScreenPos: NoReprojection}
}

// Ring is a double-buffered curr/prev store for any per-pixel buffer type
// (reservoirs, reprojection maps), matching spec.md §3's "Buffer ring:
// each reservoir domain keeps two buffers, curr and prev, swapped after
// each frame."
type Ring[T any] struct {
	curr []T
	prev []T
}

// NewRing allocates a ring with both buffers sized to hold n elements.
func NewRing[T any](n int) *Ring[T] {
	return &Ring[T]{curr: make([]T, n), prev: make([]T, n)}
}

// Curr returns the current-frame buffer, writable by this frame's passes.
func (r *Ring[T]) Curr() []T { return r.curr }

// Prev returns the previous-frame buffer, read-only during this frame.
func (r *Ring[T]) Prev() []T { return r.prev }

// Swap exchanges curr and prev, making this frame's results the next
// frame's history (spec.md §4.10's "swap curr/prev reservoirs").
func (r *Ring[T]) Swap() {
	r.curr, r.prev = r.prev, r.curr
}
