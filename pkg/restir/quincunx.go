package restir

// QuincunxPattern is the half-res-to-full-res sub-pixel schedule: a
// half-res cell g maps to full-res pixel 2*g + offset, where offset
// cycles through the four sub-pixels of a 2x2 block by frame parity.
// spec.md requires this pattern be identical across every half-res pass
// within a frame, or temporal reprojection of half-res reservoirs breaks
// — hence hoisting it into one named, tested type rather than scattering
// the four offsets inline at each call site.
type QuincunxPattern struct{}

var quincunxOffsets = [4]Vec2i{
	{X: 0, Y: 0},
	{X: 1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 0},
}

// Vec2i is an integer pixel offset/coordinate.
type Vec2i struct{ X, Y int }

// Offset returns the sub-pixel offset for the given frame index.
func (QuincunxPattern) Offset(frame uint32) Vec2i {
	return quincunxOffsets[frame&3]
}

// Upsample maps a half-res cell to its full-res pixel for the given
// frame: upsample(g, frame) = 2*g + sub_pixel_offset[frame & 3].
func (q QuincunxPattern) Upsample(g Vec2i, frame uint32) Vec2i {
	offset := q.Offset(frame)
	return Vec2i{X: 2*g.X + offset.X, Y: 2*g.Y + offset.Y}
}
