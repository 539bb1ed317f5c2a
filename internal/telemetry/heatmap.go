// Package telemetry accumulates the per-pixel BVH traversal cost spec.md
// §4.12 calls the "used_memory" telemetry path, and exposes it through a
// small debug HTTP/SSE surface — adapted from the teacher's web/server
// package, which streamed tile updates over SSE during a progressive
// render. Here the stream carries heatmap snapshots instead of tile
// images, but the server shape (stats JSON + an SSE event stream) is
// kept.
package telemetry

// Heatmap accumulates per-pixel BVH node-touch counts across a frame,
// feeding spec.md's "BVH memory exhaustion reported via the used_memory
// telemetry path, not fatal" failure mode.
type Heatmap struct {
	width, height int
	touches       []int32
}

// NewHeatmap allocates a zeroed heatmap for a width x height frame.
func NewHeatmap(width, height int) *Heatmap {
	return &Heatmap{width: width, height: height, touches: make([]int32, width*height)}
}

// Record stores the node-touch count for one pixel, overwriting any
// stale value from a previous frame's allocation of the same buffer.
func (h *Heatmap) Record(x, y, nodesTouched int) {
	h.touches[y*h.width+x] = int32(nodesTouched)
}

// At returns the recorded node-touch count for a pixel.
func (h *Heatmap) At(x, y int) int {
	return int(h.touches[y*h.width+x])
}

// Stats summarizes the heatmap for a debug/telemetry snapshot.
type Stats struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	MaxTouched  int     `json:"maxTouched"`
	MeanTouched float64 `json:"meanTouched"`
}

// Summarize computes aggregate stats over the current heatmap contents.
func (h *Heatmap) Summarize() Stats {
	stats := Stats{Width: h.width, Height: h.height}
	if len(h.touches) == 0 {
		return stats
	}

	var total int64
	for _, v := range h.touches {
		total += int64(v)
		if int(v) > stats.MaxTouched {
			stats.MaxTouched = int(v)
		}
	}
	stats.MeanTouched = float64(total) / float64(len(h.touches))
	return stats
}
