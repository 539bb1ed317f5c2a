package gbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restirgo/restir/pkg/core"
)

func TestEntry_PackUnpack_RoundTrips(t *testing.T) {
	entry := Entry{
		Position:    core.Vec3{X: 1, Y: 2, Z: 3},
		Normal:      core.Vec3{X: 0, Y: 1, Z: 0},
		BaseColor:   core.Vec3{X: 0.8, Y: 0.2, Z: 0.1},
		Metallic:    0.5,
		Roughness:   0.4,
		Reflectance: 0.04,
		Depth:       12.5,
		Valid:       true,
	}

	w0, w1 := entry.Pack()
	got := Unpack(w0, w1)

	require.True(t, got.Valid)
	assert.InDelta(t, entry.BaseColor.X, got.BaseColor.X, 1e-5)
	assert.InDelta(t, entry.BaseColor.Y, got.BaseColor.Y, 1e-5)
	assert.InDelta(t, entry.Metallic, got.Metallic, 1e-5)
	assert.InDelta(t, entry.Depth, got.Depth, 1e-5)
	assert.InDelta(t, entry.Normal.X, got.Normal.X, 1e-3)
	assert.InDelta(t, entry.Normal.Y, got.Normal.Y, 1e-3)
	assert.InDelta(t, entry.Normal.Z, got.Normal.Z, 1e-3)
	// roughness/reflectance are quantized to 12 bits each; allow for that.
	assert.InDelta(t, entry.Roughness, got.Roughness, 1e-3)
	assert.InDelta(t, entry.Reflectance, got.Reflectance, 1e-3)
}

func TestReprojectionEntry_NoReprojectionSentinel(t *testing.T) {
	invalid := Invalid()
	assert.False(t, invalid.Valid())

	valid := ReprojectionEntry{PrevScreenPos: core.Vec2{X: 12, Y: 8}, Confidence: 0.9}
	assert.True(t, valid.Valid())

	zeroConfidence := ReprojectionEntry{PrevScreenPos: core.Vec2{X: 12, Y: 8}, Confidence: 0}
	assert.False(t, zeroConfidence.Valid())
}

func TestRing_SwapExchangesBuffers(t *testing.T) {
	ring := NewRing[int](4)
	for i := range ring.Curr() {
		ring.Curr()[i] = i + 1
	}

	ring.Swap()

	assert.Equal(t, []int{1, 2, 3, 4}, ring.Prev())
	assert.Equal(t, []int{0, 0, 0, 0}, ring.Curr())
}
