package restir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuincunxPattern_OffsetCyclesByFrameParity(t *testing.T) {
	q := QuincunxPattern{}

	assert.Equal(t, Vec2i{0, 0}, q.Offset(0))
	assert.Equal(t, Vec2i{1, 1}, q.Offset(1))
	assert.Equal(t, Vec2i{0, 1}, q.Offset(2))
	assert.Equal(t, Vec2i{1, 0}, q.Offset(3))
	// must repeat identically at frame+4
	assert.Equal(t, q.Offset(0), q.Offset(4))
	assert.Equal(t, q.Offset(1), q.Offset(5))
}

func TestQuincunxPattern_Upsample(t *testing.T) {
	q := QuincunxPattern{}
	g := Vec2i{X: 3, Y: 5}

	got := q.Upsample(g, 1)
	assert.Equal(t, Vec2i{X: 7, Y: 11}, got)
}
