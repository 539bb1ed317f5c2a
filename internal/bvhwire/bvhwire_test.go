package bvhwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restirgo/restir/pkg/bvh"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/scene"
)

func makeQuad(x float64, material scene.MaterialID) scene.Triangle {
	n := core.Vec3{X: 0, Y: 1, Z: 0}
	return scene.Triangle{
		P0: core.Vec3{X: x, Y: 0, Z: 0},
		P1: core.Vec3{X: x + 1, Y: 0, Z: 0},
		P2: core.Vec3{X: x, Y: 0, Z: 1},
		N0: n, N1: n, N2: n,
		Material: material,
	}
}

func TestEncode_LeafOnly(t *testing.T) {
	tris := []scene.Triangle{makeQuad(0, 0), makeQuad(2, 0)}
	tree := bvh.Build(tris)
	mats := []scene.Material{{AlphaMode: scene.AlphaOpaque}}

	buf := Encode(tree, mats)
	require.Equal(t, len(tris), buf.WordCount())

	node, err := buf.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, OpLeaf, node.Op)
	require.Len(t, node.Entries, len(tris))

	assert.True(t, node.Entries[0].GotMoreTriangle)
	assert.False(t, node.Entries[1].GotMoreTriangle)
	assert.False(t, node.Entries[0].HasAlphaBlend)
}

func TestEncode_LeafFlagsAlphaBlend(t *testing.T) {
	tris := []scene.Triangle{makeQuad(0, 1)}
	tree := bvh.Build(tris)
	mats := []scene.Material{{AlphaMode: scene.AlphaOpaque}, {AlphaMode: scene.AlphaBlend}}

	buf := Encode(tree, mats)
	node, err := buf.Decode(0)
	require.NoError(t, err)
	require.Len(t, node.Entries, 1)
	assert.True(t, node.Entries[0].HasAlphaBlend)
	assert.EqualValues(t, 1, node.Entries[0].MaterialID)
}

func TestEncode_SplitsAboveLeafThreshold(t *testing.T) {
	tris := make([]scene.Triangle, 10)
	for i := range tris {
		tris[i] = makeQuad(float64(i)*3, 0)
	}
	tree := bvh.Build(tris)
	mats := []scene.Material{{AlphaMode: scene.AlphaOpaque}}

	buf := Encode(tree, mats)
	require.Greater(t, buf.WordCount(), 4)

	root, err := buf.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, OpInternal, root.Op)
	assert.Equal(t, 4, root.LeftPtr)
	assert.Greater(t, root.RightPtr, root.LeftPtr)

	left, err := buf.Decode(root.LeftPtr)
	require.NoError(t, err)
	_ = left

	right, err := buf.Decode(root.RightPtr)
	require.NoError(t, err)
	_ = right
}

func TestDecode_OutOfRangeErrors(t *testing.T) {
	buf := Encode(bvh.Build([]scene.Triangle{makeQuad(0, 0)}), []scene.Material{{}})
	_, err := buf.Decode(buf.WordCount() + 5)
	assert.Error(t, err)
}

func TestDecode_TruncatedLeafChainErrors(t *testing.T) {
	buf := Buffer{Nodes: []Vec4{{X: bits(flagGotMoreTriangles), W: bits(uint32(OpLeaf))}}}
	_, err := buf.Decode(0)
	assert.Error(t, err)
}
