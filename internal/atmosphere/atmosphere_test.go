package atmosphere

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restirgo/restir/pkg/core"
)

func TestLoadLUT_SampleReturnsPlausibleColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 100, G: 150, B: 255, A: 255})
		}
	}

	lut := LoadLUT(src, 64, 32)
	got := lut.Sample(core.Vec3{X: 0, Y: 1, Z: 0})

	assert.InDelta(t, 100.0/255.0, got.X, 0.05)
	assert.InDelta(t, 150.0/255.0, got.Y, 0.05)
	assert.InDelta(t, 1.0, got.Z, 0.05)
}

func TestLoadLUT_SampleIsDeterministic(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 10, A: 255})
		}
	}

	lut := LoadLUT(src, 32, 16)
	dir := core.Vec3{X: 0.3, Y: 0.5, Z: 0.8}.Normalize()

	a := lut.Sample(dir)
	b := lut.Sample(dir)
	assert.Equal(t, a, b)
}
