package restircam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restirgo/restir/pkg/core"
)

func TestProject_LookAtTargetMapsToScreenCenter(t *testing.T) {
	cam := New(
		core.Vec3{X: 0, Y: 0, Z: 5},
		core.Vec3{X: 0, Y: 0, Z: 0},
		core.Vec3{X: 0, Y: 1, Z: 0},
		math.Pi/3, 16.0/9.0, 0.1, 100, 1920, 1080,
	)

	world := core.Vec3{X: 0, Y: 0, Z: 0}
	screen, _, ok := cam.Project(world)

	assert.True(t, ok)
	assert.InDelta(t, 960, screen.X, 1)
	assert.InDelta(t, 540, screen.Y, 1)
}

func TestProject_BehindCameraIsOutOfBounds(t *testing.T) {
	cam := New(
		core.Vec3{X: 0, Y: 0, Z: 5},
		core.Vec3{X: 0, Y: 0, Z: 0},
		core.Vec3{X: 0, Y: 1, Z: 0},
		math.Pi/3, 16.0/9.0, 0.1, 100, 1920, 1080,
	)

	behind := core.Vec3{X: 0, Y: 0, Z: 10}
	_, _, ok := cam.Project(behind)
	assert.False(t, ok)
}

func TestRay_PointsTowardScene(t *testing.T) {
	cam := New(
		core.Vec3{X: 0, Y: 0, Z: 5},
		core.Vec3{X: 0, Y: 0, Z: 0},
		core.Vec3{X: 0, Y: 1, Z: 0},
		math.Pi/3, 16.0/9.0, 0.1, 100, 1920, 1080,
	)

	ray := cam.Ray(core.Vec2{X: 960, Y: 540})
	assert.Less(t, ray.Direction.Z, 0.0, "central ray should point into the scene (-Z)")
}
