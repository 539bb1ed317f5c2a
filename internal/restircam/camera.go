// Package restircam carries the current and previous frame's camera
// matrices and the screen-space math reprojection depends on: mapping a
// world point to its screen coordinate under either camera, and
// reconstructing a primary ray. Matrix algebra is backed by
// go-gl/mathgl, the linear-algebra library the rasterizer engines in this
// retrieval pack already depend on for camera transforms.
package restircam

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/restirgo/restir/pkg/core"
)

// Camera is a pinhole camera's view+projection state for one frame. The
// pipeline keeps one of these for the current frame and one for the
// previous, per spec.md §3's "Camera matrices current/prev" external
// input.
type Camera struct {
	Position core.Vec3
	View     mgl64.Mat4
	Proj     mgl64.Mat4
	ViewProj mgl64.Mat4
	Width    int
	Height   int
}

// New builds a Camera from a position, look-at target, up vector and a
// perspective projection, following the teacher's LookAt-style camera
// construction.
func New(position, target, up core.Vec3, fovYRadians, aspect, near, far float64, width, height int) Camera {
	view := mgl64.LookAtV(toMgl(position), toMgl(target), toMgl(up))
	proj := mgl64.Perspective(fovYRadians, aspect, near, far)

	return Camera{
		Position: position,
		View:     view,
		Proj:     proj,
		ViewProj: proj.Mul4(view),
		Width:    width,
		Height:   height,
	}
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Project maps a world-space point to a screen-space pixel coordinate
// under this camera, returning ok=false if the point is behind the
// camera or falls outside the viewport (spec.md §4.2's "screen-bounds
// check").
func (c Camera) Project(world core.Vec3) (screen core.Vec2, depth float64, ok bool) {
	clip := c.ViewProj.Mul4x1(mgl64.Vec4{world.X, world.Y, world.Z, 1})
	if clip.W() <= 0 {
		return core.Vec2{}, 0, false
	}

	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	depth = clip.Z() / clip.W()

	screen = core.Vec2{
		X: (ndcX*0.5 + 0.5) * float64(c.Width),
		Y: (1 - (ndcY*0.5 + 0.5)) * float64(c.Height),
	}

	inBounds := screen.X >= 0 && screen.X < float64(c.Width) && screen.Y >= 0 && screen.Y < float64(c.Height)
	return screen, depth, inBounds
}

// Ray reconstructs a world-space primary ray through a pixel center,
// using the inverse view-projection matrix.
func (c Camera) Ray(pixel core.Vec2) core.Ray {
	ndcX := (pixel.X+0.5)/float64(c.Width)*2 - 1
	ndcY := 1 - (pixel.Y+0.5)/float64(c.Height)*2

	inv := c.ViewProj.Inv()

	near := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, -1, 1})
	far := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1, 1})

	nearPoint := core.Vec3{X: near.X() / near.W(), Y: near.Y() / near.W(), Z: near.Z() / near.W()}
	farPoint := core.Vec3{X: far.X() / far.W(), Y: far.Y() / far.W(), Z: far.Z() / far.W()}

	return core.NewRayTo(nearPoint, farPoint)
}
