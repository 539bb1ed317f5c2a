package bvh

import (
	"testing"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/scene"
)

func makeQuad(x, z float64) scene.Triangle {
	n := core.Vec3{X: 0, Y: 1, Z: 0}
	return scene.Triangle{
		P0: core.Vec3{X: x, Y: 0, Z: z},
		P1: core.Vec3{X: x + 1, Y: 0, Z: z},
		P2: core.Vec3{X: x, Y: 0, Z: z + 1},
		N0: n, N1: n, N2: n,
	}
}

func TestBuild_LeafThresholdBoundary(t *testing.T) {
	tris := make([]scene.Triangle, 8)
	for i := range tris {
		tris[i] = makeQuad(float64(i)*2, 0)
	}

	b := Build(tris)
	if !b.Root.isLeaf() {
		t.Fatalf("expected a single leaf for %d triangles", len(tris))
	}

	tris = append(tris, makeQuad(100, 0))
	b = Build(tris)
	if b.Root.isLeaf() {
		t.Fatalf("expected a split once triangle count exceeds leafThreshold")
	}
}

func TestTrace_FindsClosestHit(t *testing.T) {
	tris := []scene.Triangle{makeQuad(0, 0), makeQuad(5, 0), makeQuad(10, 0)}
	b := Build(tris)

	ray := core.NewRay(core.Vec3{X: 0.25, Y: 5, Z: 0.25}, core.Vec3{X: 0, Y: -1, Z: 0})
	result := b.Trace(ray, 1e-4, 1e6)

	if !result.Found {
		t.Fatalf("expected a hit")
	}
	if result.Hit.T < 4.9 || result.Hit.T > 5.1 {
		t.Errorf("expected t near 5, got %v", result.Hit.T)
	}
	if result.NodesTouched == 0 {
		t.Errorf("expected NodesTouched to be tallied")
	}
}

func TestTrace_Miss(t *testing.T) {
	tris := []scene.Triangle{makeQuad(0, 0)}
	b := Build(tris)

	ray := core.NewRay(core.Vec3{X: 50, Y: 5, Z: 50}, core.Vec3{X: 0, Y: -1, Z: 0})
	result := b.Trace(ray, 1e-4, 1e6)

	if result.Found {
		t.Errorf("expected no hit far from geometry")
	}
}

func TestAnyHit_SkipsEmptyMaterialTriangles(t *testing.T) {
	tri := makeQuad(0, 0)
	tri.Material = scene.NoMaterial
	b := Build([]scene.Triangle{tri})

	ray := core.NewRay(core.Vec3{X: 0.25, Y: 5, Z: 0.25}, core.Vec3{X: 0, Y: -1, Z: 0})
	if b.AnyHit(ray, 1e-4, 1e6) {
		t.Errorf("expected AnyHit to ignore triangles with the no-material sentinel")
	}
}
