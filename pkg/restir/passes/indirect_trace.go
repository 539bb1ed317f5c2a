package passes

import (
	"context"
	"math"

	"github.com/restirgo/restir/internal/telemetry"
	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
	"github.com/restirgo/restir/pkg/scene"
)

// indirectRayEpsilon offsets indirect rays off the primary surface to
// avoid immediate self-intersection, mirroring shadowRayEpsilon.
const indirectRayEpsilon = 1e-3

// maxIndirectDistance bounds an indirect ray's escape distance; beyond it
// the ray is treated as having left the scene (spec.md §4.6's "or the
// escape record").
const maxIndirectDistance = 1e4

// quincunx is the shared half-res/full-res sub-pixel schedule every
// half-res pass keys off of.
var quincunx restir.QuincunxPattern

// IndirectInitialTracing is the half-res pass that, per primary hit,
// casts one diffuse-domain and one specular-domain indirect ray through
// the BVH and records each domain's secondary G-buffer (spec.md §4.6).
type IndirectInitialTracing struct{}

func (IndirectInitialTracing) Run(ctx context.Context, f *Frame) error {
	f.Heatmap = telemetry.NewHeatmap(f.Width, f.Height)
	return f.dispatchTiles(ctx, f.HalfWidth, f.HalfHeight, func(hx, hy int) {
		runIndirectTrace(f, hx, hy)
	})
}

func runIndirectTrace(f *Frame, hx, hy int) {
	hidx := f.halfIdx(hx, hy)

	px, py := f.primaryPixelForCell(hx, hy)
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		f.SecondaryGBufferDiffuse[hidx] = gbuffer.Entry{}
		f.SecondaryGBufferSpecular[hidx] = gbuffer.Entry{}
		return
	}

	primary := f.GBuffer[f.idx(px, py)]
	if !primary.Valid {
		f.SecondaryGBufferDiffuse[hidx] = gbuffer.Entry{}
		f.SecondaryGBufferSpecular[hidx] = gbuffer.Entry{}
		return
	}

	mat := scene.Material{BaseColor: primary.BaseColor, Metallic: primary.Metallic, Roughness: primary.Roughness, Reflectance: primary.Reflectance}
	origin := primary.Position.Add(primary.Normal.Multiply(indirectRayEpsilon))
	viewDir := f.CamCurr.Position.Subtract(primary.Position).Normalize()

	diffuseDir := diffuseIndirectDirection(f, px, py, primary.Normal)
	f.IndirectRayDirDiffuse[hidx] = diffuseDir
	f.SecondaryGBufferDiffuse[hidx] = traceIndirect(f, px, py, origin, diffuseDir)

	specularDir := specularIndirectDirection(f, px, py, primary.Normal, viewDir, mat)
	f.IndirectRayDirSpecular[hidx] = specularDir
	f.SecondaryGBufferSpecular[hidx] = traceIndirect(f, px, py, origin, specularDir)
}

// primaryPixelForCell maps a half-res cell to its full-res pixel via the
// quincunx schedule (spec.md §4.6).
func (f *Frame) primaryPixelForCell(hx, hy int) (x, y int) {
	p := quincunx.Upsample(restir.Vec2i{X: hx, Y: hy}, uint32(f.Index))
	return p.X, p.Y
}

// diffuseIndirectDirection draws a cosine-weighted hemisphere direction
// around the primary normal, preferring the blue-noise stream over white
// noise (spec.md §4.6: "low-discrepancy blue noise preferred").
func diffuseIndirectDirection(f *Frame, x, y int, normal core.Vec3) core.Vec3 {
	bn := f.blueNoise(x, y, passIndirectTraceDirection)
	r1 := bn.Float64()
	r2 := bn.Float64()
	return cosineHemisphereSample(normal, r1, r2)
}

func cosineHemisphereSample(normal core.Vec3, r1, r2 float64) core.Vec3 {
	phi := 2 * math.Pi * r1
	cosTheta := math.Sqrt(1 - r2)
	sinTheta := math.Sqrt(r2)

	tangent, bitangent := normal.OrthonormalBasis()
	local := tangent.Multiply(math.Cos(phi) * sinTheta).
		Add(bitangent.Multiply(math.Sin(phi) * sinTheta)).
		Add(normal.Multiply(cosTheta))
	return local.Normalize()
}

// specularIndirectDirection draws a sample from the material's specular
// lobe around the mirror-reflection direction, falling back to a cosine
// hemisphere sample when the lobe sample goes below the horizon or comes
// out NaN (spec.md §4.6).
func specularIndirectDirection(f *Frame, x, y int, normal, viewDir core.Vec3, mat scene.Material) core.Vec3 {
	rng := f.rng(x, y, passIndirectTraceDirection)
	reflected := viewDir.Negate().Subtract(normal.Multiply(2 * viewDir.Negate().Dot(normal))).Normalize()

	lobeSpread := math.Max(mat.Roughness, 0.02)
	tangent, bitangent := reflected.OrthonormalBasis()
	jitterX := (rng.Float64()*2 - 1) * lobeSpread
	jitterY := (rng.Float64()*2 - 1) * lobeSpread
	sample := reflected.Add(tangent.Multiply(jitterX)).Add(bitangent.Multiply(jitterY)).Normalize()

	if invalidDirection(sample) || sample.Dot(normal) <= 0 {
		return cosineHemisphereSample(normal, rng.Float64(), rng.Float64())
	}
	return sample
}

func invalidDirection(v core.Vec3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
		math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0)
}

// traceIndirect casts one ray through the BVH and builds the secondary
// G-buffer entry it produces: a real hit (with its material damped via
// AdjustForIndirect) or an escape record when nothing is struck. The
// node-touch count is attributed to the primary pixel (px, py) that
// spawned the ray, feeding the full-res BVH memory heatmap.
func traceIndirect(f *Frame, px, py int, origin, dir core.Vec3) gbuffer.Entry {
	result := f.BVH.Trace(core.NewRay(origin, dir), indirectRayEpsilon, maxIndirectDistance)
	f.Heatmap.Record(px, py, f.Heatmap.At(px, py)+result.NodesTouched)

	if !result.Found {
		return gbuffer.Entry{Valid: true, Escaped: true, Position: origin.Add(dir.Multiply(maxIndirectDistance)), Normal: dir.Negate()}
	}

	hit := result.Hit
	mat := f.World.Material(hit.Material).AdjustForIndirect()
	return gbuffer.Entry{
		Valid:       true,
		Position:    hit.Point,
		Normal:      hit.Normal,
		BaseColor:   mat.BaseColor,
		Metallic:    mat.Metallic,
		Roughness:   mat.Roughness,
		Reflectance: mat.Reflectance,
		Emissive:    mat.Emissive,
		Depth:       hit.T,
	}
}

