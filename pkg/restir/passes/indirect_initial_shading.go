package passes

import (
	"context"

	"github.com/restirgo/restir/pkg/core"
	"github.com/restirgo/restir/pkg/gbuffer"
	"github.com/restirgo/restir/pkg/restir"
)

// indirectShadingFloor is spec.md §4.7's "clamp each component to ≥
// 10⁻⁶" applied right after shading, distinct from IndirectSample's own
// 1e-4 ClampRadiance floor applied to the packed sample in shadeDomain.
const indirectShadingFloor = 1e-6

// IndirectInitialShading lights each domain's secondary hit with the
// same reservoir algorithm direct initial shading uses, then folds in
// the primary-hit cosine term before packing the result as this frame's
// initial indirect sample (spec.md §4.7).
type IndirectInitialShading struct{}

func (IndirectInitialShading) Run(ctx context.Context, f *Frame) error {
	return f.dispatchTiles(ctx, f.HalfWidth, f.HalfHeight, func(hx, hy int) {
		runIndirectInitialShading(f, hx, hy)
	})
}

func runIndirectInitialShading(f *Frame, hx, hy int) {
	hidx := f.halfIdx(hx, hy)
	px, py := f.primaryPixelForCell(hx, hy)

	primary := gbuffer.Entry{}
	if px >= 0 && px < f.Width && py >= 0 && py < f.Height {
		primary = f.GBuffer[f.idx(px, py)]
	}

	shadeDomain(
		f, primary, hidx,
		f.SecondaryGBufferDiffuse[hidx], f.IndirectRayDirDiffuse[hidx],
		passIndirectInitialLight, passIndirectInitialSky,
		f.IndirectDiffuseReservoirs.Curr(), f.IndirectDiffuseRadiance,
	)
	shadeDomain(
		f, primary, hidx,
		f.SecondaryGBufferSpecular[hidx], f.IndirectRayDirSpecular[hidx],
		passIndirectInitialLightSpecular, passIndirectInitialSkySpecular,
		f.IndirectSpecularReservoirs.Curr(), f.IndirectSpecularRadiance,
	)
}

// shadeDomain implements spec.md §4.7 for one domain's half-res cell: it
// shades the secondary hit, applies the primary-hit cosine term (skipped
// when the sky was the selected sample), floors the result and packs the
// initial indirect sample into a fresh single-sample reservoir.
func shadeDomain(
	f *Frame, primary gbuffer.Entry, hidx int,
	secondary gbuffer.Entry, rayDir core.Vec3,
	lightPass, skyPass uint32,
	reservoirs []restir.Reservoir[restir.IndirectSample], radiance []core.Vec3,
) {
	if !primary.Valid || !secondary.Valid {
		reservoirs[hidx] = restir.Reservoir[restir.IndirectSample]{}
		radiance[hidx] = core.Vec3{}
		return
	}

	hx, hy := hidx%f.HalfWidth, hidx/f.HalfWidth
	directRes, shaded := buildAndResolveDirectReservoir(f, secondary, hx, hy, lightPass, skyPass)

	if directRes.Sample.LightID != restir.SkyLight {
		cosine := maxf(0, rayDir.Dot(primary.Normal))
		shaded = shaded.Multiply(cosine)
	}

	shaded = core.Vec3{
		X: maxf(shaded.X, indirectShadingFloor),
		Y: maxf(shaded.Y, indirectShadingFloor),
		Z: maxf(shaded.Z, indirectShadingFloor),
	}

	sample := restir.IndirectSample{
		Radiance:     shaded,
		HitPoint:     primary.Position,
		SamplePoint:  secondary.Position,
		SampleNormal: core.EncodeOctahedral(secondary.Normal),
		Frame:        uint32(f.Index),
	}.ClampRadiance()

	reservoirs[hidx] = restir.New(sample, sample.PHat())
	radiance[hidx] = shaded
}
