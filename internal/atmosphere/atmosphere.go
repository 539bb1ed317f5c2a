// Package atmosphere samples the transmittance/sky lookup tables spec.md
// §6 treats as an external input ("Atmosphere LUTs"). The LUTs arrive as
// low-resolution images; golang.org/x/image/draw's bilinear scaler
// upsamples them once at load time into a working-resolution table, and
// Sample does the remaining sub-texel bilinear lookup against that table.
package atmosphere

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/restirgo/restir/pkg/core"
)

// LUT is a resampled sky/transmittance lookup table addressed by a
// direction mapped to equirectangular UV.
type LUT struct {
	img    *image.RGBA64
	width  int
	height int
}

// LoadLUT upsamples a raw LUT image to the given working resolution using
// bilinear interpolation, matching how the rest of the pipeline treats
// atmosphere textures as pre-baked tables rather than live simulation.
func LoadLUT(src image.Image, workingWidth, workingHeight int) *LUT {
	dst := image.NewRGBA64(image.Rect(0, 0, workingWidth, workingHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return &LUT{img: dst, width: workingWidth, height: workingHeight}
}

// equirectUV maps a unit direction to [0,1]x[0,1] equirectangular
// texture coordinates.
func equirectUV(dir core.Vec3) (u, v float64) {
	u = (math.Atan2(dir.Z, dir.X)/(2*math.Pi) + 0.5)
	v = math.Acos(clampf(dir.Y, -1, 1)) / math.Pi
	return u, v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sample bilinearly samples the LUT along a direction, returning a color
// as an RGB Vec3 (atmosphere() in spec.md §4.3's "k · atmosphere(sun_dir,
// sky_normal)").
func (l *LUT) Sample(dir core.Vec3) core.Vec3 {
	u, v := equirectUV(dir)

	fx := u * float64(l.width-1)
	fy := v * float64(l.height-1)

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := min(x0+1, l.width-1)
	y1 := min(y0+1, l.height-1)

	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := toVec3(l.img.RGBA64At(x0, y0))
	c10 := toVec3(l.img.RGBA64At(x1, y0))
	c01 := toVec3(l.img.RGBA64At(x0, y1))
	c11 := toVec3(l.img.RGBA64At(x1, y1))

	top := lerp(c00, c10, tx)
	bottom := lerp(c01, c11, tx)
	return lerp(top, bottom, ty)
}

// sunDiscCosine is the cosine threshold beyond which a sky sample is
// considered to be looking straight at the sun disc, adding its direct
// contribution on top of the ambient sky lookup.
const sunDiscCosine = 0.999

// Contribution evaluates atmosphere(sun_dir, sky_normal) from spec.md
// §4.3: the ambient sky color along sky_normal, plus the sun's direct
// contribution when sky_normal looks close enough to sun_dir to hit its
// disc.
func (l *LUT) Contribution(sunDir, skyNormal core.Vec3) core.Vec3 {
	ambient := l.Sample(skyNormal)
	if skyNormal.Dot(sunDir) >= sunDiscCosine {
		ambient = ambient.Add(l.Sample(sunDir))
	}
	return ambient
}

func lerp(a, b core.Vec3, t float64) core.Vec3 {
	return a.Multiply(1 - t).Add(b.Multiply(t))
}

func toVec3(c color.RGBA64) core.Vec3 {
	const scale = 1.0 / 65535.0
	return core.Vec3{X: float64(c.R) * scale, Y: float64(c.G) * scale, Z: float64(c.B) * scale}
}
