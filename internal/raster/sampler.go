package raster

import "image"

// Filter selects texel reconstruction.
type Filter int

const (
	Bilinear Filter = iota
	Nearest
)

// Sample reads tex at (u, v) in [0,1]², row 0 at v = 0. Outside that
// square the result is fully transparent, so decals never smear past
// their border.
func Sample(tex *image.NRGBA, u, v float64, f Filter) (r, g, b, a uint8) {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, 0, 0, 0
	}
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	fx, fy := u*float64(w-1), v*float64(h-1)

	if f == Nearest {
		p := pixel(tex, int(fx+0.5), int(fy+0.5))
		return p[0], p[1], p[2], p[3]
	}

	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	dx, dy := fx-float64(x0), fy-float64(y0)

	p00, p10 := pixel(tex, x0, y0), pixel(tex, x1, y0)
	p01, p11 := pixel(tex, x0, y1), pixel(tex, x1, y1)
	var out [4]uint8
	for k := range out {
		top := lerp(float64(p00[k]), float64(p10[k]), dx)
		bot := lerp(float64(p01[k]), float64(p11[k]), dx)
		out[k] = uint8(lerp(top, bot, dy) + 0.5)
	}
	return out[0], out[1], out[2], out[3]
}

// SampleClamp is Sample with bilinear filtering.
func SampleClamp(tex *image.NRGBA, u, v float64) (r, g, b, a uint8) {
	return Sample(tex, u, v, Bilinear)
}

func pixel(tex *image.NRGBA, x, y int) []uint8 {
	i := tex.PixOffset(tex.Rect.Min.X+x, tex.Rect.Min.Y+y)
	return tex.Pix[i : i+4]
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
