package raster

import (
	"image"
	"math"
)

// ScreenVertex is a projected vertex with its texture coordinate.
type ScreenVertex struct {
	X, Y, Z float64
	U, V    float64
}

// Blend selects how a triangle is composited.
type Blend int

const (
	// Opaque tests and writes depth and replaces the colour.
	Opaque Blend = iota
	// Overlay tests depth against a bias without writing it and
	// alpha-blends over what is already there.
	Overlay
)

// Shader is the per-triangle material state.
type Shader struct {
	Tex    *image.NRGBA // nil: Base colour, or UV colours when Debug
	Base   [4]uint8
	Debug  bool
	Filter Filter
	Shade  float64
	Blend  Blend
	Bias   float64 // Overlay depth tolerance
	Light  *LightConfig
}

// RasterizeTriangle fills one triangle. Lighting is flat, computed once by
// the caller into sh.Shade.
func RasterizeTriangle(fb *FrameBuffer, a, b, c ScreenVertex, sh *Shader) {
	minX := max(int(math.Floor(min(a.X, b.X, c.X))), 0)
	maxX := min(int(math.Ceil(max(a.X, b.X, c.X))), fb.Width-1)
	minY := max(int(math.Floor(min(a.Y, b.Y, c.Y))), 0)
	maxY := min(int(math.Ceil(max(a.Y, b.Y, c.Y))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det
	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		py := float64(sy) + 0.5 - c.Y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			px := float64(sx) + 0.5 - c.X
			w0 := (dy12*px + dx21*py) * invDet
			w1 := (dy20*px + dx02*py) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zi := rowOff + sx
			switch sh.Blend {
			case Opaque:
				if z <= fb.ZBuf[zi] {
					continue
				}
			case Overlay:
				if z < fb.ZBuf[zi]-sh.Bias {
					continue
				}
			}

			cr, cg, cb, ca := sh.texel(w0*a.U+w1*b.U+w2*c.U, w0*a.V+w1*b.V+w2*c.V)
			if ca < 8 {
				continue
			}
			cr, cg, cb = sh.Light.Apply(cr, cg, cb, sh.Shade)

			pi := zi * 4
			if sh.Blend == Opaque {
				fb.ZBuf[zi] = z
				fb.Color[pi], fb.Color[pi+1], fb.Color[pi+2], fb.Color[pi+3] = cr, cg, cb, ca
				continue
			}
			over(fb.Color[pi:pi+4], cr, cg, cb, ca)
		}
	}
}

func (sh *Shader) texel(u, v float64) (r, g, b, a uint8) {
	switch {
	case sh.Tex != nil:
		// Texture rows run top-down; decal V grows up the box.
		return Sample(sh.Tex, u, 1-v, sh.Filter)
	case sh.Debug:
		return clamp255(u * 255), clamp255(v * 255), 128, 255
	default:
		return sh.Base[0], sh.Base[1], sh.Base[2], sh.Base[3]
	}
}

// over composites a straight-alpha colour onto dst in place.
func over(dst []uint8, r, g, b, a uint8) {
	sa := float64(a) / 255
	da := float64(dst[3]) / 255
	oa := sa + da*(1-sa)
	if oa <= 0 {
		return
	}
	mix := func(s, d uint8) uint8 {
		return clamp255((float64(s)*sa + float64(d)*da*(1-sa)) / oa)
	}
	dst[0], dst[1], dst[2] = mix(r, dst[0]), mix(g, dst[1]), mix(b, dst[2])
	dst[3] = clamp255(oa * 255)
}
