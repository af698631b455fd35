package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer is a colour image plus a depth plane. Larger Z is nearer.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // aliases img.Pix
	ZBuf   []float64 // -Inf where nothing was drawn

	img *image.NRGBA
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fb := &FrameBuffer{Width: w, Height: h, Color: img.Pix, ZBuf: make([]float64, w*h), img: img}
	fb.Clear(color.NRGBA{})
	return fb
}

// Clear fills the colour plane with bg and resets depth.
func (fb *FrameBuffer) Clear(bg color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i], fb.Color[i+1], fb.Color[i+2], fb.Color[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	for i := range fb.ZBuf {
		fb.ZBuf[i] = math.Inf(-1)
	}
}

// Depth returns the stored depth at (x, y).
func (fb *FrameBuffer) Depth(x, y int) float64 {
	return fb.ZBuf[y*fb.Width+x]
}

// Image returns the colour plane. It shares memory with the buffer.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return fb.img
}
