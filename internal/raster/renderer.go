package raster

import (
	"image"

	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/surface"
)

// receiverColor is the flat albedo of untextured receivers.
var receiverColor = [4]uint8{160, 160, 170, 255}

// Margin enlarges the rendered view around the decal box.
const Margin = 1.25

// Render draws receivers and the decal meshes of entries as seen from the
// projector side of box. The image is size*supersample pixels square;
// downsample it for the final output.
func Render(box decal.Box, receivers []*surface.Surface, entries []decal.Entry, size, supersample int) *image.NRGBA {
	renderSize := size * max(supersample, 1)
	cam := BoxCamera(box, Margin, renderSize)
	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig(box.Normal.Scale(-1))

	for _, s := range receivers {
		snap, err := s.Snapshot()
		if err != nil {
			continue
		}
		m := s.Mesh()
		sh := Shader{Base: receiverColor, Blend: Opaque, Light: &lc}
		drawMesh(fb, cam, snap, m.Positions, m.Weights, nil, m.Indices, &sh)
	}

	// Decal vertices sit Offset above the receiver; the bias only absorbs
	// rasterisation noise.
	for _, e := range entries {
		snap, err := e.Surface.Snapshot()
		if err != nil || !e.Material.Alive() {
			continue
		}
		sh := Shader{Tex: e.Material.Texture, Debug: true, Blend: Overlay, Bias: 1e-4, Light: &lc}
		drawMesh(fb, cam, snap, e.Mesh.Positions, e.Mesh.Weights, e.Mesh.UVs, e.Mesh.Indices, &sh)
	}

	return fb.Image()
}

// drawMesh projects an indexed model-space mesh and rasterises it with one
// flat shade per triangle.
func drawMesh(fb *FrameBuffer, cam Camera, snap surface.Snapshot,
	positions []mathutil.Vec3, weights []polygon.SkinWeight, uvs [][2]float64, indices []int, sh *Shader) {

	world := make([]mathutil.Vec3, len(positions))
	screen := make([]ScreenVertex, len(positions))
	for i, p := range positions {
		var w polygon.SkinWeight
		if i < len(weights) {
			w = weights[i]
		}
		world[i] = snap.Point(p, w)
		x, y, z := cam.Project(world[i])
		screen[i] = ScreenVertex{X: x, Y: y, Z: z}
		if i < len(uvs) {
			screen[i].U, screen[i].V = uvs[i][0], uvs[i][1]
		}
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		n := world[i1].Sub(world[i0]).Cross(world[i2].Sub(world[i0])).Normalize()
		sh.Shade = sh.Light.ComputeShade(n)
		RasterizeTriangle(fb, screen[i0], screen[i1], screen[i2], sh)
	}
}
