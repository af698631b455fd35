package raster

import (
	"github.com/go-gl/mathgl/mgl64"

	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/mathutil"
)

// Camera is an orthographic view with a pixel viewport.
type Camera struct {
	mvp    mgl64.Mat4
	Width  int
	Height int
}

// NewCamera looks at center from the side normal points to. up fixes the
// roll, halfW and halfH size the view volume and reach bounds it in depth
// on both sides of center.
func NewCamera(center, normal, up mathutil.Vec3, halfW, halfH, reach float64, width, height int) Camera {
	eye := center.Add(normal.Normalize().Scale(reach))
	view := mgl64.LookAtV(vec(eye), vec(center), vec(up))
	proj := mgl64.Ortho(-halfW, halfW, -halfH, halfH, 0, 2*reach)
	return Camera{mvp: proj.Mul4(view), Width: width, Height: height}
}

// BoxCamera frames a decal box from its projector side, with margin
// scaling the box face.
func BoxCamera(b decal.Box, margin float64, size int) Camera {
	half := max(b.Width, b.Height) / 2 * margin
	reach := 4 * max(b.Depth, half)
	return NewCamera(b.Center, b.Normal, b.Bitangent, half, half, reach, size, size)
}

// Project returns the pixel position of p and a depth that grows toward
// the camera.
func (c Camera) Project(p mathutil.Vec3) (x, y, z float64) {
	ndc := c.mvp.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	x = (ndc[0] + 1) / 2 * float64(c.Width)
	y = (1 - ndc[1]) / 2 * float64(c.Height)
	return x, y, -ndc[2]
}

func vec(v mathutil.Vec3) mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }
