// Package decal projects textured boxes onto receiving surfaces: it culls
// and clips receiver polygons against the box and assembles the result into
// per-surface output meshes.
package decal

import (
	"mu-decal-projector/internal/mathutil"
)

// Box is the oriented projection volume. Normal points back toward the
// projector; receivers facing away from it are back-facing. The box spans
// ±Width/2 along Tangent, ±Height/2 along Bitangent and ±Depth along Normal.
type Box struct {
	Center    mathutil.Vec3
	Tangent   mathutil.Vec3
	Bitangent mathutil.Vec3
	Normal    mathutil.Vec3

	Width, Height, Depth float64
}

// NewBox orients a box by rotation q: Tangent, Bitangent and Normal are the
// rotated X, Y and Z axes.
func NewBox(center mathutil.Vec3, q mathutil.Quat, width, height, depth float64) Box {
	return Box{
		Center:    center,
		Tangent:   q.Rotate(mathutil.Vec3{1, 0, 0}),
		Bitangent: q.Rotate(mathutil.Vec3{0, 1, 0}),
		Normal:    q.Rotate(mathutil.Vec3{0, 0, 1}),
		Width:     width,
		Height:    height,
		Depth:     depth,
	}
}

// LookBox builds a box whose Normal is normal and whose Bitangent is as close
// to up as possible.
func LookBox(center, normal, up mathutil.Vec3, width, height, depth float64) Box {
	n := normal.Normalize()
	t := up.Cross(n)
	if t.LenSq() < mathutil.Epsilon {
		// up parallel to normal: any perpendicular will do
		t = mathutil.Vec3{0, 0, 1}.Cross(n)
		if t.LenSq() < mathutil.Epsilon {
			t = mathutil.Vec3{1, 0, 0}
		}
	}
	t = t.Normalize()
	return Box{
		Center:    center,
		Tangent:   t,
		Bitangent: n.Cross(t),
		Normal:    n,
		Width:     width,
		Height:    height,
		Depth:     depth,
	}
}

// Planes returns the six inward-facing clip planes. A point inside the box
// has a non-negative Dot against all of them.
func (b Box) Planes() [6]mathutil.Plane {
	hw, hh := b.Width/2, b.Height/2
	c := b.Center
	return [6]mathutil.Plane{
		mathutil.PlaneFromPoint(b.Tangent, c.Sub(b.Tangent.Scale(hw))),
		mathutil.PlaneFromPoint(b.Tangent.Scale(-1), c.Add(b.Tangent.Scale(hw))),
		mathutil.PlaneFromPoint(b.Bitangent, c.Sub(b.Bitangent.Scale(hh))),
		mathutil.PlaneFromPoint(b.Bitangent.Scale(-1), c.Add(b.Bitangent.Scale(hh))),
		mathutil.PlaneFromPoint(b.Normal, c.Sub(b.Normal.Scale(b.Depth))),
		mathutil.PlaneFromPoint(b.Normal.Scale(-1), c.Add(b.Normal.Scale(b.Depth))),
	}
}

// Contains reports whether p lies inside the box, within eps.
func (b Box) Contains(p mathutil.Vec3, eps float64) bool {
	for _, pl := range b.Planes() {
		if pl.Dot(p) < -eps {
			return false
		}
	}
	return true
}

// UV maps a world position to decal texture space. The box face maps to
// [0,1]².
func (b Box) UV(p mathutil.Vec3) [2]float64 {
	d := p.Sub(b.Center)
	return [2]float64{
		d.Dot(b.Tangent)/b.Width + 0.5,
		d.Dot(b.Bitangent)/b.Height + 0.5,
	}
}

// cullRadiusSq is the squared bounding radius used by the broad phase.
func (b Box) cullRadiusSq() float64 {
	r := 1.414 * max(b.Width/2, b.Height/2, b.Depth)
	return r * r
}
