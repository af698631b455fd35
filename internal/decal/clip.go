package decal

import (
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
)

// ClipAll clips polys against each plane in turn. A polygon that ends up
// entirely outside one plane is marked OutsideClipSpace and skipped by the
// remaining planes. It returns the number of polygons left.
func ClipAll(planes []mathutil.Plane, polys []polygon.Polygon) int {
	for _, pl := range planes {
		for i := range polys {
			p := &polys[i]
			if p.OutsideClipSpace {
				continue
			}
			if p.SplitAndRemoveByPlane(pl) {
				p.OutsideClipSpace = true
			}
		}
	}

	alive := 0
	for i := range polys {
		if !polys[i].OutsideClipSpace {
			alive++
		}
	}
	return alive
}
