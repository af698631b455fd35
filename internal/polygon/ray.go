package polygon

import (
	"fmt"

	"mu-decal-projector/internal/mathutil"
)

// RayTriangleIntersect tests the segment start→end against the polygon,
// which must be a triangle. The hit point is returned when it lies inside.
func (p *Polygon) RayTriangleIntersect(start, end mathutil.Vec3) (bool, mathutil.Vec3) {
	if p.count != 3 {
		panic(fmt.Sprintf(prefix+"ray test needs a triangle, have %d vertices", p.count))
	}
	a := p.arena
	v := [3]mathutil.Vec3{a.position[p.base], a.position[p.base+1], a.position[p.base+2]}
	n := p.normal

	ds := n.Dot(start.Sub(v[0]))
	de := n.Dot(end.Sub(v[0]))
	if ds*de > 0 || ds == de {
		return false, mathutil.Vec3{}
	}

	hit := mathutil.Lerp(start, end, ds/(ds-de))
	for i := 0; i < 3; i++ {
		edge := v[(i+1)%3].Sub(v[i])
		if edge.Cross(hit.Sub(v[i])).Dot(n) < 0 {
			return false, mathutil.Vec3{}
		}
	}
	return true, hit
}
