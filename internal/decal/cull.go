package decal

import (
	"mu-decal-projector/internal/polygon"
)

// Survivors is the compacted output of the broad phase: deep copies of the
// polygons that may touch the box, in a fresh arena sized to fit.
type Survivors struct {
	Arena    *polygon.Arena
	Polygons []polygon.Polygon
}

// Cull rejects polygons that face away from the box (unless backside is set)
// or whose first three vertices all lie outside the box's bounding sphere.
// Survivors are copied into a new arena with maxVertex slots per polygon;
// the OutsideClipSpace flags of polys are false on return.
//
// Only three vertices are tested and the chain stops at the first vertex
// within range, so larger polygons are admitted on a partial check.
func Cull(box Box, polys []polygon.Polygon, backside bool, maxVertex int) Survivors {
	if maxVertex <= 0 {
		maxVertex = polygon.DefaultMaxVertex
	}
	threshold := box.cullRadiusSq()

	n := 0
	for i := range polys {
		p := &polys[i]
		p.OutsideClipSpace = rejected(box, p, backside, threshold)
		if !p.OutsideClipSpace {
			n++
		}
	}

	out := Survivors{
		Arena:    polygon.NewArena(n, maxVertex),
		Polygons: make([]polygon.Polygon, 0, n),
	}
	for i := range polys {
		p := &polys[i]
		if p.OutsideClipSpace {
			p.OutsideClipSpace = false
			continue
		}
		out.Polygons = append(out.Polygons, p.CopyTo(out.Arena, len(out.Polygons)))
	}
	return out
}

func rejected(box Box, p *polygon.Polygon, backside bool, threshold float64) bool {
	if !backside && box.Normal.Dot(p.FaceNormal()) < 0 {
		return true
	}
	if p.Count() < 3 {
		return true
	}
	far := func(v int) bool {
		return p.Vertex(p.RealIndex(v)).Sub(box.Center).LenSq() > threshold
	}
	return far(0) && far(1) && far(2)
}
