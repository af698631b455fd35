package polygon

import "mu-decal-projector/internal/mathutil"

// Edge is the directed segment from a polygon vertex to its successor.
// It caches both endpoints and the start→end delta for the clip loop.
type Edge struct {
	Start Vertex
	End   Vertex
	Delta mathutil.Vec3
}

func (e *Edge) set(start, end Vertex) {
	e.Start = start
	e.End = end
	e.Delta = end.Position.Sub(start.Position)
}

// intersect returns the vertex where the edge crosses plane.
// t is measured back from End: point = End - t·Delta.
func (e *Edge) intersect(plane mathutil.Plane) Vertex {
	t := 0.0
	if d := plane.DotDir(e.Delta); d != 0 {
		t = plane.Dot(e.End.Position) / d
	}
	s := mathutil.Clamp(1-t, 0, 1)

	return Vertex{
		Position:      mathutil.Lerp(e.Start.Position, e.End.Position, s),
		Normal:        mathutil.Lerp(e.Start.Normal, e.End.Normal, s).Normalize(),
		ModelPosition: mathutil.Lerp(e.Start.ModelPosition, e.End.ModelPosition, s),
		ModelNormal:   mathutil.Lerp(e.Start.ModelNormal, e.End.ModelNormal, s).Normalize(),
		Weight:        lerpWeight(e.Start.Weight, e.End.Weight, s),
	}
}
