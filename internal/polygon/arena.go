// Package polygon implements convex polygons backed by a shared
// struct-of-arrays vertex arena, and the in-place plane clip used to
// carve receiver triangles down to a decal box.
package polygon

import (
	"fmt"

	"mu-decal-projector/internal/mathutil"
)

const prefix = "polygon: "

// DefaultMaxVertex is the per-polygon vertex capacity used for clipping.
// Clip-side classification packs vertices into a uint64, so it is also the
// upper bound for any arena.
const DefaultMaxVertex = 64

// Vertex is the full attribute set of one polygon corner.
type Vertex struct {
	Position      mathutil.Vec3 // world space
	Normal        mathutil.Vec3 // world space
	ModelPosition mathutil.Vec3
	ModelNormal   mathutil.Vec3
	Weight        SkinWeight
}

// Arena holds the parallel attribute buffers shared by a set of polygons.
// Slot i owns the window [i*maxVertex, (i+1)*maxVertex).
type Arena struct {
	maxVertex int
	slots     int

	position      []mathutil.Vec3
	normal        []mathutil.Vec3
	modelPosition []mathutil.Vec3
	modelNormal   []mathutil.Vec3
	weight        []SkinWeight
	edge          []Edge
}

// NewArena allocates buffers for slots polygons of up to maxVertex vertices.
func NewArena(slots, maxVertex int) *Arena {
	if maxVertex < 3 || maxVertex > DefaultMaxVertex {
		panic(fmt.Sprintf(prefix+"maxVertex %d outside [3, %d]", maxVertex, DefaultMaxVertex))
	}
	if slots < 0 {
		panic(fmt.Sprintf(prefix+"negative slot count %d", slots))
	}
	n := slots * maxVertex
	return &Arena{
		maxVertex:     maxVertex,
		slots:         slots,
		position:      make([]mathutil.Vec3, n),
		normal:        make([]mathutil.Vec3, n),
		modelPosition: make([]mathutil.Vec3, n),
		modelNormal:   make([]mathutil.Vec3, n),
		weight:        make([]SkinWeight, n),
		edge:          make([]Edge, n),
	}
}

// MaxVertex returns the per-polygon capacity.
func (a *Arena) MaxVertex() int { return a.maxVertex }

// Slots returns the number of polygon windows.
func (a *Arena) Slots() int { return a.slots }

// Polygon returns an empty polygon bound to window slot.
func (a *Arena) Polygon(slot int) Polygon {
	if slot < 0 || slot >= a.slots {
		panic(fmt.Sprintf(prefix+"slot %d out of range [0, %d)", slot, a.slots))
	}
	return Polygon{arena: a, base: slot * a.maxVertex}
}

func (a *Arena) vertex(i int) Vertex {
	return Vertex{
		Position:      a.position[i],
		Normal:        a.normal[i],
		ModelPosition: a.modelPosition[i],
		ModelNormal:   a.modelNormal[i],
		Weight:        a.weight[i],
	}
}

func (a *Arena) setVertex(i int, v Vertex) {
	a.position[i] = v.Position
	a.normal[i] = v.Normal
	a.modelPosition[i] = v.ModelPosition
	a.modelNormal[i] = v.ModelNormal
	a.weight[i] = v.Weight
}

// move copies n entries of every buffer from src to dst. Ranges may overlap.
func (a *Arena) move(dst, src, n int) {
	if n <= 0 || dst == src {
		return
	}
	copy(a.position[dst:dst+n], a.position[src:src+n])
	copy(a.normal[dst:dst+n], a.normal[src:src+n])
	copy(a.modelPosition[dst:dst+n], a.modelPosition[src:src+n])
	copy(a.modelNormal[dst:dst+n], a.modelNormal[src:src+n])
	copy(a.weight[dst:dst+n], a.weight[src:src+n])
	copy(a.edge[dst:dst+n], a.edge[src:src+n])
}
