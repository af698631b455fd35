package polygon

import (
	"fmt"

	"mu-decal-projector/internal/mathutil"
)

// Snapshot is the plain-data copy of receiver state a polygon needs to
// evaluate itself off the caller's goroutine.
type Snapshot struct {
	World        mathutil.Mat4
	NormalMatrix mathutil.Mat3
	HasSkinRoot  bool
}

// Polygon is a convex polygon living in a window of an Arena.
// Virtual vertex v maps to real arena index base+v.
type Polygon struct {
	arena  *Arena
	base   int
	count  int
	normal mathutil.Vec3
	snap   Snapshot

	// Surface and Sub identify the receiving surface the polygon came from.
	Surface uint64
	Sub     int

	// OutsideClipSpace marks a polygon rejected by the broad phase or
	// clipped away entirely.
	OutsideClipSpace bool
}

// Count returns the number of vertices.
func (p *Polygon) Count() int { return p.count }

// MaxVertex returns the capacity of the polygon's window.
func (p *Polygon) MaxVertex() int { return p.arena.maxVertex }

// FaceNormal returns the unit normal derived from the first three vertices.
func (p *Polygon) FaceNormal() mathutil.Vec3 { return p.normal }

// RealIndex maps a virtual vertex index to its arena index.
func (p *Polygon) RealIndex(virtual int) int {
	if virtual < 0 || virtual >= p.arena.maxVertex {
		panic(fmt.Sprintf(prefix+"virtual index %d out of range [0, %d)", virtual, p.arena.maxVertex))
	}
	return p.base + virtual
}

// Vertex returns the world position at real index i.
func (p *Polygon) Vertex(i int) mathutil.Vec3 { return p.arena.position[i] }

// Normal returns the world normal at real index i.
func (p *Polygon) Normal(i int) mathutil.Vec3 { return p.arena.normal[i] }

// ModelVertex returns the model-space position at real index i.
func (p *Polygon) ModelVertex(i int) mathutil.Vec3 { return p.arena.modelPosition[i] }

// ModelNormal returns the model-space normal at real index i.
func (p *Polygon) ModelNormal(i int) mathutil.Vec3 { return p.arena.modelNormal[i] }

// Weight returns the skin weight at real index i.
func (p *Polygon) Weight(i int) SkinWeight { return p.arena.weight[i] }

// Edge returns the edge starting at real index i.
func (p *Polygon) Edge(i int) Edge { return p.arena.edge[i] }

// At returns every attribute of virtual vertex v.
func (p *Polygon) At(v int) Vertex { return p.arena.vertex(p.RealIndex(v)) }

// Append adds a vertex. Call Finish once all vertices are in place.
func (p *Polygon) Append(v Vertex) {
	if p.count >= p.arena.maxVertex {
		panic(fmt.Sprintf(prefix+"vertex count would exceed %d", p.arena.maxVertex))
	}
	p.arena.setVertex(p.base+p.count, v)
	p.count++
}

// Finish rebuilds every edge and the face normal.
func (p *Polygon) Finish() {
	for v := 0; v < p.count; v++ {
		p.rebuildEdge(v)
	}
	p.updateNormal()
}

func (p *Polygon) rebuildEdge(v int) {
	next := v + 1
	if next == p.count {
		next = 0
	}
	p.arena.edge[p.base+v].set(p.arena.vertex(p.base+v), p.arena.vertex(p.base+next))
}

func (p *Polygon) updateNormal() {
	if p.count < 3 {
		p.normal = mathutil.Vec3{}
		return
	}
	v0 := p.arena.position[p.base]
	e1 := p.arena.position[p.base+1].Sub(v0)
	e2 := p.arena.position[p.base+2].Sub(v0)
	p.normal = e1.Cross(e2).Normalize()
}

// SplitAndRemoveByPlane clips the polygon in place against plane, keeping
// the side where plane.Dot >= 0. It reports true when every vertex is
// outside; geometry is then left untouched and the caller drops the polygon.
//
// The polygon must be convex: a single contiguous run of outside vertices is
// assumed, not verified.
func (p *Polygon) SplitAndRemoveByPlane(plane mathutil.Plane) (outsideAll bool) {
	n := p.count
	a := p.arena

	var mask uint64
	numOut := 0
	for v := 0; v < n; v++ {
		if plane.Dot(a.position[p.base+v]) < 0 {
			mask |= 1 << uint(v)
			numOut++
		}
	}
	if numOut == n {
		return true
	}
	if numOut == 0 {
		return false
	}

	isOut := func(v int) bool { return mask&(1<<uint(v)) != 0 }

	// Start of the outside run: an outside vertex whose predecessor is inside.
	s := 0
	for v := 0; v < n; v++ {
		if isOut(v) && !isOut((v+n-1)%n) {
			s = v
			break
		}
	}
	e := (s + numOut - 1) % n
	prev := (s + n - 1) % n
	next := (e + 1) % n

	enter := a.edge[p.base+prev].intersect(plane)
	exit := a.edge[p.base+e].intersect(plane)

	inside := n - numOut
	count := inside + 2
	if count > a.maxVertex {
		panic(fmt.Sprintf(prefix+"clip would grow polygon to %d vertices (max %d); input not convex", count, a.maxVertex))
	}

	var ia int
	if s > 0 && s <= e {
		// Outside run sits in the middle: shift the tail over it.
		a.move(p.base+s+2, p.base+e+1, n-e-1)
		ia = s
	} else {
		// Run starts at 0 or wraps past the end: rotate the inside run to the front.
		a.move(p.base, p.base+next, inside)
		ia = inside
	}
	ib := ia + 1

	a.setVertex(p.base+ia, enter)
	a.setVertex(p.base+ib, exit)
	p.count = count

	p.rebuildEdge((ia + count - 1) % count)
	p.rebuildEdge(ia)
	p.rebuildEdge(ib)
	return false
}

// CopyTo deep-copies the polygon into window slot of dst.
func (p *Polygon) CopyTo(dst *Arena, slot int) Polygon {
	out := dst.Polygon(slot)
	if p.count > dst.maxVertex {
		panic(fmt.Sprintf(prefix+"polygon of %d vertices does not fit window of %d", p.count, dst.maxVertex))
	}
	src := p.arena
	n := p.count
	copy(dst.position[out.base:out.base+n], src.position[p.base:p.base+n])
	copy(dst.normal[out.base:out.base+n], src.normal[p.base:p.base+n])
	copy(dst.modelPosition[out.base:out.base+n], src.modelPosition[p.base:p.base+n])
	copy(dst.modelNormal[out.base:out.base+n], src.modelNormal[p.base:p.base+n])
	copy(dst.weight[out.base:out.base+n], src.weight[p.base:p.base+n])
	copy(dst.edge[out.base:out.base+n], src.edge[p.base:p.base+n])

	out.count = n
	out.normal = p.normal
	out.snap = p.snap
	out.Surface = p.Surface
	out.Sub = p.Sub
	return out
}
