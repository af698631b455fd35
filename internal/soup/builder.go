// Package soup converts receiving surfaces into polygon soups: one convex
// polygon per source triangle, packed into a shared arena.
package soup

import (
	"errors"

	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/surface"
)

// DefaultPolygonsPerStep bounds the work done by one Builder.Step.
const DefaultPolygonsPerStep = 512

// ErrSurfaceDestroyed is returned when the surface dies mid-build.
var ErrSurfaceDestroyed = errors.New("soup: surface destroyed")

// Soup is the polygon set built from one receiving surface. Its arena is
// tight: three vertices per polygon.
type Soup struct {
	Surface  *surface.Surface
	Arena    *polygon.Arena
	Polygons []polygon.Polygon
}

// Builder incrementally builds the soup of one surface.
type Builder struct {
	surf    *surface.Surface
	mesh    *surface.Mesh
	perStep int
	next    int
	soup    *Soup
	err     error
}

// NewBuilder prepares a builder emitting at most perStep polygons per Step.
func NewBuilder(s *surface.Surface, perStep int) *Builder {
	if perStep <= 0 {
		perStep = DefaultPolygonsPerStep
	}
	mesh := s.Mesh()
	n := mesh.TriangleCount()
	return &Builder{
		surf:    s,
		mesh:    mesh,
		perStep: perStep,
		soup: &Soup{
			Surface:  s,
			Arena:    polygon.NewArena(n, 3),
			Polygons: make([]polygon.Polygon, 0, n),
		},
	}
}

// Step builds the next chunk. It reports whether more work remains.
// Once the surface is destroyed every call returns ErrSurfaceDestroyed and
// the partial soup is discarded.
func (b *Builder) Step() (more bool, err error) {
	if b.err != nil {
		return false, b.err
	}
	if !b.surf.Alive() {
		b.err = ErrSurfaceDestroyed
		b.soup = nil
		return false, b.err
	}

	total := b.mesh.TriangleCount()
	end := min(b.next+b.perStep, total)
	id := uint64(b.surf.ID())

	var tri [3]polygon.Vertex
	for t := b.next; t < end; t++ {
		b.mesh.Triangle(t, &tri)
		if degenerate(&tri) {
			continue
		}
		p := b.soup.Arena.Polygon(len(b.soup.Polygons))
		p.Surface = id
		p.Sub = b.surf.Sub
		for _, v := range tri {
			p.Append(v)
		}
		p.Finish()
		b.soup.Polygons = append(b.soup.Polygons, p)
	}
	b.next = end
	return b.next < total, nil
}

// Done reports whether the builder has finished or failed.
func (b *Builder) Done() bool {
	return b.err != nil || b.next >= b.mesh.TriangleCount()
}

// Soup returns the finished soup, or nil while building or after failure.
func (b *Builder) Soup() *Soup {
	if b.err != nil || b.next < b.mesh.TriangleCount() {
		return nil
	}
	return b.soup
}

// Build runs the builder to completion.
func (b *Builder) Build() (*Soup, error) {
	for {
		more, err := b.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			return b.soup, nil
		}
	}
}

func degenerate(tri *[3]polygon.Vertex) bool {
	e1 := tri[1].ModelPosition.Sub(tri[0].ModelPosition)
	e2 := tri[2].ModelPosition.Sub(tri[0].ModelPosition)
	return e1.Cross(e2).LenSq() < mathutil.Epsilon*mathutil.Epsilon
}
