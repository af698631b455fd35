package decal

import (
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
)

// OutputMesh is the accumulated decal geometry for one (surface, material,
// sub-mesh) triple. Positions and normals are in the receiver's model space.
type OutputMesh struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	UVs       [][2]float64
	Weights   []polygon.SkinWeight
	Indices   []int
}

// VertexCount returns the number of vertices.
func (m *OutputMesh) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of triangles.
func (m *OutputMesh) TriangleCount() int { return len(m.Indices) / 3 }

// Append copies o onto the end of m, rebasing its indices.
func (m *OutputMesh) Append(o *OutputMesh) {
	base := len(m.Positions)
	m.Positions = append(m.Positions, o.Positions...)
	m.Normals = append(m.Normals, o.Normals...)
	m.UVs = append(m.UVs, o.UVs...)
	m.Weights = append(m.Weights, o.Weights...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Reset empties the mesh, keeping its buffers.
func (m *OutputMesh) Reset() {
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.UVs = m.UVs[:0]
	m.Weights = m.Weights[:0]
	m.Indices = m.Indices[:0]
}
