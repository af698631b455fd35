package surface

import (
	"errors"
	"fmt"

	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
)

// Mesh is an indexed triangle list in model space.
type Mesh struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	Weights   []polygon.SkinWeight // optional; required for skinned receivers
	Indices   []int                // three per triangle
}

// Validate checks buffer lengths and index bounds.
func (m *Mesh) Validate() error {
	if m == nil {
		return errors.New("nil mesh")
	}
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%d normals for %d positions", len(m.Normals), len(m.Positions))
	}
	if len(m.Weights) != 0 && len(m.Weights) != len(m.Positions) {
		return fmt.Errorf("%d weights for %d positions", len(m.Weights), len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Positions) {
			return fmt.Errorf("index %d = %d out of range [0, %d)", i, idx, len(m.Positions))
		}
	}
	return nil
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangle fills dst with the model-space corners of triangle t. World
// attributes are left zero; they are written by evaluation.
func (m *Mesh) Triangle(t int, dst *[3]polygon.Vertex) {
	for k := 0; k < 3; k++ {
		i := m.Indices[t*3+k]
		v := polygon.Vertex{
			ModelPosition: m.Positions[i],
			ModelNormal:   m.Normals[i],
		}
		if len(m.Weights) > 0 {
			v.Weight = m.Weights[i]
		}
		dst[k] = v
	}
}

// Bounds returns the model-space axis-aligned bounding box.
func (m *Mesh) Bounds() (lo, hi mathutil.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		lo = mathutil.Min(lo, p)
		hi = mathutil.Max(hi, p)
	}
	return lo, hi
}

// Quad returns a single flat quad of the given half-size on the XZ plane,
// facing +Y. Handy for floors and tests.
func Quad(half float64) *Mesh {
	upY := mathutil.Vec3{0, 1, 0}
	return &Mesh{
		Positions: []mathutil.Vec3{{-half, 0, -half}, {-half, 0, half}, {half, 0, half}, {half, 0, -half}},
		Normals:   []mathutil.Vec3{upY, upY, upY, upY},
		Indices:   []int{0, 1, 2, 0, 2, 3},
	}
}
