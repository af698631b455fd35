package surface

import (
	"errors"
	"fmt"

	"mu-decal-projector/internal/mathutil"
)

// Heightfield is a square grid of height samples. Sample (x, z) sits at
// model position (x/(R-1)·Size.x, h·Size.y, z/(R-1)·Size.z).
type Heightfield struct {
	Resolution int
	Size       mathutil.Vec3
	Heights    []float64 // Resolution², row-major by z
}

// NewHeightfield returns a flat heightfield.
func NewHeightfield(resolution int, size mathutil.Vec3) *Heightfield {
	return &Heightfield{
		Resolution: resolution,
		Size:       size,
		Heights:    make([]float64, resolution*resolution),
	}
}

// Validate checks the grid shape.
func (h *Heightfield) Validate() error {
	if h == nil {
		return errors.New("nil heightfield")
	}
	if h.Resolution < 2 {
		return fmt.Errorf("heightfield resolution %d < 2", h.Resolution)
	}
	if len(h.Heights) != h.Resolution*h.Resolution {
		return fmt.Errorf("heightfield has %d samples, want %d", len(h.Heights), h.Resolution*h.Resolution)
	}
	return nil
}

// At returns the sample at (x, z), clamped to the grid.
func (h *Heightfield) At(x, z int) float64 {
	r := h.Resolution
	x = min(max(x, 0), r-1)
	z = min(max(z, 0), r-1)
	return h.Heights[z*r+x]
}

// Set writes the sample at (x, z).
func (h *Heightfield) Set(x, z int, v float64) {
	h.Heights[z*h.Resolution+x] = v
}

func (h *Heightfield) cell() (dx, dz float64) {
	n := float64(h.Resolution - 1)
	return h.Size[0] / n, h.Size[2] / n
}

// Position returns the model-space position of sample (x, z).
func (h *Heightfield) Position(x, z int) mathutil.Vec3 {
	dx, dz := h.cell()
	return mathutil.Vec3{float64(x) * dx, h.At(x, z) * h.Size[1], float64(z) * dz}
}

// Normal returns the central-difference normal at sample (x, z).
func (h *Heightfield) Normal(x, z int) mathutil.Vec3 {
	dx, dz := h.cell()
	sx := (h.At(x+1, z) - h.At(x-1, z)) * h.Size[1] / (2 * dx)
	sz := (h.At(x, z+1) - h.At(x, z-1)) * h.Size[1] / (2 * dz)
	return mathutil.Vec3{-sx, 1, -sz}.Normalize()
}

// Mesh tessellates the grid into two +Y-facing triangles per cell.
func (h *Heightfield) Mesh() *Mesh {
	r := h.Resolution
	m := &Mesh{
		Positions: make([]mathutil.Vec3, 0, r*r),
		Normals:   make([]mathutil.Vec3, 0, r*r),
		Indices:   make([]int, 0, (r-1)*(r-1)*6),
	}
	for z := 0; z < r; z++ {
		for x := 0; x < r; x++ {
			m.Positions = append(m.Positions, h.Position(x, z))
			m.Normals = append(m.Normals, h.Normal(x, z))
		}
	}
	for z := 0; z < r-1; z++ {
		for x := 0; x < r-1; x++ {
			i00 := z*r + x
			i10 := i00 + 1
			i01 := i00 + r
			i11 := i01 + 1
			m.Indices = append(m.Indices, i00, i01, i10, i10, i01, i11)
		}
	}
	return m
}
