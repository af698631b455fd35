package decal

import (
	"mu-decal-projector/internal/polygon"
)

// Assemble fan-triangulates every polygon of polys not marked
// OutsideClipSpace and appends it to mesh. Vertices keep their model-space
// position pushed offset along the model normal; UVs come from the world
// position. It returns the number of triangles appended.
func Assemble(box Box, polys []polygon.Polygon, mesh *OutputMesh, offset float64) int {
	tris := 0
	for i := range polys {
		p := &polys[i]
		n := p.Count()
		if p.OutsideClipSpace || n < 3 {
			continue
		}

		base := len(mesh.Positions)
		for v := 0; v < n; v++ {
			r := p.RealIndex(v)
			mn := p.ModelNormal(r)
			mesh.Positions = append(mesh.Positions, p.ModelVertex(r).Add(mn.Scale(offset)))
			mesh.Normals = append(mesh.Normals, mn)
			mesh.UVs = append(mesh.UVs, box.UV(p.Vertex(r)))
			mesh.Weights = append(mesh.Weights, p.Weight(r))
		}
		for v := 1; v < n-1; v++ {
			mesh.Indices = append(mesh.Indices, base, base+v, base+v+1)
		}
		tris += n - 2
	}
	return tris
}
