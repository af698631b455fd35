package bmd

// Triangle is one 64-byte face record. Position, normal and texcoord are
// indexed independently; a Polygon of 4 is a quad split as 0-1-2, 0-2-3.
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16
}

// Corners returns 4 for quads and 3 otherwise.
func (t Triangle) Corners() int {
	if t.Polygon == 4 {
		return 4
	}
	return 3
}

// Fan calls fn for each triangle of the face in winding order.
func (t Triangle) Fan(fn func(a, b, c int)) {
	fn(0, 1, 2)
	if t.Corners() == 4 {
		fn(0, 2, 3)
	}
}

// Mesh is one sub-mesh. Verts are relative to the bone in Nodes.
type Mesh struct {
	Verts   [][3]float32
	Nodes   []int16
	Normals [][3]float32
	UVs     [][2]float32
	Tris    []Triangle
	TexPath string // slash-separated, e.g. "decal/blood01.tga"
}

// Bone is the bind pose of one skeleton node: the first key of the first
// action. Dummy bones carry no transform.
type Bone struct {
	Name         string
	Parent       int
	IsDummy      bool
	BindPosition [3]float64
	BindRotation [3]float64 // Euler XYZ radians
}
