package polygon

import (
	"math"
	"testing"

	"mu-decal-projector/internal/mathutil"
)

var up = mathutil.Vec3{0, 0, 1}

func newPolygon(maxVertex int, pts ...mathutil.Vec3) *Polygon {
	a := NewArena(1, maxVertex)
	p := a.Polygon(0)
	for i, pt := range pts {
		p.Append(Vertex{
			Position:      pt,
			Normal:        up,
			ModelPosition: pt,
			ModelNormal:   up,
			Weight:        RigidWeight(i),
		})
	}
	p.Finish()
	return &p
}

func vertices(p *Polygon) []Vertex {
	out := make([]Vertex, p.Count())
	for v := range out {
		out[v] = p.At(v)
	}
	return out
}

// checkEdges verifies every cached edge matches the vertices it joins.
func checkEdges(t *testing.T, p *Polygon) {
	t.Helper()
	n := p.Count()
	for v := 0; v < n; v++ {
		e := p.Edge(p.RealIndex(v))
		start := p.Vertex(p.RealIndex(v))
		end := p.Vertex(p.RealIndex((v + 1) % n))
		if e.Start.Position != start || e.End.Position != end {
			t.Fatalf("edge %d = %v→%v, want %v→%v", v, e.Start.Position, e.End.Position, start, end)
		}
		if !mathutil.ApproxEqual(e.Delta, end.Sub(start), 1e-12) {
			t.Fatalf("edge %d delta = %v, want %v", v, e.Delta, end.Sub(start))
		}
	}
}

func TestSplitInsideIsNoop(t *testing.T) {
	p := newPolygon(DefaultMaxVertex, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0})
	before := vertices(p)

	if p.SplitAndRemoveByPlane(mathutil.Plane{1, 0, 0, 1}) {
		t.Fatal("SplitAndRemoveByPlane reported outsideAll for an inside polygon")
	}
	after := vertices(p)
	if len(after) != len(before) {
		t.Fatalf("count = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("vertex %d changed: %v → %v", i, before[i], after[i])
		}
	}
}

func TestSplitOutsideAllLeavesGeometry(t *testing.T) {
	p := newPolygon(DefaultMaxVertex, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0})
	before := vertices(p)

	if !p.SplitAndRemoveByPlane(mathutil.Plane{1, 0, 0, -5}) {
		t.Fatal("expected outsideAll")
	}
	after := vertices(p)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("vertex %d changed: %v → %v", i, before[i], after[i])
		}
	}
}

func TestSplitStraddling(t *testing.T) {
	tri := []mathutil.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
	quad := []mathutil.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}}
	skew := []mathutil.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}}

	tests := []struct {
		name    string
		pts     []mathutil.Vec3
		plane   mathutil.Plane
		outside int
	}{
		{"one outside in middle", tri, mathutil.Plane{-1, 0, 0, 1}, 1},
		{"two outside wrapping", tri, mathutil.Plane{1, 0, 0, -1}, 2},
		{"run starts at zero", skew, mathutil.Plane{1, 0, 0, -0.5}, 1},
		{"quad tail run", quad, mathutil.Plane{0, -1, 0, 1}, 2},
		{"quad wrapping run", quad, mathutil.Plane{1, 0, 0, -1}, 2},
		{"quad single corner", quad, mathutil.Plane{-1, -1, 0, 3}, 1},
		{"quad three outside", quad, mathutil.Plane{1, 1, 0, -3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPolygon(DefaultMaxVertex, tt.pts...)
			n := p.Count()

			if p.SplitAndRemoveByPlane(tt.plane) {
				t.Fatal("unexpected outsideAll")
			}
			if got, want := p.Count()-n, 2-tt.outside; got != want {
				t.Fatalf("count change = %d, want %d", got, want)
			}

			onPlane := 0
			for v := 0; v < p.Count(); v++ {
				d := tt.plane.Dot(p.Vertex(p.RealIndex(v)))
				if d < -1e-9 {
					t.Errorf("vertex %d at %v is outside (d=%v)", v, p.Vertex(p.RealIndex(v)), d)
				}
				if math.Abs(d) < 1e-9 {
					onPlane++
				}
			}
			if onPlane < 2 {
				t.Errorf("%d vertices on plane, want at least 2", onPlane)
			}
			checkEdges(t, p)
		})
	}
}

func TestSplitRepeatedKeepsConvexBox(t *testing.T) {
	p := newPolygon(DefaultMaxVertex, mathutil.Vec3{-4, -4, 0}, mathutil.Vec3{4, -4, 0}, mathutil.Vec3{0, 6, 0})
	planes := []mathutil.Plane{
		{1, 0, 0, 1}, {-1, 0, 0, 1},
		{0, 1, 0, 1}, {0, -1, 0, 1},
	}
	for _, pl := range planes {
		if p.SplitAndRemoveByPlane(pl) {
			t.Fatalf("plane %v removed the polygon", pl)
		}
	}
	if p.Count() != 4 {
		t.Fatalf("count = %d, want 4 (unit square)", p.Count())
	}
	for v := 0; v < p.Count(); v++ {
		pos := p.Vertex(p.RealIndex(v))
		if math.Abs(math.Abs(pos[0])-1) > 1e-9 || math.Abs(math.Abs(pos[1])-1) > 1e-9 {
			t.Errorf("vertex %d = %v, want a corner of the unit square", v, pos)
		}
	}
	checkEdges(t, p)
}

func TestSplitWeightsRenormalized(t *testing.T) {
	a := NewArena(1, DefaultMaxVertex)
	p := a.Polygon(0)
	weights := []SkinWeight{
		{Bone: [4]int{1, 2, 0, 0}, Weight: [4]float64{0.7, 0.3, 0, 0}},
		{Bone: [4]int{1, 3, 0, 0}, Weight: [4]float64{0.2, 0.8, 0, 0}},
		{Bone: [4]int{4, 2, 0, 0}, Weight: [4]float64{0.5, 0.5, 0, 0}},
	}
	pts := []mathutil.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
	for i := range pts {
		p.Append(Vertex{Position: pts[i], ModelPosition: pts[i], Normal: up, ModelNormal: up, Weight: weights[i]})
	}
	p.Finish()

	p.SplitAndRemoveByPlane(mathutil.Plane{-1, -1, 0, 1.5})
	for v := 0; v < p.Count(); v++ {
		if s := p.Weight(p.RealIndex(v)).Sum(); math.Abs(s-1) > 1e-9 {
			t.Errorf("vertex %d weight sum = %v, want 1", v, s)
		}
	}
}

func TestLerpWeight(t *testing.T) {
	a := SkinWeight{Bone: [4]int{3, 4, 0, 0}, Weight: [4]float64{0.6, 0.4, 0, 0}}
	b := SkinWeight{Bone: [4]int{3, 5, 0, 0}, Weight: [4]float64{0.2, 0.8, 0, 0}}

	got := lerpWeight(a, b, 0.25)
	if got.Bone[0] != 3 || got.Bone[1] != 4 {
		t.Fatalf("bones = %v, want [3 4 ...]", got.Bone)
	}
	if w := got.Weight[0]; math.Abs(w-0.5/0.9) > 1e-12 {
		t.Errorf("slot 0 = %v, want %v", w, 0.5/0.9)
	}
	if w := got.Weight[1]; math.Abs(w-0.4/0.9) > 1e-12 {
		t.Errorf("slot 1 = %v, want %v", w, 0.4/0.9)
	}

	far := lerpWeight(a, b, 0.75)
	if far.Bone[1] != 5 {
		t.Errorf("slot 1 bone = %d, want 5 (nearer end)", far.Bone[1])
	}

	zero := lerpWeight(SkinWeight{}, SkinWeight{}, 0.5)
	if zero.Sum() != 0 || math.IsNaN(zero.Weight[0]) {
		t.Errorf("zero weights = %v, want all zero", zero.Weight)
	}
}

func TestRayTriangleIntersect(t *testing.T) {
	p := newPolygon(DefaultMaxVertex, mathutil.Vec3{-0.5, -0.5, 0}, mathutil.Vec3{0, 0.5, 0}, mathutil.Vec3{0.5, -0.5, 0})
	if n := p.FaceNormal(); !mathutil.ApproxEqual(n, mathutil.Vec3{0, 0, -1}, 1e-12) {
		t.Fatalf("face normal = %v, want (0,0,-1)", n)
	}

	hit, pt := p.RayTriangleIntersect(mathutil.Vec3{0, 0, 2}, mathutil.Vec3{0, 0, -2})
	if !hit {
		t.Fatal("center ray missed")
	}
	if !mathutil.ApproxEqual(pt, mathutil.Vec3{}, 1e-9) {
		t.Errorf("hit = %v, want origin", pt)
	}

	if hit, _ := p.RayTriangleIntersect(mathutil.Vec3{1, 0, 2}, mathutil.Vec3{1, 0, -2}); hit {
		t.Error("ray at x=1 hit")
	}
	if hit, _ := p.RayTriangleIntersect(mathutil.Vec3{0, 0, 1}, mathutil.Vec3{0, 0, 0.5}); hit {
		t.Error("segment ending above the triangle hit")
	}
}

func TestRayTriangleRequiresTriangle(t *testing.T) {
	p := newPolygon(DefaultMaxVertex, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{1, 1, 0}, mathutil.Vec3{0, 1, 0})
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a quad")
		}
	}()
	p.RayTriangleIntersect(mathutil.Vec3{0.5, 0.5, 1}, mathutil.Vec3{0.5, 0.5, -1})
}

func TestRealIndexBounds(t *testing.T) {
	a := NewArena(2, 8)
	p := a.Polygon(1)
	if got := p.RealIndex(7); got != 15 {
		t.Errorf("RealIndex(7) = %d, want 15", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for virtual index == maxVertex")
		}
	}()
	p.RealIndex(8)
}

func TestSplitOverflowPanics(t *testing.T) {
	p := newPolygon(3, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{2, 0, 0}, mathutil.Vec3{0, 2, 0})
	defer func() {
		if recover() == nil {
			t.Error("expected panic when the clip outgrows the window")
		}
	}()
	p.SplitAndRemoveByPlane(mathutil.Plane{-1, 0, 0, 1})
}

func TestCopyToIsDeep(t *testing.T) {
	p := newPolygon(3, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{2, 0, 0}, mathutil.Vec3{0, 2, 0})
	p.Surface, p.Sub = 7, 2

	dst := NewArena(2, DefaultMaxVertex)
	c := p.CopyTo(dst, 1)
	if c.Surface != 7 || c.Sub != 2 || c.Count() != 3 {
		t.Fatalf("copy header = (%d, %d, %d), want (7, 2, 3)", c.Surface, c.Sub, c.Count())
	}

	c.SplitAndRemoveByPlane(mathutil.Plane{-1, 0, 0, 1})
	if c.Count() != 4 {
		t.Fatalf("copy count after clip = %d, want 4", c.Count())
	}
	if p.Count() != 3 || p.Vertex(p.RealIndex(1)) != (mathutil.Vec3{2, 0, 0}) {
		t.Error("clipping the copy modified the original")
	}
	checkEdges(t, &c)
}

func TestEvaluateWorldSpace(t *testing.T) {
	var scratch EvalScratch

	t.Run("static", func(t *testing.T) {
		p := newPolygon(3, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0})
		world := mathutil.FromMat3Translation(mathutil.RotX(math.Pi/2), mathutil.Vec3{0, 0, 5})
		p.PrepareForEvaluation(Snapshot{World: world, NormalMatrix: mathutil.NormalMatrix(world)})
		p.EvaluateWorldSpace(nil, &scratch)

		if got := p.Vertex(p.RealIndex(2)); !mathutil.ApproxEqual(got, mathutil.Vec3{0, 0, 6}, 1e-12) {
			t.Errorf("vertex 2 = %v, want (0,0,6)", got)
		}
		if got := p.FaceNormal(); !mathutil.ApproxEqual(got, mathutil.Vec3{0, -1, 0}, 1e-12) {
			t.Errorf("face normal = %v, want (0,-1,0)", got)
		}
		checkEdges(t, p)
	})

	t.Run("skinned blend", func(t *testing.T) {
		a := NewArena(1, 3)
		p := a.Polygon(0)
		half := SkinWeight{Bone: [4]int{0, 1, 0, 0}, Weight: [4]float64{0.5, 0.5, 0, 0}}
		for _, pt := range []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
			p.Append(Vertex{ModelPosition: pt, ModelNormal: up, Weight: half})
		}
		p.PrepareForEvaluation(Snapshot{World: mathutil.Mat4Identity(), NormalMatrix: mathutil.Mat3Identity(), HasSkinRoot: true})

		palette := []mathutil.Mat4{
			mathutil.Mat4Identity(),
			mathutil.FromMat3Translation(mathutil.Mat3Identity(), mathutil.Vec3{2, 0, 0}),
		}
		p.EvaluateWorldSpace(palette, &scratch)

		if got := p.Vertex(p.RealIndex(0)); !mathutil.ApproxEqual(got, mathutil.Vec3{1, 0, 0}, 1e-12) {
			t.Errorf("vertex 0 = %v, want (1,0,0)", got)
		}
		if got := p.Normal(p.RealIndex(1)); !mathutil.ApproxEqual(got, up, 1e-12) {
			t.Errorf("normal = %v, want %v", got, up)
		}
	})

	t.Run("skin root missing falls back to world", func(t *testing.T) {
		p := newPolygon(3, mathutil.Vec3{0, 0, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0})
		world := mathutil.FromMat3Translation(mathutil.Mat3Identity(), mathutil.Vec3{0, 3, 0})
		p.PrepareForEvaluation(Snapshot{World: world, NormalMatrix: mathutil.Mat3Identity()})
		palette := []mathutil.Mat4{mathutil.FromMat3Translation(mathutil.Mat3Identity(), mathutil.Vec3{9, 9, 9})}
		p.EvaluateWorldSpace(palette, &scratch)

		if got := p.Vertex(p.RealIndex(0)); got != (mathutil.Vec3{0, 3, 0}) {
			t.Errorf("vertex 0 = %v, want (0,3,0)", got)
		}
	})
}
