package decal

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/skeleton"
	"mu-decal-projector/internal/soup"
	"mu-decal-projector/internal/surface"
)

type rig struct {
	soups  *soup.Pool
	meshes *MeshPool
	mat    *Material
}

func newRig() *rig {
	return &rig{soups: soup.NewPool(), meshes: NewMeshPool(), mat: NewMaterial("splat", nil)}
}

func (r *rig) project(t *testing.T, ctx context.Context, params Params, receivers ...*surface.Surface) (Result, error) {
	t.Helper()
	if params.Material == nil {
		params.Material = r.mat
	}
	p, err := NewProjector(params, receivers, r.soups, r.meshes)
	if err != nil {
		t.Fatalf("NewProjector: %v", err)
	}
	return p.Run(ctx, time.Microsecond)
}

func newFloor(t *testing.T) *surface.Surface {
	t.Helper()
	s, err := surface.NewStatic("floor", surface.Quad(0.75), mathutil.Mat4Identity())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTerrain(t *testing.T, res int) *surface.Surface {
	t.Helper()
	hf := surface.NewHeightfield(res, mathutil.Vec3{2, 1, 2})
	world := mathutil.FromMat3Translation(mathutil.Mat3Identity(), mathutil.Vec3{-1, 0, -1})
	s, err := surface.NewTerrain("ground", hf, world)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewProjectorValidates(t *testing.T) {
	r := newRig()
	bad := []Params{
		{Box: unitBox(mathutil.Vec3{}), Material: nil},
		{Box: LookBox(mathutil.Vec3{}, up, back, 0, 1, 1), Material: r.mat},
		{Box: unitBox(mathutil.Vec3{}), Material: r.mat, MaxVertex: 65},
		{Box: unitBox(mathutil.Vec3{}), Material: r.mat, Offset: -0.5},
	}
	for i, params := range bad {
		if _, err := NewProjector(params, nil, r.soups, r.meshes); err == nil {
			t.Errorf("params %d accepted", i)
		}
	}
}

func TestProjectDefaultOffset(t *testing.T) {
	r := newRig()
	floor := newFloor(t)
	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{})}, floor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Triangles == 0 {
		t.Fatal("no triangles projected")
	}
	out, ok := r.meshes.Get(KeyFor(floor, r.mat))
	if !ok {
		t.Fatal("no committed mesh")
	}
	for i, p := range out.Positions {
		if math.Abs(p[1]-DefaultOffset) > 1e-12 {
			t.Errorf("vertex %d height = %g, want %g", i, p[1], DefaultOffset)
		}
	}
}

func TestProjectNoOverlap(t *testing.T) {
	r := newRig()
	floor := newFloor(t)
	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{10, 0, 0})}, floor)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != Completed || res.Triangles != 0 {
		t.Fatalf("result = %+v, want completed with no triangles", res)
	}
	if m, ok := r.meshes.Get(KeyFor(floor, r.mat)); ok && m.TriangleCount() != 0 {
		t.Errorf("mesh has %d triangles, want 0", m.TriangleCount())
	}
}

func TestProjectAccumulates(t *testing.T) {
	r := newRig()
	floor := newFloor(t)
	params := Params{Box: unitBox(mathutil.Vec3{}), Offset: DefaultOffset}

	first, err := r.project(t, context.Background(), params, floor)
	if err != nil {
		t.Fatal(err)
	}
	if first.State != Completed || first.Triangles == 0 || first.Surfaces != 1 {
		t.Fatalf("first = %+v", first)
	}
	if r.soups.Len() != 1 {
		t.Errorf("soup pool holds %d soups, want 1", r.soups.Len())
	}

	second, err := r.project(t, context.Background(), params, floor)
	if err != nil {
		t.Fatal(err)
	}
	if second.Triangles != first.Triangles {
		t.Errorf("reprojection produced %d triangles, want %d", second.Triangles, first.Triangles)
	}
	if r.meshes.Len() != 1 {
		t.Fatalf("mesh pool holds %d meshes, want 1", r.meshes.Len())
	}
	m, _ := r.meshes.Get(KeyFor(floor, r.mat))
	if m.TriangleCount() != first.Triangles*2 {
		t.Errorf("mesh triangles = %d, want %d", m.TriangleCount(), first.Triangles*2)
	}
	if a := meshArea(m); math.Abs(a-2) > 1e-9 {
		t.Errorf("accumulated area = %g, want 2", a)
	}
}

func TestProjectCanceledContext(t *testing.T) {
	r := newRig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.project(t, ctx, Params{Box: unitBox(mathutil.Vec3{})}, newFloor(t))
	if res.State != Canceled {
		t.Fatalf("state = %v, want canceled", res.State)
	}
	if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want ErrCanceled wrapping context.Canceled", err)
	}
	if r.meshes.Len() != 0 {
		t.Error("canceled projection produced meshes")
	}
}

func TestProjectAllReceiversDestroyed(t *testing.T) {
	r := newRig()
	floor := newFloor(t)
	floor.Destroy()

	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{})}, floor)
	if res.State != Canceled || !errors.Is(err, ErrCanceled) {
		t.Fatalf("result = %+v, err = %v; want canceled", res, err)
	}
	if res.Destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", res.Destroyed)
	}
}

func TestProjectSkipsDestroyedReceiver(t *testing.T) {
	r := newRig()
	dead, live := newFloor(t), newFloor(t)
	dead.Destroy()

	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{})}, dead, live)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != Completed || res.Surfaces != 1 || res.Destroyed != 1 {
		t.Errorf("result = %+v, want one surface and one destroyed", res)
	}
}

func TestProjectDestroyMidBuild(t *testing.T) {
	r := newRig()
	ground := newTerrain(t, 10)
	p, err := NewProjector(Params{
		Box:             LookBox(mathutil.Vec3{}, up, back, 1, 1, 1),
		Material:        r.mat,
		Terrain:         true,
		PolygonsPerStep: 10,
	}, []*surface.Surface{ground}, r.soups, r.meshes)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	p.Step(ctx) // start
	if !p.Step(ctx) || p.State() != Building {
		t.Fatalf("state after one chunk = %v, want building", p.State())
	}
	ground.Destroy()
	for p.Step(ctx) {
	}

	if p.State() != Canceled {
		t.Errorf("state = %v, want canceled", p.State())
	}
	if r.soups.Len() != 0 {
		t.Error("partial soup was registered")
	}
	if r.meshes.Len() != 0 {
		t.Error("canceled projection produced meshes")
	}
}

func TestProjectTerrainSwitch(t *testing.T) {
	box := LookBox(mathutil.Vec3{}, up, back, 1, 1, 1)
	for _, enabled := range []bool{false, true} {
		r := newRig()
		res, err := r.project(t, context.Background(), Params{Box: box, Terrain: enabled}, newTerrain(t, 9))
		if err != nil {
			t.Fatal(err)
		}
		if !enabled {
			if res.Filtered != 1 || res.Triangles != 0 {
				t.Errorf("terrain disabled: result = %+v", res)
			}
			continue
		}
		if res.Filtered != 0 || res.Triangles == 0 {
			t.Errorf("terrain enabled: result = %+v", res)
		}
		for _, e := range r.meshes.Entries() {
			if a := meshArea(e.Mesh); math.Abs(a-1) > 1e-9 {
				t.Errorf("terrain decal area = %g, want 1", a)
			}
		}
	}
}

func TestProjectBackside(t *testing.T) {
	box := LookBox(mathutil.Vec3{}, down, back, 1, 1, 1)
	for _, backside := range []bool{false, true} {
		r := newRig()
		res, err := r.project(t, context.Background(), Params{Box: box, Backside: backside}, newFloor(t))
		if err != nil {
			t.Fatal(err)
		}
		if got := res.Triangles > 0; got != backside {
			t.Errorf("backside=%v: triangles = %d", backside, res.Triangles)
		}
	}
}

func TestProjectSkinned(t *testing.T) {
	skel, err := skeleton.New([]skeleton.Bone{{Parent: -1, Rotation: mathutil.QuatIdentity()}})
	if err != nil {
		t.Fatal(err)
	}
	if err := skel.SetPose(0, mathutil.Vec3{5, 0, 0}, mathutil.QuatIdentity()); err != nil {
		t.Fatal(err)
	}
	m := surface.Quad(0.75)
	m.Weights = make([]polygon.SkinWeight, len(m.Positions))
	for i := range m.Weights {
		m.Weights[i] = polygon.RigidWeight(0)
	}
	body, err := surface.NewSkinned("body", m, skel, mathutil.Mat4Identity())
	if err != nil {
		t.Fatal(err)
	}

	r := newRig()
	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{})}, body)
	if err != nil {
		t.Fatal(err)
	}
	if res.Triangles != 0 {
		t.Fatalf("bind-pose location hit: %d triangles", res.Triangles)
	}

	res, err = r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{5, 0, 0})}, body)
	if err != nil {
		t.Fatal(err)
	}
	if res.Triangles == 0 {
		t.Fatal("posed location missed")
	}
	out, _ := r.meshes.Get(KeyFor(body, r.mat))
	for i, p := range out.Positions {
		if math.Abs(p[0]) > 0.5+1e-9 {
			t.Errorf("vertex %d = %v not in model space", i, p)
		}
		if out.Weights[i].Bone[0] != 0 || math.Abs(out.Weights[i].Sum()-1) > 1e-9 {
			t.Errorf("vertex %d weight = %+v", i, out.Weights[i])
		}
	}
}

func TestProjectMaterialDestroyed(t *testing.T) {
	r := newRig()
	r.mat.Destroy()
	res, err := r.project(t, context.Background(), Params{Box: unitBox(mathutil.Vec3{})}, newFloor(t))
	if res.State != Canceled || !errors.Is(err, ErrCanceled) {
		t.Errorf("result = %+v, err = %v; want canceled", res, err)
	}
}

func TestMeshPoolCollect(t *testing.T) {
	r := newRig()
	a, b := newFloor(t), newFloor(t)
	other := NewMaterial("other", nil)
	r.meshes.GetOrCreate(a, r.mat)
	r.meshes.GetOrCreate(b, r.mat)
	r.meshes.GetOrCreate(b, other)
	if r.meshes.GetOrCreate(a, r.mat) == nil || r.meshes.Len() != 3 {
		t.Fatalf("pool holds %d meshes, want 3", r.meshes.Len())
	}

	a.Destroy()
	other.Destroy()
	if n := r.meshes.Collect(); n != 2 {
		t.Errorf("Collect = %d, want 2", n)
	}
	if _, ok := r.meshes.Get(KeyFor(b, r.mat)); !ok {
		t.Error("live mesh collected")
	}
}

func TestSequencer(t *testing.T) {
	r := newRig()
	seq := NewSequencer(time.Microsecond)
	floor := newFloor(t)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		p, err := NewProjector(Params{Box: unitBox(mathutil.Vec3{}), Material: r.mat}, []*surface.Surface{floor}, r.soups, r.meshes)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = seq.Launch(context.Background(), p)
		}()
	}
	wg.Wait()

	if seq.Busy() {
		t.Error("sequencer still busy")
	}
	total := 0
	for i, res := range results {
		if res.State != Completed {
			t.Errorf("projection %d state = %v", i, res.State)
		}
		total += res.Triangles
	}
	m, _ := r.meshes.Get(KeyFor(floor, r.mat))
	if m.TriangleCount() != total {
		t.Errorf("mesh triangles = %d, want %d", m.TriangleCount(), total)
	}
}

func TestStateString(t *testing.T) {
	if Completed.String() != "completed" || State(42).String() != "State(42)" {
		t.Error("unexpected state names")
	}
	if !Canceled.Done() || Clipped.Done() {
		t.Error("Done misreports terminal states")
	}
}
