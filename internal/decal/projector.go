package decal

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/soup"
	"mu-decal-projector/internal/surface"
)

const prefix = "decal: "

const (
	// DefaultOffset pushes decal vertices off the receiver along its normal.
	DefaultOffset = 0.01
	// DefaultTick is the polling interval of Run.
	DefaultTick = time.Millisecond
)

// ErrCanceled is returned by Run when a projection ends without output.
var ErrCanceled = errors.New(prefix + "projection canceled")

// State is the stage a Projector has reached.
type State int32

const (
	NotStarted State = iota
	Building
	SkinEvaluated
	BroadPhased
	Clipped
	Triangulated
	Completed
	Canceled
)

var stateNames = [...]string{"not-started", "building", "skin-evaluated", "broad-phased", "clipped", "triangulated", "completed", "canceled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Done reports whether s is terminal.
func (s State) Done() bool { return s == Completed || s == Canceled }

// Params describes one projection.
type Params struct {
	Box      Box
	Material *Material

	// Backside admits receiver polygons facing away from the box normal.
	Backside bool
	// Terrain admits heightfield receivers; they are skipped otherwise.
	Terrain bool

	PolygonsPerStep int     // soup polygons built per Step; 0 means soup.DefaultPolygonsPerStep
	MaxVertex       int     // clip window per polygon; 0 means polygon.DefaultMaxVertex
	Offset          float64 // along the model normal; 0 means DefaultOffset
}

// Result summarises a finished projection.
type Result struct {
	State     State
	Surfaces  int // receivers that received geometry
	Polygons  int // polygons left after clipping
	Triangles int // triangles committed
	Destroyed int // receivers skipped because they were destroyed
	Filtered  int // receivers skipped by the terrain switch
}

type workItem struct {
	soup *soup.Soup
	snap surface.Snapshot
}

type staged struct {
	surf *surface.Surface
	mesh *OutputMesh
}

type workResult struct {
	err       error
	staging   []staged
	polygons  int
	destroyed int
}

// Projector runs one decal projection as a resumable task. Receiver soups
// are built a chunk per Step on the caller's goroutine; evaluation, culling,
// clipping and triangulation then run on one worker goroutine into staging
// meshes that are committed to the mesh pool only if the projection
// completes.
//
// Projectors that share a soup pool must not run concurrently; launch them
// through a Sequencer.
type Projector struct {
	params    Params
	receivers []*surface.Surface
	soups     *soup.Pool
	meshes    *MeshPool

	state atomic.Int32

	next    int
	builder *soup.Builder
	built   []*soup.Soup

	done   chan workResult
	result Result
	cause  error
}

// NewProjector validates params and prepares a projection of params.Box onto
// receivers.
func NewProjector(params Params, receivers []*surface.Surface, soups *soup.Pool, meshes *MeshPool) (*Projector, error) {
	b := params.Box
	if b.Width <= 0 || b.Height <= 0 || b.Depth <= 0 {
		return nil, fmt.Errorf(prefix+"box extents must be positive, got %gx%gx%g", b.Width, b.Height, b.Depth)
	}
	if params.Material == nil {
		return nil, errors.New(prefix + "nil material")
	}
	if params.MaxVertex == 0 {
		params.MaxVertex = polygon.DefaultMaxVertex
	}
	if params.MaxVertex < 3 || params.MaxVertex > polygon.DefaultMaxVertex {
		return nil, fmt.Errorf(prefix+"max vertex %d outside [3, %d]", params.MaxVertex, polygon.DefaultMaxVertex)
	}
	if params.Offset == 0 {
		params.Offset = DefaultOffset
	}
	if params.Offset < 0 {
		return nil, fmt.Errorf(prefix+"negative offset %g", params.Offset)
	}
	if soups == nil || meshes == nil {
		return nil, errors.New(prefix + "nil pool")
	}
	return &Projector{
		params:    params,
		receivers: receivers,
		soups:     soups,
		meshes:    meshes,
	}, nil
}

// State returns the current stage. Safe to call from any goroutine.
func (p *Projector) State() State { return State(p.state.Load()) }

func (p *Projector) setState(s State) {
	p.state.Store(int32(s))
	Logger().Debug(prefix+"stage", "state", s)
}

// Result returns the outcome so far; it is final once State is terminal.
func (p *Projector) Result() Result {
	r := p.result
	r.State = p.State()
	return r
}

// Step advances the projection and reports whether more work remains.
// It builds at most one soup chunk per call, and while the worker runs it
// only polls for completion.
func (p *Projector) Step(ctx context.Context) bool {
	if p.done != nil {
		select {
		case r := <-p.done:
			p.finish(r)
			return false
		default:
			return true
		}
	}

	switch p.State() {
	case NotStarted:
		if !p.params.Material.Alive() {
			p.cancel(errors.New("material destroyed"))
			return false
		}
		p.setState(Building)
		return true
	case Building:
		if err := ctx.Err(); err != nil {
			p.cancel(err)
			return false
		}
		if p.build() {
			return true
		}
		return p.dispatch(ctx)
	}
	return false
}

// Run drives Step every tick until the projection ends.
func (p *Projector) Run(ctx context.Context, tick time.Duration) (Result, error) {
	if tick <= 0 {
		tick = DefaultTick
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for p.Step(ctx) {
		<-t.C
	}

	res := p.Result()
	if res.State == Canceled {
		return res, fmt.Errorf("%w: %w", ErrCanceled, p.cause)
	}
	return res, nil
}

// build performs one unit of soup construction and reports whether any
// receivers are left.
func (p *Projector) build() bool {
	for p.next < len(p.receivers) {
		s := p.receivers[p.next]
		if p.builder == nil {
			if !s.Alive() {
				p.skipDestroyed(s)
				continue
			}
			if s.Kind == surface.Terrain && !p.params.Terrain {
				p.result.Filtered++
				p.next++
				continue
			}
			if sp, ok := p.soups.Get(s.ID()); ok {
				p.built = append(p.built, sp)
				p.next++
				continue
			}
			p.builder = soup.NewBuilder(s, p.params.PolygonsPerStep)
		}

		more, err := p.builder.Step()
		if err != nil {
			p.builder = nil
			p.skipDestroyed(s)
			return p.next < len(p.receivers)
		}
		if more {
			return true
		}

		sp := p.builder.Soup()
		p.builder = nil
		if p.soups.Register(sp) {
			p.built = append(p.built, sp)
			p.next++
		} else {
			p.skipDestroyed(s)
		}
		return p.next < len(p.receivers)
	}
	return false
}

func (p *Projector) skipDestroyed(s *surface.Surface) {
	Logger().Warn(prefix+"receiver destroyed, skipping", "surface", s.Name, "id", s.ID())
	p.result.Destroyed++
	p.next++
}

// dispatch snapshots every built receiver and hands the rest of the
// pipeline to the worker.
func (p *Projector) dispatch(ctx context.Context) bool {
	items := make([]workItem, 0, len(p.built))
	for _, sp := range p.built {
		snap, err := sp.Surface.Snapshot()
		if err != nil {
			Logger().Warn(prefix+"receiver destroyed, skipping", "surface", sp.Surface.Name, "id", sp.Surface.ID())
			p.result.Destroyed++
			continue
		}
		items = append(items, workItem{soup: sp, snap: snap})
	}
	p.built = nil
	if len(items) == 0 && p.result.Destroyed > 0 {
		p.cancel(errors.New("all receivers destroyed"))
		return false
	}

	done := make(chan workResult, 1)
	p.done = done
	params := p.params
	go func() {
		done <- work(ctx, params, items, p.setState)
	}()
	return true
}

// work evaluates, culls, clips and triangulates items. It touches nothing
// but its arguments.
func work(ctx context.Context, params Params, items []workItem, setState func(State)) workResult {
	var (
		res     workResult
		scratch polygon.EvalScratch
		live    = make([]workItem, 0, len(items))
	)
	for _, it := range items {
		if !it.soup.Surface.Alive() {
			res.destroyed++
			continue
		}
		polys := it.soup.Polygons
		for i := range polys {
			polys[i].PrepareForEvaluation(it.snap.Snapshot)
			polys[i].EvaluateWorldSpace(it.snap.Palette, &scratch)
		}
		live = append(live, it)
	}
	setState(SkinEvaluated)
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	survivors := make([]Survivors, len(live))
	for i, it := range live {
		survivors[i] = Cull(params.Box, it.soup.Polygons, params.Backside, params.MaxVertex)
	}
	setState(BroadPhased)
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	planes := params.Box.Planes()
	for i := range survivors {
		res.polygons += ClipAll(planes[:], survivors[i].Polygons)
	}
	setState(Clipped)
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	for i, it := range live {
		mesh := &OutputMesh{}
		Assemble(params.Box, survivors[i].Polygons, mesh, params.Offset)
		res.staging = append(res.staging, staged{surf: it.soup.Surface, mesh: mesh})
	}
	setState(Triangulated)
	return res
}

// finish commits the staging meshes of a successful worker run.
func (p *Projector) finish(r workResult) {
	p.done = nil
	p.result.Destroyed += r.destroyed
	if r.err != nil {
		p.cancel(r.err)
		return
	}
	if !p.params.Material.Alive() {
		p.cancel(errors.New("material destroyed"))
		return
	}

	live := r.staging[:0]
	for _, st := range r.staging {
		if st.surf.Alive() {
			live = append(live, st)
		} else {
			p.result.Destroyed++
		}
	}
	if len(live) == 0 && p.result.Destroyed > 0 {
		p.cancel(errors.New("all receivers destroyed"))
		return
	}

	for _, st := range live {
		if st.mesh.TriangleCount() == 0 {
			continue
		}
		p.meshes.GetOrCreate(st.surf, p.params.Material).Append(st.mesh)
		p.result.Surfaces++
		p.result.Triangles += st.mesh.TriangleCount()
	}
	p.result.Polygons = r.polygons
	p.setState(Completed)
	Logger().Debug(prefix+"projection complete",
		"surfaces", p.result.Surfaces, "triangles", p.result.Triangles, "destroyed", p.result.Destroyed)
}

func (p *Projector) cancel(cause error) {
	p.cause = cause
	p.setState(Canceled)
	Logger().Debug(prefix+"projection canceled", "cause", cause)
}
