// Package surface describes the receiving surfaces a decal can be
// projected onto: static meshes, skinned meshes and heightfields.
package surface

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/skeleton"
)

const prefix = "surface: "

// ID identifies a surface for the lifetime of the process.
type ID uint64

var lastID atomic.Uint64

func newID() ID { return ID(lastID.Add(1)) }

// Kind is the receiver geometry type.
type Kind int

const (
	Static Kind = iota
	Skinned
	Terrain
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Skinned:
		return "skinned"
	case Terrain:
		return "terrain"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Snapshot is the plain-data copy of a surface taken before a projection
// hands work to its background goroutine.
type Snapshot struct {
	polygon.Snapshot
	Palette []mathutil.Mat4
}

// Surface is one receiving renderer. Sub distinguishes sub-meshes that
// share a model (and a skeleton).
type Surface struct {
	id   ID
	Name string
	Kind Kind
	Sub  int

	mesh     *Mesh
	height   *Heightfield
	skeleton *skeleton.Skeleton

	terrainOnce sync.Once

	mu    sync.RWMutex
	world mathutil.Mat4

	destroyed atomic.Bool
}

// NewStatic creates a static mesh receiver.
func NewStatic(name string, mesh *Mesh, world mathutil.Mat4) (*Surface, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf(prefix+"%s: %w", name, err)
	}
	return &Surface{id: newID(), Name: name, Kind: Static, mesh: mesh, world: world}, nil
}

// NewSkinned creates a skinned mesh receiver. A nil skeleton is allowed and
// behaves like a static mesh (no skin root).
func NewSkinned(name string, mesh *Mesh, skel *skeleton.Skeleton, world mathutil.Mat4) (*Surface, error) {
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf(prefix+"%s: %w", name, err)
	}
	if len(mesh.Weights) != len(mesh.Positions) {
		return nil, fmt.Errorf(prefix+"%s: %d weights for %d vertices", name, len(mesh.Weights), len(mesh.Positions))
	}
	return &Surface{id: newID(), Name: name, Kind: Skinned, mesh: mesh, skeleton: skel, world: world}, nil
}

// NewTerrain creates a heightfield receiver.
func NewTerrain(name string, hf *Heightfield, world mathutil.Mat4) (*Surface, error) {
	if err := hf.Validate(); err != nil {
		return nil, fmt.Errorf(prefix+"%s: %w", name, err)
	}
	return &Surface{id: newID(), Name: name, Kind: Terrain, height: hf, world: world}, nil
}

// ID returns the surface identity.
func (s *Surface) ID() ID { return s.id }

// Skeleton returns the skin root, or nil.
func (s *Surface) Skeleton() *skeleton.Skeleton { return s.skeleton }

// Heightfield returns the terrain data of a Terrain surface, or nil.
func (s *Surface) Heightfield() *Heightfield { return s.height }

// Mesh returns the model-space triangle list. Terrain is tessellated on
// first use.
func (s *Surface) Mesh() *Mesh {
	if s.Kind == Terrain {
		s.terrainOnce.Do(func() { s.mesh = s.height.Mesh() })
	}
	return s.mesh
}

// World returns the model-to-world transform.
func (s *Surface) World() mathutil.Mat4 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// SetWorld moves the surface.
func (s *Surface) SetWorld(m mathutil.Mat4) {
	s.mu.Lock()
	s.world = m
	s.mu.Unlock()
}

// Destroy marks the surface dead. Pools drop anything keyed by it and
// in-flight projections abort their work for it.
func (s *Surface) Destroy() { s.destroyed.Store(true) }

// Alive reports whether Destroy has not been called.
func (s *Surface) Alive() bool { return !s.destroyed.Load() }

// ErrDestroyed is returned when a destroyed surface is snapshotted.
var ErrDestroyed = errors.New(prefix + "destroyed")

// Snapshot copies the transform and skin palette into plain values.
// The skeleton must not be posed concurrently.
func (s *Surface) Snapshot() (Snapshot, error) {
	if !s.Alive() {
		return Snapshot{}, ErrDestroyed
	}
	world := s.World()
	snap := Snapshot{Snapshot: polygon.Snapshot{
		World:        world,
		NormalMatrix: mathutil.NormalMatrix(world),
	}}
	if s.Kind == Skinned && s.skeleton != nil {
		snap.HasSkinRoot = true
		snap.Palette = s.skeleton.Palette(world, nil)
	}
	return snap, nil
}

// Point maps a model-space position to world space, skinned by w when the
// snapshot carries a palette.
func (s Snapshot) Point(p mathutil.Vec3, w polygon.SkinWeight) mathutil.Vec3 {
	var m mathutil.Mat4
	if s.HasSkinRoot && polygon.SkinMatrix(s.Palette, w, &m) {
		return m.MulPoint(p)
	}
	return s.World.MulPoint(p)
}

// Direction maps a model-space normal to a unit world-space normal.
func (s Snapshot) Direction(n mathutil.Vec3, w polygon.SkinWeight) mathutil.Vec3 {
	var m mathutil.Mat4
	if s.HasSkinRoot && polygon.SkinMatrix(s.Palette, w, &m) {
		return m.MulDir(n).Normalize()
	}
	return s.NormalMatrix.MulVec3(n).Normalize()
}
