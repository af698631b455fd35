package decal

import (
	"image"
	"sync"
	"sync/atomic"

	"mu-decal-projector/internal/surface"
)

var lastMaterialID atomic.Uint64

// Material is a decal texture. Destroying it releases every mesh built
// with it on the next MeshPool.Collect.
type Material struct {
	id      uint64
	Name    string
	Texture *image.NRGBA // nil draws UV debug colours in previews

	destroyed atomic.Bool
}

// NewMaterial returns a live material.
func NewMaterial(name string, tex *image.NRGBA) *Material {
	return &Material{id: lastMaterialID.Add(1), Name: name, Texture: tex}
}

// ID returns the material identity.
func (m *Material) ID() uint64 { return m.id }

// Destroy marks the material dead.
func (m *Material) Destroy() { m.destroyed.Store(true) }

// Alive reports whether Destroy has not been called.
func (m *Material) Alive() bool { return !m.destroyed.Load() }

// MeshKey identifies one output mesh.
type MeshKey struct {
	Surface  surface.ID
	Material uint64
	Sub      int
}

// Entry is one output mesh together with the objects that keep it alive.
type Entry struct {
	Key      MeshKey
	Surface  *surface.Surface
	Material *Material
	Mesh     *OutputMesh
}

// MeshPool holds the accumulated output meshes. Repeated projections with the
// same surface and material append to the same mesh.
type MeshPool struct {
	mu      sync.Mutex
	entries map[MeshKey]*Entry
}

// NewMeshPool returns an empty pool.
func NewMeshPool() *MeshPool {
	return &MeshPool{entries: make(map[MeshKey]*Entry)}
}

// KeyFor returns the key of the mesh for s and mat.
func KeyFor(s *surface.Surface, mat *Material) MeshKey {
	return MeshKey{Surface: s.ID(), Material: mat.ID(), Sub: s.Sub}
}

// GetOrCreate returns the mesh for s and mat, creating an empty one if
// needed.
func (p *MeshPool) GetOrCreate(s *surface.Surface, mat *Material) *OutputMesh {
	key := KeyFor(s, mat)
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok {
		return e.Mesh
	}
	e := &Entry{Key: key, Surface: s, Material: mat, Mesh: &OutputMesh{}}
	p.entries[key] = e
	return e.Mesh
}

// Get returns the mesh for key if present.
func (p *MeshPool) Get(key MeshKey) (*OutputMesh, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	return e.Mesh, true
}

// Entries returns a snapshot of the pool's contents.
func (p *MeshPool) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	return out
}

// Len returns the number of meshes.
func (p *MeshPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Collect disposes of meshes whose surface or material has been destroyed
// and returns how many were removed.
func (p *MeshPool) Collect() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for key, e := range p.entries {
		if !e.Surface.Alive() || !e.Material.Alive() {
			delete(p.entries, key)
			n++
		}
	}
	return n
}
