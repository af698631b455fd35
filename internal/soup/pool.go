package soup

import (
	"sync"

	"mu-decal-projector/internal/surface"
)

// Pool caches finished soups by surface identity so repeated projections
// onto the same receiver skip the build.
type Pool struct {
	mu    sync.Mutex
	soups map[surface.ID]*Soup
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{soups: make(map[surface.ID]*Soup)}
}

// Get returns the soup for id if one is registered and its surface lives.
func (p *Pool) Get(id surface.ID) (*Soup, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.soups[id]
	if !ok {
		return nil, false
	}
	if !s.Surface.Alive() {
		delete(p.soups, id)
		return nil, false
	}
	return s, true
}

// Register stores a finished soup. Soups of destroyed surfaces are refused.
func (p *Pool) Register(s *Soup) bool {
	if s == nil || !s.Surface.Alive() {
		return false
	}
	p.mu.Lock()
	p.soups[s.Surface.ID()] = s
	p.mu.Unlock()
	return true
}

// Collect drops soups whose surface has been destroyed and returns how many
// were removed.
func (p *Pool) Collect() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, s := range p.soups {
		if !s.Surface.Alive() {
			delete(p.soups, id)
			n++
		}
	}
	return n
}

// Len returns the number of cached soups.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.soups)
}
