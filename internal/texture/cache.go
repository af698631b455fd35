package texture

import (
	"fmt"
	"image"
	"sync"
)

// Resolver maps a texture name from a job or model to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache decodes each indexed file at most once. Concurrent callers asking
// for the same file wait on the first decode.
type Cache struct {
	index *Index

	mu    sync.Mutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	img  *image.NRGBA
	err  error
}

func NewCache(index *Index) *Cache {
	return &Cache{index: index, items: make(map[string]*cacheEntry)}
}

// Resolve returns the decoded texture, or nil when the name is unknown or
// the file failed to decode.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	img, _ := c.Load(texName)
	return img
}

// Load is Resolve with the reason for a miss. Decode failures are cached.
func (c *Cache) Load(texName string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, texName)
	}

	c.mu.Lock()
	e, ok := c.items[path]
	if !ok {
		e = &cacheEntry{}
		c.items[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.img, e.err = LoadTexture(path) })
	return e.img, e.err
}

// Len reports how many files have been requested so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
