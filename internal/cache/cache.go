package cache

import (
	"sync"

	"github.com/worldphotos/playback/pkg/core"
)

// centroidEntry remembers whether a day had any photos at all, so empty
// days are also served from cache instead of re-querying the catalog.
type centroidEntry struct {
	point core.Point
	ok    bool
}

// CentroidCache caches computed day centroids. The scheduler evaluates the
// same pair of days on consecutive ticks, so nearly every lookup after the
// first tick is a hit. Latency matters here: the lookup sits on the tick path.
type CentroidCache struct {
	m         sync.Mutex
	centroids map[core.DayKey]centroidEntry
}

func NewCentroidCache() *CentroidCache {
	return &CentroidCache{
		centroids: make(map[core.DayKey]centroidEntry),
	}
}

// Get returns the cached centroid for a day. The second return reports a
// cache hit; the third is the cached "day has photos" flag.
func (c *CentroidCache) Get(key core.DayKey) (core.Point, bool, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if e, hit := c.centroids[key]; hit {
		return e.point, true, e.ok
	}
	return core.Point{}, false, false
}

// Put stores a computed centroid. ok=false records an empty day.
func (c *CentroidCache) Put(key core.DayKey, point core.Point, ok bool) {
	c.m.Lock()
	defer c.m.Unlock()
	c.centroids[key] = centroidEntry{point: point, ok: ok}
}

// Reset clears the cache. Called when the catalog is re-imported.
func (c *CentroidCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.centroids = make(map[core.DayKey]centroidEntry)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
