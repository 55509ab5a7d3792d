package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/worldphotos/playback/pkg/core"
)

// Backend stores the photo collection in memory. This is the default
// catalog for typical collections, which fit comfortably in a few MB.
type Backend struct {
	loc *time.Location

	photos []core.Photo           // sorted by timestamp
	byDay  map[core.DayKey][]int  // indexes into photos
	rng    core.Range
	hasAny bool

	mu sync.RWMutex
}

// New creates a new memory backend. Day keys are truncated in loc.
func New(loc *time.Location) *Backend {
	return &Backend{
		loc:   loc,
		byDay: make(map[core.DayKey][]int),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Import replaces the catalog contents with the given photos.
func (b *Backend) Import(photos []core.Photo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.photos = make([]core.Photo, len(photos))
	copy(b.photos, photos)
	sort.Slice(b.photos, func(i, j int) bool {
		return b.photos[i].Timestamp < b.photos[j].Timestamp
	})

	b.byDay = make(map[core.DayKey][]int)
	for i, p := range b.photos {
		key := core.DayKeyOf(p.Timestamp, b.loc)
		b.byDay[key] = append(b.byDay[key], i)
	}

	b.hasAny = len(b.photos) > 0
	if b.hasAny {
		b.rng = core.Range{
			Min: b.photos[0].Timestamp,
			Max: b.photos[len(b.photos)-1].Timestamp,
		}
	} else {
		b.rng = core.Range{}
	}

	return nil
}

// All returns every photo in timestamp order.
func (b *Backend) All() ([]core.Photo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Photo, len(b.photos))
	copy(out, b.photos)
	return out, nil
}

// OnDay returns all photos whose capture time falls on the given day.
func (b *Backend) OnDay(key core.DayKey) ([]core.Photo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	idxs := b.byDay[key]
	out := make([]core.Photo, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, b.photos[i])
	}
	return out, nil
}

// InWindow returns all photos inside the window, inclusive at both bounds.
func (b *Backend) InWindow(w core.TimeWindow) ([]core.Photo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// photos are sorted, binary search both bounds
	lo := sort.Search(len(b.photos), func(i int) bool {
		return b.photos[i].Timestamp >= w.Lower
	})
	hi := sort.Search(len(b.photos), func(i int) bool {
		return b.photos[i].Timestamp > w.Upper
	})

	out := make([]core.Photo, hi-lo)
	copy(out, b.photos[lo:hi])
	return out, nil
}

// Range returns the full time span of the collection.
func (b *Backend) Range() (core.Range, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rng, b.hasAny
}
