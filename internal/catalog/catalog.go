package catalog

import (
	"time"

	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/geo"
	"github.com/worldphotos/playback/internal/model"
	"github.com/worldphotos/playback/pkg/core"
)

// Catalog is the interface all photo catalog backends must satisfy.
// The catalog is read-only after Import; playback never mutates it.
type Catalog interface {
	// Lifecycle
	Init() error
	Close() error

	// Import replaces the catalog contents with the given photos.
	Import(photos []core.Photo) error

	// Queries
	All() ([]core.Photo, error)
	OnDay(key core.DayKey) ([]core.Photo, error)
	InWindow(w core.TimeWindow) ([]core.Photo, error)

	// Range returns the full time span of the collection.
	// ok is false when the catalog is empty.
	Range() (r core.Range, ok bool)
}

// Describer is implemented by backends that persist collection-level
// metadata alongside the photos.
type Describer interface {
	// SetSource records where the next Import's photos come from.
	SetSource(source string)

	// Info returns the stored collection metadata. ok is false before
	// the first import.
	Info() (info model.CollectionInfo, ok bool)
}

// DayCentroid computes the mean coordinate of all photos taken on the
// calendar day containing ref (truncated in loc). ok is false when the day
// has no photos, which callers treat as "no transition check possible", not
// as an error. cc may be nil to disable memoization.
func DayCentroid(cat Catalog, cc *cache.CentroidCache, ref int64, loc *time.Location) (core.Point, bool, error) {
	key := core.DayKeyOf(ref, loc)

	if cc != nil {
		if p, hit, ok := cc.Get(key); hit {
			return p, ok, nil
		}
	}

	photos, err := cat.OnDay(key)
	if err != nil {
		return core.Point{}, false, err
	}

	points := make([]core.Point, 0, len(photos))
	for _, p := range photos {
		points = append(points, p.Point)
	}

	c, ok := geo.Centroid(points)
	if cc != nil {
		cc.Put(key, c, ok)
	}
	return c, ok, nil
}
