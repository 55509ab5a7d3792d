package render

import (
	"errors"
	"time"

	"github.com/worldphotos/playback/pkg/core"
)

// MultiSurface fans every rendering call out to several surfaces, for
// example streaming to the frontend while also logging locally.
type MultiSurface struct {
	surfaces []Surface
}

// NewMultiSurface wraps the given surfaces. Calls are delivered in order
// and errors are joined rather than short-circuiting.
func NewMultiSurface(surfaces ...Surface) *MultiSurface {
	return &MultiSurface{surfaces: surfaces}
}

func (m *MultiSurface) each(fn func(Surface) error) error {
	var errs []error
	for _, s := range m.surfaces {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSurface) Init() error  { return m.each(func(s Surface) error { return s.Init() }) }
func (m *MultiSurface) Close() error { return m.each(func(s Surface) error { return s.Close() }) }

func (m *MultiSurface) ApplyTimeWindow(w core.TimeWindow) error {
	return m.each(func(s Surface) error { return s.ApplyTimeWindow(w) })
}

func (m *MultiSurface) ShowAll() error {
	return m.each(func(s Surface) error { return s.ShowAll() })
}

func (m *MultiSurface) FrameRegion(sw, ne core.Point, padding float64) error {
	return m.each(func(s Surface) error { return s.FrameRegion(sw, ne, padding) })
}

func (m *MultiSurface) MoveMarker(pos core.Point, screen core.ScreenPoint, step, steps int) error {
	return m.each(func(s Surface) error { return s.MoveMarker(pos, screen, step, steps) })
}

func (m *MultiSurface) SetTraveling(from, to core.Point, facing core.Facing) error {
	return m.each(func(s Surface) error { return s.SetTraveling(from, to, facing) })
}

func (m *MultiSurface) ClearTraveling(cancelled bool) error {
	return m.each(func(s Surface) error { return s.ClearTraveling(cancelled) })
}

func (m *MultiSurface) DrawTrail(wkt string) error {
	return m.each(func(s Surface) error { return s.DrawTrail(wkt) })
}

func (m *MultiSurface) RemoveTrail() error {
	return m.each(func(s Surface) error { return s.RemoveTrail() })
}

func (m *MultiSurface) SpawnParticle(screen core.ScreenPoint, lifetime time.Duration) error {
	return m.each(func(s Surface) error { return s.SpawnParticle(screen, lifetime) })
}

func (m *MultiSurface) ClearParticles() error {
	return m.each(func(s Surface) error { return s.ClearParticles() })
}

func (m *MultiSurface) PlaybackState(mode string, w core.TimeWindow) error {
	return m.each(func(s Surface) error { return s.PlaybackState(mode, w) })
}
