// Package render defines the boundary between the playback engine and
// whatever draws the map. The engine calls Surface methods; concrete
// surfaces log, stream over WebSocket, or fan out to several targets.
package render

import (
	"fmt"
	"time"

	"github.com/worldphotos/playback/pkg/core"
)

// Surface is the full rendering boundary. The scheduler drives the
// window and framing calls, the animator drives everything else.
type Surface interface {
	// ApplyTimeWindow filters visible photo markers to the window.
	ApplyTimeWindow(w core.TimeWindow) error
	// ShowAll removes any window filter so every photo is visible.
	ShowAll() error
	// FrameRegion fits the viewport to the box spanned by sw and ne,
	// widened by the padding fraction on each side.
	FrameRegion(sw, ne core.Point, padding float64) error

	// MoveMarker positions the travel marker mid-transition.
	MoveMarker(pos core.Point, screen core.ScreenPoint, step, steps int) error
	// SetTraveling switches the marker into its traveling style.
	SetTraveling(from, to core.Point, facing core.Facing) error
	// ClearTraveling restores the marker's idle style.
	ClearTraveling(cancelled bool) error

	// DrawTrail draws the dashed line between transition endpoints.
	DrawTrail(wkt string) error
	// RemoveTrail removes the trail line.
	RemoveTrail() error

	// SpawnParticle emits a cosmetic particle at a screen position.
	SpawnParticle(screen core.ScreenPoint, lifetime time.Duration) error
	// ClearParticles removes all live particles.
	ClearParticles() error

	// PlaybackState reports the engine's mode and current window.
	PlaybackState(mode string, w core.TimeWindow) error

	// Init prepares the surface and Close releases it.
	Init() error
	Close() error
}

// NewSurface creates a surface by type name.
func NewSurface(surfaceType string, cfg StreamConfig) (Surface, error) {
	switch surfaceType {
	case "log":
		return NewLogSurface(), nil
	case "stream":
		return NewStreamSurface(cfg), nil
	default:
		return nil, fmt.Errorf("unknown render surface type: %s", surfaceType)
	}
}
