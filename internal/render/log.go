package render

import (
	"log/slog"
	"time"

	"github.com/worldphotos/playback/pkg/core"
)

// LogSurface writes every rendering call to the structured log. Useful
// headless and as the fallback when no stream endpoint is configured.
type LogSurface struct {
	logger *slog.Logger
}

// NewLogSurface creates a surface that renders to slog.Default.
func NewLogSurface() *LogSurface {
	return &LogSurface{logger: slog.Default()}
}

func (s *LogSurface) Init() error  { return nil }
func (s *LogSurface) Close() error { return nil }

func (s *LogSurface) ApplyTimeWindow(w core.TimeWindow) error {
	s.logger.Info("Apply time window", "lower", w.Lower, "upper", w.Upper)
	return nil
}

func (s *LogSurface) ShowAll() error {
	s.logger.Info("Show all photos")
	return nil
}

func (s *LogSurface) FrameRegion(sw, ne core.Point, padding float64) error {
	s.logger.Info("Frame region",
		"swLat", sw.Lat, "swLng", sw.Lng,
		"neLat", ne.Lat, "neLng", ne.Lng,
		"padding", padding)
	return nil
}

func (s *LogSurface) MoveMarker(pos core.Point, screen core.ScreenPoint, step, steps int) error {
	s.logger.Debug("Move marker",
		"lat", pos.Lat, "lng", pos.Lng,
		"step", step, "steps", steps)
	return nil
}

func (s *LogSurface) SetTraveling(from, to core.Point, facing core.Facing) error {
	s.logger.Info("Marker traveling",
		"fromLat", from.Lat, "fromLng", from.Lng,
		"toLat", to.Lat, "toLng", to.Lng,
		"facing", facing.String())
	return nil
}

func (s *LogSurface) ClearTraveling(cancelled bool) error {
	s.logger.Info("Marker idle", "cancelled", cancelled)
	return nil
}

func (s *LogSurface) DrawTrail(wkt string) error {
	s.logger.Debug("Draw trail", "wkt", wkt)
	return nil
}

func (s *LogSurface) RemoveTrail() error {
	s.logger.Debug("Remove trail")
	return nil
}

func (s *LogSurface) SpawnParticle(screen core.ScreenPoint, lifetime time.Duration) error {
	s.logger.Debug("Spawn particle", "x", screen.X, "y", screen.Y, "lifetime", lifetime)
	return nil
}

func (s *LogSurface) ClearParticles() error {
	s.logger.Debug("Clear particles")
	return nil
}

func (s *LogSurface) PlaybackState(mode string, w core.TimeWindow) error {
	s.logger.Info("Playback state", "mode", mode, "lower", w.Lower, "upper", w.Upper)
	return nil
}
