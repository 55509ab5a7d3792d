package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/worldphotos/playback/pkg/core"
	"github.com/worldphotos/playback/pkg/streaming"
)

// StreamConfig holds WebSocket surface configuration.
type StreamConfig struct {
	URL    string
	Secret string
}

// StreamSurface renders by streaming protocol messages over WebSocket
// to the map frontend.
type StreamSurface struct {
	conn *connection
	cfg  StreamConfig
}

// NewStreamSurface creates a new WebSocket rendering surface.
func NewStreamSurface(cfg StreamConfig) *StreamSurface {
	return &StreamSurface{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (s *StreamSurface) Init() error {
	return s.conn.dial(s.cfg.URL, s.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (s *StreamSurface) Close() error {
	return s.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (s *StreamSurface) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	s.conn.send(data)
	return nil
}

// ApplyTimeWindow sends the window filter and waits for the frontend ack,
// so transitions never start before the markers have been filtered.
func (s *StreamSurface) ApplyTimeWindow(w core.TimeWindow) error {
	data, err := marshalEnvelope(streaming.TypeApplyWindow, streaming.ApplyWindow{Window: w})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	s.conn.mu.Lock()
	s.conn.cachedWindowMsg = data
	s.conn.mu.Unlock()

	return s.conn.sendAndWait(data, streaming.TypeApplyWindow, ackTimeout)
}

// ShowAll lifts the window filter and clears the cached replay message.
func (s *StreamSurface) ShowAll() error {
	s.conn.mu.Lock()
	s.conn.cachedWindowMsg = nil
	s.conn.mu.Unlock()

	return s.sendEnvelope(streaming.TypeShowAll, nil)
}

func (s *StreamSurface) FrameRegion(sw, ne core.Point, padding float64) error {
	return s.sendEnvelope(streaming.TypeFrameRegion, streaming.FrameRegion{
		SouthWest: sw,
		NorthEast: ne,
		Padding:   padding,
	})
}

func (s *StreamSurface) MoveMarker(pos core.Point, screen core.ScreenPoint, step, steps int) error {
	return s.sendEnvelope(streaming.TypeMarkerMove, streaming.MarkerMove{
		Position: pos,
		Screen:   screen,
		Step:     step,
		Steps:    steps,
	})
}

func (s *StreamSurface) SetTraveling(from, to core.Point, facing core.Facing) error {
	return s.sendEnvelope(streaming.TypeTransitionStart, streaming.TransitionStart{
		From:   from,
		To:     to,
		Facing: facing.String(),
	})
}

func (s *StreamSurface) ClearTraveling(cancelled bool) error {
	return s.sendEnvelope(streaming.TypeTransitionEnd, streaming.TransitionEnd{
		Cancelled: cancelled,
	})
}

func (s *StreamSurface) DrawTrail(wkt string) error {
	return s.sendEnvelope(streaming.TypeTrail, streaming.Trail{WKT: wkt})
}

func (s *StreamSurface) RemoveTrail() error {
	return s.sendEnvelope(streaming.TypeRemoveTrail, nil)
}

func (s *StreamSurface) SpawnParticle(screen core.ScreenPoint, lifetime time.Duration) error {
	return s.sendEnvelope(streaming.TypeParticle, streaming.Particle{
		Screen:     screen,
		LifetimeMs: lifetime.Milliseconds(),
	})
}

func (s *StreamSurface) ClearParticles() error {
	return s.sendEnvelope(streaming.TypeClearParticles, nil)
}

func (s *StreamSurface) PlaybackState(mode string, w core.TimeWindow) error {
	return s.sendEnvelope(streaming.TypePlaybackState, streaming.PlaybackState{
		Mode:   mode,
		Window: w,
	})
}
