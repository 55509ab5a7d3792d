package streaming

import (
	"encoding/json"

	"github.com/worldphotos/playback/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeApplyWindow     = "apply_window"
	TypeShowAll         = "show_all"
	TypeFrameRegion     = "frame_region"
	TypeMarkerMove      = "marker_move"
	TypeTransitionStart = "transition_start"
	TypeTransitionEnd   = "transition_end"
	TypeTrail           = "trail"
	TypeRemoveTrail     = "remove_trail"
	TypeParticle        = "particle"
	TypeClearParticles  = "clear_particles"
	TypePlaybackState   = "playback_state"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response. For names the
// message type being acknowledged.
type AckMessage struct {
	Type  string `json:"type"`
	For   string `json:"for,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ApplyWindow asks the frontend to filter visible markers to a time window.
type ApplyWindow struct {
	Window core.TimeWindow `json:"window"`
}

// FrameRegion asks the frontend to fit its viewport to a bounding region.
type FrameRegion struct {
	SouthWest core.Point `json:"southWest"`
	NorthEast core.Point `json:"northEast"`
	Padding   float64    `json:"padding"`
}

// MarkerMove positions the travel marker during a transition.
type MarkerMove struct {
	Position core.Point       `json:"position"`
	Screen   core.ScreenPoint `json:"screen"`
	Step     int              `json:"step"`
	Steps    int              `json:"steps"`
}

// TransitionStart announces a vehicle transition between two day centroids.
type TransitionStart struct {
	From   core.Point `json:"from"`
	To     core.Point `json:"to"`
	Facing string     `json:"facing"`
}

// TransitionEnd announces completion or cancellation of a transition.
type TransitionEnd struct {
	Cancelled bool `json:"cancelled"`
}

// Trail carries the transient dashed line between transition endpoints
// as WKT so the frontend can draw it without decoding coordinates itself.
type Trail struct {
	WKT string `json:"wkt"`
}

// Particle spawns a cosmetic particle at a projected screen position.
// LifetimeMs is how long the frontend should keep it alive.
type Particle struct {
	Screen     core.ScreenPoint `json:"screen"`
	LifetimeMs int64            `json:"lifetimeMs"`
}

// PlaybackState reports the scheduler's current mode and window.
type PlaybackState struct {
	Mode   string          `json:"mode"`
	Window core.TimeWindow `json:"window"`
}
