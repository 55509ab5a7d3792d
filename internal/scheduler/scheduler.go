// Package scheduler advances the rolling playback window and arbitrates
// between discrete ticking and the continuous transition animation. The
// tri-state mode acts as a lock: running permits ticking only,
// suspended-for-transition permits animation frames only, stopped permits
// neither.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/worldphotos/playback/internal/animator"
	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/catalog"
	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/geo"
	"github.com/worldphotos/playback/internal/render"
	"github.com/worldphotos/playback/pkg/core"
)

// Mode is the playback state.
type Mode int32

const (
	// ModeStopped permits neither ticking nor animation.
	ModeStopped Mode = iota
	// ModeRunning permits ticking only.
	ModeRunning
	// ModeSuspended permits animation frames only.
	ModeSuspended
)

func (m Mode) String() string {
	switch m {
	case ModeStopped:
		return "stopped"
	case ModeRunning:
		return "running"
	case ModeSuspended:
		return "suspended-for-transition"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// ErrEmptyCatalog is returned by Start when the catalog holds no photos.
var ErrEmptyCatalog = errors.New("cannot start playback on an empty catalog")

// TransitionRecorder receives one telemetry point per resolved
// transition, either completed or cancelled.
type TransitionRecorder interface {
	RecordTransition(from, to core.Point, distanceKm float64, cancelled bool)
}

// Status is a snapshot of the scheduler, safe to read after return.
type Status struct {
	Mode        Mode
	Window      core.TimeWindow
	Range       core.Range
	Ticks       uint64
	Transitions uint64
}

// Scheduler owns the playback mode and the active time window. All
// mutation of either goes through it.
type Scheduler struct {
	cat      catalog.Catalog
	cc       *cache.CentroidCache
	surface  render.Surface
	anim     *animator.Animator
	cfg      config.PlaybackConfig
	loc      *time.Location
	logger   *slog.Logger

	tickCounter       metric.Int64Counter
	transitionCounter metric.Int64Counter

	mu          sync.Mutex
	mode        Mode
	window      core.TimeWindow
	rng         core.Range
	haveRange   bool
	stopCh      chan struct{}
	ticks       uint64
	transitions uint64
	lastTickDur time.Duration
	telemetry   TransitionRecorder

	// Endpoints of the in-flight transition, valid while suspended.
	pendingFrom core.Point
	pendingTo   core.Point
	pendingDist float64
}

// SetTelemetry attaches a recorder that receives one point per resolved
// transition. Call before Start.
func (s *Scheduler) SetTelemetry(t TransitionRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = t
}

// New creates a scheduler. Metrics use the global OTel meter, which is a
// no-op when no provider is configured.
func New(cat catalog.Catalog, cc *cache.CentroidCache, surface render.Surface, anim *animator.Animator, cfg config.PlaybackConfig, loc *time.Location) (*Scheduler, error) {
	s := &Scheduler{
		cat:     cat,
		cc:      cc,
		surface: surface,
		anim:    anim,
		cfg:     cfg,
		loc:     loc,
		logger:  slog.Default(),
	}

	m := meter()
	var err error

	s.tickCounter, err = m.Int64Counter(
		"playback.ticks",
		metric.WithDescription("Total window advance ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	s.transitionCounter, err = m.Int64Counter(
		"playback.transitions",
		metric.WithDescription("Total animated transitions triggered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transition counter: %w", err)
	}

	return s, nil
}

// Mode returns the current playback mode.
func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Window returns the active time window.
func (s *Scheduler) Window() core.TimeWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// GetStatus returns a snapshot for status reporting.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Mode:        s.mode,
		Window:      s.window,
		Range:       s.rng,
		Ticks:       s.ticks,
		Transitions: s.transitions,
	}
}

// Start begins ticking from the current window's lower bound, or from the
// start of the collection when no window is set. A no-op while playback
// is already running or suspended.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.mode != ModeStopped {
		s.mu.Unlock()
		return nil
	}

	rng, ok := s.cat.Range()
	if !ok {
		s.mu.Unlock()
		return ErrEmptyCatalog
	}
	s.rng = rng
	s.haveRange = true

	if s.window == (core.TimeWindow{}) || s.window.Lower < rng.Min || s.window.Lower > rng.Max {
		s.window = s.windowAt(rng.Min)
	}

	s.mode = ModeRunning
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	window := s.window
	s.mu.Unlock()

	s.logger.Info("Playback started", "lower", window.Lower, "upper", window.Upper)
	s.applyWindow(window)
	s.notifyState(ModeRunning, window)

	go s.tickLoop(stopCh)
	return nil
}

// Stop halts ticking, cancels any in-flight transition and resets the
// mode to stopped. The visible window is left where it was. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.mode == ModeStopped {
		s.mu.Unlock()
		return
	}
	wasSuspended := s.mode == ModeSuspended
	from, to, dist := s.pendingFrom, s.pendingTo, s.pendingDist
	telemetry := s.telemetry
	s.mode = ModeStopped
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	window := s.window
	s.mu.Unlock()

	// A stale completion callback from this animation finds the mode
	// stopped and does nothing.
	s.anim.Cancel()

	if wasSuspended && telemetry != nil {
		telemetry.RecordTransition(from, to, dist, true)
	}

	s.logger.Info("Playback stopped")
	s.notifyState(ModeStopped, window)
}

// Seek moves the lower bound, clamped to the collection's range, and
// applies the resulting window. Playback, if running, continues from the
// new position on its next tick.
func (s *Scheduler) Seek(lower int64) error {
	s.mu.Lock()
	if !s.haveRange {
		rng, ok := s.cat.Range()
		if !ok {
			s.mu.Unlock()
			return ErrEmptyCatalog
		}
		s.rng = rng
		s.haveRange = true
	}
	if s.mode == ModeSuspended {
		s.mu.Unlock()
		return errors.New("cannot seek while a transition is in flight")
	}

	if lower < s.rng.Min {
		lower = s.rng.Min
	}
	if lower > s.rng.Max {
		lower = s.rng.Max
	}
	s.window = s.windowAt(lower)
	window := s.window
	s.mu.Unlock()

	s.applyWindow(window)
	return nil
}

// ShowAll stops playback, widens the window to the full collection range
// and lifts the marker filter. An in-flight transition is cancelled along
// with the rest of playback.
func (s *Scheduler) ShowAll() error {
	s.Stop()

	s.mu.Lock()
	if s.haveRange {
		s.window = core.TimeWindow{Lower: s.rng.Min, Upper: s.rng.Max}
	} else if rng, ok := s.cat.Range(); ok {
		s.rng = rng
		s.haveRange = true
		s.window = core.TimeWindow{Lower: rng.Min, Upper: rng.Max}
	}
	s.mu.Unlock()

	return s.surface.ShowAll()
}

// tickLoop drives the cadence for one running stretch. It exits on stop
// and on suspension; resuming after a transition starts a fresh loop.
func (s *Scheduler) tickLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick advances the window by one calendar day. It returns false when the
// loop must halt, either because playback finished or because a
// transition suspended it.
func (s *Scheduler) tick() bool {
	start := time.Now()

	s.mu.Lock()
	if s.mode != ModeRunning {
		s.mu.Unlock()
		return false
	}

	prevLower := s.window.Lower
	newLower := time.UnixMilli(prevLower).In(s.loc).AddDate(0, 0, 1).UnixMilli()

	s.ticks++
	s.tickCounter.Add(context.Background(), 1)

	// Natural end of the collection.
	if newLower > s.rng.Max {
		s.mode = ModeStopped
		s.stopCh = nil
		s.window = core.TimeWindow{Lower: s.rng.Min, Upper: s.rng.Max}
		full := s.window
		s.lastTickDur = time.Since(start)
		s.mu.Unlock()

		s.logger.Info("Playback reached end of collection")
		s.applyWindow(full)
		s.notifyState(ModeStopped, full)
		return false
	}

	newWindow := s.windowAt(newLower)

	prevCentroid, prevOK, err := catalog.DayCentroid(s.cat, s.cc, prevLower, s.loc)
	if err != nil {
		s.logger.Error("Centroid lookup failed", "error", err)
		prevOK = false
	}
	newCentroid, newOK, err := catalog.DayCentroid(s.cat, s.cc, newLower, s.loc)
	if err != nil {
		s.logger.Error("Centroid lookup failed", "error", err)
		newOK = false
	}

	// A day without photos yields no centroid and skips the check.
	if prevOK && newOK {
		if dist := geo.DistanceKm(prevCentroid, newCentroid); dist > s.cfg.ThresholdKm {
			s.mode = ModeSuspended
			s.stopCh = nil
			s.window = newWindow
			s.pendingFrom = prevCentroid
			s.pendingTo = newCentroid
			s.pendingDist = dist
			s.transitions++
			s.transitionCounter.Add(context.Background(), 1)
			s.lastTickDur = time.Since(start)
			s.mu.Unlock()

			s.logger.Info("Transition triggered",
				"distanceKm", dist,
				"thresholdKm", s.cfg.ThresholdKm,
				"fromLat", prevCentroid.Lat, "fromLng", prevCentroid.Lng,
				"toLat", newCentroid.Lat, "toLng", newCentroid.Lng)

			// The filter reflects the jump before the camera arrives.
			s.applyWindow(newWindow)
			s.notifyState(ModeSuspended, newWindow)

			if err := s.anim.Animate(prevCentroid, newCentroid, s.resumeAfterTransition); err != nil {
				// Single-flight is our own guarantee; treat a busy
				// animator like a cancelled transition and resume.
				s.logger.Error("Failed to start transition animation", "error", err)
				s.resumeAfterTransition()
				return false
			}

			// Stop may have landed between releasing the lock and
			// starting the animation. Its Cancel saw an idle animator,
			// so cancel again now that one is running.
			s.mu.Lock()
			stopped := s.mode == ModeStopped
			s.mu.Unlock()
			if stopped {
				s.anim.Cancel()
			}
			return false
		}
	}

	s.window = newWindow
	s.lastTickDur = time.Since(start)
	s.mu.Unlock()

	s.applyWindow(newWindow)
	return true
}

// resumeAfterTransition is the animator's completion callback. A stale
// invocation after Stop finds the mode changed and does nothing.
func (s *Scheduler) resumeAfterTransition() {
	s.mu.Lock()
	if s.mode != ModeSuspended {
		s.mu.Unlock()
		return
	}
	from, to, dist := s.pendingFrom, s.pendingTo, s.pendingDist
	telemetry := s.telemetry
	s.mode = ModeRunning
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	window := s.window
	s.mu.Unlock()

	if telemetry != nil {
		telemetry.RecordTransition(from, to, dist, false)
	}

	s.logger.Info("Transition complete, resuming playback")
	s.notifyState(ModeRunning, window)

	go s.tickLoop(stopCh)
}

// windowAt builds the look-ahead window starting at lower. Callers hold
// the lock or own s exclusively.
func (s *Scheduler) windowAt(lower int64) core.TimeWindow {
	upper := time.UnixMilli(lower).In(s.loc).AddDate(0, 0, s.cfg.WindowDays).UnixMilli()
	if upper > s.rng.Max {
		upper = s.rng.Max
	}
	return core.TimeWindow{Lower: lower, Upper: upper}
}

func (s *Scheduler) applyWindow(w core.TimeWindow) {
	if err := s.surface.ApplyTimeWindow(w); err != nil {
		s.logger.Warn("Failed to apply time window", "error", err)
	}
}

func (s *Scheduler) notifyState(m Mode, w core.TimeWindow) {
	if err := s.surface.PlaybackState(m.String(), w); err != nil {
		s.logger.Warn("Failed to publish playback state", "error", err)
	}
}

// LastTickDuration reports how long the most recent tick body took.
func (s *Scheduler) LastTickDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTickDur
}
