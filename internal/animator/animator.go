// Package animator runs the eased marker animation between two day
// centroids. One animation runs at a time; cancellation tears down every
// visual the animation created and suppresses its completion callback.
package animator

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/geo"
	"github.com/worldphotos/playback/internal/render"
	"github.com/worldphotos/playback/pkg/core"
)

// ErrAnimationInProgress is returned by Animate while a previous
// animation is still running.
var ErrAnimationInProgress = errors.New("transition animation already in progress")

// Animator drives transition animations against a rendering surface.
type Animator struct {
	surface render.Surface
	cfg     config.AnimationConfig
	logger  *slog.Logger

	mu        sync.Mutex
	animating bool
	stopCh    chan struct{}
	done      chan struct{}
	fadeTimer *time.Timer
}

// New creates an animator rendering to surface.
func New(surface render.Surface, cfg config.AnimationConfig) *Animator {
	return &Animator{
		surface: surface,
		cfg:     cfg,
		logger:  slog.Default(),
	}
}

// Animating reports whether an animation is currently running.
func (a *Animator) Animating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.animating
}

// Animate starts an animation from one centroid to the other and returns
// immediately. onComplete fires after the final frame unless the
// animation is cancelled first. A pending trail fade from the previous
// animation is cut short so the old trail never outlives the new one.
func (a *Animator) Animate(from, to core.Point, onComplete func()) error {
	a.mu.Lock()
	if a.animating {
		a.mu.Unlock()
		return ErrAnimationInProgress
	}
	if a.fadeTimer != nil {
		a.fadeTimer.Stop()
		a.fadeTimer = nil
	}
	a.animating = true
	stopCh := make(chan struct{})
	done := make(chan struct{})
	a.stopCh = stopCh
	a.done = done
	a.mu.Unlock()

	go a.run(from, to, stopCh, done, onComplete)
	return nil
}

// run executes the frame loop. It owns the surface until it returns;
// closing done hands the surface back, so Cancel waits on it before any
// teardown drawing.
func (a *Animator) run(from, to core.Point, stopCh, done chan struct{}, onComplete func()) {
	defer close(done)

	// A cancel issued before the first frame must win without a single
	// draw landing on the surface.
	select {
	case <-stopCh:
		return
	default:
	}

	sw, ne := geo.PaddedBounds(from, to, a.cfg.Padding)
	a.surfaceCall(a.surface.FrameRegion(sw, ne, a.cfg.Padding))
	a.surfaceCall(a.surface.SetTraveling(from, to, core.FacingBetween(from, to)))
	a.surfaceCall(a.surface.DrawTrail(geo.TrailWKT(from, to)))

	ticker := time.NewTicker(a.cfg.StepInterval)
	defer ticker.Stop()

	for step := 1; step <= a.cfg.Steps; step++ {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		t := easeInOutQuad(float64(step) / float64(a.cfg.Steps))
		pos := geo.Lerp(from, to, t)
		screen := geo.ProjectWebMercator(pos)
		a.surfaceCall(a.surface.MoveMarker(pos, screen, step, a.cfg.Steps))

		if a.cfg.ParticleEvery > 0 && step%a.cfg.ParticleEvery == 0 {
			a.surfaceCall(a.surface.SpawnParticle(screen, a.cfg.ParticleLifetime))
		}
	}

	a.mu.Lock()
	select {
	case <-stopCh:
		// Cancelled between the last frame and here. Cancel owns cleanup.
		a.mu.Unlock()
		return
	default:
	}
	a.animating = false
	a.stopCh = nil
	a.done = nil
	a.fadeTimer = time.AfterFunc(a.cfg.TrailFadeDelay, func() {
		a.surfaceCall(a.surface.RemoveTrail())
	})
	a.mu.Unlock()

	a.surfaceCall(a.surface.ClearTraveling(false))

	if onComplete != nil {
		onComplete()
	}
}

// Cancel halts a running animation and removes its marker styling, trail
// and particles. The completion callback does not fire. Calling Cancel
// while idle is a no-op.
func (a *Animator) Cancel() {
	a.mu.Lock()
	if !a.animating {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	done := a.done
	a.done = nil
	a.animating = false
	if a.fadeTimer != nil {
		a.fadeTimer.Stop()
		a.fadeTimer = nil
	}
	a.mu.Unlock()

	// The frame goroutine may still be mid-draw. Teardown must come
	// after its last surface call or the trail it draws outlives this
	// cancel.
	if done != nil {
		<-done
	}

	a.surfaceCall(a.surface.ClearTraveling(true))
	a.surfaceCall(a.surface.RemoveTrail())
	a.surfaceCall(a.surface.ClearParticles())
}

// surfaceCall logs surface errors; a failed draw never stops playback.
func (a *Animator) surfaceCall(err error) {
	if err != nil {
		a.logger.Warn("Render surface error", "error", err)
	}
}

// easeInOutQuad accelerates through the first half of the animation and
// decelerates through the second.
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}
