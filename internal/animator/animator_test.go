package animator

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/render"
	"github.com/worldphotos/playback/pkg/core"
)

// recordingSurface captures every rendering call for assertions.
type recordingSurface struct {
	mu    sync.Mutex
	calls []string

	moves     []core.Point
	particles int
	cancelled []bool
}

var _ render.Surface = (*recordingSurface)(nil)

func (r *recordingSurface) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recordingSurface) Init() error  { return nil }
func (r *recordingSurface) Close() error { return nil }

func (r *recordingSurface) ApplyTimeWindow(core.TimeWindow) error {
	r.record("ApplyTimeWindow")
	return nil
}

func (r *recordingSurface) ShowAll() error {
	r.record("ShowAll")
	return nil
}

func (r *recordingSurface) FrameRegion(sw, ne core.Point, padding float64) error {
	r.record("FrameRegion")
	return nil
}

func (r *recordingSurface) MoveMarker(pos core.Point, _ core.ScreenPoint, _, _ int) error {
	r.mu.Lock()
	r.moves = append(r.moves, pos)
	r.calls = append(r.calls, "MoveMarker")
	r.mu.Unlock()
	return nil
}

func (r *recordingSurface) SetTraveling(_, _ core.Point, _ core.Facing) error {
	r.record("SetTraveling")
	return nil
}

func (r *recordingSurface) ClearTraveling(cancelled bool) error {
	r.mu.Lock()
	r.cancelled = append(r.cancelled, cancelled)
	r.calls = append(r.calls, "ClearTraveling")
	r.mu.Unlock()
	return nil
}

func (r *recordingSurface) DrawTrail(string) error {
	r.record("DrawTrail")
	return nil
}

func (r *recordingSurface) RemoveTrail() error {
	r.record("RemoveTrail")
	return nil
}

func (r *recordingSurface) SpawnParticle(core.ScreenPoint, time.Duration) error {
	r.mu.Lock()
	r.particles++
	r.calls = append(r.calls, "SpawnParticle")
	r.mu.Unlock()
	return nil
}

func (r *recordingSurface) ClearParticles() error {
	r.record("ClearParticles")
	return nil
}

func (r *recordingSurface) PlaybackState(string, core.TimeWindow) error {
	r.record("PlaybackState")
	return nil
}

func (r *recordingSurface) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (r *recordingSurface) moveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.moves)
}

func fastConfig() config.AnimationConfig {
	return config.AnimationConfig{
		Steps:            8,
		StepInterval:     time.Millisecond,
		ParticleEvery:    4,
		ParticleLifetime: 1200 * time.Millisecond,
		TrailFadeDelay:   20 * time.Millisecond,
		Padding:          0.3,
	}
}

func TestAnimateCompletes(t *testing.T) {
	surf := &recordingSurface{}
	a := New(surf, fastConfig())

	from := core.Point{Lat: 48.85, Lng: 2.35}
	to := core.Point{Lat: 51.5, Lng: -0.12}

	done := make(chan struct{})
	require.NoError(t, a.Animate(from, to, func() { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("animation did not complete")
	}

	assert.False(t, a.Animating())
	assert.Equal(t, 1, surf.callCount("FrameRegion"))
	assert.Equal(t, 1, surf.callCount("SetTraveling"))
	assert.Equal(t, 1, surf.callCount("DrawTrail"))
	assert.Equal(t, 8, surf.moveCount())
	assert.Equal(t, 2, surf.particles) // steps 4 and 8

	surf.mu.Lock()
	last := surf.moves[len(surf.moves)-1]
	surf.mu.Unlock()
	assert.Equal(t, to, last, "final frame must land exactly on the destination")

	surf.mu.Lock()
	cancelled := surf.cancelled
	surf.mu.Unlock()
	require.Len(t, cancelled, 1)
	assert.False(t, cancelled[0])
}

func TestTrailRemovedAfterFadeDelay(t *testing.T) {
	surf := &recordingSurface{}
	a := New(surf, fastConfig())

	done := make(chan struct{})
	require.NoError(t, a.Animate(core.Point{}, core.Point{Lat: 1, Lng: 1}, func() { close(done) }))
	<-done

	assert.Equal(t, 0, surf.callCount("RemoveTrail"), "trail should linger until the fade delay")

	assert.Eventually(t, func() bool {
		return surf.callCount("RemoveTrail") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCancelMidFlight(t *testing.T) {
	surf := &recordingSurface{}
	cfg := fastConfig()
	cfg.Steps = 1000
	a := New(surf, cfg)

	completed := make(chan struct{})
	require.NoError(t, a.Animate(core.Point{}, core.Point{Lat: 10, Lng: 10}, func() { close(completed) }))

	require.Eventually(t, func() bool {
		return surf.moveCount() > 2
	}, time.Second, time.Millisecond)

	a.Cancel()

	assert.False(t, a.Animating())
	assert.Equal(t, 1, surf.callCount("RemoveTrail"))
	assert.Equal(t, 1, surf.callCount("ClearParticles"))

	surf.mu.Lock()
	cancelled := surf.cancelled
	surf.mu.Unlock()
	require.Len(t, cancelled, 1)
	assert.True(t, cancelled[0])

	select {
	case <-completed:
		t.Fatal("completion callback fired after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	surf := &recordingSurface{}
	a := New(surf, fastConfig())

	a.Cancel()
	a.Cancel()

	assert.Equal(t, 0, surf.callCount("RemoveTrail"))
	assert.Equal(t, 0, surf.callCount("ClearParticles"))
}

func TestAnimateRejectsConcurrentRun(t *testing.T) {
	surf := &recordingSurface{}
	cfg := fastConfig()
	cfg.Steps = 1000
	a := New(surf, cfg)

	require.NoError(t, a.Animate(core.Point{}, core.Point{Lat: 1, Lng: 1}, nil))
	defer a.Cancel()

	err := a.Animate(core.Point{}, core.Point{Lat: 2, Lng: 2}, nil)
	assert.ErrorIs(t, err, ErrAnimationInProgress)
}

func TestCancelStopsPendingTrailFade(t *testing.T) {
	surf := &recordingSurface{}
	cfg := fastConfig()
	cfg.TrailFadeDelay = time.Hour
	a := New(surf, cfg)

	done := make(chan struct{})
	require.NoError(t, a.Animate(core.Point{}, core.Point{Lat: 1, Lng: 1}, func() { close(done) }))
	<-done

	// Starting the next animation cuts the previous fade short.
	require.NoError(t, a.Animate(core.Point{Lat: 1, Lng: 1}, core.Point{Lat: 2, Lng: 2}, nil))
	a.Cancel()

	// The hour-long fade timer must not fire later; the cancel path
	// already removed the trail synchronously.
	assert.Equal(t, 1, surf.callCount("RemoveTrail"))
}

// blockingSurface holds the opening FrameRegion call until released, so
// a test can cancel while the frame goroutine is mid-draw.
type blockingSurface struct {
	recordingSurface
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSurface) FrameRegion(sw, ne core.Point, padding float64) error {
	b.entered <- struct{}{}
	<-b.release
	return b.recordingSurface.FrameRegion(sw, ne, padding)
}

func TestCancelWaitsForOpeningDraws(t *testing.T) {
	surf := &blockingSurface{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cfg := fastConfig()
	cfg.Steps = 1000
	a := New(surf, cfg)

	require.NoError(t, a.Animate(core.Point{}, core.Point{Lat: 10, Lng: 10}, nil))
	<-surf.entered

	cancelDone := make(chan struct{})
	go func() {
		a.Cancel()
		close(cancelDone)
	}()

	// Teardown must not run while the frame goroutine is still drawing;
	// otherwise the trail it is about to draw outlives the cancel.
	select {
	case <-cancelDone:
		t.Fatal("cancel finished while the frame goroutine was mid-draw")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 0, surf.callCount("ClearTraveling"))

	close(surf.release)
	select {
	case <-cancelDone:
	case <-time.After(time.Second):
		t.Fatal("cancel did not finish after the draw unblocked")
	}

	surf.mu.Lock()
	calls := append([]string(nil), surf.calls...)
	surf.mu.Unlock()

	clear := slices.Index(calls, "ClearTraveling")
	remove := slices.Index(calls, "RemoveTrail")
	require.NotEqual(t, -1, clear)
	require.NotEqual(t, -1, remove)
	for _, draw := range []string{"FrameRegion", "SetTraveling", "DrawTrail"} {
		if i := slices.Index(calls, draw); i != -1 {
			assert.Less(t, i, clear, "%s landed after teardown", draw)
			assert.Less(t, i, remove, "%s landed after teardown", draw)
		}
	}
	assert.Equal(t, 0, surf.moveCount())
	assert.False(t, a.Animating())
}

func TestEaseInOutQuad(t *testing.T) {
	assert.InDelta(t, 0.0, easeInOutQuad(0), 1e-12)
	assert.InDelta(t, 0.125, easeInOutQuad(0.25), 1e-12)
	assert.InDelta(t, 0.5, easeInOutQuad(0.5), 1e-12)
	assert.InDelta(t, 0.875, easeInOutQuad(0.75), 1e-12)
	assert.InDelta(t, 1.0, easeInOutQuad(1), 1e-12)

	// Monotonic over the whole range.
	prev := -1.0
	for i := 0; i <= 100; i++ {
		v := easeInOutQuad(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
