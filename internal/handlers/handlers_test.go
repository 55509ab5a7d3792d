package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldphotos/playback/internal/animator"
	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/catalog/memory"
	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/dispatcher"
	"github.com/worldphotos/playback/internal/render"
	"github.com/worldphotos/playback/internal/scheduler"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newService(t *testing.T) (*Service, *dispatcher.Dispatcher) {
	t.Helper()

	cat := memory.New(time.UTC)
	require.NoError(t, cat.Init())

	surf := render.NewLogSurface()
	anim := animator.New(surf, config.AnimationConfig{
		Steps:        4,
		StepInterval: time.Millisecond,
	})

	cc := cache.NewCentroidCache()
	sched, err := scheduler.New(cat, cc, surf, anim, config.PlaybackConfig{
		TickInterval: time.Hour,
		WindowDays:   3,
		ThresholdKm:  300,
	}, time.UTC)
	require.NoError(t, err)
	t.Cleanup(sched.Stop)

	svc := NewService(Dependencies{
		Catalog:   cat,
		Scheduler: sched,
		Centroids: cc,
		Loc:       time.UTC,
		Version:   "test",
	})

	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	svc.RegisterAll(d)

	return svc, d
}

func writePhotosFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportThenPlayAndStop(t *testing.T) {
	_, d := newService(t)

	path := writePhotosFile(t, `[
		{"filename": "a.jpg", "lat": 48.85, "lng": 2.35, "timestamp": 1000},
		{"filename": "b.jpg", "lat": 48.86, "lng": 2.36, "timestamp": 90000000}
	]`)

	res, err := d.Dispatch(dispatcher.Event{Command: ":IMPORT:", Args: []string{path}})
	require.NoError(t, err)
	assert.Contains(t, res, "imported 2 photos")

	res, err = d.Dispatch(dispatcher.Event{Command: ":PLAY:"})
	require.NoError(t, err)
	assert.Equal(t, "playback running", res)

	res, err = d.Dispatch(dispatcher.Event{Command: ":STOP:"})
	require.NoError(t, err)
	assert.Equal(t, "playback stopped", res)
}

func TestShowAllStopsRunningPlayback(t *testing.T) {
	_, d := newService(t)

	path := writePhotosFile(t, `[
		{"filename": "a.jpg", "lat": 48.85, "lng": 2.35, "timestamp": 1000},
		{"filename": "b.jpg", "lat": 48.86, "lng": 2.36, "timestamp": 90000000}
	]`)
	_, err := d.Dispatch(dispatcher.Event{Command: ":IMPORT:", Args: []string{path}})
	require.NoError(t, err)

	_, err = d.Dispatch(dispatcher.Event{Command: ":PLAY:"})
	require.NoError(t, err)

	res, err := d.Dispatch(dispatcher.Event{Command: ":SHOW:ALL:"})
	require.NoError(t, err)
	assert.Equal(t, "showing all photos", res)

	res, err = d.Dispatch(dispatcher.Event{Command: ":STATUS:"})
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.(string)), &report))
	assert.Equal(t, "stopped", report["mode"])
}

func TestPlayOnEmptyCatalogFails(t *testing.T) {
	_, d := newService(t)

	_, err := d.Dispatch(dispatcher.Event{Command: ":PLAY:"})
	assert.Error(t, err)
}

func TestSeekAcceptsEpochAndDate(t *testing.T) {
	_, d := newService(t)

	ts := time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	path := writePhotosFile(t, `[
		{"filename": "a.jpg", "lat": 1, "lng": 2, "timestamp": `+strconv.FormatInt(ts, 10)+`},
		{"filename": "b.jpg", "lat": 1, "lng": 2, "timestamp": `+strconv.FormatInt(ts+7*86400000, 10)+`}
	]`)
	_, err := d.Dispatch(dispatcher.Event{Command: ":IMPORT:", Args: []string{path}})
	require.NoError(t, err)

	_, err = d.Dispatch(dispatcher.Event{Command: ":SEEK:", Args: []string{strconv.FormatInt(ts, 10)}})
	require.NoError(t, err)

	_, err = d.Dispatch(dispatcher.Event{Command: ":SEEK:", Args: []string{"2021-06-17"}})
	require.NoError(t, err)

	_, err = d.Dispatch(dispatcher.Event{Command: ":SEEK:", Args: []string{"not-a-date"}})
	assert.Error(t, err)

	_, err = d.Dispatch(dispatcher.Event{Command: ":SEEK:"})
	assert.Error(t, err)
}

func TestStatusReportsJSON(t *testing.T) {
	_, d := newService(t)

	res, err := d.Dispatch(dispatcher.Event{Command: ":STATUS:"})
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.(string)), &report))
	assert.Equal(t, "stopped", report["mode"])
}

func TestImportRequiresPath(t *testing.T) {
	_, d := newService(t)

	_, err := d.Dispatch(dispatcher.Event{Command: ":IMPORT:"})
	assert.Error(t, err)
}

func TestFetchWithoutClientFails(t *testing.T) {
	_, d := newService(t)

	_, err := d.Dispatch(dispatcher.Event{Command: ":FETCH:"})
	assert.Error(t, err)
}

func TestVersionAndHelp(t *testing.T) {
	_, d := newService(t)

	res, err := d.Dispatch(dispatcher.Event{Command: ":VERSION:"})
	require.NoError(t, err)
	assert.Equal(t, "test", res)

	res, err = d.Dispatch(dispatcher.Event{Command: ":HELP:"})
	require.NoError(t, err)
	assert.Contains(t, res, ":PLAY:")
	assert.Contains(t, res, ":SHOW:ALL:")
}
