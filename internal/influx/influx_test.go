package influx

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldphotos/playback/pkg/core"
)

func testManager() *Manager {
	return NewManager(zerolog.Nop(), "")
}

func TestPointsBackloggedBeforeConnect(t *testing.T) {
	m := testManager()

	m.RecordWindowAdvance(core.TimeWindow{Lower: 1, Upper: 2}, "running", time.Millisecond)
	m.RecordTransition(core.Point{}, core.Point{Lat: 10, Lng: 10}, 1569, false)

	assert.Equal(t, 2, m.BacklogLen())
}

func TestFlushDrainsBacklogToBackupFile(t *testing.T) {
	m := testManager()
	m.RecordTransition(core.Point{Lat: 1, Lng: 2}, core.Point{Lat: 3, Lng: 4}, 500, false)
	m.RecordImport("photos.json", 100, 3, 2)
	require.Equal(t, 2, m.BacklogLen())

	var buf bytes.Buffer
	m.BackupWriter = gzip.NewWriter(&buf)

	require.NoError(t, m.Flush())
	assert.Zero(t, m.BacklogLen())
	require.NoError(t, m.Close())

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.TrimSpace(string(data))
	assert.Contains(t, lines, "transition")
	assert.Contains(t, lines, "catalog_import")
	assert.Contains(t, lines, "distance_km=500")
}

func TestWritesGoStraightToBackupWhenPresent(t *testing.T) {
	m := testManager()

	var buf bytes.Buffer
	m.BackupWriter = gzip.NewWriter(&buf)

	m.RecordWindowAdvance(core.TimeWindow{Lower: 10, Upper: 20}, "running", time.Millisecond)
	assert.Zero(t, m.BacklogLen(), "points should bypass the backlog once a target exists")

	require.NoError(t, m.Close())

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(data), "window_advance")
}

func TestFlushWithoutTargetKeepsBacklog(t *testing.T) {
	m := testManager()
	m.RecordImport("x", 1, 0, 0)

	require.NoError(t, m.Flush())
	assert.Equal(t, 1, m.BacklogLen())
}
