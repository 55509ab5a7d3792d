package convert

import (
	"testing"
	"time"

	"github.com/worldphotos/playback/internal/model"
	"github.com/worldphotos/playback/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyString(t *testing.T) {
	k := core.DayKey{Year: 2026, Month: time.March, Day: 7}
	assert.Equal(t, "2026-03-07", DayKeyString(k))
}

func TestCoreToPhoto(t *testing.T) {
	// 2026-08-14T12:00:00Z
	ts := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC).UnixMilli()
	p := core.Photo{
		Filename:    "IMG_0042.jpg",
		Path:        "images/IMG_0042.jpg",
		Point:       core.Point{Lat: 59.33, Lng: 18.07},
		Timestamp:   ts,
		Approximate: true,
	}

	row := CoreToPhoto(p, time.UTC, map[string]any{"source": "inferred"})

	assert.Equal(t, "IMG_0042.jpg", row.Filename)
	assert.Equal(t, "images/IMG_0042.jpg", row.Path)
	assert.Equal(t, 59.33, row.Lat)
	assert.Equal(t, 18.07, row.Lng)
	assert.Equal(t, ts, row.Timestamp)
	assert.Equal(t, "2026-08-14", row.DayKey)
	assert.True(t, row.Approximate)
	assert.JSONEq(t, `{"source":"inferred"}`, string(row.Meta))
}

func TestCoreToPhoto_EmptyMeta(t *testing.T) {
	row := CoreToPhoto(core.Photo{Timestamp: 1000}, time.UTC, nil)
	assert.Equal(t, "{}", string(row.Meta))
}

func TestCoreToPhoto_DayKeyRespectsLocation(t *testing.T) {
	// 2026-08-14T23:30:00Z is already 2026-08-15 in UTC+2
	ts := time.Date(2026, 8, 14, 23, 30, 0, 0, time.UTC).UnixMilli()
	east := time.FixedZone("UTC+2", 2*3600)

	utcRow := CoreToPhoto(core.Photo{Timestamp: ts}, time.UTC, nil)
	eastRow := CoreToPhoto(core.Photo{Timestamp: ts}, east, nil)

	assert.Equal(t, "2026-08-14", utcRow.DayKey)
	assert.Equal(t, "2026-08-15", eastRow.DayKey)
}

func TestPhotoToCore_RoundTrip(t *testing.T) {
	orig := core.Photo{
		Filename:    "beach.jpg",
		Path:        "images/beach.jpg",
		Point:       core.Point{Lat: -33.86, Lng: 151.2},
		Timestamp:   1755000000000,
		Approximate: false,
	}

	row := CoreToPhoto(orig, time.UTC, nil)
	got := PhotoToCore(row)

	require.Equal(t, orig, got)
}

func TestPhotosToCore_PreservesOrder(t *testing.T) {
	rows := []model.Photo{
		{Filename: "a.jpg", Timestamp: 1000},
		{Filename: "b.jpg", Timestamp: 2000},
		{Filename: "c.jpg", Timestamp: 3000},
	}

	photos := PhotosToCore(rows)

	require.Len(t, photos, 3)
	for i, p := range photos {
		assert.Equal(t, rows[i].Filename, p.Filename)
		assert.Equal(t, rows[i].Timestamp, p.Timestamp)
	}
}
