// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/worldphotos/playback/internal/model"
	"github.com/worldphotos/playback/pkg/core"

	"gorm.io/datatypes"
)

// DayKeyString formats a day key the way it is stored in the photos table.
func DayKeyString(k core.DayKey) string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// metaToJSON converts a metadata map to datatypes.JSON for DB storage.
func metaToJSON(meta map[string]any) datatypes.JSON {
	if len(meta) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(meta)
	return datatypes.JSON(data)
}

// CoreToPhoto converts a core.Photo to a GORM model.Photo.
// The day key is truncated in loc, the same location the scheduler uses for
// centroid grouping.
func CoreToPhoto(p core.Photo, loc *time.Location, meta map[string]any) model.Photo {
	return model.Photo{
		Filename:    p.Filename,
		Path:        p.Path,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Timestamp:   p.Timestamp,
		DayKey:      DayKeyString(core.DayKeyOf(p.Timestamp, loc)),
		Approximate: p.Approximate,
		Meta:        metaToJSON(meta),
	}
}

// PhotoToCore converts a GORM model.Photo back to a core.Photo.
func PhotoToCore(m model.Photo) core.Photo {
	return core.Photo{
		Filename:    m.Filename,
		Path:        m.Path,
		Point:       core.Point{Lat: m.Lat, Lng: m.Lng},
		Timestamp:   m.Timestamp,
		Approximate: m.Approximate,
	}
}

// PhotosToCore converts a slice of rows, preserving order.
func PhotosToCore(rows []model.Photo) []core.Photo {
	out := make([]core.Photo, 0, len(rows))
	for _, r := range rows {
		out = append(out, PhotoToCore(r))
	}
	return out
}
