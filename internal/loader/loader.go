// Package loader reads the photos.json dataset produced by the EXIF
// extraction utility and turns it into validated core.Photo records.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/worldphotos/playback/pkg/core"
)

// maxInferDeltaDays bounds approximate-location inference: a photo without
// GPS only borrows a location from a dated day at most this many days away.
const maxInferDeltaDays = 3

// rawPhoto mirrors one photos.json entry. Coordinates and timestamp are
// pointers so missing fields are distinguishable from zero values.
type rawPhoto struct {
	Filename    string   `json:"filename"`
	Path        string   `json:"path"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Timestamp   *int64   `json:"timestamp"`
	Approximate bool     `json:"approximate"`
}

// Options configures a load.
type Options struct {
	// InferApproximate enables borrowing locations from nearby days for
	// records that carry a timestamp but no GPS tags.
	InferApproximate bool
	// Loc is the location used for calendar-day truncation.
	Loc *time.Location
	// Logger receives per-record discard notices. Nil disables them.
	Logger *slog.Logger
}

// Result is the outcome of a load.
type Result struct {
	// Photos is the validated collection, sorted by timestamp.
	Photos []core.Photo
	// Range is the full time span. Zero when Photos is empty.
	Range core.Range
	// Discarded counts records rejected for missing or non-finite fields.
	Discarded int
	// Inferred counts records whose location was borrowed from nearby days.
	Inferred int
}

// Load decodes and validates a photos.json stream.
// Records missing a timestamp are discarded. Records missing coordinates
// are discarded unless inference finds a dated day nearby; records with
// non-finite coordinates are always discarded.
func Load(r io.Reader, opts Options) (*Result, error) {
	loc := opts.Loc
	if loc == nil {
		loc = time.Local
	}

	var raw []rawPhoto
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse photos JSON: %w", err)
	}

	res := &Result{}
	dayLocations := make(map[core.DayKey][]core.Point)
	var noGPS []rawPhoto

	for _, rp := range raw {
		if rp.Timestamp == nil {
			res.Discarded++
			discardLog(opts.Logger, rp, "no timestamp")
			continue
		}
		if rp.Lat == nil || rp.Lng == nil {
			if opts.InferApproximate {
				noGPS = append(noGPS, rp)
			} else {
				res.Discarded++
				discardLog(opts.Logger, rp, "no coordinates")
			}
			continue
		}
		if !finite(*rp.Lat) || !finite(*rp.Lng) {
			res.Discarded++
			discardLog(opts.Logger, rp, "non-finite coordinates")
			continue
		}

		p := core.Photo{
			Filename:    rp.Filename,
			Path:        rp.Path,
			Point:       core.Point{Lat: *rp.Lat, Lng: *rp.Lng},
			Timestamp:   *rp.Timestamp,
			Approximate: rp.Approximate,
		}
		res.Photos = append(res.Photos, p)

		if !p.Approximate {
			key := core.DayKeyOf(p.Timestamp, loc)
			dayLocations[key] = append(dayLocations[key], p.Point)
		}
	}

	// Second pass: borrow a location for timestamped records without GPS
	// from the nearest dated day, as the extraction utility does.
	for _, rp := range noGPS {
		pt, ok := inferLocation(*rp.Timestamp, dayLocations, loc)
		if !ok {
			res.Discarded++
			discardLog(opts.Logger, rp, "no nearby dated GPS reference")
			continue
		}
		res.Photos = append(res.Photos, core.Photo{
			Filename:    rp.Filename,
			Path:        rp.Path,
			Point:       pt,
			Timestamp:   *rp.Timestamp,
			Approximate: true,
		})
		res.Inferred++
	}

	sort.Slice(res.Photos, func(i, j int) bool {
		return res.Photos[i].Timestamp < res.Photos[j].Timestamp
	})

	if len(res.Photos) > 0 {
		res.Range = core.Range{
			Min: res.Photos[0].Timestamp,
			Max: res.Photos[len(res.Photos)-1].Timestamp,
		}
	}

	return res, nil
}

// LoadFile loads a photos.json file from disk.
func LoadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photos file: %w", err)
	}
	defer f.Close()
	return Load(f, opts)
}

// inferLocation finds the closest day with known GPS within the inference
// window and returns its mean coordinate.
func inferLocation(epochMs int64, dayLocations map[core.DayKey][]core.Point, loc *time.Location) (core.Point, bool) {
	if len(dayLocations) == 0 {
		return core.Point{}, false
	}

	target := dayStart(epochMs, loc)

	var bestPoints []core.Point
	bestDelta := -1
	for key, points := range dayLocations {
		day := time.Date(key.Year, key.Month, key.Day, 0, 0, 0, 0, loc)
		delta := int(math.Abs(day.Sub(target).Hours() / 24))
		if bestDelta < 0 || delta < bestDelta {
			bestDelta = delta
			bestPoints = points
		}
	}

	if bestDelta < 0 || bestDelta > maxInferDeltaDays {
		return core.Point{}, false
	}

	var sumLat, sumLng float64
	for _, p := range bestPoints {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(bestPoints))
	return core.Point{Lat: sumLat / n, Lng: sumLng / n}, true
}

func dayStart(epochMs int64, loc *time.Location) time.Time {
	t := time.UnixMilli(epochMs).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func discardLog(logger *slog.Logger, rp rawPhoto, reason string) {
	if logger != nil {
		logger.Debug("Discarding photo record", "filename", rp.Filename, "reason", reason)
	}
}
