package core

import "time"

// Point represents a WGS84 coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScreenPoint represents a projected position on the rendering surface
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Facing is the horizontal travel direction of the animated marker
type Facing int8

const (
	FacingEast Facing = iota
	FacingWest
)

func (f Facing) String() string {
	if f == FacingWest {
		return "west"
	}
	return "east"
}

// FacingBetween derives the marker facing from the sign of the longitude
// delta between two points. Eastbound is the default for zero delta.
func FacingBetween(from, to Point) Facing {
	if to.Lng < from.Lng {
		return FacingWest
	}
	return FacingEast
}

// DayKey identifies a calendar day in a fixed location.
// Two timestamps share a DayKey iff truncation yields the same
// year/month/day in that location.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf truncates an epoch-millisecond timestamp to its calendar day in loc.
func DayKeyOf(epochMs int64, loc *time.Location) DayKey {
	t := time.UnixMilli(epochMs).In(loc)
	return DayKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}
