package core

// Photo represents a single geotagged image from the collection.
// Records are immutable after load: the loader discards anything missing a
// usable coordinate or capture time, so all fields here are always valid.
type Photo struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Point
	// Timestamp is the capture time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Approximate marks photos whose location was inferred from nearby
	// days rather than read from EXIF GPS tags.
	Approximate bool `json:"approximate"`
}

// TimeWindow is the visible slice of the collection's time range.
// Lower and Upper are epoch milliseconds, Lower <= Upper.
type TimeWindow struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
}

// Contains reports whether the timestamp falls inside the window (inclusive).
func (w TimeWindow) Contains(epochMs int64) bool {
	return epochMs >= w.Lower && epochMs <= w.Upper
}

// Range is the full time span of the loaded collection, computed once at
// load time. All windows stay within it.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Window returns the full range as a time window.
func (r Range) Window() TimeWindow {
	return TimeWindow{Lower: r.Min, Upper: r.Max}
}

// Clamp limits ts to the range bounds.
func (r Range) Clamp(ts int64) int64 {
	if ts < r.Min {
		return r.Min
	}
	if ts > r.Max {
		return r.Max
	}
	return ts
}
