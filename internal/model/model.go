package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent
// tables in the database schema
var DatabaseModels = []interface{}{
	&CollectionInfo{},
	&Photo{},
	&PlaybackPerformance{},
}

// CollectionInfo describes the loaded photo collection
type CollectionInfo struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:127"`
	SourceFile string `json:"sourceFile" gorm:"size:255"`
	PhotoCount uint32 `json:"photoCount"`
	RangeMin   int64  `json:"rangeMin"`
	RangeMax   int64  `json:"rangeMax"`
}

func (*CollectionInfo) TableName() string {
	return "collection_infos"
}

// Photo is a single geotagged image row. DayKey is the local calendar day of
// the capture timestamp, precomputed so day-centroid queries hit an index
// instead of truncating timestamps per row.
type Photo struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Filename    string         `json:"filename" gorm:"size:255;index:idx_photos_filename"`
	Path        string         `json:"path" gorm:"size:512"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	Timestamp   int64          `json:"timestamp" gorm:"index:idx_photos_timestamp"`
	DayKey      string         `json:"dayKey" gorm:"size:10;index:idx_photos_day_key"`
	Approximate bool           `json:"approximate"`
	Meta        datatypes.JSON `json:"meta"`
}

func (*Photo) TableName() string {
	return "photos"
}

// PlaybackPerformance is the model for playback engine performance samples
type PlaybackPerformance struct {
	Time               time.Time `json:"time" gorm:"index:idx_playback_perf_time"`
	Mode               string    `json:"mode" gorm:"size:31"`
	WindowLower        int64     `json:"windowLower"`
	WindowUpper        int64     `json:"windowUpper"`
	Ticks              uint32    `json:"ticks"`
	Transitions        uint32    `json:"transitions"`
	TelemetryBacklog   uint16    `json:"telemetryBacklog"`
	LastTickDurationMs float32   `json:"lastTickDurationMs"`
}

func (*PlaybackPerformance) TableName() string {
	return "playback_performances"
}
