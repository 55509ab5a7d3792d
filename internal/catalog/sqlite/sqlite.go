// Package sqlite implements the catalog interface on a SQLite database via
// GORM. Useful for collections too large to hold resident, and it gives the
// frontend something to query directly.
package sqlite

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/database"
	"github.com/worldphotos/playback/internal/model"
	"github.com/worldphotos/playback/internal/model/convert"
	"github.com/worldphotos/playback/pkg/core"

	"gorm.io/gorm"
)

// Backend is a SQLite-backed photo catalog.
type Backend struct {
	db     *gorm.DB
	loc    *time.Location
	source string
}

// New creates a new SQLite catalog backend. An empty path selects an
// in-memory database.
func New(cfg config.SqliteConfig, loc *time.Location) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite catalog: %w", err)
	}

	return &Backend{db: db, loc: loc}, nil
}

// Init migrates the catalog schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(&model.Photo{}, &model.CollectionInfo{}); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetSource records where the next Import's photos come from.
func (b *Backend) SetSource(source string) {
	b.source = source
}

// Info returns the stored collection metadata. ok is false before the
// first import.
func (b *Backend) Info() (model.CollectionInfo, bool) {
	var info model.CollectionInfo
	if err := b.db.Order("id DESC").First(&info).Error; err != nil {
		return model.CollectionInfo{}, false
	}
	return info, true
}

// Import replaces the catalog contents with the given photos, along with
// a fresh collection-info row describing them.
func (b *Backend) Import(photos []core.Photo) error {
	rows := make([]model.Photo, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, convert.CoreToPhoto(p, b.loc, nil))
	}

	info := model.CollectionInfo{
		Name:       collectionName(b.source),
		SourceFile: b.source,
		PhotoCount: uint32(len(rows)),
	}
	for i, r := range rows {
		if i == 0 || r.Timestamp < info.RangeMin {
			info.RangeMin = r.Timestamp
		}
		if r.Timestamp > info.RangeMax {
			info.RangeMax = r.Timestamp
		}
	}

	return b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.Photo{}).Error; err != nil {
			return fmt.Errorf("failed to clear photos: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(&model.CollectionInfo{}).Error; err != nil {
			return fmt.Errorf("failed to clear collection info: %w", err)
		}
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to record collection info: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert photos: %w", err)
		}
		return nil
	})
}

// collectionName derives a display name from the import source.
func collectionName(source string) string {
	if source == "" {
		return "photo collection"
	}
	base := filepath.Base(source)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// All returns every photo in timestamp order.
func (b *Backend) All() ([]core.Photo, error) {
	var rows []model.Photo
	if err := b.db.Order("timestamp").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	return convert.PhotosToCore(rows), nil
}

// OnDay returns all photos whose capture time falls on the given day.
func (b *Backend) OnDay(key core.DayKey) ([]core.Photo, error) {
	var rows []model.Photo
	err := b.db.
		Where("day_key = ?", convert.DayKeyString(key)).
		Order("timestamp").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query day %v: %w", key, err)
	}
	return convert.PhotosToCore(rows), nil
}

// InWindow returns all photos inside the window, inclusive at both bounds.
func (b *Backend) InWindow(w core.TimeWindow) ([]core.Photo, error) {
	var rows []model.Photo
	err := b.db.
		Where("timestamp >= ? AND timestamp <= ?", w.Lower, w.Upper).
		Order("timestamp").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query window: %w", err)
	}
	return convert.PhotosToCore(rows), nil
}

// Range returns the full time span of the collection.
func (b *Backend) Range() (core.Range, bool) {
	type bounds struct {
		Min int64
		Max int64
		N   int64
	}
	var res bounds
	err := b.db.Model(&model.Photo{}).
		Select("MIN(timestamp) AS min, MAX(timestamp) AS max, COUNT(*) AS n").
		Scan(&res).Error
	if err != nil || res.N == 0 {
		return core.Range{}, false
	}
	return core.Range{Min: res.Min, Max: res.Max}, true
}
