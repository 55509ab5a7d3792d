package catalog

import (
	"fmt"
	"time"

	"github.com/worldphotos/playback/internal/catalog/memory"
	"github.com/worldphotos/playback/internal/catalog/sqlite"
	"github.com/worldphotos/playback/internal/config"
)

// NewBackend creates a catalog backend based on configuration.
func NewBackend(backendType string, loc *time.Location) (Catalog, error) {
	switch backendType {
	case "sqlite":
		cfg := config.SqliteConfig{Path: config.GetString("storage.sqlite.path")}
		return sqlite.New(cfg, loc)
	case "memory":
		return memory.New(loc), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", backendType)
	}
}
