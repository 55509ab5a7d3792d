package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 8, 14, 9, 5, 12, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			appName: "worldphotos",
			want:    filepath.Join("logs", "worldphotos.20260814_090512.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			appName: "worldphotos",
			want:    filepath.Join(".", "logs", "worldphotos.20260814_090512.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "worldphotos"),
			appName: "worldphotos",
			want:    filepath.Join("/var", "log", "worldphotos", "worldphotos.20260814_090512.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.appName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}
