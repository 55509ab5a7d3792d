// Package monitor samples the playback engine on an interval and writes
// the samples to a status file, the database and the telemetry pipeline.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/influx"
	"github.com/worldphotos/playback/internal/model"
	"github.com/worldphotos/playback/internal/scheduler"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	DB              *gorm.DB
	Scheduler       *scheduler.Scheduler
	Telemetry       *influx.Manager
	StatusDir       string
	Interval        time.Duration
	IsDatabaseValid func() bool
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	samples   cache.SafeCounter
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// SampleCount returns how many samples have been taken since startup.
func (s *Service) SampleCount() int {
	return s.samples.Value()
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample captures the current playback state as a performance row and a
// printable status line.
func (s *Service) Sample() (output string, perf model.PlaybackPerformance) {
	st := s.deps.Scheduler.GetStatus()

	backlog := 0
	if s.deps.Telemetry != nil {
		backlog = s.deps.Telemetry.BacklogLen()
	}

	perf = model.PlaybackPerformance{
		Time:               time.Now(),
		Mode:               st.Mode.String(),
		WindowLower:        st.Window.Lower,
		WindowUpper:        st.Window.Upper,
		Ticks:              uint32(st.Ticks),
		Transitions:        uint32(st.Transitions),
		TelemetryBacklog:   uint16(backlog),
		LastTickDurationMs: float32(s.deps.Scheduler.LastTickDuration().Microseconds()) / 1000.0,
	}

	raw, err := json.MarshalIndent(perf, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return string(raw), perf
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := slog.Default()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				statusStr, perf := s.Sample()
				s.samples.Inc()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.WriteString(statusStr + "\n")
				}

				if s.deps.DB != nil && s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() {
					if err := s.deps.DB.Create(&perf).Error; err != nil {
						logger.Error("Error writing performance sample", "error", err)
					}
				}

				if s.deps.Telemetry != nil {
					s.deps.Telemetry.RecordWindowAdvance(
						s.deps.Scheduler.Window(),
						perf.Mode,
						s.deps.Scheduler.LastTickDuration(),
					)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
