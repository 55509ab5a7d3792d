package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Options configures the logging outputs.
type Options struct {
	// File is the session log file. Nil disables the file handler.
	File io.Writer
	// Level is the minimum level as a string ("debug", "info", ...).
	Level string
	// Provider enables the OTel log handler when non-nil.
	Provider *sdklog.LoggerProvider
	// GraylogAddress enables a GELF handler when non-empty.
	GraylogAddress string
	// Context injects dynamic attributes (playback mode, window) into
	// every record when non-nil.
	Context ContextProvider
}

// SlogManager manages slog-based logging with optional GELF and OTel outputs.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)
	m.logProvider = opts.Provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	// Build list of handlers
	var handlers []slog.Handler

	// Console handler
	handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))

	// File handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	}

	// GELF handler for Graylog. A reachability failure here only costs us
	// the Graylog output, the remaining handlers still run.
	if opts.GraylogAddress != "" {
		if w, err := gelf.NewWriter(opts.GraylogAddress); err == nil {
			handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		}
	}

	// OTel handler (if provider is available)
	if opts.Provider != nil {
		otelHandler := otelslog.NewHandler("worldphotos", otelslog.WithLoggerProvider(opts.Provider))
		handlers = append(handlers, otelHandler)
	}

	// Combine all handlers
	var combined slog.Handler = NewMultiHandler(handlers...)

	if opts.Context != nil {
		combined = NewContextHandler(combined, opts.Context)
	}

	m.logger = slog.New(combined)
	m.logger.Info("Logging initialized", "level", opts.Level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
