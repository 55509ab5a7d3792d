package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/worldphotos/playback/internal/animator"
	"github.com/worldphotos/playback/internal/api"
	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/catalog"
	"github.com/worldphotos/playback/internal/config"
	"github.com/worldphotos/playback/internal/database"
	"github.com/worldphotos/playback/internal/dispatcher"
	"github.com/worldphotos/playback/internal/handlers"
	"github.com/worldphotos/playback/internal/influx"
	"github.com/worldphotos/playback/internal/logging"
	"github.com/worldphotos/playback/internal/monitor"
	intOtel "github.com/worldphotos/playback/internal/otel"
	"github.com/worldphotos/playback/internal/render"
	"github.com/worldphotos/playback/internal/scheduler"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// CurrentVersion and BuildDate can be set at build time via ldflags.
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	AppName string = "worldphotos"
)

var (
	SessionStartTime time.Time = time.Now()

	LogFilePath string
	LogFile     *os.File

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// Services
	dbManager        *database.Manager
	telemetry        *influx.Manager
	photoCatalog     catalog.Catalog
	centroids        *cache.CentroidCache
	surface          render.Surface
	playbackAnimator *animator.Animator
	playbackSched    *scheduler.Scheduler
	monitorService   *monitor.Service
	apiClient        *api.Client
	commandDisp      *dispatcher.Dispatcher
)

func loadConfig() error {
	configDir := os.Getenv("WORLDPHOTOS_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	return config.Load(configDir)
}

// setupLogging opens the session log file and wires the slog handlers.
// Called twice: once before the services exist, and again afterwards so
// the context handler can annotate records with live playback state.
func setupLogging() error {
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return fmt.Errorf("failed to create logs dir: %w", err)
		}
	}

	if LogFile == nil {
		LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
		var err error
		LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", LogFilePath, err)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	graylogAddr := ""
	if viper.GetBool("graylog.enabled") {
		graylogAddr = viper.GetString("graylog.address")
	}

	SlogManager.Setup(logging.Options{
		File:           LogFile,
		Level:          viper.GetString("logLevel"),
		Provider:       otelLogProvider,
		GraylogAddress: graylogAddr,
		Context:        playbackContext,
	})
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	return nil
}

// playbackContext injects live playback state into every log record.
func playbackContext() []slog.Attr {
	attrs := []slog.Attr{}
	if playbackSched != nil {
		st := playbackSched.GetStatus()
		attrs = append(attrs,
			slog.String("playbackMode", st.Mode.String()),
			slog.Int64("windowLower", st.Window.Lower),
			slog.Int64("windowUpper", st.Window.Upper),
		)
	}
	if monitorService != nil {
		attrs = append(attrs,
			slog.Bool("monitorRunning", monitorService.IsRunning()),
			slog.Int("monitorSamples", monitorService.SampleCount()),
		)
	}
	return attrs
}

func setupOTel() {
	if !viper.GetBool("otel.enabled") {
		return
	}
	var err error
	OTelProvider, err = intOtel.New(intOtel.Config{
		Enabled:      true,
		ServiceName:  AppName,
		BatchTimeout: 5 * time.Second,
		LogWriter:    LogFile,
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider = nil
		return
	}
	if ep := viper.GetString("otel.endpoint"); ep != "" {
		Logger.Info("OTel provider initialized", "endpoint", ep)
	} else {
		Logger.Info("OTel provider initialized", "file", LogFilePath)
	}
}

// setupCatalog builds the photo catalog backend selected in config.
func setupCatalog(loc *time.Location) error {
	storageType := viper.GetString("storage.type")
	backend, err := catalog.NewBackend(storageType, loc)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to init %s catalog: %w", storageType, err)
	}
	photoCatalog = backend
	Logger.Info("Catalog backend initialized", "type", storageType)
	return nil
}

// setupSurface builds the render surface stack. The log surface is always
// present so every frame is observable even without a connected frontend.
func setupSurface() error {
	surfaces := []render.Surface{render.NewLogSurface()}

	if viper.GetBool("stream.enabled") {
		streamSurface, err := render.NewSurface("stream", render.StreamConfig{
			URL:    viper.GetString("stream.url"),
			Secret: viper.GetString("stream.secret"),
		})
		if err != nil {
			return err
		}
		surfaces = append(surfaces, streamSurface)
		Logger.Info("Stream surface enabled", "url", viper.GetString("stream.url"))
	}

	if len(surfaces) == 1 {
		surface = surfaces[0]
	} else {
		surface = render.NewMultiSurface(surfaces...)
	}
	return surface.Init()
}

func checkServerStatus() {
	if err := apiClient.Healthcheck(); err != nil {
		Logger.Info("Photo server is offline", "error", err)
	} else {
		Logger.Info("Photo server is online")
	}
}

func setup() error {
	var err error

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err = loadConfig(); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	if err = setupLogging(); err != nil {
		return err
	}
	setupOTel()
	// re-run so the OTel handler joins the set
	if err = setupLogging(); err != nil {
		return err
	}
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("app", AppName).Logger()

	loc := config.Timezone()
	Logger.Info("Using timezone for day truncation", "timezone", loc.String())

	if err = setupCatalog(loc); err != nil {
		return err
	}
	centroids = cache.NewCentroidCache()

	if err = setupSurface(); err != nil {
		return err
	}

	playbackAnimator = animator.New(surface, config.Animation())
	playbackSched, err = scheduler.New(photoCatalog, centroids, surface, playbackAnimator, config.Playback(), loc)
	if err != nil {
		return err
	}

	apiClient = api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	go checkServerStatus()

	// performance history DB is optional
	if viper.GetBool("db.enabled") {
		dbManager = database.NewManager(zl)
		if err = dbManager.Connect(); err != nil {
			Logger.Error("Failed to connect performance database", "error", err)
			dbManager = nil
		} else if err = dbManager.Setup(); err != nil {
			Logger.Error("Failed to migrate performance database", "error", err)
			dbManager = nil
		}
	}

	telemetry = influx.NewManager(zl, filepath.Join(viper.GetString("logsDir"), "telemetry_backup.gz"))
	if viper.GetBool("influx.enabled") {
		if err = telemetry.Connect(); err != nil {
			Logger.Error("Failed to connect telemetry target, points go to backup", "error", err)
		}
	}
	playbackSched.SetTelemetry(telemetry)

	commandDisp, err = dispatcher.New(logging.NewDispatcherLogger(zl))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	handlerService := handlers.NewService(handlers.Dependencies{
		Catalog:          photoCatalog,
		Scheduler:        playbackSched,
		Centroids:        centroids,
		Client:           apiClient,
		Telemetry:        telemetry,
		Loc:              loc,
		InferApproximate: viper.GetBool("inferApproximate"),
		Version:          CurrentVersion + " (" + BuildDate + ")",
	})
	handlerService.RegisterAll(commandDisp)

	monitorDeps := monitor.Dependencies{
		Scheduler: playbackSched,
		Telemetry: telemetry,
		StatusDir: viper.GetString("logsDir"),
		IsDatabaseValid: func() bool {
			return dbManager != nil && dbManager.IsValid
		},
	}
	if dbManager != nil {
		monitorDeps.DB = dbManager.DB
	}
	monitorService = monitor.NewService(monitorDeps)
	if !monitorService.IsRunning() {
		if err = monitorService.Start(); err != nil {
			Logger.Error("Failed to start status monitor", "error", err)
		}
	}

	// seed the catalog from the configured photos file when it exists
	if photosFile := viper.GetString("photosFile"); photosFile != "" {
		if _, statErr := os.Stat(photosFile); statErr == nil {
			res, dispErr := commandDisp.Dispatch(dispatcher.Event{
				Command:   ":IMPORT:",
				Args:      []string{photosFile},
				Timestamp: time.Now(),
			})
			if dispErr != nil {
				Logger.Error("Initial import failed", "path", photosFile, "error", dispErr)
			} else {
				Logger.Info("Initial import complete", "path", photosFile, "result", res)
			}
		}
	}

	return nil
}

func shutdown() {
	Logger.Info("Shutting down...")

	if playbackSched != nil {
		playbackSched.Stop()
	}
	if monitorService != nil {
		monitorService.Stop()
	}
	if surface != nil {
		if err := surface.Close(); err != nil {
			Logger.Error("Error closing render surface", "error", err)
		}
	}
	if photoCatalog != nil {
		if err := photoCatalog.Close(); err != nil {
			Logger.Error("Error closing catalog", "error", err)
		}
	}
	if telemetry != nil {
		if err := telemetry.Close(); err != nil {
			Logger.Error("Error closing telemetry", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Error("Error flushing logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("Error shutting down OTel provider", "error", err)
		}
	}

	if LogFile != nil {
		_ = LogFile.Close()
	}
}

func main() {
	args := os.Args[1:]
	if len(args) > 0 && strings.EqualFold(args[0], "version") {
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return
	}

	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer shutdown()

	// one-shot mode: treat the arguments as a single command line
	if len(args) > 0 {
		runOnce(strings.Join(args, " "))
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runConsole()
		close(done)
	}()

	select {
	case sig := <-sigCh:
		Logger.Info("Received signal, shutting down", "signal", sig.String())
	case <-done:
	}
}
