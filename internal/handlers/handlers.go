// Package handlers wires the control commands to the playback engine.
package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/worldphotos/playback/internal/api"
	"github.com/worldphotos/playback/internal/cache"
	"github.com/worldphotos/playback/internal/catalog"
	"github.com/worldphotos/playback/internal/dispatcher"
	"github.com/worldphotos/playback/internal/influx"
	"github.com/worldphotos/playback/internal/loader"
	"github.com/worldphotos/playback/internal/scheduler"
	"github.com/worldphotos/playback/internal/util"
)

// Dependencies holds everything the command handlers need.
type Dependencies struct {
	Catalog          catalog.Catalog
	Scheduler        *scheduler.Scheduler
	Centroids        *cache.CentroidCache
	Client           *api.Client
	Telemetry        *influx.Manager
	Loc              *time.Location
	InferApproximate bool
	Version          string
}

// Service provides handler methods for the control commands.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service.
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// RegisterAll registers every command against the dispatcher.
func (s *Service) RegisterAll(d *dispatcher.Dispatcher) {
	d.Register(":PLAY:", s.handlePlay, dispatcher.Logged())
	d.Register(":STOP:", s.handleStop, dispatcher.Logged())
	d.Register(":SHOW:ALL:", s.handleShowAll, dispatcher.Logged())
	d.Register(":SEEK:", s.handleSeek, dispatcher.Logged())
	d.Register(":STATUS:", s.handleStatus)
	d.Register(":IMPORT:", s.handleImport, dispatcher.Logged())
	d.Register(":FETCH:", s.handleFetch, dispatcher.Logged())
	d.Register(":VERSION:", s.handleVersion)
	d.Register(":HELP:", func(dispatcher.Event) (any, error) {
		return strings.Join(d.Commands(), " "), nil
	})
}

func (s *Service) handlePlay(dispatcher.Event) (any, error) {
	if err := s.deps.Scheduler.Start(); err != nil {
		return nil, err
	}
	return "playback " + s.deps.Scheduler.Mode().String(), nil
}

func (s *Service) handleStop(dispatcher.Event) (any, error) {
	s.deps.Scheduler.Stop()
	return "playback stopped", nil
}

func (s *Service) handleShowAll(dispatcher.Event) (any, error) {
	if err := s.deps.Scheduler.ShowAll(); err != nil {
		return nil, err
	}
	return "showing all photos", nil
}

// handleSeek accepts an epoch-millisecond timestamp or a YYYY-MM-DD date.
func (s *Service) handleSeek(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("seek requires a timestamp or date argument")
	}

	arg := util.TrimQuotes(e.Args[0])

	ms, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		day, dateErr := time.ParseInLocation("2006-01-02", arg, s.deps.Loc)
		if dateErr != nil {
			return nil, fmt.Errorf("cannot parse %q as epoch milliseconds or date", arg)
		}
		ms = day.UnixMilli()
	}

	if err := s.deps.Scheduler.Seek(ms); err != nil {
		return nil, err
	}
	return fmt.Sprintf("window moved to %s", util.FormatEpochMs(s.deps.Scheduler.Window().Lower, s.deps.Loc)), nil
}

// statusReport is the JSON shape returned by :STATUS:.
type statusReport struct {
	Mode        string `json:"mode"`
	WindowLower string `json:"windowLower"`
	WindowUpper string `json:"windowUpper"`
	RangeMin    string `json:"rangeMin,omitempty"`
	RangeMax    string `json:"rangeMax,omitempty"`
	Ticks       uint64 `json:"ticks"`
	Transitions uint64 `json:"transitions"`
	Backlog     int    `json:"telemetryBacklog,omitempty"`
	Collection  string `json:"collection,omitempty"`
	SourceFile  string `json:"sourceFile,omitempty"`
	PhotoCount  uint32 `json:"photoCount,omitempty"`
}

func (s *Service) handleStatus(dispatcher.Event) (any, error) {
	st := s.deps.Scheduler.GetStatus()

	report := statusReport{
		Mode:        st.Mode.String(),
		WindowLower: util.FormatEpochMs(st.Window.Lower, s.deps.Loc),
		WindowUpper: util.FormatEpochMs(st.Window.Upper, s.deps.Loc),
		Ticks:       st.Ticks,
		Transitions: st.Transitions,
	}
	if st.Range.Min != 0 || st.Range.Max != 0 {
		report.RangeMin = util.FormatEpochMs(st.Range.Min, s.deps.Loc)
		report.RangeMax = util.FormatEpochMs(st.Range.Max, s.deps.Loc)
	}
	if s.deps.Telemetry != nil {
		report.Backlog = s.deps.Telemetry.BacklogLen()
	}
	if desc, ok := s.deps.Catalog.(catalog.Describer); ok {
		if info, ok := desc.Info(); ok {
			report.Collection = info.Name
			report.SourceFile = info.SourceFile
			report.PhotoCount = info.PhotoCount
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

func (s *Service) handleImport(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("import requires a file path argument")
	}
	path := util.TrimQuotes(e.Args[0])

	res, err := loader.LoadFile(path, loader.Options{
		InferApproximate: s.deps.InferApproximate,
		Loc:              s.deps.Loc,
	})
	if err != nil {
		return nil, err
	}

	return s.importResult(path, res)
}

func (s *Service) handleFetch(dispatcher.Event) (any, error) {
	if s.deps.Client == nil {
		return nil, fmt.Errorf("no catalog server configured")
	}

	body, err := s.deps.Client.FetchPhotos()
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := loader.Load(body, loader.Options{
		InferApproximate: s.deps.InferApproximate,
		Loc:              s.deps.Loc,
	})
	if err != nil {
		return nil, err
	}

	return s.importResult("remote", res)
}

// importResult pushes loaded photos into the catalog and resets the
// centroid cache so stale day centroids never survive a re-import.
func (s *Service) importResult(source string, res *loader.Result) (any, error) {
	if desc, ok := s.deps.Catalog.(catalog.Describer); ok {
		desc.SetSource(source)
	}
	if err := s.deps.Catalog.Import(res.Photos); err != nil {
		return nil, err
	}
	if s.deps.Centroids != nil {
		s.deps.Centroids.Reset()
	}
	if s.deps.Telemetry != nil {
		s.deps.Telemetry.RecordImport(source, len(res.Photos), res.Discarded, res.Inferred)
	}

	return fmt.Sprintf("imported %d photos (%d discarded, %d locations inferred)",
		len(res.Photos), res.Discarded, res.Inferred), nil
}

func (s *Service) handleVersion(dispatcher.Event) (any, error) {
	return s.deps.Version, nil
}
