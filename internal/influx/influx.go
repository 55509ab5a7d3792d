// Package influx ships playback telemetry to InfluxDB, with a gzip
// line-protocol backup file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/worldphotos/playback/internal/queue"
	"github.com/worldphotos/playback/pkg/core"
)

// Bucket names used by the playback engine.
const (
	BucketEvents      = "playback_events"
	BucketPerformance = "playback_performance"
)

// DefaultBucketNames are the InfluxDB buckets ensured at connect time.
var DefaultBucketNames = []string{
	BucketEvents,
	BucketPerformance,
}

// queuedPoint is a point held back until the client is connected.
type queuedPoint struct {
	Bucket string
	Point  *influxdb2_write.Point
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	// Backlog catches points recorded before Connect or while the
	// client is down; Flush drains it.
	Backlog *queue.Queue[queuedPoint]
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
		Backlog:     queue.New[queuedPoint](),
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		// create backup writer
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %v", err)
			}
			m.BackupWriter = gzip.NewWriter(file)
		}
	} else {
		m.IsValid = true
	}

	if m.IsValid {
		err = m.setupOrganizationAndBuckets()
		if err != nil {
			return err
		}
		m.CreateWriters()
		m.Logger.Info().Msg("InfluxDB client initialized")
	} else {
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
	}

	return m.Flush()
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	// ensure org exists
	_, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		_, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Error().Err(err).Str("org", orgName).Msg("Error getting organization")
		return err
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		_, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket)
		if err != nil {
			m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

			rule := domain.RetentionRuleTypeExpire
			_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
				Type:         &rule,
				EverySeconds: 60 * 60 * 24 * 90, // 90 days
			})
			if err != nil {
				m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
				return err
			}
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(orgName, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		if _, ok := m.Writers[bucket]; !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		m.Writers[bucket].WritePoint(point)
	} else {
		if m.BackupWriter == nil {
			return fmt.Errorf("influxDB client not initialized and backup writer not available")
		}

		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Duration(1*time.Nanosecond))
		_, err := m.BackupWriter.Write([]byte(lineProtocol + "\n"))
		if err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
		}
	}

	return nil
}

// enqueue records a point, going through the backlog until a writer or
// backup target exists.
func (m *Manager) enqueue(bucket string, point *influxdb2_write.Point) {
	if m.IsValid || m.BackupWriter != nil {
		if err := m.WritePoint(context.Background(), bucket, point); err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error writing telemetry point")
		}
		return
	}
	m.Backlog.Push(queuedPoint{Bucket: bucket, Point: point})
}

// Flush drains the backlog into whatever target Connect established.
func (m *Manager) Flush() error {
	if !m.IsValid && m.BackupWriter == nil {
		return nil
	}
	for _, qp := range m.Backlog.GetAndEmpty() {
		if err := m.WritePoint(context.Background(), qp.Bucket, qp.Point); err != nil {
			return err
		}
	}
	return nil
}

// BacklogLen reports how many points are waiting for a connection.
func (m *Manager) BacklogLen() int {
	return m.Backlog.Len()
}

// RecordWindowAdvance records one scheduler tick.
func (m *Manager) RecordWindowAdvance(w core.TimeWindow, mode string, tickDuration time.Duration) {
	point := influxdb2_write.NewPointWithMeasurement("window_advance").
		AddTag("mode", mode).
		AddField("lower", w.Lower).
		AddField("upper", w.Upper).
		AddField("tick_duration_ms", float64(tickDuration.Microseconds())/1000.0).
		SetTime(time.Now())
	m.enqueue(BucketPerformance, point)
}

// RecordTransition records an animated transition between two centroids.
func (m *Manager) RecordTransition(from, to core.Point, distanceKm float64, cancelled bool) {
	point := influxdb2_write.NewPointWithMeasurement("transition").
		AddTag("cancelled", fmt.Sprintf("%t", cancelled)).
		AddField("from_lat", from.Lat).
		AddField("from_lng", from.Lng).
		AddField("to_lat", to.Lat).
		AddField("to_lng", to.Lng).
		AddField("distance_km", distanceKm).
		SetTime(time.Now())
	m.enqueue(BucketEvents, point)
}

// RecordImport records a catalog import.
func (m *Manager) RecordImport(source string, photoCount, discarded, inferred int) {
	point := influxdb2_write.NewPointWithMeasurement("catalog_import").
		AddTag("source", source).
		AddField("photos", photoCount).
		AddField("discarded", discarded).
		AddField("inferred", inferred).
		SetTime(time.Now())
	m.enqueue(BucketEvents, point)
}

// Close flushes writers and the backup file.
func (m *Manager) Close() error {
	if m.IsValid {
		for _, w := range m.Writers {
			w.Flush()
		}
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			return fmt.Errorf("error closing InfluxDB backup writer: %w", err)
		}
	}
	return nil
}
