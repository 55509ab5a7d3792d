package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"photosFile": "/data/photos.json",
		"playback": { "thresholdKm": 150, "windowDays": 5 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worldphotos.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "/data/photos.json", viper.GetString("photosFile"))
	assert.Equal(t, 150.0, viper.GetFloat64("playback.thresholdKm"))
	assert.Equal(t, 5, viper.GetInt("playback.windowDays"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worldphotos.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "./photos.json", viper.GetString("photosFile"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
	assert.Equal(t, false, viper.GetBool("stream.enabled"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestPlayback_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worldphotos.cfg.json"), []byte(`{}`), 0644))
	require.NoError(t, Load(dir))

	pb := Playback()
	assert.Equal(t, 300*time.Millisecond, pb.TickInterval)
	assert.Equal(t, 3, pb.WindowDays)
	assert.Equal(t, 300.0, pb.ThresholdKm)
}

func TestAnimation_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worldphotos.cfg.json"), []byte(`{}`), 0644))
	require.NoError(t, Load(dir))

	anim := Animation()
	assert.Equal(t, 80, anim.Steps)
	assert.Equal(t, 16*time.Millisecond, anim.StepInterval)
	assert.Equal(t, 4, anim.ParticleEvery)
	assert.Equal(t, 1200*time.Millisecond, anim.ParticleLifetime)
	assert.Equal(t, 800*time.Millisecond, anim.TrailFadeDelay)
	assert.Equal(t, 0.3, anim.Padding)
}

func TestTimezone_Invalid(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("timezone", "Not/AZone")

	assert.Equal(t, time.Local, Timezone())
}
