package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// PlaybackConfig holds the scheduler's timing and threshold knobs.
// The values mirror the original UX tuning but are configuration, not
// constants: the "right" cadence and jump threshold are product decisions.
type PlaybackConfig struct {
	TickInterval time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	WindowDays   int           `json:"windowDays" mapstructure:"windowDays"`
	ThresholdKm  float64       `json:"thresholdKm" mapstructure:"thresholdKm"`
}

// AnimationConfig holds the transition animator's knobs.
type AnimationConfig struct {
	Steps            int           `json:"steps" mapstructure:"steps"`
	StepInterval     time.Duration `json:"stepInterval" mapstructure:"stepInterval"`
	ParticleEvery    int           `json:"particleEvery" mapstructure:"particleEvery"`
	ParticleLifetime time.Duration `json:"particleLifetime" mapstructure:"particleLifetime"`
	TrailFadeDelay   time.Duration `json:"trailFadeDelay" mapstructure:"trailFadeDelay"`
	Padding          float64       `json:"padding" mapstructure:"padding"`
}

// SqliteConfig holds sqlite catalog backend settings
type SqliteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("timezone", "Local")
	viper.SetDefault("photosFile", "./photos.json")
	viper.SetDefault("inferApproximate", true)

	viper.SetDefault("playback.tickInterval", "300ms")
	viper.SetDefault("playback.windowDays", 3)
	viper.SetDefault("playback.thresholdKm", 300.0)

	viper.SetDefault("animation.steps", 80)
	viper.SetDefault("animation.stepInterval", "16ms")
	viper.SetDefault("animation.particleEvery", 4)
	viper.SetDefault("animation.particleLifetime", "1200ms")
	viper.SetDefault("animation.trailFadeDelay", "800ms")
	viper.SetDefault("animation.padding", 0.3)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5000/ws")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "worldphotos")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "worldphotos")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("worldphotos.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Playback returns the scheduler configuration.
func Playback() PlaybackConfig {
	return PlaybackConfig{
		TickInterval: viper.GetDuration("playback.tickInterval"),
		WindowDays:   viper.GetInt("playback.windowDays"),
		ThresholdKm:  viper.GetFloat64("playback.thresholdKm"),
	}
}

// Animation returns the animator configuration.
func Animation() AnimationConfig {
	return AnimationConfig{
		Steps:            viper.GetInt("animation.steps"),
		StepInterval:     viper.GetDuration("animation.stepInterval"),
		ParticleEvery:    viper.GetInt("animation.particleEvery"),
		ParticleLifetime: viper.GetDuration("animation.particleLifetime"),
		TrailFadeDelay:   viper.GetDuration("animation.trailFadeDelay"),
		Padding:          viper.GetFloat64("animation.padding"),
	}
}

// Timezone returns the location used for calendar-day truncation.
// Falls back to the system location on parse failure, matching the
// browser-local truncation of the original frontend.
func Timezone() *time.Location {
	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return time.Local
	}
	return loc
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
