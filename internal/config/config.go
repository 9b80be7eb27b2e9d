// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Playback configures the optional deterministic replay source.
type Playback struct {
	File      string  `yaml:"file"`
	OriginLat float64 `yaml:"origin_lat"`
	OriginLon float64 `yaml:"origin_lon"`
}

// Airspace configures the facility grid cache.
type Airspace struct {
	GridFile          string  `yaml:"grid_file"`
	DefaultElevationM float64 `yaml:"default_elevation_m"`
}

// Registry configures live-session lifecycle handling.
type Registry struct {
	StaleTimeoutS  int `yaml:"stale_timeout_s"`
	SweepIntervalS int `yaml:"sweep_interval_s"`
}

// Archive configures the optional telemetry sinks.
type Archive struct {
	GreptimeEndpoint string `yaml:"greptime_endpoint"`
	GreptimeDatabase string `yaml:"greptime_database"`
	File             string `yaml:"file"`
}

// Config is the root server configuration.
type Config struct {
	ListenAddr string   `yaml:"listen_addr"`
	ClusterID  string   `yaml:"cluster_id"`
	LogFormat  string   `yaml:"log_format"`
	Airspace   Airspace `yaml:"airspace"`
	Registry   Registry `yaml:"registry"`
	Playback   Playback `yaml:"playback"`
	Archive    Archive  `yaml:"archive"`
}

// StaleTimeout returns the configured stale timeout as a duration.
func (c *Config) StaleTimeout() time.Duration {
	return time.Duration(c.Registry.StaleTimeoutS) * time.Second
}

// SweepInterval returns the configured sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Registry.SweepIntervalS) * time.Second
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr: ":8000",
		ClusterID:  "ops-01",
		LogFormat:  "text",
		Registry: Registry{
			StaleTimeoutS:  30,
			SweepIntervalS: 5,
		},
		Archive: Archive{
			GreptimeDatabase: "public",
		},
	}
}
