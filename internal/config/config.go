// Package config loads gobble's runtime configuration, either from
// environment variables or from a JSON file on disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/transit-ingest/gobble/internal/catalog"
)

// APIKeyMethod enumerates how a feed's API key is attached to requests.
type APIKeyMethod string

const (
	APIKeyMethodHeader APIKeyMethod = "header"
	APIKeyMethodQuery  APIKeyMethod = "query"
	APIKeyMethodBearer APIKeyMethod = "bearer"
	APIKeyMethodNone   APIKeyMethod = "none"
)

// GTFSRTConfig holds the GTFS-RT polling source settings, required only
// when UseGTFSRT is true.
type GTFSRTConfig struct {
	FeedURL         string       `json:"feed_url"`
	APIKey          string       `json:"api_key"`
	PollingInterval int          `json:"polling_interval"` // seconds
	APIKeyMethod    APIKeyMethod `json:"api_key_method"`
	APIKeyParamName string       `json:"api_key_param_name"`
}

// Config holds all configuration for the orchestrator and its workers.
type Config struct {
	Agency string `json:"agency"`
	MBTA   struct {
		V3APIKey string `json:"v3_api_key"`
	} `json:"mbta"`
	Modes []string `json:"modes"`
	GTFS  struct {
		RefreshIntervalDays int `json:"refresh_interval_days"`
	} `json:"gtfs"`
	UseGTFSRT            bool         `json:"use_gtfs_rt"`
	GTFSRT               GTFSRTConfig `json:"gtfs_rt"`
	FileRetentionDays    int          `json:"file_retention_days"`
	DatadogTraceEnabled  bool         `json:"DATADOG_TRACE_ENABLED"`
	GTFSArchivesPrefix   string       `json:"GTFS_ARCHIVES_PREFIX"`
	GTFSArchivesFilename string       `json:"GTFS_ARCHIVES_FILENAME"`

	// DataRoot is where trip state, the archive cache, and output shards
	// are rooted; not part of the required key set, but every other
	// path in the system derives from it.
	DataRoot string `json:"data_root"`

	// MetricsAddr, if non-empty, is the listen address for the optional
	// Prometheus /metrics endpoint. Empty disables it.
	MetricsAddr string `json:"metrics_addr"`
}

// defaultModes is used when a config omits "modes" entirely.
var defaultModes = []string{"rapid", "cr", "bus"}

// Load reads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Agency:               getEnv("AGENCY", "mbta"),
		Modes:                splitModes(getEnv("MODES", "")),
		UseGTFSRT:            getEnvBool("USE_GTFS_RT", false),
		FileRetentionDays:    getEnvInt("FILE_RETENTION_DAYS", 180),
		DatadogTraceEnabled:  getEnvBool("DATADOG_TRACE_ENABLED", false),
		GTFSArchivesPrefix:   getEnv("GTFS_ARCHIVES_PREFIX", "https://cdn.mbta.com/archive/"),
		GTFSArchivesFilename: getEnv("GTFS_ARCHIVES_FILENAME", "archived_feeds.txt"),
		DataRoot:             getEnv("DATA_ROOT", "/data"),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
	}
	cfg.MBTA.V3APIKey = getEnv("MBTA_V3_API_KEY", "")
	cfg.GTFS.RefreshIntervalDays = getEnvInt("GTFS_REFRESH_INTERVAL_DAYS", 1)

	cfg.GTFSRT = GTFSRTConfig{
		FeedURL:         getEnv("GTFS_RT_FEED_URL", ""),
		APIKey:          getEnv("GTFS_RT_API_KEY", ""),
		PollingInterval: getEnvInt("GTFS_RT_POLLING_INTERVAL", 10),
		APIKeyMethod:    APIKeyMethod(getEnv("GTFS_RT_API_KEY_METHOD", "header")),
		APIKeyParamName: getEnv("GTFS_RT_API_KEY_PARAM_NAME", "X-API-KEY"),
	}

	if len(cfg.Modes) == 0 {
		cfg.Modes = defaultModes
	}
	return cfg
}

// LoadFile reads configuration from a JSON file on disk.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if len(cfg.Modes) == 0 {
		cfg.Modes = defaultModes
	}
	if cfg.GTFSArchivesPrefix == "" {
		cfg.GTFSArchivesPrefix = "https://cdn.mbta.com/archive/"
	}
	if cfg.GTFSArchivesFilename == "" {
		cfg.GTFSArchivesFilename = "archived_feeds.txt"
	}
	if cfg.FileRetentionDays == 0 {
		cfg.FileRetentionDays = 180
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = "/data"
	}
	if cfg.GTFS.RefreshIntervalDays == 0 {
		cfg.GTFS.RefreshIntervalDays = 1
	}

	return cfg, nil
}

// Validate checks config-kind invariants that must fail at startup
// (exit code 1) rather than at runtime.
func (c *Config) Validate() error {
	if c.Agency == "" {
		return fmt.Errorf("config: agency must be set")
	}
	if _, ok := catalog.ForAgency(c.Agency); !ok {
		return fmt.Errorf("config: unknown agency %q", c.Agency)
	}
	for _, m := range c.Modes {
		switch m {
		case "rapid", "cr", "bus":
		default:
			return fmt.Errorf("config: unknown mode %q", m)
		}
	}
	if c.UseGTFSRT {
		if c.GTFSRT.FeedURL == "" {
			return fmt.Errorf("config: gtfs_rt.feed_url must be set when use_gtfs_rt is true")
		}
		switch c.GTFSRT.APIKeyMethod {
		case APIKeyMethodHeader, APIKeyMethodQuery, APIKeyMethodBearer, APIKeyMethodNone, "":
		default:
			return fmt.Errorf("config: unknown gtfs_rt.api_key_method %q", c.GTFSRT.APIKeyMethod)
		}
		if c.GTFSRT.APIKeyMethod != APIKeyMethodNone && c.GTFSRT.APIKeyMethod != "" && c.GTFSRT.APIKey == "" {
			return fmt.Errorf("config: gtfs_rt.api_key must be set for api_key_method %q", c.GTFSRT.APIKeyMethod)
		}
	} else if c.MBTA.V3APIKey == "" {
		return fmt.Errorf("config: mbta.v3_api_key must be set when not using gtfs_rt")
	}
	return nil
}

// PollingIntervalDuration returns PollingInterval (seconds) as a
// time.Duration, or 10s when it is unset or non-positive.
func (c *GTFSRTConfig) PollingIntervalDuration() time.Duration {
	if c.PollingInterval <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.PollingInterval) * time.Second
}

// RefreshInterval returns the configured schedule refresh cadence.
func (c *Config) RefreshInterval() time.Duration {
	days := c.GTFS.RefreshIntervalDays
	if days <= 0 {
		days = 1
	}
	return time.Duration(days) * 24 * time.Hour
}

// RetentionDuration returns FileRetentionDays as a time.Duration.
func (c *Config) RetentionDuration() time.Duration {
	days := c.FileRetentionDays
	if days <= 0 {
		days = 180
	}
	return time.Duration(days) * 24 * time.Hour
}

func splitModes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	modes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			modes = append(modes, p)
		}
	}
	return modes
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
