package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical server defaults file.
// This is the single source of truth for all default server values.
const DefaultConfigPath = "config/laserd.defaults.json"

// ServerConfig represents the root configuration for the streaming
// daemon. The schema matches the /api/config endpoint so the same JSON
// can be used for both startup configuration and runtime inspection.
type ServerConfig struct {
	// HTTP params
	ListenAddr *string `json:"listen_addr,omitempty"`

	// Storage params
	DBPath *string `json:"db_path,omitempty"`

	// Streaming params
	BatchSize        *int `json:"batch_size,omitempty"`        // max points per pull
	SubscriberBuffer *int `json:"subscriber_buffer,omitempty"` // channel depth per subscriber

	// Pattern params
	PatternPoints  *int    `json:"pattern_points,omitempty"`
	DefaultPattern *string `json:"default_pattern,omitempty"` // frame loaded at startup, empty for none

	// Monitoring params
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "60s"
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyServerConfig returns a ServerConfig with all fields set to nil.
// Use LoadServerConfig to load actual values from a file.
func EmptyServerConfig() *ServerConfig {
	return &ServerConfig{}
}

// DefaultServerConfig returns a ServerConfig with every field set to
// its default value. The values mirror the Get* fallbacks.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr:       ptrString(":8080"),
		DBPath:           ptrString("laserd.db"),
		BatchSize:        ptrInt(256),
		SubscriberBuffer: ptrInt(64),
		PatternPoints:    ptrInt(500),
		DefaultPattern:   ptrString(""),
		StatsInterval:    ptrString("60s"),
	}
}

// LoadServerConfig loads a ServerConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadServerConfig(path string) (*ServerConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyServerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical server defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ServerConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadServerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ServerConfig) Validate() error {
	if c.BatchSize != nil {
		if *c.BatchSize <= 0 {
			return fmt.Errorf("batch_size must be positive, got %d", *c.BatchSize)
		}
	}

	if c.SubscriberBuffer != nil {
		if *c.SubscriberBuffer <= 0 {
			return fmt.Errorf("subscriber_buffer must be positive, got %d", *c.SubscriberBuffer)
		}
	}

	if c.PatternPoints != nil {
		if *c.PatternPoints < 0 {
			return fmt.Errorf("pattern_points must be non-negative, got %d", *c.PatternPoints)
		}
	}

	// Validate StatsInterval can be parsed if set
	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}

	return nil
}

// GetListenAddr returns the listen_addr value or the default.
func (c *ServerConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080" // default
	}
	return *c.ListenAddr
}

// GetDBPath returns the db_path value or the default.
func (c *ServerConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "laserd.db" // default
	}
	return *c.DBPath
}

// GetBatchSize returns the batch_size value or the default.
func (c *ServerConfig) GetBatchSize() int {
	if c.BatchSize == nil {
		return 256 // default
	}
	return *c.BatchSize
}

// GetSubscriberBuffer returns the subscriber_buffer value or the default.
func (c *ServerConfig) GetSubscriberBuffer() int {
	if c.SubscriberBuffer == nil {
		return 64 // default
	}
	return *c.SubscriberBuffer
}

// GetPatternPoints returns the pattern_points value or the default.
func (c *ServerConfig) GetPatternPoints() int {
	if c.PatternPoints == nil {
		return 500 // default
	}
	return *c.PatternPoints
}

// GetDefaultPattern returns the default_pattern value or the default.
func (c *ServerConfig) GetDefaultPattern() string {
	if c.DefaultPattern == nil {
		return "" // default: no startup frame
	}
	return *c.DefaultPattern
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *ServerConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 60 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}
