package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/user/chronicle/internal/retention"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	Persist       bool   `json:"persist"`
	MaxConcurrent int64  `json:"max_concurrent"`
	Engine        string `json:"engine"`
	Retention     struct {
		IntervalMinutes  int64  `json:"interval_minutes"`
		CronSpec         string `json:"cron_spec"`
		EpisodesTTLDays  int64  `json:"episodes_ttl_days"`
		LedgerTTLDays    int64  `json:"ledger_ttl_days"`
		SnapshotsTTLDays int64  `json:"snapshots_ttl_days"`
		MemoryTTLDays    int64  `json:"memory_ttl_days"`
		CompactAfterDays int64  `json:"compact_after_days"`
	} `json:"retention"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".chronicle"),
		LogLevel:      "info",
		Persist:       true,
		MaxConcurrent: 4,
		Engine:        "builtin",
	}
	defaults := retention.DefaultPolicy()
	cfg.Retention.IntervalMinutes = 60
	cfg.Retention.CronSpec = "@hourly"
	cfg.Retention.EpisodesTTLDays = defaults.EpisodesTTLDays
	cfg.Retention.LedgerTTLDays = defaults.LedgerTTLDays
	cfg.Retention.SnapshotsTTLDays = defaults.SnapshotsTTLDays
	cfg.Retention.MemoryTTLDays = defaults.MemoryTTLDays
	cfg.Retention.CompactAfterDays = defaults.CompactAfterDays

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if dataDir := os.Getenv("CHRONICLE_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level := os.Getenv("CHRONICLE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if engineID := os.Getenv("CHRONICLE_ENGINE"); engineID != "" {
		cfg.Engine = engineID
	}
	if persist := os.Getenv("CHRONICLE_PERSIST"); persist != "" {
		if v, err := strconv.ParseBool(persist); err == nil {
			cfg.Persist = v
		}
	}

	return cfg, nil
}

// Policy converts the configured retention fields into an engine policy.
func (c *Config) Policy() retention.Policy {
	return retention.Policy{
		EpisodesTTLDays:  c.Retention.EpisodesTTLDays,
		LedgerTTLDays:    c.Retention.LedgerTTLDays,
		SnapshotsTTLDays: c.Retention.SnapshotsTTLDays,
		MemoryTTLDays:    c.Retention.MemoryTTLDays,
		CompactAfterDays: c.Retention.CompactAfterDays,
	}
}

// IntervalMS returns the retention interval in milliseconds.
func (c *Config) IntervalMS() int64 {
	return c.Retention.IntervalMinutes * 60 * 1000
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
