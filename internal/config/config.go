// Package config loads runtime configuration from a YAML file, environment
// variables, and hardcoded defaults, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings.
type Config struct {
	// DBPath is the SQLite database file path (":memory:" for in-memory).
	DBPath string `yaml:"db_path"`

	// RedisURL is the Redis connection URL backing the job queue.
	RedisURL string `yaml:"redis_url"`

	// RetentionDays is how long activity feed records are kept.
	RetentionDays int `yaml:"retention_days"`

	Worker WorkerConfig  `yaml:"worker"`
	Log    LoggingConfig `yaml:"log"`
}

// WorkerConfig tunes the background job workers.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `yaml:"concurrency"`

	// MaxAttempts is how many times a failed job runs before it is dropped.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is how long a failed job waits before its next attempt.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// SoftTimeout logs a warning when a job runs past it; HardTimeout
	// cancels the job's context.
	SoftTimeout time.Duration `yaml:"soft_timeout"`
	HardTimeout time.Duration `yaml:"hard_timeout"`

	// MaxJobsPerWorker recycles a worker goroutine after that many jobs.
	MaxJobsPerWorker int `yaml:"max_jobs_per_worker"`
}

// LoggingConfig tunes structured log output.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// FilePath enables rotated file output when set; empty logs to stderr.
	FilePath string `yaml:"file_path"`

	// Console pretty-prints to stderr instead of emitting JSON.
	Console bool `yaml:"console"`

	// MaxSizeMB, MaxBackups, and MaxAgeDays control file rotation.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
	MaxAgeDays int `yaml:"max_age_days"`
}

// Default configuration values.
const (
	DefaultDBPath        = "clareza.db"
	DefaultRedisURL      = "redis://localhost:6379"
	DefaultRetentionDays = 30

	DefaultConcurrency      = 4
	DefaultMaxAttempts      = 3
	DefaultRetryDelay       = 60 * time.Second
	DefaultSoftTimeout      = 25 * time.Minute
	DefaultHardTimeout      = 30 * time.Minute
	DefaultMaxJobsPerWorker = 1000
)

// Defaults returns a Config populated with the hardcoded defaults.
func Defaults() *Config {
	return &Config{
		DBPath:        DefaultDBPath,
		RedisURL:      DefaultRedisURL,
		RetentionDays: DefaultRetentionDays,
		Worker: WorkerConfig{
			Concurrency:      DefaultConcurrency,
			MaxAttempts:      DefaultMaxAttempts,
			RetryDelay:       DefaultRetryDelay,
			SoftTimeout:      DefaultSoftTimeout,
			HardTimeout:      DefaultHardTimeout,
			MaxJobsPerWorker: DefaultMaxJobsPerWorker,
		},
		Log: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 7,
		},
	}
}

// Load reads configuration with the following priority, highest first:
// environment variables, the given file path (or ~/.config/clareza/config.yaml
// when path is empty), hardcoded defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(homeDir, ".config", "clareza", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("CLAREZA_DB_PATH"); val != "" {
		c.DBPath = val
	}
	if val := os.Getenv("CLAREZA_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}
	if val := os.Getenv("CLAREZA_RETENTION_DAYS"); val != "" {
		if days, err := strconv.Atoi(val); err == nil {
			c.RetentionDays = days
		}
	}
	if val := os.Getenv("CLAREZA_WORKER_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Worker.Concurrency = n
		}
	}
	if val := os.Getenv("CLAREZA_WORKER_RETRY_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Worker.RetryDelay = d
		}
	}
	if val := os.Getenv("CLAREZA_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("CLAREZA_LOG_FILE"); val != "" {
		c.Log.FilePath = val
	}
}
