// Package config provides configuration loading and management for tally.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Reminders  RemindersConfig  `yaml:"reminders"`
	Recurrence RecurrenceConfig `yaml:"recurrence"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Events     EventsConfig     `yaml:"events"`
	VarsFiles  []string         `yaml:"vars_files"`
	Vars       map[string]any   `yaml:"vars"`
	DataDir    string           `yaml:"-"` // set by caller, not from config file
}

// StoreConfig selects the task store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite | memory
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// RemindersConfig controls how fired reminders are delivered.
type RemindersConfig struct {
	Locale string `yaml:"locale"`
	// Commands are shell templates run for every fired reminder. They render
	// with ReminderTemplateData.
	Commands []string `yaml:"commands"`
	// CommandTimeout bounds a single reminder command.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// History persists fired reminders to the notification log.
	History *bool `yaml:"history"`
}

// RecurrenceConfig holds defaults for recurrence previews.
type RecurrenceConfig struct {
	MaxOccurrences int `yaml:"max_occurrences"`
}

// TrackingConfig holds time-tracking settings.
type TrackingConfig struct {
	// Budget marks a task as overtime once its tracked duration exceeds it.
	// Zero disables overtime reporting.
	Budget time.Duration `yaml:"budget"`
}

// EventsConfig sizes the in-process event bus.
type EventsConfig struct {
	Buffer int `yaml:"buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	history := true
	return Config{
		Store: StoreConfig{Driver: DriverSQLite},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Reminders: RemindersConfig{
			Locale:         string(recurrence.English),
			CommandTimeout: 10 * time.Second,
			History:        &history,
		},
		Recurrence: RecurrenceConfig{MaxOccurrences: recurrence.DefaultMaxCount},
		Events:     EventsConfig{Buffer: 64},
	}
}

// Load reads configuration from the given path and applies defaults.
// A missing file yields the default configuration.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}

		if len(cfg.VarsFiles) > 0 {
			fileVars, err := loadVarsFiles(filepath.Dir(configPath), cfg.VarsFiles)
			if err != nil {
				return nil, err
			}
			// inline vars win over vars files
			mergeMaps(fileVars, cfg.Vars)
			cfg.Vars = fileVars
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Store.Driver == "" {
		c.Store.Driver = defaults.Store.Driver
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Reminders.Locale == "" {
		c.Reminders.Locale = defaults.Reminders.Locale
	}
	if c.Reminders.CommandTimeout == 0 {
		c.Reminders.CommandTimeout = defaults.Reminders.CommandTimeout
	}
	if c.Reminders.History == nil {
		c.Reminders.History = defaults.Reminders.History
	}
	if c.Recurrence.MaxOccurrences == 0 {
		c.Recurrence.MaxOccurrences = defaults.Recurrence.MaxOccurrences
	}
	if c.Events.Buffer == 0 {
		c.Events.Buffer = defaults.Events.Buffer
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("store.driver %q is invalid (valid: %s, %s)", c.Store.Driver, DriverSQLite, DriverMemory)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if !recurrence.Locale(c.Reminders.Locale).IsValid() {
		return fmt.Errorf("reminders.locale %q is not supported", c.Reminders.Locale)
	}
	if c.Reminders.CommandTimeout < 0 {
		return fmt.Errorf("reminders.command_timeout cannot be negative")
	}

	if c.Recurrence.MaxOccurrences < 1 {
		return fmt.Errorf("recurrence.max_occurrences must be at least 1")
	}

	if c.Tracking.Budget < 0 {
		return fmt.Errorf("tracking.budget cannot be negative")
	}

	if c.Events.Buffer < 1 {
		return fmt.Errorf("events.buffer must be at least 1")
	}

	return nil
}

// HistoryEnabled reports whether fired reminders are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.Reminders.History == nil || *c.Reminders.History
}

// Locale returns the configured description locale.
func (c *Config) Locale() recurrence.Locale {
	return recurrence.Locale(c.Reminders.Locale)
}
