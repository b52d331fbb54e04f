package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), dataDir)
	require.NoError(t, err)

	want := DefaultConfig()
	want.DataDir = dataDir
	assert.Equal(t, &want, cfg)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, recurrence.English, cfg.Locale())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestFile(t, path, `
store:
  driver: memory
reminders:
  locale: es
  commands:
    - notify-send {{ shq .Content }}
  command_timeout: 3s
  history: false
recurrence:
  max_occurrences: 12
tracking:
  budget: 25m
`)

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, recurrence.Spanish, cfg.Locale())
	assert.Equal(t, []string{"notify-send {{ shq .Content }}"}, cfg.Reminders.Commands)
	assert.Equal(t, 3*time.Second, cfg.Reminders.CommandTimeout)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, 12, cfg.Recurrence.MaxOccurrences)
	assert.Equal(t, 25*time.Minute, cfg.Tracking.Budget)
	assert.Equal(t, dir, cfg.DataDir, "data dir comes from the caller")

	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 64, cfg.Events.Buffer)
}

func TestLoad_VarsFilesMergeWithInlineVars(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "vars.yaml"), "notifier: echo\nurgency: low\n")
	path := filepath.Join(dir, "config.yaml")
	writeTestFile(t, path, "vars_files: [vars.yaml]\nvars:\n  notifier: notify-send\n")

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "notify-send", cfg.Vars["notifier"])
	assert.Equal(t, "low", cfg.Vars["urgency"])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed yaml", content: "store: [", wantErr: "parse config file"},
		{name: "unknown driver", content: "store:\n  driver: postgres\n", wantErr: "store.driver"},
		{name: "unknown locale", content: "reminders:\n  locale: fr\n", wantErr: "reminders.locale"},
		{name: "negative budget", content: "tracking:\n  budget: -1m\n", wantErr: "tracking.budget"},
		{name: "missing vars file", content: "vars_files: [gone.yaml]\n", wantErr: "read vars file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			writeTestFile(t, path, tt.content)

			_, err := Load(path, dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: "data directory"},
		{name: "zero open conns", mutate: func(c *Config) { c.Database.MaxOpenConns = 0 }, wantErr: "max_open_conns"},
		{name: "negative idle conns", mutate: func(c *Config) { c.Database.MaxIdleConns = -1 }, wantErr: "max_idle_conns"},
		{name: "negative busy timeout", mutate: func(c *Config) { c.Database.BusyTimeout = -1 }, wantErr: "busy_timeout"},
		{name: "negative command timeout", mutate: func(c *Config) { c.Reminders.CommandTimeout = -time.Second }, wantErr: "command_timeout"},
		{name: "zero max occurrences", mutate: func(c *Config) { c.Recurrence.MaxOccurrences = 0 }, wantErr: "max_occurrences"},
		{name: "zero event buffer", mutate: func(c *Config) { c.Events.Buffer = 0 }, wantErr: "events.buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	history := false
	cfg := Config{
		Store:     StoreConfig{Driver: DriverMemory},
		Reminders: RemindersConfig{Locale: "es", History: &history},
	}
	cfg.applyDefaults()

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "es", cfg.Reminders.Locale)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, 5000, cfg.Database.BusyTimeout)
	assert.Equal(t, recurrence.DefaultMaxCount, cfg.Recurrence.MaxOccurrences)
}
