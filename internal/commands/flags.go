package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/tally/internal/core/config"
)

// Flags are the global options shared by every subcommand.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is populated by the root Before hook.
	Config *config.Config
}

// xdgDir returns $env, or ~/fallback... when the variable is unset.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/tally/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "tally", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/tally.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "tally")
}

// DefaultLogFile is $XDG_STATE_HOME/tally/tally.log. On macOS without
// XDG_STATE_HOME it is ~/Library/Logs/tally/tally.log.
func DefaultLogFile() string {
	if runtime.GOOS == "darwin" && os.Getenv("XDG_STATE_HOME") == "" {
		return filepath.Join(xdgDir("XDG_STATE_HOME", "Library", "Logs"), "tally", "tally.log")
	}
	return filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "tally", "tally.log")
}
