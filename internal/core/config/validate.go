package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/colonyops/tally/pkg/tmpl"
	"github.com/hay-kot/criterio"
)

// ReminderTemplateData defines available fields for reminder command templates.
type ReminderTemplateData struct {
	ID           string
	Content      string
	ListID       string
	Status       string
	ReminderTime *time.Time
	DueDate      *time.Time
	FiredAt      time.Time
	Vars         map[string]any
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// template syntax and file accessibility. The configPath argument specifies the
// config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateVarsFiles(configPath),
		c.validateReminderCommands(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Store.Driver == DriverMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Store",
			Item:     "driver",
			Message:  "memory driver keeps tasks only for the lifetime of the process",
		})
	}

	if len(c.Reminders.Commands) > 0 && c.Reminders.CommandTimeout == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Reminders",
			Item:     "command_timeout",
			Message:  "reminder commands run without a timeout",
		})
	}

	return warnings
}

// validateFileAccess checks config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func (c *Config) validateVarsFiles(configPath string) error {
	if len(c.VarsFiles) == 0 {
		return nil
	}

	configDir := filepath.Dir(configPath)
	var errs criterio.FieldErrorsBuilder

	for i, file := range c.VarsFiles {
		if _, err := os.Stat(resolveVarsPath(configDir, file)); err != nil {
			errs = errs.Append(fmt.Sprintf("vars_files[%d]", i), fmt.Errorf("file not found: %s", file))
		}
	}

	return errs.ToError()
}

// validateReminderCommands renders every reminder command against sample
// data so both syntax errors and unknown fields are reported.
func (c *Config) validateReminderCommands() error {
	now := time.Now()
	sample := ReminderTemplateData{
		ID:           "sample",
		Content:      "sample task",
		Status:       "todo",
		ReminderTime: &now,
		DueDate:      &now,
		FiredAt:      now,
		Vars:         c.Vars,
	}

	var errs criterio.FieldErrorsBuilder
	for i, cmd := range c.Reminders.Commands {
		field := fmt.Sprintf("reminders.commands[%d]", i)
		if cmd == "" {
			errs = errs.Append(field, fmt.Errorf("command cannot be empty"))
			continue
		}
		if _, err := tmpl.Render(cmd, sample); err != nil {
			errs = errs.Append(field, fmt.Errorf("template error: %w", err))
		}
	}
	return errs.ToError()
}
