package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
)

// ConfigCmd implements the tally config command group.
type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "tally config validate [--format text|json]",
				Description: "Validates the configuration file, checking reminder command templates, vars files, and paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type configIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type validationReport struct {
	Valid    bool                       `json:"valid"`
	Errors   []configIssue              `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigCmd) run(_ context.Context, c *cli.Command) error {
	report := cmd.validate()

	switch cmd.format {
	case "json":
		if err := writeJSON(c, report); err != nil {
			return err
		}
	case "text":
		writeReport(c.Root().Writer, report)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", cmd.format)
	}

	if !report.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigCmd) validate() validationReport {
	cfg := cmd.flags.Config
	report := validationReport{Valid: true, Warnings: cfg.Warnings()}

	err := cfg.ValidateDeep(cmd.flags.ConfigPath)
	if err == nil {
		return report
	}

	report.Valid = false
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			report.Errors = append(report.Errors, configIssue{Field: fe.Field, Message: fe.Err.Error()})
		}
		return report
	}

	report.Errors = append(report.Errors, configIssue{Message: err.Error()})
	return report
}

func writeReport(w io.Writer, report validationReport) {
	st := styles.For(w)

	for _, warn := range report.Warnings {
		label := warn.Category
		if warn.Item != "" {
			label += "." + warn.Item
		}
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", st.Warning.Render("warning:"), label, warn.Message)
	}

	for _, issue := range report.Errors {
		if issue.Field != "" {
			_, _ = fmt.Fprintf(w, "%s %s: %s\n", st.Error.Render("error:"), issue.Field, issue.Message)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", st.Error.Render("error:"), issue.Message)
	}

	if report.Valid {
		_, _ = fmt.Fprintln(w, st.Success.Render("configuration is valid"))
		return
	}
	_, _ = fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("%d error(s) found", len(report.Errors))))
}
