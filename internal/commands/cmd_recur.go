package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/urfave/cli/v3"
)

// RecurCmd implements the tally recur command group.
type RecurCmd struct {
	flags *Flags
	now   func() time.Time

	recur  recurFlags
	from   string
	to     string
	max    int
	locale string
}

// NewRecurCmd creates a new recur command.
func NewRecurCmd(flags *Flags) *RecurCmd {
	return &RecurCmd{flags: flags, now: time.Now}
}

// Register adds the recur command to the application.
func (cmd *RecurCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "from",
			Usage:       "series start (defaults to now)",
			Destination: &cmd.from,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "stop listing after this time",
			Destination: &cmd.to,
		},
		&cli.IntFlag{
			Name:        "max",
			Usage:       "maximum occurrences to list (defaults to recurrence.max_occurrences)",
			Destination: &cmd.max,
		},
		&cli.StringFlag{
			Name:        "locale",
			Usage:       "description language (en, es; defaults to reminders.locale)",
			Destination: &cmd.locale,
		},
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "recur",
		Usage: "Inspect recurrence rules",
		Commands: []*cli.Command{
			{
				Name:      "preview",
				Usage:     "List the occurrences of a recurrence rule",
				UsageText: "tally recur preview --recur <type> [recurrence flags] [--from <time>] [--to <time>] [--max N]",
				Description: `Prints a recurrence rule's description, its RFC 5545 RRULE, and the
dates it produces.

Examples:
  tally recur preview --recur weekly --days mon,wed,fri --from 2024-01-01 --max 6
  tally recur preview --recur monthly --week-day 2:tue --locale es
  tally recur preview --recur yearly --months feb --month-day 29 --count 4`,
				Flags:  append(cmd.recur.flags(), flags...),
				Action: cmd.runPreview,
			},
		},
	})

	return app
}

// preview is the output of recur preview.
type preview struct {
	Description string           `json:"description"`
	RRule       string           `json:"rrule"`
	Spec        *recurrence.Spec `json:"spec"`
	Occurrences []time.Time      `json:"occurrences"`
}

func (cmd *RecurCmd) runPreview(ctx context.Context, c *cli.Command) error {
	now := cmd.now()

	if cmd.recur.kind == "" {
		return fmt.Errorf("--recur is required")
	}
	spec, err := cmd.recur.spec(now)
	if err != nil {
		return err
	}

	start := now
	if cmd.from != "" {
		if start, err = parseTime(cmd.from, now); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}

	locale := recurrence.Locale(cmd.locale)
	if cmd.locale == "" {
		locale = recurrence.English
		if cmd.flags.Config != nil {
			locale = cmd.flags.Config.Locale()
		}
	}
	if !locale.IsValid() {
		return fmt.Errorf("--locale %q is not supported", cmd.locale)
	}

	maxCount := cmd.max
	if maxCount <= 0 && cmd.flags.Config != nil {
		maxCount = cmd.flags.Config.Recurrence.MaxOccurrences
	}

	var occurrences []time.Time
	if cmd.to != "" {
		end, err := parseTime(cmd.to, now)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		occurrences = recurrence.InRange(*spec, start, end, maxCount)
	} else {
		occurrences = recurrence.Generate(*spec, start, maxCount)
	}

	return writeJSON(c, preview{
		Description: recurrence.Describe(*spec, locale),
		RRule:       recurrence.RRule(*spec),
		Spec:        spec,
		Occurrences: occurrences,
	})
}
