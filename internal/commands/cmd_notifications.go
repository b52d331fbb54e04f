package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/tally"
	"github.com/colonyops/tally/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// NotificationsCmd implements the tally notifications command group.
type NotificationsCmd struct {
	flags *Flags
	app   *tally.App

	limit int
}

// NewNotificationsCmd creates a new notifications command.
func NewNotificationsCmd(flags *Flags, app *tally.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications command to the application.
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Inspect the notification history",
		Description: `Notifications are recorded while "tally watch" delivers reminders.

History requires the sqlite store and reminders.history enabled.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List recorded notifications, newest first",
				UsageText: "tally notifications list [--limit N]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "maximum notifications to list (0 = all)",
						Value:       20,
						Destination: &cmd.limit,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "clear",
				Usage:     "Delete all recorded notifications",
				UsageText: "tally notifications clear",
				Action:    cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *NotificationsCmd) store() (notify.Store, error) {
	if cmd.app.Notifications == nil {
		return nil, fmt.Errorf("notification history is disabled (requires store.driver sqlite and reminders.history)")
	}
	return cmd.app.Notifications, nil
}

func (cmd *NotificationsCmd) runList(ctx context.Context, c *cli.Command) error {
	store, err := cmd.store()
	if err != nil {
		return err
	}

	items, err := store.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	for _, n := range items {
		if err := iojson.WriteLine(c.Root().Writer, n); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *NotificationsCmd) runClear(ctx context.Context, c *cli.Command) error {
	store, err := cmd.store()
	if err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "cleared %d notifications\n", count)
	return nil
}
