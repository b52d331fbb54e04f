package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/tally"
	"github.com/colonyops/tally/pkg/iojson"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// WatchCmd runs the reminder scheduler in the foreground.
type WatchCmd struct {
	flags  *Flags
	app    *tally.App
	reload time.Duration
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags, app *tally.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Deliver reminders until interrupted",
		UsageText: "tally watch [--reload <interval>]",
		Description: `Arms a reminder for every open task and delivers them as they come due.

Fired reminders and ended series are printed as JSON lines. Reminders that
came due while nothing was watching are delivered immediately on start.

Tasks changed by other tally processes are picked up every --reload
interval. Use 0 to disable.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "reload",
				Usage:       "interval for re-reading tasks from the store",
				Value:       time.Minute,
				Destination: &cmd.reload,
			},
		},
		Action: cmd.run,
	})

	return app
}

// watchEvent is a single line of watch output.
type watchEvent struct {
	Event string     `json:"event"`
	At    time.Time  `json:"at"`
	Task  *task.Task `json:"task"`
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := c.Root().Writer
	emit := func(ev watchEvent) {
		if err := iojson.WriteLine(w, ev); err != nil {
			log.Error().Err(err).Str("event", ev.Event).Msg("failed to write watch event")
		}
	}

	cmd.app.Bus.SubscribeReminderFired(func(p eventbus.ReminderFiredPayload) {
		emit(watchEvent{Event: string(eventbus.EventReminderFired), At: p.FiredAt, Task: &p.Task})
	})
	cmd.app.Bus.SubscribeSeriesEnded(func(p eventbus.SeriesEndedPayload) {
		emit(watchEvent{Event: string(eventbus.EventSeriesEnded), At: time.Now(), Task: &p.Task})
	})

	if err := cmd.app.Tasks.Init(ctx); err != nil {
		return err
	}
	defer cmd.app.Close()

	log.Info().
		Int("armed", len(cmd.app.Tasks.Scheduled())).
		Dur("reload", cmd.reload).
		Msg("watching reminders")

	var tick <-chan time.Time
	if cmd.reload > 0 {
		ticker := time.NewTicker(cmd.reload)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watch stopped")
			return nil
		case <-tick:
			if err := cmd.app.Tasks.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("reload failed, keeping current reminders")
			}
		}
	}
}
