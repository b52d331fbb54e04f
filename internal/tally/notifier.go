package tally

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/colonyops/tally/pkg/executil"
	"github.com/colonyops/tally/pkg/tmpl"
	"github.com/rs/zerolog"
)

// Notifier delivers a due reminder.
type Notifier interface {
	Deliver(ctx context.Context, t task.Task) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, t task.Task) error

// Deliver calls f.
func (f NotifierFunc) Deliver(ctx context.Context, t task.Task) error { return f(ctx, t) }

// MultiNotifier delivers to every notifier in order. A failing notifier
// does not stop the rest; their errors are joined.
type MultiNotifier []Notifier

// Deliver implements Notifier.
func (m MultiNotifier) Deliver(ctx context.Context, t task.Task) error {
	var errs []error
	for _, n := range m {
		if err := n.Deliver(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BusNotifier publishes reminder.fired events.
type BusNotifier struct {
	bus   *eventbus.EventBus
	clock clock.Clock
}

// NewBusNotifier creates a BusNotifier.
func NewBusNotifier(bus *eventbus.EventBus, clk clock.Clock) *BusNotifier {
	return &BusNotifier{bus: bus, clock: clk}
}

// Deliver implements Notifier.
func (n *BusNotifier) Deliver(_ context.Context, t task.Task) error {
	n.bus.PublishReminderFired(eventbus.ReminderFiredPayload{Task: t, FiredAt: n.clock.Now()})
	return nil
}

// CommandNotifier runs the configured shell commands for each reminder.
// Commands are rendered with config.ReminderTemplateData.
type CommandNotifier struct {
	commands []string
	vars     map[string]any
	timeout  time.Duration
	executor executil.Executor
	clock    clock.Clock
	log      zerolog.Logger
}

// NewCommandNotifier creates a CommandNotifier from the reminders config.
func NewCommandNotifier(cfg *config.Config, executor executil.Executor, clk clock.Clock, log zerolog.Logger) *CommandNotifier {
	return &CommandNotifier{
		commands: cfg.Reminders.Commands,
		vars:     cfg.Vars,
		timeout:  cfg.Reminders.CommandTimeout,
		executor: executor,
		clock:    clk,
		log:      log.With().Str("component", "command-notifier").Logger(),
	}
}

// Deliver implements Notifier. Every command runs even if an earlier one
// fails.
func (n *CommandNotifier) Deliver(ctx context.Context, t task.Task) error {
	data := config.ReminderTemplateData{
		ID:           t.ID,
		Content:      t.Content,
		ListID:       t.ListID,
		Status:       string(t.Status),
		ReminderTime: t.ReminderTime,
		DueDate:      t.DueDate,
		FiredAt:      n.clock.Now(),
		Vars:         n.vars,
	}

	var errs []error
	for _, cmdTmpl := range n.commands {
		if err := n.run(ctx, cmdTmpl, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *CommandNotifier) run(ctx context.Context, cmdTmpl string, data config.ReminderTemplateData) error {
	rendered, err := tmpl.Render(cmdTmpl, data)
	if err != nil {
		return fmt.Errorf("render reminder command %q: %w", cmdTmpl, err)
	}
	rendered = strings.TrimSpace(rendered)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	n.log.Debug().Ctx(ctx).Str("command", rendered).Msg("executing reminder command")
	if _, err := executil.Sh(ctx, n.executor, rendered); err != nil {
		return fmt.Errorf("execute reminder command %q: %w", rendered, err)
	}
	return nil
}
