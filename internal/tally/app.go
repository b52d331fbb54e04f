package tally

import (
	"context"

	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/reminder"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/colonyops/tally/pkg/executil"
	"github.com/rs/zerolog"
)

// Stores are the persistence collaborators an App is built on.
type Stores struct {
	Tasks task.Store
	// Notifications is optional. When nil, notifications are not recorded.
	Notifications notify.Store
}

// Runtime holds the host primitives. Zero fields fall back to the system
// clock, system timers, and a real shell.
type Runtime struct {
	Clock    clock.Clock
	Timers   reminder.Timers
	Executor executil.Executor
}

func (r Runtime) withDefaults() Runtime {
	if r.Clock == nil {
		r.Clock = clock.System{}
	}
	if r.Timers == nil {
		r.Timers = reminder.SystemTimers{}
	}
	if r.Executor == nil {
		r.Executor = &executil.RealExecutor{}
	}
	return r
}

// App is the central entry point for all tally operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Tasks         *TaskService
	Notifications notify.Store
	Bus           *eventbus.EventBus
	Config        *config.Config
}

// NewApp wires the event bus, notifiers, scheduler and task service.
// Call Start before relying on event delivery.
func NewApp(cfg *config.Config, stores Stores, rt Runtime, log zerolog.Logger) *App {
	rt = rt.withDefaults()

	bus := eventbus.New(cfg.Events.Buffer)
	eventbus.RegisterDebugLogger(bus, log.With().Str("component", "eventbus").Logger())
	eventbus.NewNotificationRouter(bus).Register()

	var notifications notify.Store
	if stores.Notifications != nil && cfg.HistoryEnabled() {
		notifications = stores.Notifications
		NewNotificationRecorder(notifications, rt.Clock, log).Register(bus)
	}

	notifier := MultiNotifier{NewBusNotifier(bus, rt.Clock)}
	if len(cfg.Reminders.Commands) > 0 {
		notifier = append(notifier, NewCommandNotifier(cfg, rt.Executor, rt.Clock, log))
	}

	svc := NewTaskService(
		NewBroadcastStore(stores.Tasks, bus),
		reminder.NewScheduler(rt.Timers, rt.Clock, log),
		notifier,
		rt.Clock,
		log,
		Options{Bus: bus, Budget: cfg.Tracking.Budget},
	)

	return &App{
		Tasks:         svc,
		Notifications: notifications,
		Bus:           bus,
		Config:        cfg,
	}
}

// Start runs the event bus until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	go a.Bus.Start(ctx)
}

// Close disarms every reminder.
func (a *App) Close() {
	a.Tasks.Teardown()
}
