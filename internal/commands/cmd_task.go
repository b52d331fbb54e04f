package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/validate"
	"github.com/colonyops/tally/internal/tally"
	"github.com/colonyops/tally/pkg/iojson"
	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
)

// TaskCmd implements the tally task command group.
type TaskCmd struct {
	flags *Flags
	app   *tally.App
	now   func() time.Time

	// create flags
	createContent string
	createList    string
	createDue     string
	createRemind  string
	recur         recurFlags

	// list flags
	listStatus []string
	listList   string
	listSeries string

	// remind flags
	remindAt    string
	remindClear bool

	// import input
	fr *iojson.FileReader[ImportInput]
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags, app *tally.App) *TaskCmd {
	return &TaskCmd{
		flags: flags,
		app:   app,
		now:   time.Now,
		fr:    &iojson.FileReader[ImportInput]{},
	}
}

// Register adds the task command to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Create, track, and complete tasks",
		Description: `Task commands for managing tasks and their time tracking.

Every command writes the affected task as JSON.

Examples:
  tally task create --content "Water plants" --due 2024-06-03 --recur daily
  tally task start <id>
  tally task pause <id>
  tally task complete <id>
  tally task remind <id> --at +30m`,
		Commands: []*cli.Command{
			cmd.createCmd(),
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.transitionCmd("start", "Start tracking time on a task", (*tally.TaskService).Start),
			cmd.transitionCmd("pause", "Pause the running tracking session", (*tally.TaskService).Pause),
			cmd.transitionCmd("restart", "Reopen a completed task", (*tally.TaskService).Restart),
			cmd.completeCmd(),
			cmd.remindCmd(),
			cmd.importCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) createCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "task text",
			Required:    true,
			Destination: &cmd.createContent,
		},
		&cli.StringFlag{
			Name:        "list",
			Aliases:     []string{"l"},
			Usage:       "list the task belongs to",
			Destination: &cmd.createList,
		},
		&cli.StringFlag{
			Name:        "due",
			Usage:       "occurrence date (YYYY-MM-DD[ HH:MM], HH:MM, +duration)",
			Destination: &cmd.createDue,
		},
		&cli.StringFlag{
			Name:        "remind",
			Usage:       "reminder time (YYYY-MM-DD HH:MM, HH:MM, +duration)",
			Destination: &cmd.createRemind,
		},
	}

	return &cli.Command{
		Name:      "create",
		Usage:     "Create a task",
		UsageText: "tally task create --content <text> [--due <time>] [--remind <time>] [--recur <type> ...]",
		Description: `Creates a todo task.

Recurring tasks regenerate their next occurrence when completed.

Examples:
  tally task create --content "Stand-up" --remind 09:55
  tally task create --content "Gym" --due 2024-06-03 --recur weekly --days mon,wed,fri
  tally task create --content "Rent" --due 2024-06-01 --recur monthly --month-day 1 --count 12`,
		Flags:  append(flags, cmd.recur.flags()...),
		Action: cmd.runCreate,
	}
}

func (cmd *TaskCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List tasks",
		UsageText: "tally task list [--status <status>]... [--list <id>] [--series <id>]",
		Description: `Lists tasks as JSON lines, oldest first.

Defaults to open tasks (todo, doing, paused).

Examples:
  tally task list
  tally task list --status done
  tally task list --status todo --status paused --list home`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "filter by status (todo, doing, paused, done); repeatable",
				Destination: &cmd.listStatus,
			},
			&cli.StringFlag{
				Name:        "list",
				Aliases:     []string{"l"},
				Usage:       "filter by list",
				Destination: &cmd.listList,
			},
			&cli.StringFlag{
				Name:        "series",
				Usage:       "filter by recurring series",
				Destination: &cmd.listSeries,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TaskCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a task with its tracked time",
		UsageText: "tally task show <id>",
		Action:    cmd.runShow,
	}
}

func (cmd *TaskCmd) transitionCmd(name, usage string, fn func(*tally.TaskService, context.Context, string) (task.Task, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: fmt.Sprintf("tally task %s <id>", name),
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := taskID(c, name)
			if err != nil {
				return err
			}
			t, err := fn(cmd.app.Tasks, ctx, id)
			if err != nil {
				return err
			}
			return iojson.WriteLine(c.Root().Writer, t)
		},
	}
}

func (cmd *TaskCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Aliases:   []string{"done"},
		Usage:     "Complete a task",
		UsageText: "tally task complete <id>",
		Description: `Marks a task done, adding any running session to its tracked time.

For recurring tasks the next occurrence is created and returned as "next".`,
		Action: cmd.runComplete,
	}
}

func (cmd *TaskCmd) remindCmd() *cli.Command {
	return &cli.Command{
		Name:      "remind",
		Usage:     "Set or clear a task's reminder",
		UsageText: "tally task remind <id> (--at <time> | --clear)",
		Description: `Replaces the reminder of a task.

Examples:
  tally task remind abc123 --at "2024-06-03 14:00"
  tally task remind abc123 --at +45m
  tally task remind abc123 --clear`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "at",
				Usage:       "reminder time (YYYY-MM-DD HH:MM, HH:MM, +duration)",
				Destination: &cmd.remindAt,
			},
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "remove the reminder",
				Destination: &cmd.remindClear,
			},
		},
		Action: cmd.runRemind,
	}
}

func (cmd *TaskCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create tasks from JSON",
		UsageText: "tally task import [-f file.json]",
		Description: `Creates tasks from a JSON document read from a file or stdin.

Input format:
  {"tasks": [{"content": "Water plants", "due_date": "2024-06-03T09:00:00Z",
              "recurrence": {"type": "daily", "interval": 2}}]}

Each created task is written as a JSON line.`,
		Flags:  []cli.Flag{cmd.fr.Flag()},
		Action: cmd.runImport,
	}
}

func (cmd *TaskCmd) runCreate(ctx context.Context, c *cli.Command) error {
	now := cmd.now()

	if err := validate.TaskContent(cmd.createContent); err != nil {
		return fmt.Errorf("--content %w", err)
	}
	if err := validate.ListID(cmd.createList); err != nil {
		return fmt.Errorf("--list: %w", err)
	}

	due, err := parseOptionalTime(cmd.createDue, now)
	if err != nil {
		return fmt.Errorf("--due: %w", err)
	}
	remind, err := parseOptionalTime(cmd.createRemind, now)
	if err != nil {
		return fmt.Errorf("--remind: %w", err)
	}
	spec, err := cmd.recur.spec(now)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Create(ctx, tally.NewTask{
		Content:      cmd.createContent,
		ListID:       cmd.createList,
		DueDate:      due,
		ReminderTime: remind,
		Recurrence:   spec,
	})
	if err != nil {
		return err
	}

	return iojson.WriteLine(c.Root().Writer, t)
}

func (cmd *TaskCmd) runList(ctx context.Context, c *cli.Command) error {
	filter := task.ListFilter{
		ListID:   cmd.listList,
		SeriesID: cmd.listSeries,
	}

	if len(cmd.listStatus) == 0 {
		filter.Statuses = task.OpenStatuses()
	}
	for _, s := range cmd.listStatus {
		status, err := task.ParseStatus(s)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	tasks, err := cmd.app.Tasks.List(ctx, filter)
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if err := iojson.WriteLine(c.Root().Writer, t); err != nil {
			return err
		}
	}

	return nil
}

// taskDetail is the output of task show.
type taskDetail struct {
	Task              task.Task `json:"task"`
	CurrentDurationMS int64     `json:"current_duration_ms"`
	Overtime          bool      `json:"overtime,omitempty"`
	Recurrence        string    `json:"recurrence,omitempty"`
	RRule             string    `json:"rrule,omitempty"`
}

func (cmd *TaskCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, "show")
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Get(ctx, id)
	if err != nil {
		return err
	}

	current, err := cmd.app.Tasks.CurrentDuration(ctx, id)
	if err != nil {
		return err
	}

	detail := taskDetail{
		Task:              t,
		CurrentDurationMS: current.Milliseconds(),
		Overtime:          cmd.app.Tasks.Overtime(t),
	}
	if t.Recurrence != nil {
		detail.Recurrence = recurrence.Describe(*t.Recurrence, cmd.app.Config.Locale())
		detail.RRule = recurrence.RRule(*t.Recurrence)
	}

	return writeJSON(c, detail)
}

func (cmd *TaskCmd) runComplete(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, "complete")
	if err != nil {
		return err
	}

	completion, err := cmd.app.Tasks.CompleteWithTracking(ctx, id)
	if err != nil && completion.Task.ID == "" {
		return err
	}

	if werr := iojson.WriteLine(c.Root().Writer, completion); werr != nil {
		return werr
	}
	// the task is done even if its next occurrence could not be created
	return err
}

func (cmd *TaskCmd) runRemind(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, "remind")
	if err != nil {
		return err
	}

	var at *time.Time
	switch {
	case cmd.remindClear && cmd.remindAt != "":
		return fmt.Errorf("--at and --clear are mutually exclusive")
	case cmd.remindClear:
	case cmd.remindAt != "":
		at, err = parseOptionalTime(cmd.remindAt, cmd.now())
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	default:
		return fmt.Errorf("one of --at or --clear is required")
	}

	t, err := cmd.app.Tasks.SetReminder(ctx, id, at)
	if err != nil {
		return err
	}
	return iojson.WriteLine(c.Root().Writer, t)
}

func (cmd *TaskCmd) runImport(ctx context.Context, c *cli.Command) error {
	input, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	for _, in := range input.Tasks {
		t, err := cmd.app.Tasks.Create(ctx, tally.NewTask{
			Content:      in.Content,
			ListID:       in.ListID,
			DueDate:      in.DueDate,
			ReminderTime: in.ReminderTime,
			Recurrence:   in.Recurrence,
		})
		if err != nil {
			return err
		}
		if err := iojson.WriteLine(c.Root().Writer, t); err != nil {
			return err
		}
	}

	return nil
}

// ImportInput is the JSON document accepted by task import.
type ImportInput struct {
	Tasks []ImportTask `json:"tasks"`
}

// ImportTask defines a single task to create.
type ImportTask struct {
	Content      string           `json:"content"`
	ListID       string           `json:"list_id,omitempty"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
	ReminderTime *time.Time       `json:"reminder_time,omitempty"`
	Recurrence   *recurrence.Spec `json:"recurrence,omitempty"`
}

// Validate checks the import input for errors using criterio.
func (in ImportInput) Validate() error {
	if len(in.Tasks) == 0 {
		return criterio.NewFieldErrors("tasks", fmt.Errorf("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	for i, t := range in.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)

		if err := validate.TaskContent(t.Content); err != nil {
			errs = errs.Append(field+".content", err)
		}
		if err := validate.ListID(t.ListID); err != nil {
			errs = errs.Append(field+".list_id", err)
		}

		if t.Recurrence == nil {
			continue
		}
		err := t.Recurrence.Validate()
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = errs.Append(field+".recurrence."+fe.Field, fe.Err)
			}
		} else if err != nil {
			errs = errs.Append(field+".recurrence", err)
		}
	}

	return errs.ToError()
}

func taskID(c *cli.Command, name string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("usage: tally task %s <id>", name)
	}
	return c.Args().Get(0), nil
}
