package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies the task_id and op tags of an event's context onto the
// event. Install it with Logger.Hook and log with Event.Ctx.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	f := fromContext(ctx)
	if f.taskID != "" {
		e.Str("task_id", f.taskID)
	}
	if f.op != "" {
		e.Str("op", f.op)
	}
}
