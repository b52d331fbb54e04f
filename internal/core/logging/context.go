package logging

import "context"

type fieldsKey struct{}

// fields are the log attributes carried on a context.
type fields struct {
	taskID string
	op     string
}

func fromContext(ctx context.Context) fields {
	f, _ := ctx.Value(fieldsKey{}).(fields)
	return f
}

func with(ctx context.Context, update func(*fields)) context.Context {
	f := fromContext(ctx)
	update(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithTaskID tags ctx with the task being operated on.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return with(ctx, func(f *fields) { f.taskID = taskID })
}

// WithOp tags ctx with the name of the running orchestrator operation.
func WithOp(ctx context.Context, op string) context.Context {
	return with(ctx, func(f *fields) { f.op = op })
}

// GetTaskID returns the task ID on ctx, or "".
func GetTaskID(ctx context.Context) string { return fromContext(ctx).taskID }

// GetOp returns the operation name on ctx, or "".
func GetOp(ctx context.Context) string { return fromContext(ctx).op }
