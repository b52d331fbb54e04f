package task

import (
	"fmt"
	"time"
)

// Elapsed returns now - start, clamped to zero when the clock went backwards.
func Elapsed(start, now time.Time) time.Duration {
	return max(now.Sub(start), 0)
}

// Start begins a tracking session on a todo or paused task.
func Start(t Task, now time.Time) (Task, error) {
	if t.Status != StatusTodo && t.Status != StatusPaused {
		return t, transitionErr("start", t)
	}

	t.Status = StatusDoing
	t.StartedAt = &now
	return t, nil
}

// Pause ends the active session and folds its elapsed time into
// TotalDuration.
func Pause(t Task, now time.Time) (Task, error) {
	if t.Status != StatusDoing {
		return t, transitionErr("pause", t)
	}

	t = fold(t, now)
	t.Status = StatusPaused
	return t, nil
}

// CompleteWithTracking marks t done. An active session is folded in first;
// from todo or paused the duration is left unchanged.
func CompleteWithTracking(t Task, now time.Time) (Task, error) {
	if t.Status == StatusDone {
		return t, transitionErr("complete", t)
	}

	if t.Status == StatusDoing {
		t = fold(t, now)
	}
	t.Status = StatusDone
	t.StartedAt = nil
	t.CompletedAt = &now
	return t, nil
}

// Restart reopens a done task. Accumulated duration is kept.
func Restart(t Task) (Task, error) {
	if t.Status != StatusDone {
		return t, transitionErr("restart", t)
	}

	t.Status = StatusTodo
	t.CompletedAt = nil
	return t, nil
}

// CurrentDuration is TotalDuration plus the active session, if any.
func CurrentDuration(t Task, now time.Time) time.Duration {
	if t.Status == StatusDoing && t.StartedAt != nil {
		return t.TotalDuration + Elapsed(*t.StartedAt, now)
	}
	return t.TotalDuration
}

// Overtime reports whether the tracked time on t exceeds budget. A
// non-positive budget never overruns.
func Overtime(t Task, now time.Time, budget time.Duration) bool {
	return budget > 0 && CurrentDuration(t, now) > budget
}

func fold(t Task, now time.Time) Task {
	if t.StartedAt != nil {
		t.TotalDuration += Elapsed(*t.StartedAt, now)
	}
	t.StartedAt = nil
	return t
}

func transitionErr(action string, t Task) error {
	return fmt.Errorf("%w: cannot %s a task that is %s", ErrInvalidTransition, action, t.Status)
}
