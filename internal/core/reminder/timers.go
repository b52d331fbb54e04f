package reminder

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDelay is returned by Timers implementations for delays they
// cannot arm, such as negative durations.
var ErrInvalidDelay = errors.New("invalid timer delay")

// Handle disarms a previously armed timer. Disarm is idempotent.
type Handle interface {
	Disarm()
}

// Timers is the host timer facility used by the Scheduler.
type Timers interface {
	// ArmOneShot runs fn once after delay. fn runs on a goroutine owned by
	// the implementation.
	ArmOneShot(delay time.Duration, fn func()) (Handle, error)
}

// SystemTimers arms timers with time.AfterFunc.
type SystemTimers struct{}

var _ Timers = SystemTimers{}

func (SystemTimers) ArmOneShot(delay time.Duration, fn func()) (Handle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDelay, delay)
	}
	return systemHandle{t: time.AfterFunc(delay, fn)}, nil
}

type systemHandle struct {
	t *time.Timer
}

func (h systemHandle) Disarm() { h.t.Stop() }
