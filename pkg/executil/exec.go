// Package executil provides shell execution utilities.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const maxOutputLen = 500

// Executor runs external commands.
type Executor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

var _ Executor = (*RealExecutor)(nil)

// Run executes a command and returns its combined output. On failure the
// error carries the trimmed output, capped at 500 bytes so noisy hooks do not
// flood the log.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = &buf
	c.Stderr = &buf

	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(buf.String())
		if len(msg) > maxOutputLen {
			msg = msg[:maxOutputLen]
		}
		if msg != "" {
			return buf.Bytes(), fmt.Errorf("exec %s: %s: %w", cmd, msg, err)
		}
		return buf.Bytes(), fmt.Errorf("exec %s: %w", cmd, err)
	}
	return buf.Bytes(), nil
}

// Sh runs a command string through `sh -c`.
func Sh(ctx context.Context, e Executor, script string) ([]byte, error) {
	return e.Run(ctx, "sh", "-c", script)
}
