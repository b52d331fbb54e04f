// Package logutils builds the process-wide zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New returns a leveled logger and a closer for whatever it writes to.
//
// With a file path the logger appends JSON lines to that file, creating
// parent directories as needed. Without one it writes to stderr, using
// zerolog's console format when stderr is a terminal.
//
// level is any name zerolog.ParseLevel accepts (debug, info, warn, error...).
func New(level string, file string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	w, closer, err := openWriter(file)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closer, nil
}

func openWriter(file string) (io.Writer, func(), error) {
	if file == "" {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
