// Package tmpl renders the shell command templates used for reminder hooks.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// shellQuote returns a shell-safe quoted string. It wraps the string in single
// quotes; embedded single quotes are escaped outside the quoted runs.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", `'\''`)
	return "'" + escaped + "'"
}

// clockTime formats t as local HH:MM, or an empty string for nil/zero.
func clockTime(t any) string {
	switch v := t.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Local().Format("15:04")
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Local().Format("15:04")
	default:
		return ""
	}
}

var funcs = template.FuncMap{
	"shq":   shellQuote,
	"join":  strings.Join,
	"clock": clockTime,
}

// Parse checks template syntax without executing it.
func Parse(tmpl string) error {
	if _, err := template.New("").Funcs(funcs).Parse(tmpl); err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return nil
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - shq: Shell-quote a string for safe use in shell commands
//   - join: Join string slice with separator (e.g., join .Tags ",")
//   - clock: Format a time (or *time.Time) as local HH:MM
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
