// Package styles provides the lipgloss styles used for human-readable CLI
// output.
package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines the semantic colors of CLI output.
type Palette struct {
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultPalette is the tokyo-night palette.
var DefaultPalette = Palette{
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Muted:   lipgloss.Color("#565f89"),
}

// Styles renders text for a single output stream.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// For returns styles bound to w using the default palette. Colors are only
// emitted when w is a terminal that supports them.
func For(w io.Writer) Styles {
	return WithPalette(w, DefaultPalette)
}

// WithPalette returns styles bound to w using p.
func WithPalette(w io.Writer, p Palette) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Success: r.NewStyle().Foreground(p.Success).Bold(true),
		Warning: r.NewStyle().Foreground(p.Warning),
		Error:   r.NewStyle().Foreground(p.Error).Bold(true),
		Muted:   r.NewStyle().Foreground(p.Muted),
	}
}
