package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns agent-facing markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer wrapping at width columns (0 keeps glamour's default).
// When styling is off, markdown is passed through unchanged.
func NewRenderer(styled bool, width int) Renderer {
	if !styled {
		return Plain
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()} // Detect light/dark background
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown, err
		}
		return strings.Trim(out, "\n"), nil
	}
}

// Plain renders markdown as is.
func Plain(markdown string) (string, error) {
	return markdown, nil
}
