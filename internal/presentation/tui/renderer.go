package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// Used for changelog previews and run summaries on the CLI.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Interactive reports whether stdout is a terminal that benefits from
// rendering. Piped output (CI logs, redirects) should stay plain markdown.
func Interactive() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}
