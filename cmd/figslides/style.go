package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type styles struct {
	ok      lipgloss.Style
	skipped lipgloss.Style
	failed  lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
}

// newStyles colors output only when w is a terminal and color is enabled.
func newStyles(w io.Writer, noColor bool) styles {
	var opts []termenv.OutputOption
	if f, ok := w.(*os.File); noColor || !ok || !term.IsTerminal(int(f.Fd())) {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	r := lipgloss.NewRenderer(w, opts...)
	return styles{
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		skipped: r.NewStyle().Foreground(lipgloss.Color("11")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("9")),
		heading: r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
