package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/capitalize-ai/leadership-coach/internal/reconstruct"
)

var (
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	coachStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// streamPrinter writes the growing assistant message to out, printing only
// the part not yet shown.
type streamPrinter struct {
	out     io.Writer
	printed int
	started bool
}

func (p *streamPrinter) update(res reconstruct.Result) {
	if len(res.Text) > p.printed {
		if !p.started {
			fmt.Fprint(p.out, coachStyle.Render("coach")+": ")
			p.started = true
		}
		fmt.Fprint(p.out, res.Text[p.printed:])
		p.printed = len(res.Text)
	}
}

func (p *streamPrinter) finish(res reconstruct.Result) {
	if p.started {
		fmt.Fprintln(p.out)
	}
	switch {
	case res.Error != "":
		fmt.Fprintln(p.out, errorStyle.Render(res.Error))
	case !res.Completed && res.Text != "":
		fmt.Fprintln(p.out, dimStyle.Render("(response interrupted)"))
	}
}
