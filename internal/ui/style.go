package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles renders notices for one output. Colour is dropped automatically
// when the output is not a terminal.
type styles struct {
	notice lipgloss.Style
	err    lipgloss.Style
	dm     lipgloss.Style
	title  lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		notice: r.NewStyle().Foreground(lipgloss.Color("247")),
		err:    r.NewStyle().Foreground(lipgloss.Color("203")),
		dm:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
	}
}

func (s styles) line(text string) string {
	switch {
	case strings.HasPrefix(text, "*** wut:"):
		return s.err.Render(text)
	case strings.HasPrefix(text, "***"):
		return s.notice.Render(text)
	default:
		return text
	}
}
