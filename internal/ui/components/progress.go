package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

// ProgressBar is a horizontal bar for a ratio in [0, 1].
type ProgressBar struct {
	Label string
	Ratio float64
	Width int
	// Mark draws a tick at this ratio, e.g. the pass mark. Zero hides it.
	Mark float64
}

// View renders the bar followed by the percentage.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(theme.Body.Render(p.Label) + "  ")
	}

	barWidth := max(p.Width-lipgloss.Width(b.String())-6, 4)
	filled := min(max(int(float64(barWidth)*p.Ratio), 0), barWidth)
	mark := -1
	if p.Mark > 0 {
		mark = min(int(float64(barWidth)*p.Mark), barWidth-1)
	}

	for i := range barWidth {
		style := theme.ProgressEmpty
		if i < filled {
			style = theme.ProgressFilled
		}
		cell := " "
		if i == mark {
			cell = "|"
		}
		b.WriteString(style.Render(cell))
	}

	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d%%", int(p.Ratio*100+0.5))))
	return b.String()
}
