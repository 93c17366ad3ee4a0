package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/ui/layout"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

const (
	bannerFull    = "A U D I O T R A I N E R"
	bannerCompact = "AUDIOTRAINER"
	tagline       = "pure-tone audiometry practice"
)

// renderBanner boxes the title, dropping the box below 52 columns.
func renderBanner(width int) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if width < 52 {
		return layout.Centered(style.Render(bannerCompact), width)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Border).
		Padding(1, 4).
		Render(style.Render(bannerFull) + "\n" + theme.Subtitle.Render(tagline))
	return layout.Centered(box, width)
}
