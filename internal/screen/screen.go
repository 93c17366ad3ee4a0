// Package screen defines the contract between the router and TUI screens.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/audiotrainer/internal/ui/layout"
)

// Screen is one page of the TUI.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider supplies custom footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider supplies the right side of the header, e.g. the case ID
// and running accuracy.
type StatusProvider interface {
	Status() string
}

// Resumer is notified when the screen becomes active again after the
// screens above it were popped.
type Resumer interface {
	Resume() tea.Cmd
}
