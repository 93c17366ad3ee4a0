// Package history lists finished sessions.
package history

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/screen"
	"github.com/abhisek/audiotrainer/internal/store"
	"github.com/abhisek/audiotrainer/internal/ui/layout"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

// Limit caps how many sessions are listed.
const Limit = 50

// Source reads session events. store.EventRepo implements it.
type Source interface {
	QuerySessionEvents(ctx context.Context, opts store.QueryOpts) ([]store.SessionEvent, error)
}

type loadedMsg struct {
	sessions []store.SessionEvent
	err      error
}

// Screen displays past sessions, newest first.
type Screen struct {
	src      Source
	sessions []store.SessionEvent
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the history screen.
func New(src Source) *Screen {
	return &Screen{src: src, expanded: make(map[int]bool)}
}

func (s *Screen) Init() tea.Cmd {
	src := s.src
	return func() tea.Msg {
		events, err := src.QuerySessionEvents(context.Background(), store.QueryOpts{})
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{sessions: finished(events)}
	}
}

// finished keeps end events, newest first.
func finished(events []store.SessionEvent) []store.SessionEvent {
	var out []store.SessionEvent
	for _, e := range slices.Backward(events) {
		if e.Action != store.ActionEnd {
			continue
		}
		out = append(out, e)
		if len(out) == Limit {
			break
		}
	}
	return out
}

func (s *Screen) Title() string {
	return "History"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		} else {
			s.sessions = msg.sessions
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			s.selected = max(s.selected-1, 0)
		case "down", "j":
			s.selected = min(s.selected+1, max(len(s.sessions)-1, 0))
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	center := func(st lipgloss.Style, text string) string {
		return st.Width(width).Align(lipgloss.Center).Render(text)
	}
	switch {
	case s.errMsg != "":
		return center(lipgloss.NewStyle().Foreground(theme.Error), "\n\nError: "+s.errMsg)
	case !s.loaded:
		return center(lipgloss.NewStyle().Foreground(theme.TextDim), "\n\nLoading history...")
	case len(s.sessions) == 0:
		return center(theme.Hint, "\n\nNo finished sessions yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, e := range s.sessions {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		mark := " "
		if e.Accuracy >= scoring.PassAccuracy {
			mark = "✓"
		}
		line := fmt.Sprintf("%s%s  %d:%02d  %2d/%-2d  %3d%% %s",
			prefix, e.Timestamp.Local().Format("Jan 02 15:04"),
			e.DurationSecs/60, e.DurationSecs%60, e.Correct, e.Total, e.Accuracy, mark)
		b.WriteString(layout.Centered(style.Render(line), width))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("    %s  seed %d  case %s", e.Profile, e.Seed, shortID(e.CaseID))
			b.WriteString(layout.Centered(theme.Hint.Render(detail), width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
