// Package catalog lets the trainee browse the disorder profiles and start a
// case drawn from one.
package catalog

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/screen"
	"github.com/abhisek/audiotrainer/internal/ui/layout"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowProfile
)

type row struct {
	kind    rowKind
	class   disorder.Class
	profile disorder.Profile
}

// PickFunc starts a case for the chosen profile.
type PickFunc func(profile disorder.Name) tea.Cmd

// Screen lists profiles grouped by class.
type Screen struct {
	rows         []row
	cursor       int
	scrollOffset int
	pick         PickFunc
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

var classes = []disorder.Class{disorder.ClassNormal, disorder.ClassCHL, disorder.ClassSNHL}

// New builds the catalog. pick may be nil, which makes the list read-only.
func New(pick PickFunc) *Screen {
	s := &Screen{pick: pick}
	for _, c := range classes {
		profiles := disorder.ByClass(c)
		if len(profiles) == 0 {
			continue
		}
		s.rows = append(s.rows, row{kind: rowHeader, class: c})
		for _, p := range profiles {
			s.rows = append(s.rows, row{kind: rowProfile, class: c, profile: p})
		}
	}
	s.moveCursor(1)
	return s
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Disorder Catalog"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Class"},
	}
	if s.pick != nil {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Practice"})
	}
	return hints
}

// Selected returns the profile under the cursor.
func (s *Screen) Selected() (disorder.Profile, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) || s.rows[s.cursor].kind != rowProfile {
		return disorder.Profile{}, false
	}
	return s.rows[s.cursor].profile, true
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "up", "k":
		s.moveCursor(-1)
	case "down", "j":
		s.moveCursor(1)
	case "tab":
		s.nextClass()
	case "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "enter":
		p, ok := s.Selected()
		if ok && s.pick != nil {
			return s, s.pick(p.Name)
		}
	}
	return s, nil
}

// moveCursor steps by delta, skipping headers. From the initial position
// (a header at 0) it lands on the first profile.
func (s *Screen) moveCursor(delta int) {
	for next := s.cursor + delta; next >= 0 && next < len(s.rows); next += delta {
		if s.rows[next].kind == rowProfile {
			s.cursor = next
			return
		}
	}
}

// nextClass jumps to the first profile of the next class, wrapping.
func (s *Screen) nextClass() {
	current := s.rows[s.cursor].class
	for i := 1; i < len(s.rows); i++ {
		j := (s.cursor + i) % len(s.rows)
		if s.rows[j].kind == rowProfile && s.rows[j].class != current {
			s.cursor = j
			return
		}
	}
}

func (s *Screen) View(width, height int) string {
	detail := s.renderDetail(width)
	listHeight := max(height-lipgloss.Height(detail)-1, 1)
	s.adjustScroll(listHeight)

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < listHeight; i++ {
		r := s.rows[i]
		if r.kind == rowHeader {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.Secondary).
				Bold(true).
				PaddingLeft(2).
				Render(strings.ToUpper(r.class.String())))
			continue
		}
		lines = append(lines, s.renderRow(r, i == s.cursor))
	}
	return strings.Join(lines, "\n") + "\n" + detail
}

func (s *Screen) adjustScroll(height int) {
	top := s.cursor
	if top > 0 && s.rows[top-1].kind == rowHeader {
		top--
	}
	if top < s.scrollOffset {
		s.scrollOffset = top
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func (s *Screen) renderRow(r row, selected bool) string {
	cursor := "  "
	style := lipgloss.NewStyle().Foreground(theme.Text)
	if selected {
		cursor = "> "
		style = style.Foreground(theme.Primary).Bold(true)
	}
	side := ""
	if r.profile.Unilateral {
		side = theme.Hint.Render("  unilateral")
	}
	return fmt.Sprintf("    %s%s%s", cursor, style.Render(r.profile.Label), side)
}

func (s *Screen) renderDetail(width int) string {
	p, ok := s.Selected()
	if !ok {
		return ""
	}
	body := theme.Body.Render(string(p.Name)) + "\n" + theme.Hint.Render(p.Description)
	return theme.Card.Width(min(width-4, 80)).Render(body)
}
