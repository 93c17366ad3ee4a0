// Package summary shows the score of a finished audiometer session.
package summary

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/screen"
	"github.com/abhisek/audiotrainer/internal/ui/components"
	"github.com/abhisek/audiotrainer/internal/ui/layout"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

// Data is what the summary displays.
type Data struct {
	CaseID    string
	Profile   string
	Narrative casegen.Narrative
	Result    scoring.Result
	Elapsed   time.Duration
}

// Screen displays the session summary.
type Screen struct {
	data Data
	// reveal shows the hidden thresholds next to the trainee's.
	reveal bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the summary screen.
func New(d Data) *Screen {
	return &Screen{data: d}
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Session Summary"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "V", Description: "Reveal answers"},
		{Key: "Enter", Description: "Home"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "v":
			s.reveal = !s.reveal
		case "enter", "q":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	d := s.data
	r := d.Result
	var b strings.Builder

	verdict, style := "Keep practicing", theme.Incorrect
	if r.Complete {
		verdict, style = "Audiogram complete", theme.Correct
	}
	b.WriteString(layout.Centered(style.Render(verdict), width))
	b.WriteString("\n\n")

	mins := int(d.Elapsed.Minutes())
	secs := int(d.Elapsed.Seconds()) % 60
	stats := fmt.Sprintf("Correct: %d/%d    Mean error: %.1f dB    Time: %d:%02d",
		r.Correct, r.Total, r.MeanAbsDelta, mins, secs)
	b.WriteString(layout.Centered(theme.Body.Render(stats), width))
	b.WriteString("\n\n")

	bar := components.ProgressBar{
		Label: "Accuracy",
		Ratio: float64(r.Accuracy) / 100,
		Width: min(width-8, 60),
		Mark:  float64(scoring.PassAccuracy) / 100,
	}
	b.WriteString(layout.Centered(bar.View(), width))
	b.WriteString("\n\n")

	if s.reveal {
		b.WriteString(layout.Centered(theme.Hint.Render("Diagnosis: "+d.Profile), width))
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint.Render(d.Narrative.Findings), width))
		b.WriteString("\n\n")
	}

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(layout.Centered(divider, width))
	b.WriteString("\n")

	for _, item := range r.PerItem {
		if item.Correct && !s.reveal {
			continue
		}
		b.WriteString(layout.Centered(s.itemLine(item), width))
		b.WriteString("\n")
	}
	return b.String()
}

// itemLine shows a missed or, when revealing, any target.
func (s *Screen) itemLine(item scoring.Item) string {
	got := "not plotted"
	if item.Delta != nil {
		got = fmt.Sprintf("off by %+d dB", *item.Delta)
	}
	if item.Correct {
		got = "correct"
	}
	line := fmt.Sprintf("%-12s %s", item.ID, got)
	if s.reveal {
		want := fmt.Sprintf("%d dB", item.Expected)
		if item.ScaleOut {
			want = "no response"
		}
		line += "    expected " + want
	}
	if item.Correct {
		return theme.Correct.Render(line)
	}
	return theme.Incorrect.Render(line)
}
