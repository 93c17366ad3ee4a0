package audiometer

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

var warningText = map[response.Warning]string{
	response.WarnOverMasking:  "Over-masking: the masker may be shifting the test ear",
	response.WarnCrossHearing: "Cross-hearing: the non-test ear may be responding",
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder

	b.WriteString(s.renderHistory(width))
	b.WriteString("\n\n")

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderStimulus(),
		"  ",
		s.renderLamp(),
	)
	b.WriteString(panels)
	b.WriteString("\n")

	for _, w := range s.sess.Warnings() {
		b.WriteString(theme.Warning.Render(warningText[w]))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.renderAudiogram())
	return b.String()
}

func (s *Screen) renderHistory(width int) string {
	text := s.c.Narrative.History
	return lipgloss.NewStyle().
		Width(max(width-4, 20)).
		Foreground(theme.TextDim).
		Italic(true).
		Render(text)
}

func (s *Screen) renderStimulus() string {
	st := s.sess.Stimulus()

	earStyle := lipgloss.NewStyle().Bold(true).Foreground(earColor(st.Ear))
	masker := "off"
	if st.Masked {
		masker = fmt.Sprintf("%d dB EM", st.Masker)
	}

	rows := []string{
		theme.Label.Render("Ear") + earStyle.Render(st.Ear.String()),
		theme.Label.Render("Transducer") + theme.Body.Render(transducerName(st.Transducer)),
		theme.Label.Render("Frequency") + theme.Body.Render(fmt.Sprintf("%d Hz", st.Frequency)),
		theme.Label.Render("Level") + theme.Body.Render(fmt.Sprintf("%d dB HL", st.Level)),
		theme.Label.Render("Masker") + theme.Body.Render(masker),
	}
	return theme.Card.Render(strings.Join(rows, "\n"))
}

func (s *Screen) renderLamp() string {
	var lines []string
	if s.sess.Lamp() {
		lines = append(lines, theme.LampOn.Render("RESPONSE"))
	} else {
		lines = append(lines, theme.LampOff.Render("no response"))
	}
	if s.presented != nil {
		heard := "no response"
		if s.presented.Respond {
			heard = "patient responds"
		}
		lines = append(lines, "", theme.Hint.Render("presented: "+heard))
	}
	if s.last != nil {
		p := s.last.Point
		lines = append(lines, "", theme.Hint.Render(fmt.Sprintf("last plot: %s %d dB", p.Slot().ID(), p.Level)))
	}
	return strings.Join(lines, "\n")
}

// renderAudiogram tabulates plotted points: one row per ear and
// transducer, one column per frequency.
func (s *Screen) renderAudiogram() string {
	plotted := make(map[audiometry.SlotKey]audiometry.Point)
	for _, p := range s.sess.Points() {
		plotted[p.Slot()] = p
	}
	cur := s.sess.Stimulus().Slot()

	var b strings.Builder
	b.WriteString(theme.Label.Render(""))
	for _, f := range audiometry.Frequencies {
		b.WriteString(cell(fmt.Sprintf("%d", f), theme.Hint))
	}
	b.WriteString("\n")

	for _, ear := range audiometry.Ears {
		for _, tr := range audiometry.Transducers {
			label := lipgloss.NewStyle().Foreground(earColor(ear)).Width(12).Render(fmt.Sprintf("%s %s", ear, tr))
			b.WriteString(label)
			for _, f := range audiometry.Frequencies {
				slot := audiometry.SlotKey{Ear: ear, Transducer: tr, Frequency: f}
				style := theme.Body
				if slot == cur {
					style = theme.Selected
				}
				b.WriteString(cell(pointText(plotted, slot), style))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pointText(plotted map[audiometry.SlotKey]audiometry.Point, slot audiometry.SlotKey) string {
	if !audiometry.Measurable(slot.Transducer, slot.Frequency) {
		return " "
	}
	p, ok := plotted[slot]
	switch {
	case !ok:
		return "·"
	case p.ScaleOut:
		return "NR"
	case p.Masked:
		return fmt.Sprintf("%dm", p.Level)
	}
	return fmt.Sprintf("%d", p.Level)
}

func cell(text string, style lipgloss.Style) string {
	return style.Width(7).Align(lipgloss.Right).Render(text)
}

func earColor(e audiometry.Ear) color.Color {
	if e == audiometry.Left {
		return theme.LeftEar
	}
	return theme.RightEar
}

func transducerName(t audiometry.Transducer) string {
	if t == audiometry.BC {
		return "Bone (BC)"
	}
	return "Air (AC)"
}
