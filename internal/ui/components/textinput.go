package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

// TextInput wraps bubbles/textinput. With NumericOnly set, printable keys
// other than digits are dropped.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	err         string
}

// NewTextInput creates a focused input.
func NewTextInput(placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Model: ti, NumericOnly: numericOnly}
}

// Init starts the cursor blink.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && t.NumericOnly {
		if key := kmsg.String(); len(key) == 1 && (key[0] < '0' || key[0] > '9') {
			return t, nil
		}
	}
	t.err = ""
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input and the last validation error.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.err != "" {
		view += "  " + lipgloss.NewStyle().Foreground(theme.Error).Render(t.err)
	}
	return view
}

// Value returns the trimmed input.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Int64Value parses the input as a base-10 integer.
func (t TextInput) Int64Value() (int64, error) {
	return strconv.ParseInt(t.Value(), 10, 64)
}

// SetError shows msg next to the input until the next keystroke.
func (t *TextInput) SetError(msg string) {
	t.err = msg
}
