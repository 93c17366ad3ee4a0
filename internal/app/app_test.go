package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/screens/home"
	"github.com/abhisek/audiotrainer/internal/session"
)

func newTestModel() Model {
	return New(home.Deps{Base: session.New(nil)})
}

func TestView_EmptyUntilSized(t *testing.T) {
	m := newTestModel()
	assert.Empty(t, m.render())
	assert.True(t, m.View().AltScreen)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out := updated.(Model).render()
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "Random case")
}

func TestView_TooSmall(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.Contains(t, updated.(Model).render(), "at least")
}

func TestEsc_AtRootDoesNotPop(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		_, isPop := cmd().(router.PopScreenMsg)
		assert.False(t, isPop)
	}
}

func TestCtrlC_Quits(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHints_AddBackBelowRoot(t *testing.T) {
	m := newTestModel()
	for _, h := range m.hints(m.router.Active()) {
		assert.NotEqual(t, "Esc", h.Key)
	}

	m.router.Push(home.New(home.Deps{Base: session.New(nil)}))
	hints := m.hints(m.router.Active())
	require.NotEmpty(t, hints)
	assert.Equal(t, "Esc", hints[len(hints)-1].Key)
}
