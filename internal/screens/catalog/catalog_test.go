package catalog

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/disorder"
)

func TestNew_SelectsFirstProfile(t *testing.T) {
	s := New(nil)
	p, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, disorder.ClassNormal, p.Class)
}

func TestNavigation_SkipsHeaders(t *testing.T) {
	s := New(nil)
	seen := map[disorder.Name]bool{}
	for range len(disorder.All()) + 3 {
		p, ok := s.Selected()
		require.True(t, ok, "cursor never rests on a header")
		seen[p.Name] = true
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	assert.Len(t, seen, len(disorder.All()))
}

func TestTab_JumpsClass(t *testing.T) {
	s := New(nil)
	before, _ := s.Selected()
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	after, _ := s.Selected()
	assert.NotEqual(t, before.Class, after.Class)
}

func TestEnter_Picks(t *testing.T) {
	var picked disorder.Name
	s := New(func(n disorder.Name) tea.Cmd {
		picked = n
		return func() tea.Msg { return nil }
	})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	want, _ := s.Selected()

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.Equal(t, want.Name, picked)
}

func TestEnter_ReadOnly(t *testing.T) {
	s := New(nil)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, s.KeyHints(), 2)
}

func TestView_ShowsClassesAndDetail(t *testing.T) {
	s := New(nil)
	view := s.View(100, 40)
	assert.Contains(t, view, "NORMAL")
	assert.Contains(t, view, "CONDUCTIVE")
	p, _ := s.Selected()
	assert.Contains(t, view, string(p.Name))
}
