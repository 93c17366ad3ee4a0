package summary

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
)

func testData() Data {
	d := 10
	return Data{
		CaseID:  "abc",
		Profile: "CHL_OME",
		Elapsed: 95 * time.Second,
		Result: scoring.Result{
			Total:    2,
			Correct:  1,
			Accuracy: 50,
			PerItem: []scoring.Item{
				{ID: "R-AC-1000", Correct: true, Plotted: true, Expected: 20},
				{ID: "L-AC-1000", Plotted: true, Expected: 40, Delta: &d},
			},
		},
	}
}

func TestSummary_View(t *testing.T) {
	s := New(testData())
	view := s.View(100, 30)
	assert.Contains(t, view, "Keep practicing")
	assert.Contains(t, view, "1:35")
	assert.Contains(t, view, "L-AC-1000")
	assert.NotContains(t, view, "R-AC-1000", "correct items hidden until reveal")
	assert.NotContains(t, view, "CHL_OME")
}

func TestSummary_Reveal(t *testing.T) {
	s := New(testData())
	_, _ = s.Update(tea.KeyPressMsg{Code: 'v', Text: "v"})
	view := s.View(100, 30)
	assert.Contains(t, view, "R-AC-1000")
	assert.Contains(t, view, "CHL_OME")
	assert.Contains(t, view, "expected 40 dB")
}

func TestSummary_EnterGoesHome(t *testing.T) {
	s := New(testData())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopToRootMsg{}, cmd())
}

func TestSummary_Title(t *testing.T) {
	assert.Equal(t, "Session Summary", New(testData()).Title())
	assert.Len(t, New(testData()).KeyHints(), 2)
}
