package home

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/llm"
	"github.com/abhisek/audiotrainer/internal/narrative"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/session"
	"github.com/abhisek/audiotrainer/internal/store"
)

type stubRecorder struct {
	progress *session.Progress
	resumed  *store.Resumed
}

func (s *stubRecorder) Start(context.Context, string, *casegen.Case) error { return nil }
func (s *stubRecorder) Measure(context.Context, string, string, audiometry.Point, int, time.Time) error {
	return nil
}
func (s *stubRecorder) Checkpoint(context.Context, string, casegen.GenerateOpts, casegen.Narrative, session.Session) error {
	return nil
}
func (s *stubRecorder) Finish(context.Context, string, *casegen.Case, scoring.Result, time.Duration, time.Time) error {
	return nil
}
func (s *stubRecorder) Progress(context.Context) (*session.Progress, error) {
	if s.progress == nil {
		return session.NewProgress(), nil
	}
	return s.progress, nil
}
func (s *stubRecorder) Resume(context.Context, session.Session) (*store.Resumed, error) {
	if s.resumed == nil {
		return nil, store.ErrNotFound
	}
	return s.resumed, nil
}

func press(h *Screen, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, m := range msgs {
		_, cmd = h.Update(m)
	}
	return cmd
}

func down() tea.Msg  { return tea.KeyPressMsg{Code: tea.KeyDown} }
func enter() tea.Msg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

func TestHome_ResumeDisabledWithoutRecorder(t *testing.T) {
	h := New(Deps{Base: session.New(nil)})
	assert.True(t, h.menu.Items[3].Disabled)
	assert.Nil(t, h.Init())
	assert.Contains(t, h.View(100, 30), "No sessions yet.")
}

func TestHome_SeedPromptGeneratesCase(t *testing.T) {
	h := New(Deps{Base: session.New(nil), Opts: casegen.GenerateOpts{Profile: "Normal"}})

	press(h, down(), enter())
	require.True(t, h.Seeding())

	press(h, tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Empty(t, h.seed.Value(), "letters are dropped")

	for _, r := range "42" {
		press(h, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	cmd := press(h, enter())
	require.NotNil(t, cmd)
	assert.False(t, h.Seeding())

	msg := cmd()
	cm, ok := msg.(caseMsg)
	require.True(t, ok)
	require.NoError(t, cm.err)
	assert.Equal(t, int64(42), cm.opts.Seed)
	assert.Equal(t, "Normal", string(cm.c.Meta.Profile))

	_, cmd = h.Update(cm)
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Audiometer", push.Screen.Title())
}

func TestHome_SeedPromptEscCancels(t *testing.T) {
	h := New(Deps{Base: session.New(nil)})
	press(h, down(), enter())
	require.True(t, h.Seeding())
	press(h, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, h.Seeding())
}

func TestHome_EnricherRewritesNarrative(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]string{
		"history":  "Enriched history.",
		"findings": "Enriched findings.",
	}))
	h := New(Deps{
		Base:     session.New(nil),
		Enricher: &narrative.Enricher{Provider: mock},
		Now:      func() time.Time { return time.Unix(0, 7) },
	})

	cmd := press(h, enter())
	require.NotNil(t, cmd)
	cm := cmd().(caseMsg)
	require.NoError(t, cm.err)
	assert.Equal(t, int64(7), cm.opts.Seed)
	assert.Equal(t, "Enriched history.", cm.c.Narrative.History)
	assert.Equal(t, 1, mock.CallCount())
}

func TestHome_CatalogPracticeReplacesCatalog(t *testing.T) {
	h := New(Deps{Base: session.New(nil), Now: func() time.Time { return time.Unix(0, 11) }})
	cmd := press(h, down(), down(), enter())
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Disorder Catalog", push.Screen.Title())

	_, cmd = push.Screen.Update(enter())
	require.NotNil(t, cmd)
	repl, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Audiometer", repl.Screen.Title())
}

func TestHome_HistoryItem(t *testing.T) {
	h := New(Deps{Base: session.New(nil)})
	assert.True(t, h.menu.Items[4].Disabled)

	h = New(Deps{Base: session.New(nil), History: emptyHistory{}})
	cmd := press(h, down(), down(), down(), enter())
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "History", push.Screen.Title())
}

type emptyHistory struct{}

func (emptyHistory) QuerySessionEvents(context.Context, store.QueryOpts) ([]store.SessionEvent, error) {
	return nil, nil
}

func TestHome_ResumeNothing(t *testing.T) {
	h := New(Deps{Base: session.New(nil), Recorder: &stubRecorder{}})
	cmd := press(h, down(), down(), down(), enter())
	require.NotNil(t, cmd)
	_, next := h.Update(cmd())
	assert.Nil(t, next)
	assert.Contains(t, h.View(100, 30), "No session to resume.")
}

func TestHome_ResumeOpensAudiometer(t *testing.T) {
	c, err := casegen.Generate(casegen.GenerateOpts{Seed: 3})
	require.NoError(t, err)
	base := session.New(nil)
	rec := &stubRecorder{resumed: &store.Resumed{
		SessionID: "s1",
		Case:      c,
		Session:   base.LoadCase(c),
	}}
	h := New(Deps{Base: base, Recorder: rec})

	cmd := press(h, down(), down(), down(), enter())
	_, cmd = h.Update(cmd())
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PushScreenMsg)
	assert.True(t, ok)
}

func TestHome_StatsLine(t *testing.T) {
	p := session.NewProgress()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p.Record("a", scoring.Result{Total: 10, Correct: 9, Accuracy: 90, Complete: true}, at)
	p.Record("b", scoring.Result{Total: 10, Correct: 5, Accuracy: 50}, at)

	h := New(Deps{Base: session.New(nil), Recorder: &stubRecorder{progress: p}})
	cmd := h.Init()
	require.NotNil(t, cmd)
	h.Update(cmd())

	view := h.View(100, 30)
	assert.Contains(t, view, "Sessions: 2")
	assert.Contains(t, view, "Cases completed: 1")
	assert.Contains(t, view, "Mean accuracy: 70%")
	assert.NotNil(t, h.Resume())
}
