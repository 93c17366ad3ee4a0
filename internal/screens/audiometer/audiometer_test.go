package audiometer

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/session"
)

type fakeRecorder struct {
	mu          sync.Mutex
	starts      int
	measures    []audiometry.Point
	checkpoints int
	finishes    int
}

func (f *fakeRecorder) Start(ctx context.Context, sessionID string, c *casegen.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeRecorder) Measure(ctx context.Context, sessionID, caseID string, p audiometry.Point, masker int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.measures = append(f.measures, p)
	return nil
}

func (f *fakeRecorder) Checkpoint(ctx context.Context, sessionID string, opts casegen.GenerateOpts, n casegen.Narrative, s session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints++
	return nil
}

func (f *fakeRecorder) Finish(ctx context.Context, sessionID string, c *casegen.Case, res scoring.Result, elapsed time.Duration, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestScreen(t *testing.T, rec Recorder) *Screen {
	t.Helper()
	opts := casegen.GenerateOpts{Seed: 42, Profile: "Normal"}
	c, err := casegen.Generate(opts)
	require.NoError(t, err)
	return New(Config{
		Opts:     opts,
		Case:     c,
		Session:  session.New(nil),
		Recorder: rec,
		Now:      func() time.Time { return fixedNow },
	})
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// drain runs cmd and every command it batches, skipping frame ticks.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestNew_LoadsCase(t *testing.T) {
	s := newTestScreen(t, nil)
	assert.True(t, s.Session().Loaded())
	assert.NotEmpty(t, s.Session().Targets())
	assert.Equal(t, audiometry.DefaultStimulus(), s.Session().Stimulus())
	assert.Contains(t, s.Status(), "0/")
}

func TestKeys_MoveStimulus(t *testing.T) {
	s := newTestScreen(t, nil)

	s.Update(key('l'))
	assert.Equal(t, audiometry.Left, s.Session().Stimulus().Ear)

	s.Update(key('b'))
	assert.Equal(t, audiometry.BC, s.Session().Stimulus().Transducer)

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 2000, s.Session().Stimulus().Frequency)

	s.Update(key('m'))
	assert.True(t, s.Session().Stimulus().Masked)

	before := s.Session().Stimulus().Masker
	s.Update(key(']'))
	assert.Equal(t, before+MaskerStep, s.Session().Stimulus().Masker)
}

func TestKeys_LevelStepsCommit(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestScreen(t, rec)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 35, s.Session().Stimulus().Level)
	require.Len(t, s.Session().Points(), 1)
	assert.Equal(t, 35, s.Session().Points()[0].Level)

	drain(cmd)
	assert.Len(t, rec.measures, 1)
	assert.Equal(t, 1, rec.checkpoints)
}

func TestEnter_LogsResponse(t *testing.T) {
	s := newTestScreen(t, nil)
	st := s.sess.Stimulus()
	st.Level = 100
	s.sess = s.sess.SetStimulus(st)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	log := s.Session().Log()
	require.Len(t, log, 1)
	assert.Equal(t, 100, log[0].Level)
	assert.Equal(t, fixedNow, log[0].Time)
}

func TestSpace_PresentsWithoutPlotting(t *testing.T) {
	s := newTestScreen(t, nil)
	s.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	require.NotNil(t, s.presented)
	assert.Empty(t, s.Session().Points())

	s.Update(key('l'))
	assert.Nil(t, s.presented, "stimulus change clears the presentation")
}

func TestFrequencyChange_SuppressesLampUntilFrame(t *testing.T) {
	s := newTestScreen(t, nil)
	st := s.sess.Stimulus()
	st.Level = 100
	s.sess = s.sess.SetStimulus(st)
	require.True(t, s.Session().Lamp())

	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	assert.False(t, s.Session().Lamp())

	_, cmd := s.Update(frameMsg(fixedNow))
	assert.NotNil(t, cmd, "frame ticks keep running")
	assert.True(t, s.Session().Lamp())
}

func TestDeleteAndClear(t *testing.T) {
	s := newTestScreen(t, nil)
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	require.Len(t, s.Session().Points(), 1)

	s.Update(key('d'))
	assert.Empty(t, s.Session().Points())

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(key('r'))
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	require.Len(t, s.Session().Points(), 2)

	s.Update(key('c'))
	assert.Empty(t, s.Session().Points())
}

func TestFinish_ReplacesWithSummary(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestScreen(t, rec)

	_, cmd := s.Update(key('s'))
	msgs := drain(cmd)

	var replaced bool
	for _, m := range msgs {
		if r, ok := m.(router.ReplaceScreenMsg); ok {
			replaced = true
			assert.Equal(t, "Session Summary", r.Screen.Title())
		}
	}
	assert.True(t, replaced)
	assert.Equal(t, 1, rec.finishes)
}

func TestInit_StartsOnlyNewSessions(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestScreen(t, rec)
	s.persist("start", func(ctx context.Context, r Recorder) error {
		return r.Start(ctx, s.id, s.c)
	})()
	assert.Equal(t, 1, rec.starts)
	assert.False(t, s.resumed)

	resumed := New(Config{
		ID:       "existing",
		Case:     s.c,
		Session:  s.Session(),
		Recorder: rec,
	})
	assert.True(t, resumed.resumed)
	assert.Equal(t, "existing", resumed.id)
}

func TestPersistError_ShowsMessage(t *testing.T) {
	s := newTestScreen(t, nil)
	s.Update(persistedMsg{What: "checkpoint", Err: assert.AnError})
	assert.Contains(t, s.View(120, 40), "could not save checkpoint")
}

func TestView_RendersAudiogram(t *testing.T) {
	s := newTestScreen(t, nil)
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	view := s.View(120, 40)
	assert.Contains(t, view, "1000")
	assert.Contains(t, view, "35")
}
