package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/scoring"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// tablePatient has the same thresholds at every frequency: right ear
// normal, left ear with a 60 dB air-bone gap.
type tablePatient struct{}

func (tablePatient) Threshold(ear audiometry.Ear, t audiometry.Transducer, f int) (float64, bool) {
	if !audiometry.Measurable(t, f) {
		return 0, false
	}
	switch {
	case ear == audiometry.Right && t == audiometry.AC:
		return 20, true
	case ear == audiometry.Right:
		return 15, true
	case t == audiometry.AC:
		return 80, true
	default:
		return 20, true
	}
}

func (p tablePatient) BoneThreshold(ear audiometry.Ear, _ int) (float64, bool) {
	if ear == audiometry.Right {
		return 15, true
	}
	return 20, true
}

func loaded() Session {
	return New(nil).LoadPatient("case-1", tablePatient{}, nil)
}

func stim(ear audiometry.Ear, tr audiometry.Transducer, f, level int) audiometry.Stimulus {
	return audiometry.Stimulus{Ear: ear, Transducer: tr, Frequency: f, Level: level, Masker: audiometry.NoMasking}
}

func TestCommit_LogsOnlyOnResponse(t *testing.T) {
	s := loaded()

	s, res := s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 10), t0)
	require.True(t, res.Applied)
	assert.False(t, res.Logged)
	assert.Len(t, s.Points(), 1)
	assert.Empty(t, s.Log())

	s, res = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 20), t0.Add(time.Second))
	require.True(t, res.Logged)
	require.Len(t, s.Points(), 1, "same key is replaced")
	assert.Equal(t, 20, s.Points()[0].Level)
	require.Len(t, s.Log(), 1)
	assert.Equal(t, 1, s.Log()[0].Index)
}

func TestCommit_NoCase(t *testing.T) {
	s, res := New(nil).Commit(stim(audiometry.Right, audiometry.AC, 1000, 20), t0)
	assert.False(t, res.Applied)
	assert.Empty(t, s.Points())
	assert.False(t, s.Lamp())
}

func TestCommit_DoesNotMutatePrevious(t *testing.T) {
	s1 := loaded()
	s1, _ = s1.Commit(stim(audiometry.Right, audiometry.AC, 500, 30), t0)

	s2, _ := s1.Commit(stim(audiometry.Right, audiometry.AC, 1000, 30), t0)
	s3 := s2.ClearAll()

	assert.Len(t, s1.Points(), 1)
	assert.Len(t, s1.Log(), 1)
	assert.Len(t, s2.Points(), 2)
	assert.Empty(t, s3.Points())
	assert.Len(t, s3.Log(), 2, "ClearAll keeps the log")
}

func TestSwitchMasking_RemovesOppositeMode(t *testing.T) {
	s := loaded()
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 20), t0)
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 2000, 20), t0)

	same := s.SwitchMasking(false)
	assert.Len(t, same.Points(), 2)

	s = s.SetStimulus(stim(audiometry.Right, audiometry.AC, 1000, 20))
	s = s.SwitchMasking(true)
	assert.True(t, s.Stimulus().Masked)
	require.Len(t, s.Points(), 1)
	assert.Equal(t, 2000, s.Points()[0].Frequency)
}

func TestAddOrReplacePoint_ReplacesAcrossModes(t *testing.T) {
	s := loaded()
	p := audiometry.Point{Ear: audiometry.Left, Transducer: audiometry.AC, Frequency: 1000, Level: 50}
	s = s.AddOrReplacePoint(p)
	p.Masked, p.Level = true, 80
	s = s.AddOrReplacePoint(p)

	require.Len(t, s.Points(), 1)
	assert.True(t, s.Points()[0].Masked)
	assert.Equal(t, 80, s.Points()[0].Level)
}

func TestAddOrReplacePoint_NoBCAtDisabledFrequencies(t *testing.T) {
	s := loaded()
	for _, f := range []int{125, 8000} {
		s = s.AddOrReplacePoint(audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.BC, Frequency: f, Level: 10})
		_, res := s.Commit(stim(audiometry.Right, audiometry.BC, f, 10), t0)
		assert.False(t, res.Applied)
	}
	assert.Empty(t, s.Points())
}

func TestPoints_Ordered(t *testing.T) {
	s := loaded()
	s = s.AddOrReplacePoint(audiometry.Point{Ear: audiometry.Left, Transducer: audiometry.AC, Frequency: 500, Level: 10})
	s = s.AddOrReplacePoint(audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.BC, Frequency: 500, Level: 10})
	s = s.AddOrReplacePoint(audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 4000, Level: 10})
	s = s.AddOrReplacePoint(audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 250, Level: 10})

	var ids []string
	for _, p := range s.Points() {
		ids = append(ids, p.Slot().ID())
	}
	assert.Equal(t, []string{"R-AC-250", "R-AC-4000", "R-BC-500", "L-AC-500"}, ids)
}

func TestRemoveCurrentPoint(t *testing.T) {
	s := loaded()
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 20), t0)
	s = s.RemoveCurrentPoint()
	assert.Empty(t, s.Points())
	assert.Len(t, s.Log(), 1)
}

func TestStepLevel(t *testing.T) {
	s := loaded().SetStimulus(stim(audiometry.Right, audiometry.AC, 1000, 30))

	up, res := s.StepLevel(Up, t0)
	require.True(t, res.Applied)
	assert.Equal(t, 25, up.Stimulus().Level)
	assert.Equal(t, 25, res.Point.Level)

	down, _ := s.StepLevel(Down, t0)
	assert.Equal(t, 35, down.Stimulus().Level)

	for range 20 {
		up, _ = up.StepLevel(Up, t0)
	}
	assert.Equal(t, audiometry.InputMin, up.Stimulus().Level)
	assert.Equal(t, audiometry.DisplayMin, up.Points()[0].Level)
	assert.Len(t, up.Log(), 2, "heard at 25 and 20 dB only")
}

func TestStepFrequency_SkipsDisabledBC(t *testing.T) {
	s := loaded().SelectTransducer(audiometry.BC)
	s = s.SetStimulus(stim(audiometry.Right, audiometry.BC, 250, 30))

	s = s.StepFrequency(Prev)
	assert.Equal(t, 250, s.Stimulus().Frequency)
	assert.False(t, s.LampSuppressed())

	for range 10 {
		s = s.StepFrequency(Next)
	}
	assert.Equal(t, 4000, s.Stimulus().Frequency)

	ac := s.SelectTransducer(audiometry.AC).Tick()
	ac = ac.StepFrequency(Next)
	assert.Equal(t, 8000, ac.Stimulus().Frequency)
}

func TestSelectTransducer_MovesOffDisabledFrequency(t *testing.T) {
	s := loaded().SetStimulus(stim(audiometry.Right, audiometry.AC, 8000, 30))
	s = s.SelectTransducer(audiometry.BC)
	assert.Equal(t, 4000, s.Stimulus().Frequency)

	s = s.SetStimulus(stim(audiometry.Right, audiometry.AC, 125, 30)).SelectTransducer(audiometry.BC)
	assert.Equal(t, 250, s.Stimulus().Frequency)
}

func TestLamp_SuppressedForOneFrame(t *testing.T) {
	s := loaded().SetStimulus(stim(audiometry.Right, audiometry.AC, 500, 40))
	assert.True(t, s.Lamp())

	s = s.StepFrequency(Next)
	assert.Equal(t, 1000, s.Stimulus().Frequency)
	assert.False(t, s.Lamp())

	s = s.Tick()
	assert.True(t, s.Lamp())
}

func TestLoadCase_ClearsState(t *testing.T) {
	c, err := casegen.Generate(casegen.GenerateOpts{Seed: 11, Profile: "Normal"})
	require.NoError(t, err)

	s := New(response.New(response.DefaultConfig())).LoadCase(c)
	assert.Equal(t, c.ID, s.CaseID())
	assert.Len(t, s.Targets(), 24)

	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 120), t0)
	require.NotEmpty(t, s.Points())
	require.NotEmpty(t, s.Log())

	s = s.LoadCase(c)
	assert.Empty(t, s.Points())
	assert.Empty(t, s.Log())
	assert.Equal(t, audiometry.DefaultStimulus(), s.Stimulus())
}

func TestScore_PerfectPlot(t *testing.T) {
	c, err := casegen.Generate(casegen.GenerateOpts{Seed: 5})
	require.NoError(t, err)

	s := New(nil).LoadCase(c)
	for _, tg := range s.Targets() {
		s = s.AddOrReplacePoint(audiometry.Point{
			Ear: tg.Ear, Transducer: tg.Transducer, Frequency: tg.Frequency,
			Level: tg.Level, ScaleOut: tg.ScaleOut, Masked: tg.NeedsMasking,
		})
	}
	r := s.Score()
	assert.Equal(t, 100, r.Accuracy)
	assert.True(t, r.Complete)
}

func TestExportLog(t *testing.T) {
	s := loaded()
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 25), t0)

	masked := stim(audiometry.Left, audiometry.AC, 1000, 80)
	masked.Masked, masked.Masker = true, 60
	s, res := s.Commit(masked, t0.Add(time.Minute))
	require.True(t, res.Logged)
	assert.Empty(t, res.Warnings)

	rows := s.ExportLog()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2024-03-01T10:00:00Z", "R", "AC", "1000", "25", "false", "-", "false"}, rows[0].Record())
	assert.Equal(t, []string{"2", "2024-03-01T10:01:00Z", "L", "AC", "1000", "80", "true", "60", "false"}, rows[1].Record())
	assert.Len(t, LogHeader, len(rows[0].Record()))
}

func TestSnapshot(t *testing.T) {
	s := loaded().SetStimulus(stim(audiometry.Left, audiometry.AC, 1000, 70))
	snap := s.Snapshot()
	assert.Equal(t, "case-1", snap.CaseID)
	assert.True(t, snap.Lamp, "cross-hearing")
	assert.Contains(t, snap.Warnings, response.WarnCrossHearing)
}

func TestProgress_Record(t *testing.T) {
	p := NewProgress()
	p.Record("a", scoring.Result{Total: 10, Correct: 5, Accuracy: 50}, t0)
	p.Record("a", scoring.Result{Total: 10, Correct: 9, Accuracy: 90, Complete: true}, t0.Add(time.Hour))
	p.Record("a", scoring.Result{Total: 10, Correct: 10, Accuracy: 100, Complete: true}, t0.Add(2*time.Hour))
	p.Record("b", scoring.Result{Total: 10, Correct: 2, Accuracy: 20}, t0.Add(3*time.Hour))

	assert.Equal(t, 4, p.TotalSessions)
	assert.Equal(t, 1, p.CompletedCases)
	assert.Equal(t, t0.Add(3*time.Hour), p.LastSessionDate)
	require.Contains(t, p.CaseAccuracy, "a")
	assert.Equal(t, []int{50, 90, 100}, p.CaseAccuracy["a"].History)
	assert.Equal(t, t0.Add(2*time.Hour), p.CaseAccuracy["a"].CompletedAt)
	assert.True(t, p.CaseAccuracy["b"].CompletedAt.IsZero())
	assert.ElementsMatch(t, []float64{100, 20}, p.Accuracies())
}

func TestRestore(t *testing.T) {
	s := loaded()
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 1000, 20), t0)
	s, _ = s.Commit(stim(audiometry.Right, audiometry.AC, 2000, 30), t0)

	fresh := loaded()
	points := append(s.Points(), audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.BC, Frequency: 8000, Level: 10})
	r := fresh.Restore(s.Stimulus(), points, s.Log())

	assert.Equal(t, s.Points(), r.Points())
	assert.Equal(t, s.Log(), r.Log())
	assert.Equal(t, s.Stimulus(), r.Stimulus())
}
