package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/scoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"measurements", "session_events", "llm_request_events", "progress", "snapshots", "global_sequence"} {
		var name string
		err := s.DB().Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err, table)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, prev+1, seq)
		prev = seq
	}
}

func TestMeasurementRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.MeasurementRepo()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	unmasked := NewMeasurement("u1", "s1", "c1",
		audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 1000, Level: 25}, audiometry.NoMasking, at)
	masked := NewMeasurement("u1", "s1", "c1",
		audiometry.Point{Ear: audiometry.Left, Transducer: audiometry.BC, Frequency: 500, Level: 40, Masked: true}, 55, at)
	other := NewMeasurement("u1", "s2", "c2",
		audiometry.Point{Ear: audiometry.Left, Transducer: audiometry.AC, Frequency: 250, Level: 90, ScaleOut: true}, audiometry.NoMasking, at)

	for _, m := range []*Measurement{&unmasked, &masked, &other} {
		require.NoError(t, repo.Append(ctx, m))
		assert.NotZero(t, m.ID)
	}
	assert.Less(t, unmasked.Sequence, masked.Sequence)

	got, err := repo.BySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].MaskLevel)
	require.NotNil(t, got[1].MaskLevel)
	assert.Equal(t, 55, *got[1].MaskLevel)
	assert.True(t, got[1].Masked)
	assert.True(t, got[0].CreatedAt.Equal(at))
	assert.Equal(t, masked.Point(), got[1].Point())

	row := got[1].LogRow(2)
	assert.Equal(t, []string{"2", "2024-05-01T09:30:00Z", "L", "BC", "500", "40", "true", "55", "false"}, row.Record())
	assert.Equal(t, "-", got[0].LogRow(1).MaskerLevel)

	require.NoError(t, repo.DeleteAll(ctx))
	got, err = repo.BySession(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", Action: ActionStart, CaseID: "c1", Seed: 7, Profile: "OME"}))
	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", Action: ActionEnd, CaseID: "c1", Total: 24, Correct: 20, Accuracy: 83}))

	events, err := repo.QuerySessionEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionStart, events[0].Action)
	assert.Equal(t, int64(7), events[0].Seed)
	assert.Equal(t, 83, events[1].Accuracy)

	events, err = repo.QuerySessionEvents(ctx, QueryOpts{After: events[0].Sequence})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"case-narrative", "other", "case-narrative"} {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose,
			InputTokens: 10 * (i + 1), Success: i != 1, RequestBody: "[user]\nhi",
		}))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 30, all[0].InputTokens, "newest first")

	narr, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "case-narrative", Limit: 1})
	require.NoError(t, err)
	require.Len(t, narr, 1)

	ev, err := repo.GetLLMEvent(ctx, all[1].ID)
	require.NoError(t, err)
	assert.False(t, ev.Success)
	assert.Equal(t, "[user]\nhi", ev.RequestBody)

	_, err = repo.GetLLMEvent(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProgressRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	p, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, p.TotalSessions)

	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	p.Record("c1", scoring.Result{Total: 24, Correct: 24, Accuracy: 100, Complete: true}, at)
	require.NoError(t, repo.Save(ctx, "u1", p))
	p.Record("c2", scoring.Result{Total: 24, Correct: 12, Accuracy: 50}, at)
	require.NoError(t, repo.Save(ctx, "u1", p))

	got, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalSessions)
	assert.Equal(t, 1, got.CompletedCases)
	assert.Equal(t, 100, got.CaseAccuracy["c1"].Accuracy)
	assert.True(t, got.LastSessionDate.Equal(at))
}

func TestSnapshotRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	snap, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Save(ctx, &Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data: SnapshotData{
				Version:   1,
				SessionID: "s1",
				Case:      casegen.GenerateOpts{Seed: int64(i)},
				Points:    []audiometry.Point{{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 1000, Level: 5 * i}},
			},
		}))
	}

	require.NoError(t, repo.Prune(ctx, 5))
	var count int
	require.NoError(t, s.DB().Get(&count, "SELECT COUNT(*) FROM snapshots"))
	assert.Equal(t, 5, count)

	snap, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(6), snap.Data.Case.Seed)
	assert.Equal(t, 30, snap.Data.Points[0].Level)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := NewMeasurement("", "s1", "c1", audiometry.Point{Ear: audiometry.Right, Transducer: audiometry.AC, Frequency: 500, Level: 10}, 0, time.Now())
	require.NoError(t, s.MeasurementRepo().Append(ctx, &m))
	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "x", Success: true}))

	require.NoError(t, s.Reset(ctx))

	got, err := s.MeasurementRepo().BySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
