package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/session"
)

// SnapshotVersion is the current SnapshotData layout.
const SnapshotVersion = 1

// snapshotsKept bounds the snapshot table.
const snapshotsKept = 10

// Recorder persists one user's training sessions across the repos.
type Recorder struct {
	store  *Store
	userID string
}

// NewRecorder returns a Recorder writing as userID.
func NewRecorder(s *Store, userID string) *Recorder {
	return &Recorder{store: s, userID: userID}
}

// UserID returns the user the recorder writes as.
func (r *Recorder) UserID() string { return r.userID }

// Start records a session start.
func (r *Recorder) Start(ctx context.Context, sessionID string, c *casegen.Case) error {
	return r.store.EventRepo().AppendSessionEvent(ctx, SessionEventData{
		SessionID: sessionID,
		Action:    ActionStart,
		CaseID:    c.ID,
		Seed:      c.Meta.Seed,
		Profile:   string(c.Meta.Profile),
	})
}

// Measure records a plotted point.
func (r *Recorder) Measure(ctx context.Context, sessionID, caseID string, p audiometry.Point, masker int, at time.Time) error {
	m := NewMeasurement(r.userID, sessionID, caseID, p, masker, at)
	return r.store.MeasurementRepo().Append(ctx, &m)
}

// Checkpoint saves an in-progress session so it can be resumed. A session
// that already has an end event is not checkpointed.
func (r *Recorder) Checkpoint(ctx context.Context, sessionID string, opts casegen.GenerateOpts, n casegen.Narrative, s session.Session) error {
	ended, err := r.store.EventRepo().SessionEnded(ctx, sessionID)
	if err != nil {
		return err
	}
	if ended {
		return nil
	}
	snap := &Snapshot{Data: SnapshotData{
		Version:   SnapshotVersion,
		SessionID: sessionID,
		Case:      opts,
		Narrative: &n,
		Stimulus:  s.Stimulus(),
		Points:    s.Points(),
		Log:       s.Log(),
	}}
	repo := r.store.SnapshotRepo()
	if err := repo.Save(ctx, snap); err != nil {
		return err
	}
	return repo.Prune(ctx, snapshotsKept)
}

// Finish records the session end and folds the score into the user's
// progress.
func (r *Recorder) Finish(ctx context.Context, sessionID string, c *casegen.Case, res scoring.Result, elapsed time.Duration, at time.Time) error {
	if err := r.store.EventRepo().AppendSessionEvent(ctx, SessionEventData{
		SessionID:    sessionID,
		Action:       ActionEnd,
		CaseID:       c.ID,
		Seed:         c.Meta.Seed,
		Profile:      string(c.Meta.Profile),
		Total:        res.Total,
		Correct:      res.Correct,
		Accuracy:     res.Accuracy,
		DurationSecs: int(elapsed.Seconds()),
	}); err != nil {
		return err
	}

	repo := r.store.ProgressRepo()
	p, err := repo.Load(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	p.Record(c.ID, res, at)
	if err := repo.Save(ctx, r.userID, p); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return r.store.SnapshotRepo().DeleteSession(ctx, sessionID)
}

// Progress loads the user's progress.
func (r *Recorder) Progress(ctx context.Context) (*session.Progress, error) {
	return r.store.ProgressRepo().Load(ctx, r.userID)
}

// Resumed is a session rebuilt from its last checkpoint.
type Resumed struct {
	SessionID string
	Opts      casegen.GenerateOpts
	Case      *casegen.Case
	Session   session.Session
}

// Resume rebuilds the most recent unfinished checkpointed session on top
// of base, which supplies the response engine. The case is regenerated
// from its options and keeps the narrative it was played with. It returns ErrNotFound when there is
// nothing to resume.
func (r *Recorder) Resume(ctx context.Context, base session.Session) (*Resumed, error) {
	snap, err := r.store.SnapshotRepo().Latest(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil || snap.Data.Version != SnapshotVersion {
		return nil, ErrNotFound
	}
	c, err := casegen.Generate(snap.Data.Case)
	if err != nil {
		return nil, fmt.Errorf("regenerate case: %w", err)
	}
	if n := snap.Data.Narrative; n != nil {
		c.Narrative = *n
	}
	return &Resumed{
		SessionID: snap.Data.SessionID,
		Opts:      snap.Data.Case,
		Case:      c,
		Session:   base.LoadCase(c).Restore(snap.Data.Stimulus, snap.Data.Points, snap.Data.Log),
	}, nil
}
