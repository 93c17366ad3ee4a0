package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type eventRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	ev := SessionEvent{Sequence: seq, Timestamp: time.Now().UTC(), SessionEventData: data}
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO session_events
		(sequence, timestamp, session_id, action, case_id, seed, profile, total, correct, accuracy, duration_secs)
		VALUES (:sequence, :timestamp, :session_id, :action, :case_id, :seed, :profile, :total, :correct, :accuracy, :duration_secs)`, ev)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error) {
	q, args := buildEventQuery("session_events", opts, "ASC")
	var out []SessionEvent
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) SessionEnded(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM session_events WHERE session_id = ? AND action = ?`, sessionID, ActionEnd)
	if err != nil {
		return false, fmt.Errorf("query session end: %w", err)
	}
	return n > 0, nil
}

// buildEventQuery renders a filtered SELECT over an event table.
func buildEventQuery(table string, opts QueryOpts, order string) (string, []any) {
	q := "SELECT * FROM " + table + " WHERE 1=1"
	var args []any
	if opts.After > 0 {
		q += " AND sequence > ?"
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		q += " AND sequence < ?"
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		q += " AND timestamp >= ?"
		args = append(args, opts.From.UTC())
	}
	if !opts.To.IsZero() {
		q += " AND timestamp <= ?"
		args = append(args, opts.To.UTC())
	}
	if opts.Purpose != "" && table == "llm_request_events" {
		q += " AND purpose = ?"
		args = append(args, opts.Purpose)
	}
	q += " ORDER BY sequence " + order
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	return q, args
}
