package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type snapshotRepo struct {
	db *sqlx.DB
}

type snapshotRow struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	Timestamp time.Time `db:"timestamp"`
	Data      string    `db:"data"`
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	b, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO snapshots (session_id, timestamp, data) VALUES (?, ?, ?)`,
		snap.Data.SessionID, snap.Timestamp.UTC(), string(b))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	snap.ID, _ = res.LastInsertId()
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM snapshots
		WHERE session_id NOT IN (SELECT session_id FROM session_events WHERE action = ?)
		ORDER BY timestamp DESC, id DESC LIMIT 1`, ActionEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap := &Snapshot{ID: row.ID, Timestamp: row.Timestamp}
	if err := json.Unmarshal([]byte(row.Data), &snap.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id NOT IN (
		SELECT id FROM snapshots ORDER BY timestamp DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepo) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshots of %s: %w", sessionID, err)
	}
	return nil
}
