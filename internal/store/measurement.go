package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type measurementRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *measurementRepo) Append(ctx context.Context, m *Measurement) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	m.Sequence = seq

	res, err := r.db.NamedExecContext(ctx, `INSERT INTO measurements
		(sequence, user_id, session_id, case_id, ear, transducer, freq, db, masked, mask_level, so, created_at)
		VALUES (:sequence, :user_id, :session_id, :case_id, :ear, :transducer, :freq, :db, :masked, :mask_level, :so, :created_at)`, m)
	if err != nil {
		return fmt.Errorf("save measurement: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("measurement id: %w", err)
	}
	return nil
}

func (r *measurementRepo) BySession(ctx context.Context, sessionID string) ([]Measurement, error) {
	var out []Measurement
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM measurements WHERE session_id = ? ORDER BY sequence`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	return out, nil
}

func (r *measurementRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		return fmt.Errorf("delete measurements: %w", err)
	}
	return nil
}
