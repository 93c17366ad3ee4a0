package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/audiotrainer/internal/session"
)

type progressRepo struct {
	db *sqlx.DB
}

func (r *progressRepo) Load(ctx context.Context, userID string) (*session.Progress, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, `SELECT data FROM progress WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return session.NewProgress(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	p := session.NewProgress()
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return p, nil
}

func (r *progressRepo) Save(ctx context.Context, userID string, p *session.Progress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO progress (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(b), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
