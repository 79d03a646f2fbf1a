package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type factStateRepo struct {
	db *sqlx.DB
}

type factStateRow struct {
	FactID             int64         `db:"fact_id"`
	UserID             string        `db:"user_id"`
	LearnedAt          sql.NullInt64 `db:"learned_at"`
	LastShownAt        sql.NullInt64 `db:"last_shown_at"`
	ConsecutiveCorrect int           `db:"consecutive_correct"`
	ConsecutiveWrong   int           `db:"consecutive_wrong"`
	Version            int64         `db:"version"`
}

func (r factStateRow) toState() *FactState {
	s := &FactState{
		FactID:             r.FactID,
		UserID:             r.UserID,
		ConsecutiveCorrect: r.ConsecutiveCorrect,
		ConsecutiveWrong:   r.ConsecutiveWrong,
		Version:            r.Version,
	}
	if r.LearnedAt.Valid {
		t := time.Unix(r.LearnedAt.Int64, 0).UTC()
		s.LearnedAt = &t
	}
	if r.LastShownAt.Valid {
		t := time.Unix(r.LastShownAt.Int64, 0).UTC()
		s.LastShownAt = &t
	}
	return s
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func (r *factStateRepo) Get(ctx context.Context, factID int64, userID string) (*FactState, error) {
	var row factStateRow
	err := r.db.GetContext(ctx, &row,
		`SELECT fact_id, user_id, learned_at, last_shown_at,
		        consecutive_correct, consecutive_wrong, version
		 FROM fact_states WHERE fact_id = ? AND user_id = ?`,
		factID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query fact state: %w", err)
	}
	return row.toState(), nil
}

func (r *factStateRepo) GetOrCreate(ctx context.Context, factID int64, userID string) (*FactState, error) {
	s, err := r.Get(ctx, factID, userID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Lazy creation on first shown/learned/attempt event. INSERT OR IGNORE
	// keeps concurrent first-touch races harmless.
	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fact_states (fact_id, user_id) VALUES (?, ?)`,
		factID, userID)
	if err != nil {
		return nil, fmt.Errorf("create fact state: %w", err)
	}
	return r.Get(ctx, factID, userID)
}

func (r *factStateRepo) Update(ctx context.Context, s *FactState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fact_states
		 SET learned_at = ?, last_shown_at = ?,
		     consecutive_correct = ?, consecutive_wrong = ?,
		     version = version + 1
		 WHERE fact_id = ? AND user_id = ? AND version = ?`,
		nullUnix(s.LearnedAt), nullUnix(s.LastShownAt),
		s.ConsecutiveCorrect, s.ConsecutiveWrong,
		s.FactID, s.UserID, s.Version)
	if err != nil {
		return fmt.Errorf("update fact state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fact state rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("fact state %d/%s: %w", s.FactID, s.UserID, ErrConflict)
	}
	s.Version++
	return nil
}

func (r *factStateRepo) DeleteByDomain(ctx context.Context, domainID int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM fact_states
		 WHERE user_id = ? AND fact_id IN (SELECT id FROM facts WHERE domain_id = ?)`,
		userID, domainID)
	if err != nil {
		return fmt.Errorf("delete fact states: %w", err)
	}
	return nil
}
