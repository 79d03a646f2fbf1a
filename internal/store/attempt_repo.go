package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type attemptRepo struct {
	db *sqlx.DB
}

type attemptRow struct {
	ID        int64  `db:"id"`
	FactID    int64  `db:"fact_id"`
	UserID    string `db:"user_id"`
	FieldName string `db:"field_name"`
	Correct   bool   `db:"correct"`
	Timestamp int64  `db:"timestamp"`
	SessionID string `db:"session_id"`
}

func (r attemptRow) toAttempt() Attempt {
	return Attempt{
		ID:        r.ID,
		FactID:    r.FactID,
		UserID:    r.UserID,
		FieldName: r.FieldName,
		Correct:   r.Correct,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		SessionID: r.SessionID,
	}
}

func (r *attemptRepo) Append(ctx context.Context, a *Attempt) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO attempts (fact_id, user_id, field_name, correct, timestamp, session_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.FactID, a.UserID, a.FieldName, a.Correct, a.Timestamp.Unix(), a.SessionID)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append attempt id: %w", err)
	}
	a.ID = id
	return nil
}

func (r *attemptRepo) Recent(ctx context.Context, factID int64, userID string, limit int) ([]Attempt, error) {
	var rows []attemptRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, fact_id, user_id, field_name, correct, timestamp, session_id
		 FROM attempts
		 WHERE fact_id = ? AND user_id = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		factID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent attempts: %w", err)
	}
	attempts := make([]Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toAttempt())
	}
	return attempts, nil
}

func (r *attemptRepo) Count(ctx context.Context, factID int64, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM attempts WHERE fact_id = ? AND user_id = ?`,
		factID, userID)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (r *attemptRepo) CountSince(ctx context.Context, userID string, t time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM attempts WHERE user_id = ? AND timestamp >= ?`,
		userID, t.Unix())
	if err != nil {
		return 0, fmt.Errorf("count attempts since: %w", err)
	}
	return n, nil
}

func (r *attemptRepo) LatestTime(ctx context.Context, factID int64, userID string) (time.Time, error) {
	var ts int64
	err := r.db.GetContext(ctx, &ts,
		`SELECT COALESCE(MAX(timestamp), 0) FROM attempts WHERE fact_id = ? AND user_id = ?`,
		factID, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest attempt time: %w", err)
	}
	if ts == 0 {
		return time.Time{}, nil
	}
	return time.Unix(ts, 0).UTC(), nil
}

func (r *attemptRepo) SuccessRate(ctx context.Context, factID int64, userID string) (float64, int, error) {
	var row struct {
		Total   int `db:"total"`
		Correct int `db:"correct"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT COUNT(*) AS total, COALESCE(SUM(correct), 0) AS correct
		 FROM attempts WHERE fact_id = ? AND user_id = ?`,
		factID, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("query success rate: %w", err)
	}
	if row.Total == 0 {
		return 0, 0, nil
	}
	return float64(row.Correct) / float64(row.Total), row.Total, nil
}

func (r *attemptRepo) TimeBounds(ctx context.Context, domainID int64, userID string) (time.Time, time.Time, int, error) {
	var row struct {
		First int64 `db:"first"`
		Last  int64 `db:"last"`
		Total int   `db:"total"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT COALESCE(MIN(a.timestamp), 0) AS first,
		        COALESCE(MAX(a.timestamp), 0) AS last,
		        COUNT(*) AS total
		 FROM attempts a
		 JOIN facts f ON f.id = a.fact_id
		 WHERE f.domain_id = ? AND a.user_id = ?`,
		domainID, userID)
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("query attempt time bounds: %w", err)
	}
	if row.Total == 0 {
		return time.Time{}, time.Time{}, 0, nil
	}
	return time.Unix(row.First, 0).UTC(), time.Unix(row.Last, 0).UTC(), row.Total, nil
}

func (r *attemptRepo) DistinctSessionCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(DISTINCT session_id) FROM attempts
		 WHERE user_id = ? AND session_id != ''`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (r *attemptRepo) DeleteByDomain(ctx context.Context, domainID int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM attempts
		 WHERE user_id = ? AND fact_id IN (SELECT id FROM facts WHERE domain_id = ?)`,
		userID, domainID)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}
