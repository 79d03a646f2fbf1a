package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type streakRepo struct {
	db *sqlx.DB
}

type streakRow struct {
	UserID           string `db:"user_id"`
	CurrentStreak    int    `db:"current_streak"`
	LongestStreak    int    `db:"longest_streak"`
	LastPracticeDate string `db:"last_practice_date"`
}

func (r *streakRepo) Get(ctx context.Context, userID string) (*StreakState, error) {
	var row streakRow
	err := r.db.GetContext(ctx, &row,
		`SELECT user_id, current_streak, longest_streak, last_practice_date
		 FROM streaks WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &StreakState{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query streak: %w", err)
	}
	return &StreakState{
		UserID:           row.UserID,
		CurrentStreak:    row.CurrentStreak,
		LongestStreak:    row.LongestStreak,
		LastPracticeDate: row.LastPracticeDate,
	}, nil
}

func (r *streakRepo) Upsert(ctx context.Context, s *StreakState) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO streaks (user_id, current_streak, longest_streak, last_practice_date)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_practice_date = excluded.last_practice_date`,
		s.UserID, s.CurrentStreak, s.LongestStreak, s.LastPracticeDate)
	if err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}
