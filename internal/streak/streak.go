// Package streak tracks daily practice engagement, one counter per user,
// idempotent per calendar day.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/factdrill/factdrill/internal/store"
)

// DateLayout is the calendar-day format stored for last_practice_date.
const DateLayout = "2006-01-02"

// Tracker updates per-user streak state.
type Tracker struct {
	streaks store.StreakRepo

	// now is swappable for tests.
	now func() time.Time
}

// NewTracker creates a tracker over the streak repository.
func NewTracker(streaks store.StreakRepo) *Tracker {
	return &Tracker{streaks: streaks, now: time.Now}
}

// Update advances the user's streak for today's practice. Calling it
// again on the same calendar day is a no-op; practicing on consecutive
// days extends the streak; any gap resets it to 1.
func (t *Tracker) Update(ctx context.Context, userID string) error {
	state, err := t.streaks.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("get streak: %w", err)
	}

	today := t.now().UTC().Format(DateLayout)
	if state.LastPracticeDate == today {
		return nil
	}

	next := Advance(*state, t.now().UTC())
	if err := t.streaks.Upsert(ctx, &next); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// Info returns the user's current streak state.
func (t *Tracker) Info(ctx context.Context, userID string) (*store.StreakState, error) {
	return t.streaks.Get(ctx, userID)
}

// AtRiskNow reports whether the user's streak is at risk as of now.
func (t *Tracker) AtRiskNow(ctx context.Context, userID string) (bool, error) {
	state, err := t.streaks.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get streak: %w", err)
	}
	return AtRisk(*state, t.now().UTC()), nil
}

// Advance computes the streak state after practicing on day now. Pure;
// callers guard the same-day no-op.
func Advance(state store.StreakState, now time.Time) store.StreakState {
	today := now.Format(DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)

	switch state.LastPracticeDate {
	case today:
		return state
	case yesterday:
		state.CurrentStreak++
		if state.CurrentStreak > state.LongestStreak {
			state.LongestStreak = state.CurrentStreak
		}
	default:
		// Gap of two or more days, or first-ever practice.
		state.CurrentStreak = 1
		if state.LongestStreak < 1 {
			state.LongestStreak = 1
		}
	}
	state.LastPracticeDate = today
	return state
}

// AtRisk reports whether the streak will break without practice today:
// the user practiced yesterday but not yet today.
func AtRisk(state store.StreakState, now time.Time) bool {
	if state.LastPracticeDate == "" || state.CurrentStreak == 0 {
		return false
	}
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
	return state.LastPracticeDate == yesterday
}
