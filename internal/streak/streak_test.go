package streak

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/factdrill/factdrill/internal/store"
)

const testUser = "alice"

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name        string
		state       store.StreakState
		now         time.Time
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "first ever practice",
			state:       store.StreakState{UserID: testUser},
			now:         day("2026-08-25"),
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "consecutive day extends",
			state:       store.StreakState{UserID: testUser, CurrentStreak: 3, LongestStreak: 5, LastPracticeDate: "2026-08-24"},
			now:         day("2026-08-25"),
			wantCurrent: 4,
			wantLongest: 5,
		},
		{
			name:        "new longest",
			state:       store.StreakState{UserID: testUser, CurrentStreak: 5, LongestStreak: 5, LastPracticeDate: "2026-08-24"},
			now:         day("2026-08-25"),
			wantCurrent: 6,
			wantLongest: 6,
		},
		{
			name:        "gap resets to one",
			state:       store.StreakState{UserID: testUser, CurrentStreak: 9, LongestStreak: 9, LastPracticeDate: "2026-08-20"},
			now:         day("2026-08-25"),
			wantCurrent: 1,
			wantLongest: 9,
		},
		{
			name:        "same day is a no-op",
			state:       store.StreakState{UserID: testUser, CurrentStreak: 2, LongestStreak: 4, LastPracticeDate: "2026-08-25"},
			now:         day("2026-08-25"),
			wantCurrent: 2,
			wantLongest: 4,
		},
		{
			name:        "month boundary counts as consecutive",
			state:       store.StreakState{UserID: testUser, CurrentStreak: 1, LongestStreak: 1, LastPracticeDate: "2026-07-31"},
			now:         day("2026-08-01"),
			wantCurrent: 2,
			wantLongest: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.state, tt.now)
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
			if got.LastPracticeDate != tt.now.Format(DateLayout) {
				t.Errorf("LastPracticeDate = %q, want %q", got.LastPracticeDate, tt.now.Format(DateLayout))
			}
		})
	}
}

func TestAtRisk(t *testing.T) {
	now := day("2026-08-25")
	tests := []struct {
		name  string
		state store.StreakState
		want  bool
	}{
		{"never practiced", store.StreakState{}, false},
		{"practiced today", store.StreakState{CurrentStreak: 3, LastPracticeDate: "2026-08-25"}, false},
		{"practiced yesterday", store.StreakState{CurrentStreak: 3, LastPracticeDate: "2026-08-24"}, true},
		{"already lapsed", store.StreakState{CurrentStreak: 3, LastPracticeDate: "2026-08-22"}, false},
		{"zero streak", store.StreakState{LastPracticeDate: "2026-08-24"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AtRisk(tt.state, now); got != tt.want {
				t.Errorf("AtRisk(%+v) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestTrackerUpdateIdempotentPerDay(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	tr := NewTracker(st.Streaks())
	current := day("2026-08-25")
	tr.now = func() time.Time { return current }

	// Many updates on the same day count once.
	for i := 0; i < 3; i++ {
		if err := tr.Update(ctx, testUser); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	info, err := tr.Info(ctx, testUser)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", info.CurrentStreak)
	}

	current = day("2026-08-26")
	if err := tr.Update(ctx, testUser); err != nil {
		t.Fatalf("Update: %v", err)
	}
	info, err = tr.Info(ctx, testUser)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.CurrentStreak != 2 || info.LongestStreak != 2 {
		t.Errorf("streak = %d/%d, want 2/2", info.CurrentStreak, info.LongestStreak)
	}

	atRisk, err := tr.AtRiskNow(ctx, testUser)
	if err != nil {
		t.Fatalf("AtRiskNow: %v", err)
	}
	if atRisk {
		t.Error("AtRiskNow right after practicing = true, want false")
	}
}
