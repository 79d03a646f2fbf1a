// Package doomloop detects a frustration pattern in a session's recent
// answers and picks an easier, well-performing fact to recover on.
package doomloop

import (
	"context"
	"fmt"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/store"
)

const (
	// WindowSize is how many recent answers the trigger inspects.
	WindowSize = 4

	// TriggerThreshold is the wrong-answer count within the window that
	// activates doom-loop mode.
	TriggerThreshold = 3

	// RecoveryQuestions is how many quiz questions are forced on a
	// recovery fact after it is re-shown.
	RecoveryQuestions = 2

	// ExitStreak is the session-scoped consecutive-correct count that
	// clears doom-loop mode.
	ExitStreak = 3
)

// Result is one entry of the session's rolling answer window.
type Result struct {
	FactID  int64
	Correct bool
}

// CheckTrigger reports whether the recent answers warrant entering
// doom-loop mode: at least TriggerThreshold of the last WindowSize
// answers wrong. Fewer than WindowSize entries never trigger.
func CheckTrigger(recent []Result) bool {
	if len(recent) < WindowSize {
		return false
	}
	wrong := 0
	for _, r := range recent[len(recent)-WindowSize:] {
		if !r.Correct {
			wrong++
		}
	}
	return wrong >= TriggerThreshold
}

// Monitor selects recovery facts for an active doom loop.
type Monitor struct {
	mastery  *mastery.Service
	attempts store.AttemptRepo
}

// NewMonitor creates a monitor over the mastery service and attempt log.
func NewMonitor(m *mastery.Service, attempts store.AttemptRepo) *Monitor {
	return &Monitor{mastery: m, attempts: attempts}
}

// SelectRecoveryFact picks the fact to rebuild confidence on: a learned,
// not-mastered fact outside the excluded set (recent failures) with the
// highest historical success rate; facts with no attempts score a
// neutral 0.5. If every candidate is excluded, any non-mastered learned
// fact serves; if all learned facts are mastered, the first learned fact
// does. Returns nil only when the user has no learned facts at all.
func (m *Monitor) SelectRecoveryFact(ctx context.Context, facts []domain.Fact, excluded []int64, userID string) (*domain.Fact, error) {
	learned, err := m.learnedFacts(ctx, facts, userID)
	if err != nil {
		return nil, err
	}
	if len(learned) == 0 {
		return nil, nil
	}

	excludedSet := make(map[int64]bool, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = true
	}

	var candidates []domain.Fact
	for _, f := range learned {
		if excludedSet[f.ID] {
			continue
		}
		mastered, err := m.mastery.IsMastered(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("mastery status: %w", err)
		}
		if mastered {
			continue
		}
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		// Every learned fact was part of the doom loop. Ignore the
		// exclusion list rather than give up.
		for _, f := range learned {
			mastered, err := m.mastery.IsMastered(ctx, f.ID, userID)
			if err != nil {
				return nil, fmt.Errorf("mastery status: %w", err)
			}
			if !mastered {
				pick := f
				return &pick, nil
			}
		}
		pick := learned[0]
		return &pick, nil
	}

	best := -1
	bestRate := -1.0
	for i, f := range candidates {
		rate, total, err := m.attempts.SuccessRate(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("success rate: %w", err)
		}
		if total == 0 {
			rate = 0.5
		}
		// Ties keep the earlier candidate (selection order).
		if rate > bestRate {
			best = i
			bestRate = rate
		}
	}
	pick := candidates[best]
	return &pick, nil
}

// learnedFacts returns all facts with learned_at set, including mastered
// ones; the recovery fallback chain needs the full list.
func (m *Monitor) learnedFacts(ctx context.Context, facts []domain.Fact, userID string) ([]domain.Fact, error) {
	var learned []domain.Fact
	for _, f := range facts {
		ok, err := m.mastery.IsLearned(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("learned status: %w", err)
		}
		if ok {
			learned = append(learned, f)
		}
	}
	return learned, nil
}
