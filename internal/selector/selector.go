package selector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/store"
)

// ReinforceInterval is the question cadence at which a mastered fact is
// re-quizzed to keep it fresh. Every ReinforceInterval-th question
// prefers a random mastered fact over the normal learning set.
const ReinforceInterval = 10

// Selector picks which fact to present or quiz next for a user, based on
// the learning state of all facts in a domain.
type Selector struct {
	mastery  *mastery.Service
	attempts store.AttemptRepo
	states   store.FactStateRepo
}

// New creates a selector over the mastery service and repositories.
func New(m *mastery.Service, attempts store.AttemptRepo, states store.FactStateRepo) *Selector {
	return &Selector{mastery: m, attempts: attempts, states: states}
}

// SelectNext picks the next fact to quiz, or nil when the caller must
// show a fact instead of quizzing.
//
// Priority order:
//  1. Any unlearned fact in the domain → nil (show first, never quiz).
//  2. Every ReinforceInterval-th question → a uniformly random mastered
//     fact, if one exists.
//  3. Otherwise → uniform random among learned-not-mastered facts with
//     the minimum total attempt count.
//
// Returns nil when nothing is quizzable (everything mastered or unlearned).
func (s *Selector) SelectNext(ctx context.Context, facts []domain.Fact, questionCount int, userID string) (*domain.Fact, error) {
	unlearned, err := s.mastery.UnlearnedFacts(ctx, facts, userID)
	if err != nil {
		return nil, fmt.Errorf("unlearned facts: %w", err)
	}
	if len(unlearned) > 0 {
		return nil, nil
	}

	if questionCount > 0 && questionCount%ReinforceInterval == 0 {
		mastered, err := s.mastery.MasteredFacts(ctx, facts, userID)
		if err != nil {
			return nil, fmt.Errorf("mastered facts: %w", err)
		}
		if len(mastered) > 0 {
			pick := mastered[rand.IntN(len(mastered))]
			return &pick, nil
		}
	}

	learned, err := s.mastery.LearnedFacts(ctx, facts, userID)
	if err != nil {
		return nil, fmt.Errorf("learned facts: %w", err)
	}
	if len(learned) == 0 {
		return nil, nil
	}

	// Least-practiced tie-break equalizes practice across the learning set.
	minAttempts := -1
	counts := make([]int, len(learned))
	for i, f := range learned {
		n, err := s.attempts.Count(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("attempt count: %w", err)
		}
		counts[i] = n
		if minAttempts < 0 || n < minAttempts {
			minAttempts = n
		}
	}
	var leastPracticed []domain.Fact
	for i, f := range learned {
		if counts[i] == minAttempts {
			leastPracticed = append(leastPracticed, f)
		}
	}
	pick := leastPracticed[rand.IntN(len(leastPracticed))]
	return &pick, nil
}

// NextUnlearned picks the unlearned fact to display next, or nil when
// every fact is learned.
//
// An out-of-order gap (an unlearned fact preceding an already-learned
// fact in creation order, typically left behind by an interrupted
// session) is repaired first; otherwise the least-recently-shown
// unlearned fact wins, never-shown facts first.
func (s *Selector) NextUnlearned(ctx context.Context, facts []domain.Fact, userID string) (*domain.Fact, error) {
	unlearned, err := s.mastery.UnlearnedFacts(ctx, facts, userID)
	if err != nil {
		return nil, fmt.Errorf("unlearned facts: %w", err)
	}
	if len(unlearned) == 0 {
		return nil, nil
	}

	if gap, err := s.outOfOrderFact(ctx, facts, unlearned, userID); err != nil {
		return nil, err
	} else if gap != nil {
		return gap, nil
	}

	var best *domain.Fact
	var bestShown time.Time // zero sorts first: never shown
	for i := range unlearned {
		f := &unlearned[i]
		shown := time.Time{}
		state, err := s.states.Get(ctx, f.ID, userID)
		if err != nil && err != store.ErrNotFound {
			return nil, fmt.Errorf("fact state: %w", err)
		}
		if state != nil && state.LastShownAt != nil {
			shown = *state.LastShownAt
		}
		if best == nil || shown.Before(bestShown) {
			best = f
			bestShown = shown
		}
	}
	return best, nil
}

// outOfOrderFact returns the earliest unlearned fact that precedes a
// learned fact in creation order, or nil when there is no gap.
func (s *Selector) outOfOrderFact(ctx context.Context, facts []domain.Fact, unlearned []domain.Fact, userID string) (*domain.Fact, error) {
	if len(unlearned) == len(facts) {
		return nil, nil // nothing learned yet, no gap possible
	}

	unlearnedSet := make(map[int64]bool, len(unlearned))
	for _, f := range unlearned {
		unlearnedSet[f.ID] = true
	}

	// Find the last learned fact by creation order; any unlearned fact
	// before it is a gap.
	lastLearned := -1
	for i, f := range facts {
		if !unlearnedSet[f.ID] {
			lastLearned = i
		}
	}
	for i := 0; i < lastLearned; i++ {
		if unlearnedSet[facts[i].ID] {
			gap := facts[i]
			return &gap, nil
		}
	}
	return nil, nil
}

// LeastRecentlyAttempted picks the fact whose newest attempt is oldest
// across the whole domain, ignoring mastery. Review-mastered mode uses
// this once a domain is fully mastered, to keep long-term retention
// exercised. Returns nil only for an empty domain.
func (s *Selector) LeastRecentlyAttempted(ctx context.Context, facts []domain.Fact, userID string) (*domain.Fact, error) {
	var best *domain.Fact
	var bestTime time.Time
	for i := range facts {
		f := &facts[i]
		t, err := s.attempts.LatestTime(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("latest attempt time: %w", err)
		}
		if best == nil || t.Before(bestTime) {
			best = f
			bestTime = t
		}
	}
	return best, nil
}
