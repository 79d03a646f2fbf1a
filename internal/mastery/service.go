package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/store"
)

// Service owns mastery evaluation and the per-(user,fact) progress state
// machine: unlearned → shown → learned → mastered, with demotion back to
// unlearned after two consecutive wrong answers.
type Service struct {
	attempts store.AttemptRepo
	states   store.FactStateRepo
}

// NewService creates a mastery service over the given repositories.
func NewService(attempts store.AttemptRepo, states store.FactStateRepo) *Service {
	return &Service{attempts: attempts, states: states}
}

// IsMastered reports whether the fact is mastered for the user.
//
// Mastery is a recency-biased window, not a ratio: the most recent 7
// attempts (across all quizzed fields of the fact) must exist, the single
// newest must be correct, and at least 6 of the 7 must be correct. One
// most-recent failure always blocks mastery regardless of history.
func (s *Service) IsMastered(ctx context.Context, factID int64, userID string) (bool, error) {
	attempts, err := s.attempts.Recent(ctx, factID, userID, MasteryWindow)
	if err != nil {
		return false, fmt.Errorf("recent attempts: %w", err)
	}
	if len(attempts) < MasteryWindow {
		return false, nil
	}
	if !attempts[0].Correct {
		return false, nil
	}
	correct := 0
	for _, a := range attempts {
		if a.Correct {
			correct++
		}
	}
	return correct >= MasteryRequired, nil
}

// Status computes the derived lifecycle status of a fact for a user.
func (s *Service) Status(ctx context.Context, factID int64, userID string) (Status, error) {
	state, err := s.states.Get(ctx, factID, userID)
	if err == store.ErrNotFound {
		return StatusUnlearned, nil
	}
	if err != nil {
		return "", err
	}
	switch {
	case state.LearnedAt == nil && state.LastShownAt == nil:
		return StatusUnlearned, nil
	case state.LearnedAt == nil:
		return StatusShown, nil
	}
	mastered, err := s.IsMastered(ctx, factID, userID)
	if err != nil {
		return "", err
	}
	if mastered {
		return StatusMastered, nil
	}
	return StatusLearned, nil
}

// IsLearned reports whether learned_at is set for (fact, user).
func (s *Service) IsLearned(ctx context.Context, factID int64, userID string) (bool, error) {
	state, err := s.states.Get(ctx, factID, userID)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return state.LearnedAt != nil, nil
}

// MarkShown records that the fact was displayed to the user. Creates the
// state record lazily; never touches learned_at. Safe to re-apply.
func (s *Service) MarkShown(ctx context.Context, factID int64, userID string) error {
	state, err := s.states.GetOrCreate(ctx, factID, userID)
	if err != nil {
		return fmt.Errorf("get fact state: %w", err)
	}
	now := time.Now().UTC()
	state.LastShownAt = &now
	if err := s.states.Update(ctx, state); err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}
	return nil
}

// MarkLearned records that the user studied the fact and moved on. This
// is the only transition into learned. Safe to re-apply.
func (s *Service) MarkLearned(ctx context.Context, factID int64, userID string) error {
	state, err := s.states.GetOrCreate(ctx, factID, userID)
	if err != nil {
		return fmt.Errorf("get fact state: %w", err)
	}
	now := time.Now().UTC()
	state.LearnedAt = &now
	state.LastShownAt = &now
	if err := s.states.Update(ctx, state); err != nil {
		return fmt.Errorf("mark learned: %w", err)
	}
	return nil
}

// RecordAttempt appends to the attempt log. It deliberately does not
// touch the consecutive counters: the log stays truthful even when the
// counter update that follows it fails.
func (s *Service) RecordAttempt(ctx context.Context, factID int64, fieldName string, correct bool, userID, sessionID string) error {
	a := &store.Attempt{
		FactID:    factID,
		UserID:    userID,
		FieldName: fieldName,
		Correct:   correct,
		SessionID: sessionID,
	}
	if err := s.attempts.Append(ctx, a); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// UpdateConsecutive applies one answer to the consecutive counters and
// reports whether the fact was demoted. A correct answer bumps
// consecutive_correct and zeroes consecutive_wrong; an incorrect answer
// does the reverse, and the second consecutive wrong answer demotes:
// learned_at is cleared and both counters reset.
//
// Strictly sequential per (fact, user); the store surfaces ErrConflict on
// a lost update and the caller retries the whole transition once.
func (s *Service) UpdateConsecutive(ctx context.Context, factID int64, userID string, correct bool) (demoted bool, err error) {
	state, err := s.states.GetOrCreate(ctx, factID, userID)
	if err != nil {
		return false, fmt.Errorf("get fact state: %w", err)
	}

	if correct {
		state.ConsecutiveCorrect++
		state.ConsecutiveWrong = 0
	} else {
		state.ConsecutiveWrong++
		state.ConsecutiveCorrect = 0
		if state.ConsecutiveWrong >= DemotionThreshold {
			state.LearnedAt = nil
			state.ConsecutiveWrong = 0
			state.ConsecutiveCorrect = 0
			demoted = true
		}
	}

	if err := s.states.Update(ctx, state); err != nil {
		return false, fmt.Errorf("update consecutive: %w", err)
	}
	return demoted, nil
}

// HasTwoConsecutiveCorrect reports whether the fact's correct streak has
// reached 2, the gate for scheduling a freshly-learned fact for review.
func (s *Service) HasTwoConsecutiveCorrect(ctx context.Context, factID int64, userID string) (bool, error) {
	state, err := s.states.Get(ctx, factID, userID)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return state.ConsecutiveCorrect >= 2, nil
}

// ResetProgress deletes the user's attempts and fact states for a whole
// domain. The only sanctioned deletion from the attempt log.
func (s *Service) ResetProgress(ctx context.Context, domainID int64, userID string) error {
	if err := s.attempts.DeleteByDomain(ctx, domainID, userID); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	if err := s.states.DeleteByDomain(ctx, domainID, userID); err != nil {
		return fmt.Errorf("reset fact states: %w", err)
	}
	return nil
}

// UnlearnedFacts returns the domain's facts with no learned_at set, in
// creation order.
func (s *Service) UnlearnedFacts(ctx context.Context, facts []domain.Fact, userID string) ([]domain.Fact, error) {
	var unlearned []domain.Fact
	for _, f := range facts {
		learned, err := s.IsLearned(ctx, f.ID, userID)
		if err != nil {
			return nil, err
		}
		if !learned {
			unlearned = append(unlearned, f)
		}
	}
	return unlearned, nil
}

// LearnedFacts returns the domain's facts that are learned but not
// mastered, in creation order.
func (s *Service) LearnedFacts(ctx context.Context, facts []domain.Fact, userID string) ([]domain.Fact, error) {
	var learned []domain.Fact
	for _, f := range facts {
		ok, err := s.IsLearned(ctx, f.ID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		mastered, err := s.IsMastered(ctx, f.ID, userID)
		if err != nil {
			return nil, err
		}
		if !mastered {
			learned = append(learned, f)
		}
	}
	return learned, nil
}

// MasteredFacts returns the domain's mastered facts, in creation order.
func (s *Service) MasteredFacts(ctx context.Context, facts []domain.Fact, userID string) ([]domain.Fact, error) {
	var mastered []domain.Fact
	for _, f := range facts {
		ok, err := s.IsMastered(ctx, f.ID, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			mastered = append(mastered, f)
		}
	}
	return mastered, nil
}
