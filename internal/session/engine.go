package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/doomloop"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/question"
	"github.com/factdrill/factdrill/internal/selector"
	"github.com/factdrill/factdrill/internal/store"
	"github.com/factdrill/factdrill/internal/streak"
)

// ErrNoQuestion indicates HandleAnswer was called with no question
// outstanding.
var ErrNoQuestion = errors.New("no active question")

// StepKind tells the caller what to present next.
type StepKind int

const (
	// StepShowFact presents a fact card for study.
	StepShowFact StepKind = iota
	// StepAsk presents a multiple-choice question.
	StepAsk
	// StepDone ends the session: every fact is mastered.
	StepDone
)

// Step is the engine's directive for what the caller renders next.
type Step struct {
	Kind     StepKind
	Fact     *domain.Fact
	Question *question.Question

	// Recovery marks a fact card shown to rebuild confidence during an
	// active doom loop. The caller continues without re-marking it
	// learned.
	Recovery bool
}

// Outcome reports the result of one answered question.
type Outcome struct {
	Correct       bool
	CorrectAnswer string

	// Demoted is set when this answer was the second consecutive wrong
	// one and the fact dropped back to unlearned.
	Demoted bool

	// ReviewScheduled is set when the answer completed a freshly-learned
	// fact and queued an older fact for a spacing review.
	ReviewScheduled bool

	// ShowFact is non-nil when the fact should be re-shown before the
	// next question; HighlightField names the field that was missed.
	ShowFact       *domain.Fact
	HighlightField string
}

// Engine drives the show/quiz loop. All methods take the session State
// by value and return the updated copy.
type Engine struct {
	mastery  *mastery.Service
	selector *selector.Selector
	monitor  *doomloop.Monitor
	streaks  *streak.Tracker
	domains  store.DomainRepo
}

// NewEngine wires the engine over its collaborating services.
func NewEngine(m *mastery.Service, sel *selector.Selector, mon *doomloop.Monitor, tr *streak.Tracker, domains store.DomainRepo) *Engine {
	return &Engine{mastery: m, selector: sel, monitor: mon, streaks: tr, domains: domains}
}

// NextStep decides what the session presents next.
//
// Order of precedence:
//  1. Active doom loop: forced questions on the recovery fact, or the
//     re-show of a freshly selected recovery fact.
//  2. A freshly-learned fact that has not yet earned two consecutive
//     correct answers.
//  3. A scheduled spacing review of an earlier fact.
//  4. Normal selection (reinforcement cadence, least-practiced).
//  5. The next unlearned fact, shown for study.
//  6. Done, unless review-mastered mode keeps cycling old facts.
func (e *Engine) NextStep(ctx context.Context, st State) (State, *Step, error) {
	d, err := e.domains.GetDomain(ctx, st.DomainID)
	if err != nil {
		return st, nil, fmt.Errorf("get domain: %w", err)
	}
	facts, err := e.domains.ListFacts(ctx, st.DomainID)
	if err != nil {
		return st, nil, fmt.Errorf("list facts: %w", err)
	}
	if len(facts) == 0 {
		return st, &Step{Kind: StepDone}, nil
	}

	if st.DoomLoopActive {
		if st.RecoveryFactID != 0 && st.RecoveryQuestionsLeft > 0 {
			f, err := e.domains.GetFact(ctx, st.RecoveryFactID)
			if err != nil {
				return st, nil, fmt.Errorf("get recovery fact: %w", err)
			}
			st.RecoveryQuestionsLeft--
			return e.ask(st, f, facts, d)
		}

		// Recovery fact unset, or its forced questions ran out without
		// the exit streak: pick a new one, skipping recent failures.
		st.RecoveryFactID = 0
		var excluded []int64
		for _, r := range st.Recent {
			if !r.Correct {
				excluded = append(excluded, r.FactID)
			}
		}
		f, err := e.monitor.SelectRecoveryFact(ctx, facts, excluded, st.UserID)
		if err != nil {
			return st, nil, fmt.Errorf("select recovery fact: %w", err)
		}
		if f != nil {
			if err := e.mastery.MarkShown(ctx, f.ID, st.UserID); err != nil {
				return st, nil, err
			}
			st.RecoveryFactID = f.ID
			st.RecoveryQuestionsLeft = doomloop.RecoveryQuestions
			return st, &Step{Kind: StepShowFact, Fact: f, Recovery: true}, nil
		}
		// Nothing learned to recover on.
		st.DoomLoopActive = false
	}

	if st.PendingQuizFactID != 0 {
		done, err := e.mastery.HasTwoConsecutiveCorrect(ctx, st.PendingQuizFactID, st.UserID)
		if err != nil {
			return st, nil, err
		}
		if !done {
			f, err := e.domains.GetFact(ctx, st.PendingQuizFactID)
			if err != nil {
				return st, nil, fmt.Errorf("get pending fact: %w", err)
			}
			return e.ask(st, f, facts, d)
		}
		st.PendingQuizFactID = 0
	}

	if st.PendingReviewFactID != 0 {
		f, err := e.domains.GetFact(ctx, st.PendingReviewFactID)
		if err != nil {
			return st, nil, fmt.Errorf("get review fact: %w", err)
		}
		return e.ask(st, f, facts, d)
	}

	f, err := e.selector.SelectNext(ctx, facts, st.QuestionCount, st.UserID)
	if err != nil {
		return st, nil, fmt.Errorf("select next: %w", err)
	}
	if f != nil {
		return e.ask(st, f, facts, d)
	}

	u, err := e.selector.NextUnlearned(ctx, facts, st.UserID)
	if err != nil {
		return st, nil, fmt.Errorf("next unlearned: %w", err)
	}
	if u != nil {
		if err := e.mastery.MarkShown(ctx, u.ID, st.UserID); err != nil {
			return st, nil, err
		}
		return st, &Step{Kind: StepShowFact, Fact: u}, nil
	}

	if st.ReviewMastered {
		f, err := e.selector.LeastRecentlyAttempted(ctx, facts, st.UserID)
		if err != nil {
			return st, nil, fmt.Errorf("least recently attempted: %w", err)
		}
		if f != nil {
			return e.ask(st, f, facts, d)
		}
	}
	return st, &Step{Kind: StepDone}, nil
}

// MarkLearned records that the user studied the shown fact and moved
// on. The fact becomes the pending quiz target until it earns two
// consecutive correct answers.
func (e *Engine) MarkLearned(ctx context.Context, st State, factID int64) (State, error) {
	if err := e.mastery.MarkLearned(ctx, factID, st.UserID); err != nil {
		return st, err
	}
	st.PendingQuizFactID = factID
	return st, nil
}

// HandleAnswer applies one answer: log the attempt, update the rolling
// window and doom-loop mode, advance the consecutive counters (retrying
// once on a lost update), bump the daily streak, and decide whether the
// fact must be re-shown.
func (e *Engine) HandleAnswer(ctx context.Context, st State, selectedIndex int) (State, *Outcome, error) {
	q := st.Current
	if q == nil {
		return st, nil, ErrNoQuestion
	}
	if selectedIndex < 0 || selectedIndex >= len(q.Options) {
		return st, nil, fmt.Errorf("%w: option %d out of range", domain.ErrValidation, selectedIndex+1)
	}

	facts, err := e.domains.ListFacts(ctx, st.DomainID)
	if err != nil {
		return st, nil, fmt.Errorf("list facts: %w", err)
	}

	selected := q.Options[selectedIndex]
	correct := question.IsAcceptable(selected, q, facts)
	isReview := st.PendingReviewFactID != 0 && q.FactID == st.PendingReviewFactID

	if err := e.mastery.RecordAttempt(ctx, q.FactID, q.QuizField, correct, st.UserID, st.SessionID); err != nil {
		return st, nil, err
	}

	st.Recent = append(st.Recent, doomloop.Result{FactID: q.FactID, Correct: correct})
	if len(st.Recent) > doomloop.WindowSize {
		st.Recent = st.Recent[len(st.Recent)-doomloop.WindowSize:]
	}
	if correct {
		st.ConsecutiveCorrect++
	} else {
		st.ConsecutiveCorrect = 0
	}

	if !st.DoomLoopActive && doomloop.CheckTrigger(st.Recent) {
		st.DoomLoopActive = true
		st.RecoveryFactID = 0
		st.RecoveryQuestionsLeft = 0
	}
	if st.DoomLoopActive && st.ConsecutiveCorrect >= doomloop.ExitStreak {
		st.DoomLoopActive = false
		st.RecoveryFactID = 0
		st.RecoveryQuestionsLeft = 0
	}

	demoted, err := e.mastery.UpdateConsecutive(ctx, q.FactID, st.UserID, correct)
	if errors.Is(err, store.ErrConflict) {
		demoted, err = e.mastery.UpdateConsecutive(ctx, q.FactID, st.UserID, correct)
	}
	if err != nil {
		return st, nil, err
	}

	if err := e.streaks.Update(ctx, st.UserID); err != nil {
		return st, nil, err
	}

	fact, err := e.domains.GetFact(ctx, q.FactID)
	if err != nil {
		return st, nil, fmt.Errorf("get fact: %w", err)
	}

	out := &Outcome{Correct: correct, CorrectAnswer: q.CorrectAnswer, Demoted: demoted}
	st.Current = nil

	switch {
	case demoted:
		// Demotion voids every scheduled follow-up: the pending quiz,
		// the spacing review, and any doom-loop recovery fact.
		st.PendingQuizFactID = 0
		st.PendingReviewFactID = 0
		st.RecoveryFactID = 0
		st.RecoveryQuestionsLeft = 0
		if err := e.mastery.MarkShown(ctx, q.FactID, st.UserID); err != nil {
			return st, nil, err
		}
		out.ShowFact = fact
		out.HighlightField = q.QuizField

	case isReview:
		st.PendingReviewFactID = 0
		if !correct {
			if err := e.mastery.MarkShown(ctx, q.FactID, st.UserID); err != nil {
				return st, nil, err
			}
			out.ShowFact = fact
			out.HighlightField = q.QuizField
		}

	case correct:
		if st.PendingQuizFactID == q.FactID {
			done, err := e.mastery.HasTwoConsecutiveCorrect(ctx, q.FactID, st.UserID)
			if err != nil {
				return st, nil, err
			}
			if done {
				st.PendingQuizFactID = 0
				reviewID, err := e.pickReviewFact(ctx, facts, q.FactID, st.UserID)
				if err != nil {
					return st, nil, err
				}
				if reviewID != 0 {
					st.PendingReviewFactID = reviewID
					out.ReviewScheduled = true
				}
			}
		}

	default: // wrong but not yet demoted
		if err := e.mastery.MarkShown(ctx, q.FactID, st.UserID); err != nil {
			return st, nil, err
		}
		out.ShowFact = fact
		out.HighlightField = q.QuizField
	}

	return st, out, nil
}

// ask prepares a question for the fact and advances the session counters.
func (e *Engine) ask(st State, f *domain.Fact, facts []domain.Fact, d *domain.Domain) (State, *Step, error) {
	q, err := question.Prepare(f, facts, d, st.LastQuestionKey)
	if err != nil {
		return st, nil, fmt.Errorf("prepare question: %w", err)
	}
	st.QuestionCount++
	st.LastQuestionKey = q.Key()
	st.Current = q
	return st, &Step{Kind: StepAsk, Question: q, Fact: f}, nil
}

// pickReviewFact chooses a random learned-not-mastered fact other than
// the one just completed, for the spacing review. Returns 0 when no
// other fact qualifies.
func (e *Engine) pickReviewFact(ctx context.Context, facts []domain.Fact, excludeID int64, userID string) (int64, error) {
	learned, err := e.mastery.LearnedFacts(ctx, facts, userID)
	if err != nil {
		return 0, err
	}
	var pool []int64
	for _, f := range learned {
		if f.ID != excludeID {
			pool = append(pool, f.ID)
		}
	}
	if len(pool) == 0 {
		return 0, nil
	}
	return pool[rand.IntN(len(pool))], nil
}
