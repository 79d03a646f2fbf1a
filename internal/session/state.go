// Package session orchestrates one practice session: which fact to show
// or quiz next, and how each answer moves the learning state forward.
package session

import (
	"github.com/google/uuid"

	"github.com/factdrill/factdrill/internal/doomloop"
	"github.com/factdrill/factdrill/internal/question"
)

// State carries all per-session quiz progress between steps. It is a
// plain value object: the engine takes it in, hands an updated copy
// back, and keeps no cross-request memory of its own.
type State struct {
	SessionID string
	DomainID  int64
	UserID    string

	// QuestionCount is how many quiz questions have been served.
	QuestionCount int

	// Recent is the rolling window of the latest answers, capped at
	// doomloop.WindowSize entries.
	Recent []doomloop.Result

	// ConsecutiveCorrect counts correct answers in a row within this
	// session only. Reaching doomloop.ExitStreak clears an active loop.
	ConsecutiveCorrect int

	DoomLoopActive        bool
	RecoveryFactID        int64
	RecoveryQuestionsLeft int

	// PendingQuizFactID is a freshly-learned fact that is quizzed until
	// it earns two consecutive correct answers.
	PendingQuizFactID int64

	// PendingReviewFactID is an earlier learned fact scheduled for a
	// single spacing-review question.
	PendingReviewFactID int64

	// ReviewMastered keeps the session going over a fully-mastered
	// domain, cycling the least recently attempted facts.
	ReviewMastered bool

	// LastQuestionKey avoids asking the same (fact, field pair) twice
	// in a row.
	LastQuestionKey string

	// Current is the question awaiting an answer, nil between questions.
	Current *question.Question
}

// NewState starts a fresh session for the user on a domain.
func NewState(domainID int64, userID string) State {
	return State{
		SessionID: uuid.NewString(),
		DomainID:  domainID,
		UserID:    userID,
	}
}
