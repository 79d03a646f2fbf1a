package store

import (
	"context"
	"errors"
	"time"

	"github.com/factdrill/factdrill/internal/domain"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent update clobbered a read-modify-write.
// Callers retry the whole transition once; the error is never swallowed.
var ErrConflict = errors.New("state conflict")

// Attempt is one answer a user gave to a quizzed field of a fact.
// The attempt log is append-only: rows are never mutated and only an
// explicit progress reset deletes them.
type Attempt struct {
	ID        int64
	FactID    int64
	UserID    string
	FieldName string
	Correct   bool
	Timestamp time.Time
	SessionID string
}

// FactState holds per-(user,fact) learning progress. At most one of
// ConsecutiveCorrect/ConsecutiveWrong is nonzero at any time.
type FactState struct {
	FactID             int64
	UserID             string
	LearnedAt          *time.Time
	LastShownAt        *time.Time
	ConsecutiveCorrect int
	ConsecutiveWrong   int

	// Version guards single-row read-modify-write updates.
	Version int64
}

// StreakState tracks per-user daily engagement at calendar-day granularity.
type StreakState struct {
	UserID           string
	CurrentStreak    int
	LongestStreak    int
	LastPracticeDate string // YYYY-MM-DD, empty if never practiced
}

// AttemptRepo provides append and read access to the attempt log.
type AttemptRepo interface {
	// Append records an attempt. Timestamp is set by the repo if zero.
	Append(ctx context.Context, a *Attempt) error

	// Recent returns up to limit attempts for (fact, user), newest first.
	Recent(ctx context.Context, factID int64, userID string, limit int) ([]Attempt, error)

	// Count returns the total attempt count for (fact, user).
	Count(ctx context.Context, factID int64, userID string) (int, error)

	// CountSince returns the user's attempt count across all facts since t.
	CountSince(ctx context.Context, userID string, t time.Time) (int, error)

	// LatestTime returns the timestamp of the newest attempt for (fact, user),
	// or the zero time if none exist.
	LatestTime(ctx context.Context, factID int64, userID string) (time.Time, error)

	// SuccessRate returns correct/total over all attempts for (fact, user)
	// and the total count. Rate is 0 when count is 0.
	SuccessRate(ctx context.Context, factID int64, userID string) (float64, int, error)

	// TimeBounds returns the first and last attempt timestamps for the user
	// on facts of the given domain, and the attempt count.
	TimeBounds(ctx context.Context, domainID int64, userID string) (first, last time.Time, count int, err error)

	// DistinctSessionCount returns the number of unique non-empty session IDs
	// across the user's attempts.
	DistinctSessionCount(ctx context.Context, userID string) (int, error)

	// DeleteByDomain removes all of the user's attempts on the domain's facts.
	// Only the explicit progress reset calls this.
	DeleteByDomain(ctx context.Context, domainID int64, userID string) error
}

// FactStateRepo manages the per-(user,fact) progress records.
type FactStateRepo interface {
	// Get returns the state for (fact, user), or ErrNotFound.
	Get(ctx context.Context, factID int64, userID string) (*FactState, error)

	// GetOrCreate returns the existing state or inserts a zero-valued one.
	GetOrCreate(ctx context.Context, factID int64, userID string) (*FactState, error)

	// Update writes the state back. Returns ErrConflict if the row changed
	// since it was read (version mismatch).
	Update(ctx context.Context, s *FactState) error

	// DeleteByDomain removes all of the user's states on the domain's facts.
	DeleteByDomain(ctx context.Context, domainID int64, userID string) error
}

// DomainRepo provides read/write access to domains and their facts.
// Facts are returned in creation order (ascending ID).
type DomainRepo interface {
	CreateDomain(ctx context.Context, d *domain.Domain) error
	GetDomain(ctx context.Context, id int64) (*domain.Domain, error)
	GetDomainByName(ctx context.Context, name string) (*domain.Domain, error)
	ListDomains(ctx context.Context) ([]domain.Domain, error)
	CreateFact(ctx context.Context, f *domain.Fact) error
	GetFact(ctx context.Context, id int64) (*domain.Fact, error)
	ListFacts(ctx context.Context, domainID int64) ([]domain.Fact, error)
}

// StreakRepo manages per-user streak state.
type StreakRepo interface {
	// Get returns the user's streak state, zero-valued if never practiced.
	Get(ctx context.Context, userID string) (*StreakState, error)

	// Upsert writes the streak state.
	Upsert(ctx context.Context, s *StreakState) error
}
