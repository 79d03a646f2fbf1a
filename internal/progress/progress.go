// Package progress summarizes a user's learning state for display.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/store"
)

// Symbols for the per-fact progress string, one rune per fact in
// creation order.
const (
	SymbolUnlearned = "·"
	SymbolShown     = "-"
	SymbolLearned   = "+"
	SymbolMastered  = "*"
)

// Summary aggregates a user's standing on one domain.
type Summary struct {
	DomainID   int64
	DomainName string
	TotalFacts int
	Shown      int
	Learned    int
	Mastered   int
	Attempts   int

	// Progress is the compact per-fact string, e.g. "**++-··".
	Progress string
}

// Reporter computes progress summaries from the stored learning state.
type Reporter struct {
	mastery  *mastery.Service
	attempts store.AttemptRepo
	domains  store.DomainRepo
}

// NewReporter creates a reporter over the mastery service and repositories.
func NewReporter(m *mastery.Service, attempts store.AttemptRepo, domains store.DomainRepo) *Reporter {
	return &Reporter{mastery: m, attempts: attempts, domains: domains}
}

// Summarize computes the per-domain summary for a user.
func (r *Reporter) Summarize(ctx context.Context, d *domain.Domain, userID string) (*Summary, error) {
	facts, err := r.domains.ListFacts(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	s := &Summary{DomainID: d.ID, DomainName: d.Name, TotalFacts: len(facts)}
	var b strings.Builder
	for _, f := range facts {
		status, err := r.mastery.Status(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("fact status: %w", err)
		}
		switch status {
		case mastery.StatusMastered:
			s.Mastered++
			b.WriteString(SymbolMastered)
		case mastery.StatusLearned:
			s.Learned++
			b.WriteString(SymbolLearned)
		case mastery.StatusShown:
			s.Shown++
			b.WriteString(SymbolShown)
		default:
			b.WriteString(SymbolUnlearned)
		}

		n, err := r.attempts.Count(ctx, f.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("attempt count: %w", err)
		}
		s.Attempts += n
	}
	s.Progress = b.String()
	return s, nil
}

// QuestionsAnsweredToday counts the user's attempts since UTC midnight,
// across all domains.
func (r *Reporter) QuestionsAnsweredToday(ctx context.Context, userID string) (int, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return r.attempts.CountSince(ctx, userID, midnight)
}

// TimeSpent estimates total practice time on a domain as the span
// between the user's first and last attempt. Sessions spread over days
// inflate this; it is a rough engagement signal, not a stopwatch.
func (r *Reporter) TimeSpent(ctx context.Context, domainID int64, userID string) (time.Duration, error) {
	first, last, count, err := r.attempts.TimeBounds(ctx, domainID, userID)
	if err != nil {
		return 0, fmt.Errorf("time bounds: %w", err)
	}
	if count < 2 {
		return 0, nil
	}
	return last.Sub(first), nil
}

// SessionCount returns how many distinct sessions the user has practiced.
func (r *Reporter) SessionCount(ctx context.Context, userID string) (int, error) {
	return r.attempts.DistinctSessionCount(ctx, userID)
}

// FormatTimeSpent renders a duration as "2h 5m", "45m", or "under a
// minute".
func FormatTimeSpent(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
