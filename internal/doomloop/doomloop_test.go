package doomloop

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/store"
)

const testUser = "alice"

func TestCheckTrigger(t *testing.T) {
	w := func(ids ...int64) []Result {
		var rs []Result
		for _, id := range ids {
			rs = append(rs, Result{FactID: id, Correct: id > 0})
		}
		return rs
	}
	// Positive IDs are correct answers, negative are wrong.
	tests := []struct {
		name   string
		recent []Result
		want   bool
	}{
		{"empty", nil, false},
		{"three wrong but short window", w(-1, -2, -3), false},
		{"three of four wrong", w(-1, -2, -3, 4), true},
		{"all four wrong", w(-1, -2, -3, -4), true},
		{"two of four wrong", w(-1, -2, 3, 4), false},
		{"old failures pushed out", w(-1, -2, -3, 4, 5, 6, 7), false},
		{"trailing collapse", w(1, 2, 3, -4, -5, -6, 7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckTrigger(tt.recent); got != tt.want {
				t.Errorf("CheckTrigger(%v) = %v, want %v", tt.recent, got, tt.want)
			}
		})
	}
}

func newTestMonitor(t *testing.T, factCount int) (*Monitor, *mastery.Service, *store.Store, []domain.Fact) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	d := &domain.Domain{Name: "Rivers", FieldNames: []string{"name", "continent"}}
	if err := st.Domains().CreateDomain(ctx, d); err != nil {
		t.Fatalf("create domain: %v", err)
	}
	for i := 0; i < factCount; i++ {
		f := &domain.Fact{DomainID: d.ID, Fields: map[string]string{
			"name":      fmt.Sprintf("River %d", i),
			"continent": fmt.Sprintf("Continent %d", i),
		}}
		if err := st.Domains().CreateFact(ctx, f); err != nil {
			t.Fatalf("create fact: %v", err)
		}
	}
	facts, err := st.Domains().ListFacts(ctx, d.ID)
	if err != nil {
		t.Fatalf("list facts: %v", err)
	}
	m := mastery.NewService(st.Attempts(), st.FactStates())
	return NewMonitor(m, st.Attempts()), m, st, facts
}

func record(t *testing.T, st *store.Store, factID int64, results ...bool) {
	t.Helper()
	base := time.Unix(40000, 0)
	for i, correct := range results {
		a := &store.Attempt{
			FactID:    factID,
			UserID:    testUser,
			FieldName: "continent",
			Correct:   correct,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.Attempts().Append(context.Background(), a); err != nil {
			t.Fatalf("append attempt: %v", err)
		}
	}
}

func TestSelectRecoveryFactHighestSuccessRate(t *testing.T) {
	mon, m, st, facts := newTestMonitor(t, 3)
	ctx := context.Background()
	for _, f := range facts {
		if err := m.MarkLearned(ctx, f.ID, testUser); err != nil {
			t.Fatalf("MarkLearned: %v", err)
		}
	}

	record(t, st, facts[0].ID, true, false, false) // 1/3
	record(t, st, facts[1].ID, true, true, false)  // 2/3
	record(t, st, facts[2].ID, true, false)        // 1/2

	got, err := mon.SelectRecoveryFact(ctx, facts, nil, testUser)
	if err != nil {
		t.Fatalf("SelectRecoveryFact: %v", err)
	}
	if got == nil || got.ID != facts[1].ID {
		t.Errorf("SelectRecoveryFact = %v, want fact %d with best rate", got, facts[1].ID)
	}
}

func TestSelectRecoveryFactExcludesRecentFailures(t *testing.T) {
	mon, m, st, facts := newTestMonitor(t, 2)
	ctx := context.Background()
	for _, f := range facts {
		if err := m.MarkLearned(ctx, f.ID, testUser); err != nil {
			t.Fatalf("MarkLearned: %v", err)
		}
	}
	record(t, st, facts[0].ID, true, true, true)

	got, err := mon.SelectRecoveryFact(ctx, facts, []int64{facts[0].ID}, testUser)
	if err != nil {
		t.Fatalf("SelectRecoveryFact: %v", err)
	}
	if got == nil || got.ID != facts[1].ID {
		t.Errorf("SelectRecoveryFact = %v, want non-excluded fact %d", got, facts[1].ID)
	}
}

func TestSelectRecoveryFactNeutralRateForUntested(t *testing.T) {
	mon, m, st, facts := newTestMonitor(t, 2)
	ctx := context.Background()
	for _, f := range facts {
		if err := m.MarkLearned(ctx, f.ID, testUser); err != nil {
			t.Fatalf("MarkLearned: %v", err)
		}
	}
	// facts[0] below the 0.5 neutral rate; facts[1] untested.
	record(t, st, facts[0].ID, false, false, true)

	got, err := mon.SelectRecoveryFact(ctx, facts, nil, testUser)
	if err != nil {
		t.Fatalf("SelectRecoveryFact: %v", err)
	}
	if got == nil || got.ID != facts[1].ID {
		t.Errorf("SelectRecoveryFact = %v, want untested fact %d at neutral 0.5", got, facts[1].ID)
	}
}

func TestSelectRecoveryFactAllExcludedFallback(t *testing.T) {
	mon, m, _, facts := newTestMonitor(t, 2)
	ctx := context.Background()
	for _, f := range facts {
		if err := m.MarkLearned(ctx, f.ID, testUser); err != nil {
			t.Fatalf("MarkLearned: %v", err)
		}
	}

	excluded := []int64{facts[0].ID, facts[1].ID}
	got, err := mon.SelectRecoveryFact(ctx, facts, excluded, testUser)
	if err != nil {
		t.Fatalf("SelectRecoveryFact: %v", err)
	}
	if got == nil {
		t.Fatal("SelectRecoveryFact = nil, want exclusions ignored rather than give up")
	}
}

func TestSelectRecoveryFactNothingLearned(t *testing.T) {
	mon, _, _, facts := newTestMonitor(t, 2)

	got, err := mon.SelectRecoveryFact(context.Background(), facts, nil, testUser)
	if err != nil {
		t.Fatalf("SelectRecoveryFact: %v", err)
	}
	if got != nil {
		t.Errorf("SelectRecoveryFact with nothing learned = %v, want nil", got)
	}
}
