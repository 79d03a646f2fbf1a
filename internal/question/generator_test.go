package question

import (
	"errors"
	"strings"
	"testing"

	"github.com/factdrill/factdrill/internal/domain"
)

func musesDomain() (*domain.Domain, []domain.Fact) {
	d := &domain.Domain{
		ID:         1,
		Name:       "Greek Muses",
		FieldNames: []string{"name", "domain", "symbol"},
	}
	facts := []domain.Fact{
		{ID: 1, DomainID: 1, Fields: map[string]string{"name": "Calliope", "domain": "Epic Poetry", "symbol": "Writing tablet"}},
		{ID: 2, DomainID: 1, Fields: map[string]string{"name": "Clio", "domain": "History", "symbol": "Scroll"}},
		{ID: 3, DomainID: 1, Fields: map[string]string{"name": "Erato", "domain": "Love Poetry", "symbol": "Lyre"}},
		{ID: 4, DomainID: 1, Fields: map[string]string{"name": "Terpsichore", "domain": "Dance", "symbol": "Lyre"}},
		{ID: 5, DomainID: 1, Fields: map[string]string{"name": "Urania", "domain": "Astronomy", "symbol": "Globe"}},
	}
	return d, facts
}

func TestSelectFieldPairDistinct(t *testing.T) {
	d, _ := musesDomain()
	for i := 0; i < 50; i++ {
		ctx, quiz, err := SelectFieldPair(d)
		if err != nil {
			t.Fatalf("SelectFieldPair: %v", err)
		}
		if ctx == quiz {
			t.Fatalf("SelectFieldPair returned identical fields %q", ctx)
		}
	}
}

func TestSelectFieldPairTooFewFields(t *testing.T) {
	d := &domain.Domain{Name: "Mottos", FieldNames: []string{"text"}}
	_, _, err := SelectFieldPair(d)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SelectFieldPair on 1-field domain = %v, want ErrValidation", err)
	}
}

func TestBuildQuestionShape(t *testing.T) {
	d, facts := musesDomain()

	q, err := Build(&facts[2], "name", "symbol", facts, d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Text != "What is the symbol of Erato?" {
		t.Errorf("Text = %q", q.Text)
	}
	if len(q.Options) != OptionCount {
		t.Fatalf("len(Options) = %d, want %d", len(q.Options), OptionCount)
	}
	if q.Options[q.CorrectIndex] != "Lyre" {
		t.Errorf("Options[CorrectIndex] = %q, want %q", q.Options[q.CorrectIndex], "Lyre")
	}
	seen := map[string]bool{}
	for _, o := range q.Options {
		if seen[o] {
			t.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
}

func TestBuildPhrasings(t *testing.T) {
	d, facts := musesDomain()

	q, err := Build(&facts[1], "domain", "name", facts, d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Text != "Which greek muse has History as their domain?" {
		t.Errorf("quiz-identifying text = %q", q.Text)
	}

	q, err = Build(&facts[1], "domain", "symbol", facts, d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Text != "What is the symbol of the greek muse with domain = History?" {
		t.Errorf("neither-identifying text = %q", q.Text)
	}
}

func TestBuildPlaceholderDistractors(t *testing.T) {
	d := &domain.Domain{ID: 2, Name: "Capitals", FieldNames: []string{"country", "capital"}}
	facts := []domain.Fact{
		{ID: 1, DomainID: 2, Fields: map[string]string{"country": "France", "capital": "Paris"}},
		{ID: 2, DomainID: 2, Fields: map[string]string{"country": "Japan", "capital": "Tokyo"}},
	}

	q, err := Build(&facts[0], "country", "capital", facts, d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(q.Options) != OptionCount {
		t.Fatalf("len(Options) = %d, want %d", len(q.Options), OptionCount)
	}
	placeholders := 0
	for _, o := range q.Options {
		if strings.HasPrefix(o, "Option ") {
			placeholders++
		}
	}
	if placeholders != 2 {
		t.Errorf("placeholder count = %d, want 2 (one genuine distractor available)", placeholders)
	}
}

func TestBuildRejectsSameField(t *testing.T) {
	d, facts := musesDomain()
	_, err := Build(&facts[0], "name", "name", facts, d)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Build with identical fields = %v, want ErrValidation", err)
	}
}

func TestPrepareAvoidsRepeatKey(t *testing.T) {
	d, facts := musesDomain()

	last, err := Prepare(&facts[0], facts, d, "")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	// Six possible field pairs; ten retries make a repeat vanishingly
	// unlikely. Run several rounds to be sure.
	for i := 0; i < 20; i++ {
		q, err := Prepare(&facts[0], facts, d, last.Key())
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if q.Key() == last.Key() {
			t.Fatalf("Prepare repeated key %q", q.Key())
		}
		last = q
	}
}

func TestIsAcceptable(t *testing.T) {
	_, facts := musesDomain()

	// Two muses share the symbol "Lyre". Quizzing name by symbol is
	// ambiguous: either name must count.
	q := &Question{
		FactID:        3,
		ContextField:  "symbol",
		ContextValue:  "Lyre",
		QuizField:     "name",
		CorrectAnswer: "Erato",
	}

	if !IsAcceptable("Erato", q, facts) {
		t.Error("exact answer rejected")
	}
	if !IsAcceptable("Terpsichore", q, facts) {
		t.Error("equally valid answer for shared context value rejected")
	}
	if IsAcceptable("Clio", q, facts) {
		t.Error("wrong answer accepted")
	}
	if IsAcceptable("Urania", q, facts) {
		t.Error("answer with different context value accepted")
	}
}
