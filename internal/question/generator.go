package question

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/factdrill/factdrill/internal/domain"
)

// OptionCount is the fixed number of choices per question.
const OptionCount = 4

// pairRetries bounds the attempts to avoid repeating the previous
// question's field pair. With small field sets every candidate can
// collide; the last one is accepted anyway.
const pairRetries = 10

// Question is a fully-built multiple-choice question about one fact.
type Question struct {
	FactID        int64
	Text          string
	Options       []string
	CorrectIndex  int
	CorrectAnswer string
	ContextField  string
	ContextValue  string
	QuizField     string
}

// Key identifies the (fact, field-pair) of a question, used to avoid
// asking the same pair twice in a row.
func (q *Question) Key() string {
	return fmt.Sprintf("%d:%s:%s", q.FactID, q.ContextField, q.QuizField)
}

// SelectFieldPair picks two distinct field names from the domain's
// schema: one for context, one to quiz.
func SelectFieldPair(d *domain.Domain) (contextField, quizField string, err error) {
	fields := d.FieldNames
	if len(fields) < 2 {
		return "", "", fmt.Errorf("%w: domain %q needs at least 2 fields for quizzing", domain.ErrValidation, d.Name)
	}
	contextField = fields[rand.IntN(len(fields))]
	remaining := make([]string, 0, len(fields)-1)
	for _, f := range fields {
		if f != contextField {
			remaining = append(remaining, f)
		}
	}
	quizField = remaining[rand.IntN(len(remaining))]
	return contextField, quizField, nil
}

// Build generates a multiple-choice question connecting two fields of a
// fact. Distractors are drawn from the other facts' values for the quiz
// field; placeholders fill in when a small domain cannot supply three
// genuine wrong answers.
func Build(fact *domain.Fact, contextField, quizField string, allFacts []domain.Fact, d *domain.Domain) (*Question, error) {
	if len(fact.Fields) < 2 {
		return nil, fmt.Errorf("%w: fact %d needs at least 2 fields for quizzing", domain.ErrValidation, fact.ID)
	}
	if contextField == quizField {
		return nil, fmt.Errorf("%w: context and quiz field are both %q", domain.ErrValidation, contextField)
	}

	contextValue := fact.Fields[contextField]
	correctAnswer := fact.Fields[quizField]
	identifying := d.IdentifyingField()

	var text string
	switch {
	case contextField == identifying:
		// Context is the name: "What is the symbol of Erato?"
		text = fmt.Sprintf("What is the %s of %s?", quizField, contextValue)
	case quizField == identifying:
		// Quiz is the name: "Which greek muse has Lyre as their symbol?"
		singular := strings.ToLower(Singularize(d.Name))
		text = fmt.Sprintf("Which %s has %s as their %s?", singular, contextValue, contextField)
	default:
		// Neither is the name; disambiguate with the domain.
		singular := strings.ToLower(Singularize(d.Name))
		text = fmt.Sprintf("What is the %s of the %s with %s = %s?", quizField, singular, contextField, contextValue)
	}

	var wrong []string
	seen := map[string]bool{correctAnswer: true}
	for _, other := range allFacts {
		if other.ID == fact.ID {
			continue
		}
		v, ok := other.Fields[quizField]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		wrong = append(wrong, v)
	}

	// Placeholder distractors are the one sanctioned synthetic value,
	// keeping the 4-option invariant for tiny domains.
	for len(wrong) < OptionCount-1 {
		placeholder := fmt.Sprintf("Option %d", len(wrong)+1)
		if seen[placeholder] {
			placeholder += "*"
		}
		seen[placeholder] = true
		wrong = append(wrong, placeholder)
	}

	if len(wrong) > OptionCount-1 {
		rand.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
		wrong = wrong[:OptionCount-1]
	}

	options := append([]string{correctAnswer}, wrong...)
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	correctIndex := 0
	for i, o := range options {
		if o == correctAnswer {
			correctIndex = i
			break
		}
	}

	return &Question{
		FactID:        fact.ID,
		Text:          text,
		Options:       options,
		CorrectIndex:  correctIndex,
		CorrectAnswer: correctAnswer,
		ContextField:  contextField,
		ContextValue:  contextValue,
		QuizField:     quizField,
	}, nil
}

// Prepare builds a question for the fact, retrying the field-pair choice
// so the (fact, context, quiz) key differs from the previous question's
// key whenever the schema allows it.
func Prepare(fact *domain.Fact, allFacts []domain.Fact, d *domain.Domain, lastKey string) (*Question, error) {
	var contextField, quizField string
	for attempt := 0; attempt < pairRetries; attempt++ {
		ctx, quiz, err := SelectFieldPair(d)
		if err != nil {
			return nil, err
		}
		contextField, quizField = ctx, quiz
		candidateKey := fmt.Sprintf("%d:%s:%s", fact.ID, ctx, quiz)
		if candidateKey != lastKey {
			break
		}
	}
	return Build(fact, contextField, quizField, allFacts, d)
}

// IsAcceptable reports whether a selected option should count as correct.
// Beyond exact match, a selected value is accepted when another fact
// shares the question's context value and holds the selected value for
// the quiz field: the question was ambiguous, not the learner wrong.
func IsAcceptable(selected string, q *Question, allFacts []domain.Fact) bool {
	if selected == q.CorrectAnswer {
		return true
	}
	for _, f := range allFacts {
		if f.ID == q.FactID {
			continue
		}
		if f.Fields[q.ContextField] == q.ContextValue && f.Fields[q.QuizField] == selected {
			return true
		}
	}
	return false
}
