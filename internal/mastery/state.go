package mastery

// Status represents a fact's position in the learning lifecycle for one
// user. Mastered is derived from the attempt log, not stored.
type Status string

const (
	StatusUnlearned Status = "unlearned"
	StatusShown     Status = "shown"
	StatusLearned   Status = "learned"
	StatusMastered  Status = "mastered"
)

const (
	// MasteryWindow is how many recent attempts the evaluator inspects.
	MasteryWindow = 7

	// MasteryRequired is how many of the window must be correct.
	MasteryRequired = 6

	// DemotionThreshold is the consecutive-wrong count that sends a
	// learned fact back to unlearned.
	DemotionThreshold = 2
)
