package domain

// Issue represents a tracked issue on the external issue tracker.
// PMScore is the raw priority-score attribute as reported by the
// tracker; callers convert it to an integer before writing it back to
// a card.
type Issue struct {
	ID      int
	Summary string
	PMScore string
}
