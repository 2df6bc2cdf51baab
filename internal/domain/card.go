package domain

// Card represents one unit of trackable work on a board.
// CustomFields maps upper-cased field name to its rendered value; the
// Board Gateway builds it by joining card field items against the
// board's field definitions in board order, so a later duplicate of a
// name overwrites an earlier one.
type Card struct {
	ID           string
	BoardID      string
	Name         string
	Labels       []string
	CustomFields map[string]string
	MemberIDs    []string
}
