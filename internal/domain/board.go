package domain

// Board represents a kanban board holding the sprint's work lists.
// Boards are read-only for this tool.
type Board struct {
	ID   string
	Name string
}

// WorkList represents a named workflow stage (column) on a board.
// Lists are matched by name case-insensitively.
type WorkList struct {
	ID      string
	BoardID string
	Name    string
}
