package api

import (
	"context"
	"net/http"

	"github.com/kanbantools/sprint-report/internal/domain"
)

// BoardGateway defines the board-side operations the sprint engine
// depends on. Consumers depend on this interface, not on the Trello
// client, so tests can substitute a fake.
type BoardGateway interface {
	// ListOpenBoards returns all open boards visible to the
	// configured credentials.
	ListOpenBoards(ctx context.Context) ([]domain.Board, error)

	// ListOpenLists returns the open lists of a board, in board order.
	ListOpenLists(ctx context.Context, boardID string) ([]domain.WorkList, error)

	// ListCards returns the cards of a list, in board order, with
	// labels, member ids and joined custom fields populated.
	ListCards(ctx context.Context, listID string) ([]domain.Card, error)

	// ResolveMember returns the display name for a member id. One
	// remote round trip per call; memoization is the caller's concern.
	ResolveMember(ctx context.Context, memberID string) (string, error)

	// SetCustomField writes a numeric value into a card's custom
	// field, matched by name case-insensitively against the board's
	// field definitions.
	SetCustomField(ctx context.Context, boardID, cardID, fieldName string, value int) error
}

// IssueTracker defines the issue-tracker operations the synchronizer
// depends on.
type IssueTracker interface {
	// Whoami verifies the configured session is authenticated.
	Whoami(ctx context.Context) (string, error)

	// GetIssue returns one issue by id.
	GetIssue(ctx context.Context, id string) (*domain.Issue, error)
}

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds common configuration for API clients.
type ClientConfig struct {
	BaseURL string
	Key     string
	Token   string
}
