package sprint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbantools/sprint-report/internal/domain"
)

// mockGateway is a test double for api.BoardGateway.
type mockGateway struct {
	listOpenBoardsFunc func(ctx context.Context) ([]domain.Board, error)
	listOpenListsFunc  func(ctx context.Context, boardID string) ([]domain.WorkList, error)
	listCardsFunc      func(ctx context.Context, listID string) ([]domain.Card, error)
	resolveMemberFunc  func(ctx context.Context, memberID string) (string, error)
	setCustomFieldFunc func(ctx context.Context, boardID, cardID, fieldName string, value int) error
}

func (m *mockGateway) ListOpenBoards(ctx context.Context) ([]domain.Board, error) {
	if m.listOpenBoardsFunc != nil {
		return m.listOpenBoardsFunc(ctx)
	}
	return nil, nil
}

func (m *mockGateway) ListOpenLists(ctx context.Context, boardID string) ([]domain.WorkList, error) {
	if m.listOpenListsFunc != nil {
		return m.listOpenListsFunc(ctx, boardID)
	}
	return nil, nil
}

func (m *mockGateway) ListCards(ctx context.Context, listID string) ([]domain.Card, error) {
	if m.listCardsFunc != nil {
		return m.listCardsFunc(ctx, listID)
	}
	return nil, nil
}

func (m *mockGateway) ResolveMember(ctx context.Context, memberID string) (string, error) {
	if m.resolveMemberFunc != nil {
		return m.resolveMemberFunc(ctx, memberID)
	}
	return "", nil
}

func (m *mockGateway) SetCustomField(ctx context.Context, boardID, cardID, fieldName string, value int) error {
	if m.setCustomFieldFunc != nil {
		return m.setCustomFieldFunc(ctx, boardID, cardID, fieldName, value)
	}
	return nil
}

// mockTracker is a test double for api.IssueTracker.
type mockTracker struct {
	whoamiFunc   func(ctx context.Context) (string, error)
	getIssueFunc func(ctx context.Context, id string) (*domain.Issue, error)
}

func (m *mockTracker) Whoami(ctx context.Context) (string, error) {
	if m.whoamiFunc != nil {
		return m.whoamiFunc(ctx)
	}
	return "", nil
}

func (m *mockTracker) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	if m.getIssueFunc != nil {
		return m.getIssueFunc(ctx, id)
	}
	return nil, nil
}

// sprintLists is the workflow list fixture most tests share.
func sprintLists() []domain.WorkList {
	names := []string{"Backlog", "Sprint Backlog", "Doing", "In Review", "Done"}
	lists := make([]domain.WorkList, len(names))
	for i, n := range names {
		lists[i] = domain.WorkList{ID: "list-" + n, BoardID: "board-1", Name: n}
	}
	return lists
}

// cardsByList builds a listCardsFunc serving a fixed map of list id to
// cards.
func cardsByList(cards map[string][]domain.Card) func(ctx context.Context, listID string) ([]domain.Card, error) {
	return func(ctx context.Context, listID string) ([]domain.Card, error) {
		return cards[listID], nil
	}
}

func TestFindList(t *testing.T) {
	lists := sprintLists()

	t.Run("matches ignoring case", func(t *testing.T) {
		list, err := findList(lists, "sprint backlog")
		require.NoError(t, err)
		assert.Equal(t, "Sprint Backlog", list.Name)
	})

	t.Run("missing list is a typed error", func(t *testing.T) {
		_, err := findList(lists, "Icebox")

		var notFound *ListNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Icebox", notFound.Name)
	})

	t.Run("duplicate names keep the first list", func(t *testing.T) {
		dup := append(sprintLists(), domain.WorkList{ID: "list-done-2", Name: "DONE"})

		list, err := findList(dup, "done")
		require.NoError(t, err)
		assert.Equal(t, "list-Done", list.ID)
	})
}

func TestSnapshotSplitsPlannedAndUnplanned(t *testing.T) {
	// Three cards: two labeled UNPLANNED, one unlabeled.
	gateway := &mockGateway{
		listCardsFunc: cardsByList(map[string][]domain.Card{
			"list-Doing": {
				{ID: "c1", Name: "fix the gate", Labels: []string{"UNPLANNED"}},
				{ID: "c2", Name: "paint the fence"},
				{ID: "c3", Name: "patch the roof", Labels: []string{"bug", "Unplanned"}},
			},
		}),
	}
	engine := NewEngine(gateway, &mockTracker{}, Options{})

	snap, err := engine.snapshot(context.Background(), sprintLists(), "Doing")

	require.NoError(t, err)
	require.Len(t, snap.Planned, 1)
	require.Len(t, snap.Unplanned, 2)
	assert.Equal(t, "paint the fence", snap.Planned[0].Name)
	assert.Equal(t, []string{"fix the gate", "patch the roof"},
		[]string{snap.Unplanned[0].Name, snap.Unplanned[1].Name})
}

func TestSnapshotMissingListFailsWholeOperation(t *testing.T) {
	engine := NewEngine(&mockGateway{}, &mockTracker{}, Options{})

	_, err := engine.snapshot(context.Background(), sprintLists(), "Blocked")

	var notFound *ListNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSnapshotPropagatesGatewayFailure(t *testing.T) {
	gateway := &mockGateway{
		listCardsFunc: func(ctx context.Context, listID string) ([]domain.Card, error) {
			return nil, errors.New("gateway down")
		},
	}
	engine := NewEngine(gateway, &mockTracker{}, Options{})

	_, err := engine.snapshot(context.Background(), sprintLists(), "Doing")

	require.ErrorContains(t, err, "gateway down")
}

func TestFindBoard(t *testing.T) {
	gateway := &mockGateway{
		listOpenBoardsFunc: func(ctx context.Context) ([]domain.Board, error) {
			return []domain.Board{
				{ID: "b1", Name: "Team Alpha"},
				{ID: "b2", Name: "Team Beta"},
			}, nil
		},
	}
	engine := NewEngine(gateway, &mockTracker{}, Options{})

	t.Run("finds board by exact name", func(t *testing.T) {
		board, err := engine.FindBoard(context.Background(), "Team Beta")
		require.NoError(t, err)
		require.NotNil(t, board)
		assert.Equal(t, "b2", board.ID)
	})

	t.Run("missing board is nil, not an error", func(t *testing.T) {
		board, err := engine.FindBoard(context.Background(), "Team Gamma")
		require.NoError(t, err)
		assert.Nil(t, board)
	})
}
