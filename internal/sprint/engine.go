// Package sprint turns raw board records into sprint reports and keeps
// backlog card scores in sync with the issue tracker.
package sprint

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kanbantools/sprint-report/internal/api"
	"github.com/kanbantools/sprint-report/internal/domain"
)

const (
	// LabelUnplanned marks a card as unplanned work. Compared
	// case-insensitively.
	LabelUnplanned = "UNPLANNED"

	// FieldBugzilla is the custom field holding a card's external
	// issue reference URL.
	FieldBugzilla = "BUGZILLA"

	// FieldPMScore is the custom field the synchronizer writes.
	FieldPMScore = "PM_SCORE"
)

// ListNotFoundError reports that a board has no list matching the
// requested name. It is fatal for the command that needed the list.
type ListNotFoundError struct {
	Name string
}

func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("list named %q was not found", e.Name)
}

// Engine holds the per-run state every operation needs: the board
// gateway, the issue tracker, the member-resolution cache and the
// output target. One Engine serves exactly one invocation.
type Engine struct {
	gateway        api.BoardGateway
	tracker        api.IssueTracker
	includeMembers bool
	members        map[string]string
	logger         *zap.Logger
	out            io.Writer
}

// Options configures an Engine.
type Options struct {
	// IncludeMembers enables member-name resolution on every
	// classified card.
	IncludeMembers bool

	// Logger receives operational events. Defaults to a no-op logger.
	Logger *zap.Logger

	// Out receives product output (the report, the per-card score
	// lines). Defaults to stdout.
	Out io.Writer
}

// NewEngine creates the per-run engine.
func NewEngine(gateway api.BoardGateway, tracker api.IssueTracker, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Engine{
		gateway:        gateway,
		tracker:        tracker,
		includeMembers: opts.IncludeMembers,
		members:        make(map[string]string),
		logger:         logger,
		out:            out,
	}
}

// FindBoard returns the open board with the given name, or nil when no
// board matches. A missing board is not an error: the caller reports it
// and ends the command.
func (e *Engine) FindBoard(ctx context.Context, name string) (*domain.Board, error) {
	boards, err := e.gateway.ListOpenBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open boards: %w", err)
	}

	for _, b := range boards {
		if b.Name == name {
			e.logger.Debug("resolved board", zap.String("board", b.Name), zap.String("id", b.ID))
			return &b, nil
		}
	}
	return nil, nil
}

// ListLists returns the open lists of a board, in board order.
func (e *Engine) ListLists(ctx context.Context, boardID string) ([]domain.WorkList, error) {
	lists, err := e.gateway.ListOpenLists(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return lists, nil
}

// findList locates a list by name, ignoring case. With duplicate names
// the first list in board order wins.
func findList(lists []domain.WorkList, name string) (domain.WorkList, error) {
	byName := make(map[string]domain.WorkList, len(lists))
	for _, l := range lists {
		key := strings.ToLower(l.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = l
		}
	}

	l, ok := byName[strings.ToLower(name)]
	if !ok {
		return domain.WorkList{}, &ListNotFoundError{Name: name}
	}
	return l, nil
}

// snapshot classifies every card of the named list into planned and
// unplanned buckets, preserving board iteration order.
func (e *Engine) snapshot(ctx context.Context, lists []domain.WorkList, name string) (domain.Snapshot, error) {
	list, err := findList(lists, name)
	if err != nil {
		return domain.Snapshot{}, err
	}

	cards, err := e.gateway.ListCards(ctx, list.ID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to list cards of %q: %w", list.Name, err)
	}

	var snap domain.Snapshot
	for _, card := range cards {
		unit, err := e.classify(ctx, card)
		if err != nil {
			return domain.Snapshot{}, err
		}
		if unit.Unplanned {
			snap.Unplanned = append(snap.Unplanned, unit)
		} else {
			snap.Planned = append(snap.Planned, unit)
		}
	}

	e.logger.Debug("built list snapshot",
		zap.String("list", list.Name),
		zap.Int("planned", len(snap.Planned)),
		zap.Int("unplanned", len(snap.Unplanned)))
	return snap, nil
}
