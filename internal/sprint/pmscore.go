package sprint

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kanbantools/sprint-report/internal/domain"
)

// SyncPMScores copies the issue tracker's priority score into the
// PM_SCORE custom field of every Backlog card carrying a bugzilla
// reference. Cards without a reference are skipped silently. A
// reference missing its id query parameter aborts the remaining pass;
// there is deliberately no per-card isolation.
//
// The caller must have verified the tracker session before invoking
// this; the engine never authenticates interactively.
func (e *Engine) SyncPMScores(ctx context.Context, lists []domain.WorkList) error {
	backlog, err := e.snapshot(ctx, lists, "Backlog")
	if err != nil {
		return err
	}

	for _, unit := range backlog.All() {
		if unit.Bugzilla == "" {
			e.logger.Debug("card has no bugzilla reference, skipping",
				zap.String("card", unit.Name))
			continue
		}

		id, err := issueIDFromReference(unit.Bugzilla)
		if err != nil {
			return fmt.Errorf("card %q: %w", unit.Name, err)
		}

		issue, err := e.tracker.GetIssue(ctx, id)
		if err != nil {
			return fmt.Errorf("card %q: %w", unit.Name, err)
		}

		score, err := strconv.Atoi(strings.TrimSpace(issue.PMScore))
		if err != nil {
			return fmt.Errorf("card %q: bug %s has non-numeric pm score %q", unit.Name, id, issue.PMScore)
		}

		fmt.Fprintf(e.out, "Setting PM_SCORE for %q to %d\n", unit.Name, score)
		if err := e.gateway.SetCustomField(ctx, unit.BoardID, unit.CardID, FieldPMScore, score); err != nil {
			return fmt.Errorf("card %q: %w", unit.Name, err)
		}
	}
	return nil
}

// issueIDFromReference extracts the issue id from a bugzilla reference
// URL's id query parameter.
func issueIDFromReference(reference string) (string, error) {
	u, err := url.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("invalid bugzilla reference %q: %w", reference, err)
	}

	id := u.Query().Get("id")
	if id == "" {
		return "", fmt.Errorf("bugzilla reference %q has no id parameter", reference)
	}
	return id, nil
}
