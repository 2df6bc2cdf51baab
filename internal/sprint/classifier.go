package sprint

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kanbantools/sprint-report/internal/domain"
)

// classify converts one card into a unit of work: planned/unplanned
// flag, resolved member names when requested, and the extracted
// bugzilla reference. Its only side effect is filling the member cache.
func (e *Engine) classify(ctx context.Context, card domain.Card) (domain.UnitOfWork, error) {
	members, err := e.resolveMembers(ctx, card)
	if err != nil {
		return domain.UnitOfWork{}, err
	}

	return domain.UnitOfWork{
		CardID:    card.ID,
		BoardID:   card.BoardID,
		Name:      card.Name,
		Members:   members,
		Unplanned: isUnplanned(card),
		Bugzilla:  card.CustomFields[FieldBugzilla],
	}, nil
}

// isUnplanned reports whether the card carries the UNPLANNED label,
// compared case-insensitively.
func isUnplanned(card domain.Card) bool {
	for _, label := range card.Labels {
		if strings.EqualFold(label, LabelUnplanned) {
			return true
		}
	}
	return false
}

// resolveMembers maps the card's member ids to display names in card
// order. Resolution is skipped entirely when members were not requested
// or the card has none, so no remote calls happen in that case. Each id
// is resolved at most once per run.
func (e *Engine) resolveMembers(ctx context.Context, card domain.Card) ([]string, error) {
	if !e.includeMembers || len(card.MemberIDs) == 0 {
		return nil, nil
	}

	members := make([]string, 0, len(card.MemberIDs))
	for _, id := range card.MemberIDs {
		name, ok := e.members[id]
		if !ok {
			resolved, err := e.gateway.ResolveMember(ctx, id)
			if err != nil {
				return nil, err
			}
			e.members[id] = resolved
			name = resolved
		} else {
			e.logger.Debug("member cache hit", zap.String("member", id))
		}
		members = append(members, name)
	}
	return members, nil
}
