package sprint

import (
	"context"
	"fmt"
	"strings"

	"github.com/kanbantools/sprint-report/internal/domain"
)

// The four workflow lists the report scans, in rendering order. All but
// "Done" hold work not yet achieved.
var reportLists = []string{"Sprint Backlog", "Doing", "In Review", "Done"}

// Report builds snapshots of the four workflow lists, aggregates
// planned/unplanned counts and renders the sprint status report to the
// engine's output. Any gateway failure or missing list aborts the
// report; no partial output is produced for the aggregates already
// computed before the failure.
func (e *Engine) Report(ctx context.Context, lists []domain.WorkList) error {
	snaps := make(map[string]domain.Snapshot, len(reportLists))
	for _, name := range reportLists {
		snap, err := e.snapshot(ctx, lists, name)
		if err != nil {
			return err
		}
		snaps[name] = snap
	}

	done := snaps["Done"]
	unitsPlannedDone := len(done.Planned)
	unitsUnplannedDone := len(done.Unplanned)

	unitsPlanned := 0
	unitsUnplanned := 0
	for _, name := range reportLists {
		unitsPlanned += len(snaps[name].Planned)
		unitsUnplanned += len(snaps[name].Unplanned)
	}

	fmt.Fprintf(e.out, "Units of work planned: %d\n", unitsPlanned)
	fmt.Fprintf(e.out, "Units of work unplanned: %d\n", unitsUnplanned)
	fmt.Fprintf(e.out, "Units of planned work achieved: %d (%.1f%%)\n",
		unitsPlannedDone, percentage(unitsPlannedDone, unitsPlanned))
	fmt.Fprintf(e.out, "Units of unplanned work achieved: %d (%.1f%%)\n",
		unitsUnplannedDone, percentage(unitsUnplannedDone, unitsUnplanned))

	fmt.Fprintln(e.out, "Achievement Headline:")
	for _, unit := range done.Planned {
		e.printUnit(unit, false)
	}

	fmt.Fprintln(e.out, "Unplanned Headline:")
	for _, unit := range done.Unplanned {
		e.printUnit(unit, false)
	}

	fmt.Fprintln(e.out, "Unfinished cards:")
	for _, name := range reportLists[:3] {
		for _, unit := range snaps[name].All() {
			e.printUnit(unit, true)
		}
	}
	return nil
}

// printUnit renders one unit line, with an [unplanned] marker when
// requested, and the resolved member names when member inclusion is on.
func (e *Engine) printUnit(unit domain.UnitOfWork, markUnplanned bool) {
	if markUnplanned && unit.Unplanned {
		fmt.Fprintf(e.out, "\t* %s [unplanned]\n", unit.Name)
	} else {
		fmt.Fprintf(e.out, "\t* %s\n", unit.Name)
	}
	if e.includeMembers {
		fmt.Fprintf(e.out, "\t\t[ %s ]\n", strings.Join(unit.Members, ", "))
	}
}

// percentage returns part over whole as a percentage. A zero
// denominator counts as fully achieved, not as undefined.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 100
	}
	return 100 * float64(part) / float64(whole)
}
