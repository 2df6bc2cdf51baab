package domain

// UnitOfWork is the normalized record the report and synchronizer reason
// about, derived once per run from a Card.
type UnitOfWork struct {
	CardID    string
	BoardID   string
	Name      string
	Members   []string
	Unplanned bool
	Bugzilla  string // external issue reference URL, empty when absent
}

// Snapshot holds one list's units split into planned and unplanned
// buckets, preserving board iteration order within each bucket.
type Snapshot struct {
	Planned   []UnitOfWork
	Unplanned []UnitOfWork
}

// All returns the snapshot's units, planned first, then unplanned.
func (s Snapshot) All() []UnitOfWork {
	all := make([]UnitOfWork, 0, len(s.Planned)+len(s.Unplanned))
	all = append(all, s.Planned...)
	all = append(all, s.Unplanned...)
	return all
}
