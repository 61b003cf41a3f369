package models

// Status is the moderation state of a record. The numeric values are part
// of the persisted contract and of the decision API response.
type Status int8

const (
	StatusRejected Status = -1
	StatusDeleted  Status = 0
	StatusApproved Status = 1
	StatusPending  Status = 2
)

func (s Status) Valid() bool {
	switch s {
	case StatusRejected, StatusDeleted, StatusApproved, StatusPending:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusRejected:
		return "rejected"
	case StatusDeleted:
		return "deleted"
	case StatusApproved:
		return "approved"
	case StatusPending:
		return "pending"
	}
	return "unknown"
}

// Decidable reports whether an approve/reject action may run against a
// record in this state. A second decision on an already-decided record
// overwrites the first; only soft-deleted records are terminal.
func (s Status) Decidable() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Deletable reports whether the soft-delete transition is exposed for
// this state.
func (s Status) Deletable() bool {
	return s == StatusApproved || s == StatusPending
}

// PubliclyVisible reports whether anonymous callers may retrieve the
// record's payload.
func (s Status) PubliclyVisible() bool {
	return s == StatusApproved
}

// VisibleTo reports whether a caller may retrieve the record's payload.
// Pending records are visible only to privileged callers; rejected and
// deleted records resolve for nobody.
func (s Status) VisibleTo(privileged bool) bool {
	if s == StatusApproved {
		return true
	}
	return s == StatusPending && privileged
}
