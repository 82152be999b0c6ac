package models

// Status is the review stage of a profile.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is one of the four review stages.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a terminal review decision an admin may set.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Operation names a lifecycle action that may touch the status field.
type Operation string

const (
	OpEditSection Operation = "edit_section"
	OpSubmit      Operation = "submit"
	OpResubmit    Operation = "resubmit"
	OpApprove     Operation = "approve"
	OpReject      Operation = "reject"
)

// transition records the stage an operation leaves the profile in and whether
// the write touches the status field at all. Edits to an approved or rejected
// profile leave status alone on purpose: approval is only revoked through an
// explicit resubmission, never silently by a section save.
type transition struct {
	next   Status
	writes bool
}

// transitions is the closed set of legal (stage, operation) pairs. Editing a
// profile that is mid-review withdraws it back to draft, since the admin
// would otherwise review stale data.
var transitions = map[Status]map[Operation]transition{
	StatusDraft: {
		OpEditSection: {StatusDraft, false},
		OpSubmit:      {StatusPending, true},
		OpResubmit:    {StatusPending, true},
		OpApprove:     {StatusApproved, true},
		OpReject:      {StatusRejected, true},
	},
	StatusPending: {
		OpEditSection: {StatusDraft, true},
		OpSubmit:      {StatusPending, true},
		OpResubmit:    {StatusPending, true},
		OpApprove:     {StatusApproved, true},
		OpReject:      {StatusRejected, true},
	},
	StatusApproved: {
		OpEditSection: {StatusApproved, false},
		OpSubmit:      {StatusPending, true},
		OpResubmit:    {StatusPending, true},
		OpApprove:     {StatusApproved, true},
		OpReject:      {StatusRejected, true},
	},
	StatusRejected: {
		OpEditSection: {StatusRejected, false},
		OpSubmit:      {StatusPending, true},
		OpResubmit:    {StatusPending, true},
		OpApprove:     {StatusApproved, true},
		OpReject:      {StatusRejected, true},
	},
}

// Next resolves the transition table for the given stage and operation.
// An empty or unknown stage is treated as unset: a section edit claims the
// profile back to draft, and every other operation behaves as from draft.
func Next(current Status, op Operation) (next Status, writesStatus bool) {
	row, ok := transitions[current]
	if !ok {
		if op == OpEditSection {
			return StatusDraft, true
		}
		row = transitions[StatusDraft]
	}
	t := row[op]
	return t.next, t.writes
}
