package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name        string
		current     Status
		op          Operation
		wantNext    Status
		wantWrites  bool
	}{
		{"edit while pending withdraws to draft", StatusPending, OpEditSection, StatusDraft, true},
		{"edit while unset claims draft", Status(""), OpEditSection, StatusDraft, true},
		{"edit while draft leaves status alone", StatusDraft, OpEditSection, StatusDraft, false},
		{"edit while approved never touches status", StatusApproved, OpEditSection, StatusApproved, false},
		{"edit while rejected never touches status", StatusRejected, OpEditSection, StatusRejected, false},
		{"submit from draft goes pending", StatusDraft, OpSubmit, StatusPending, true},
		{"submit from approved goes pending", StatusApproved, OpSubmit, StatusPending, true},
		{"resubmit from rejected goes pending", StatusRejected, OpResubmit, StatusPending, true},
		{"resubmit from approved goes pending", StatusApproved, OpResubmit, StatusPending, true},
		{"approve from pending", StatusPending, OpApprove, StatusApproved, true},
		{"reject from pending", StatusPending, OpReject, StatusRejected, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, writes := Next(tt.current, tt.op)
			assert.Equal(t, tt.wantNext, next)
			assert.Equal(t, tt.wantWrites, writes)
		})
	}
}

// Every legal transition lands on a valid stage; no operation can ever write
// a fifth status value.
func TestTransitionsClosedSet(t *testing.T) {
	ops := []Operation{OpEditSection, OpSubmit, OpResubmit, OpApprove, OpReject}
	stages := []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, Status("")}
	for _, stage := range stages {
		for _, op := range ops {
			next, _ := Next(stage, op)
			assert.True(t, next.IsValid(), "stage %q op %q produced %q", stage, op, next)
		}
	}
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, StatusDraft.IsValid())
	assert.False(t, Status("archived").IsValid())
	assert.True(t, StatusApproved.IsDecision())
	assert.True(t, StatusRejected.IsDecision())
	assert.False(t, StatusPending.IsDecision())
	assert.False(t, StatusDraft.IsDecision())
}

func TestSectionDataMatches(t *testing.T) {
	driving := SectionData{Driving: &DrivingDetails{LicenceNumber: "D123"}}
	assert.True(t, driving.Matches(SectionDriving))
	assert.False(t, driving.Matches(SectionPersonalDetails))

	both := SectionData{
		Driving:         &DrivingDetails{},
		PersonalDetails: &PersonalDetails{},
	}
	assert.False(t, both.Matches(SectionDriving))

	assert.False(t, SectionData{}.Matches(SectionDriving))
}

func TestParseSection(t *testing.T) {
	sec, ok := ParseSection("medicalQualifications")
	assert.True(t, ok)
	assert.Equal(t, SectionMedicalQualifications, sec)

	_, ok = ParseSection("adminUse")
	assert.False(t, ok)
}
