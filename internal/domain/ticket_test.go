package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTicketNumber(t *testing.T) {
	assert.Equal(t, "TKT-000001", FormatTicketNumber(1))
	assert.Equal(t, "TKT-000042", FormatTicketNumber(42))
	assert.Equal(t, "TKT-1000000", FormatTicketNumber(1000000))
}

func TestAllowedPatchProjection(t *testing.T) {
	subject := "s"
	status := TicketStatusClosed
	assignee := "a1"
	assigneePtr := &assignee
	patch := TicketPatch{
		Subject:    &subject,
		Status:     &status,
		AssignedTo: &assigneePtr,
	}

	projected := patch.AllowedPatch(RoleUser)
	assert.Equal(t, &subject, projected.Subject)
	assert.Nil(t, projected.Status)
	assert.Nil(t, projected.AssignedTo)

	full := patch.AllowedPatch(RoleAgent)
	assert.Equal(t, &status, full.Status)
	assert.NotNil(t, full.AssignedTo)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TicketStatus("In Progress").Valid())
	assert.False(t, TicketStatus("Pending").Valid())
	assert.True(t, TicketPriority("Critical").Valid())
	assert.False(t, TicketPriority("Urgent").Valid())
	assert.True(t, VoteType("up").Valid())
	assert.False(t, VoteType("sideways").Valid())
}

func TestRoleHelpers(t *testing.T) {
	assert.False(t, RoleUser.IsStaff())
	assert.True(t, RoleAgent.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, Role("agent").Valid())
	assert.False(t, Role("root").Valid())
}
