package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// VoteType is the direction of a ticket vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether the vote type is known.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote records a single user's vote on a ticket. At most one vote exists
// per (ticket, user); switching direction rewrites the record in place.
type Vote struct {
	UserID   string
	Type     VoteType
	VotedAt  time.Time
	TicketID string
}

// Attachment is an opaque reference into the blob store.
type Attachment struct {
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Ticket is the central aggregate: a support request tracked through its
// status lifecycle.
type Ticket struct {
	ID           string
	TicketNumber string
	Subject      string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CategoryID   string
	CreatedBy    string
	AssignedTo   *string
	Tags         []string
	Attachments  []Attachment
	Upvotes      int
	Downvotes    int
	Views        int
	IsResolved   bool
	ResolvedAt   *time.Time
	ResolvedBy   *string
	DueDate      *time.Time
	EstimatedHrs *float64
	ActualHrs    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Resolved references, populated on reads.
	Category *Category
	Creator  *User
	Assignee *User
}

// TicketPatch carries the mutable fields of an update request. Nil means
// "leave unchanged"; AssignedTo uses a double pointer so that an explicit
// null (unassign) is distinguishable from absence.
type TicketPatch struct {
	Subject      *string
	Description  *string
	Status       *TicketStatus
	Priority     *TicketPriority
	AssignedTo   **string
	Tags         *[]string
	DueDate      **time.Time
	EstimatedHrs *float64
	ActualHrs    *float64
}

// AllowedPatch projects the patch down to the fields the role may touch.
// A plain user keeps only subject, description and tags; staff keep
// everything. Disallowed fields are dropped, not rejected.
func (p TicketPatch) AllowedPatch(role Role) TicketPatch {
	if role.IsStaff() {
		return p
	}
	return TicketPatch{
		Subject:     p.Subject,
		Description: p.Description,
		Tags:        p.Tags,
	}
}

// FormatTicketNumber renders a sequence value as the human-readable
// ticket number, e.g. 1 -> "TKT-000001".
func FormatTicketNumber(seq int64) string {
	return fmt.Sprintf("TKT-%06d", seq)
}
