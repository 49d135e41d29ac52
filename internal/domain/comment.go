package domain

import "time"

// Comment is an append-only note on a ticket. Internal comments are
// visible to staff only.
type Comment struct {
	ID          string
	TicketID    string
	AuthorID    string
	Message     string
	IsInternal  bool
	Attachments []Attachment
	IsEdited    bool
	EditedAt    *time.Time
	EditedBy    *string
	CreatedAt   time.Time

	Author *User
}

// VisibleTo reports whether the principal role may see this comment.
func (c Comment) VisibleTo(role Role) bool {
	return !c.IsInternal || role.IsStaff()
}
