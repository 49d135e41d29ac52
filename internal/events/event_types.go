package events

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommented     EventType = "ticket_commented"
)

// TicketRef carries the ticket fields notification targeting and
// rendering need, so consumers never re-read the store mid-flight.
type TicketRef struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedBy    string                `json:"created_by"`
	AssignedTo   *string               `json:"assigned_to,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Ticket    TicketRef `json:"ticket"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// CommentedPayload payload.
type CommentedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
	Preview    string `json:"preview"`
}
