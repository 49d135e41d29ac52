package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// CreateTicketRequest is the JSON shape for ticket creation. Multipart
// submissions carry the same field names as form values.
type CreateTicketRequest struct {
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTicketRequest is the JSON shape for ticket updates. Absent fields
// are left untouched.
type UpdateTicketRequest struct {
	Subject        *string        `json:"subject"`
	Description    *string        `json:"description"`
	Status         *string        `json:"status"`
	Priority       *string        `json:"priority"`
	AssignedTo     OptionalString `json:"assignedTo"`
	Tags           *[]string      `json:"tags"`
	DueDate        OptionalTime   `json:"dueDate"`
	EstimatedHours *float64       `json:"estimatedHours"`
	ActualHours    *float64       `json:"actualHours"`
}

// AssignTicketRequest sets or clears the assignee.
type AssignTicketRequest struct {
	AssignedTo *string `json:"assignedTo"`
}

// VoteRequest casts a vote.
type VoteRequest struct {
	Type string `json:"type"`
}

// VoteResponse returns post-vote counters.
type VoteResponse struct {
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	UserVote  string `json:"userVote"`
}

// UserSummary is the compact user shape embedded in ticket responses.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// CategorySummary is the compact category shape embedded in ticket
// responses.
type CategorySummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsActive bool   `json:"isActive"`
}

// TicketResponse is the full ticket shape.
type TicketResponse struct {
	ID             string               `json:"id"`
	TicketNumber   string               `json:"ticketNumber"`
	Subject        string               `json:"subject"`
	Description    string               `json:"description"`
	Status         string               `json:"status"`
	Priority       string               `json:"priority"`
	Category       *CategorySummary     `json:"category,omitempty"`
	CreatedBy      *UserSummary         `json:"createdBy,omitempty"`
	AssignedTo     *UserSummary         `json:"assignedTo,omitempty"`
	Tags           []string             `json:"tags"`
	Attachments    []AttachmentResponse `json:"attachments"`
	Upvotes        int                  `json:"upvotes"`
	Downvotes      int                  `json:"downvotes"`
	Views          int                  `json:"views"`
	IsResolved     bool                 `json:"isResolved"`
	ResolvedAt     *time.Time           `json:"resolvedAt,omitempty"`
	ResolvedBy     *string              `json:"resolvedBy,omitempty"`
	DueDate        *time.Time           `json:"dueDate,omitempty"`
	EstimatedHours *float64             `json:"estimatedHours,omitempty"`
	ActualHours    *float64             `json:"actualHours,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// TicketListResponse bundles a page with totals and status counts.
type TicketListResponse struct {
	Tickets    []TicketResponse            `json:"tickets"`
	Pagination Pagination                  `json:"pagination"`
	Stats      map[domain.TicketStatus]int `json:"stats"`
}

// NewTicketResponse maps a domain ticket with its resolved references.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		Subject:        t.Subject,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Tags:           t.Tags,
		Attachments:    NewAttachmentResponses(t.Attachments),
		Upvotes:        t.Upvotes,
		Downvotes:      t.Downvotes,
		Views:          t.Views,
		IsResolved:     t.IsResolved,
		ResolvedAt:     t.ResolvedAt,
		ResolvedBy:     t.ResolvedBy,
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHrs,
		ActualHours:    t.ActualHrs,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.Category != nil {
		resp.Category = &CategorySummary{
			ID:       t.Category.ID,
			Name:     t.Category.Name,
			Color:    t.Category.Color,
			IsActive: t.Category.IsActive,
		}
	}
	if t.Creator != nil {
		resp.CreatedBy = &UserSummary{ID: t.Creator.ID, Username: t.Creator.Username, Email: t.Creator.Email}
	}
	if t.Assignee != nil {
		resp.AssignedTo = &UserSummary{ID: t.Assignee.ID, Username: t.Assignee.Username, Email: t.Assignee.Email}
	}
	return resp
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}
