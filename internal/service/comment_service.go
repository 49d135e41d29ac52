package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

const (
	maxCommentLen         = 1000
	maxCommentAttachments = 3
)

// CommentService manages the append-only comment thread on tickets.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher}
}

// Add appends a comment. Only staff and the ticket creator may comment;
// a plain user can never mark a comment internal, whatever the payload
// claims.
func (s *CommentService) Add(ctx context.Context, principal *domain.User, ticketID, message string, isInternal bool, attachments []domain.Attachment) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("comment message is required", map[string]any{"field": "message"})
	}
	if len(message) > maxCommentLen {
		return nil, apperrors.NewValidationError("comment too long", map[string]any{"field": "message", "max": maxCommentLen})
	}
	if len(attachments) > maxCommentAttachments {
		return nil, apperrors.NewValidationError("too many attachments", map[string]any{"max": maxCommentAttachments})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err)
	}

	if !principal.Role.IsStaff() && ticket.CreatedBy != principal.ID {
		return nil, apperrors.NewForbidden("access denied")
	}

	if principal.Role == domain.RoleUser {
		isInternal = false
	}

	comment := &domain.Comment{
		TicketID:    ticket.ID,
		AuthorID:    principal.ID,
		Message:     message,
		IsInternal:  isInternal,
		Attachments: attachments,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapTicketErr(err)
	}
	comment.Author = principal

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCommented,
			Ticket:    ticketRef(ticket),
			ActorID:   principal.ID,
			Timestamp: time.Now(),
			Payload: events.CommentedPayload{
				CommentID:  comment.ID,
				IsInternal: comment.IsInternal,
				Preview:    preview(comment.Message, 120),
			},
		})
	}

	return comment, nil
}

// ListForTicket returns the thread with internal notes filtered out for
// non-staff callers.
func (s *CommentService) ListForTicket(ctx context.Context, principal *domain.User, ticketID string) ([]domain.Comment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapTicketErr(err)
	}

	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.VisibleTo(principal.Role) {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
