package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

const (
	maxSubjectLen     = 200
	maxDescriptionLen = 2000
	maxTags           = 10
	maxTagLen         = 30
	maxAttachments    = 5
)

// TicketService coordinates the ticket lifecycle: creation, listing,
// role-gated updates, assignment and voting.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload. Attachments are
// already validated and stored by the blob store.
type TicketCreateInput struct {
	Subject     string
	Description string
	CategoryID  string
	Priority    domain.TicketPriority
	Tags        []string
	DueDate     *time.Time
	Attachments []domain.Attachment
}

// TicketListInput describes listing parameters before role scoping.
type TicketListInput struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	CategoryID *string
	AssignedTo *string
	CreatedBy  *string
	Search     *string
	Mine       bool
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	SortDesc   bool
	Page       int
	PageSize   int
}

// TicketListResult bundles a page of tickets with its totals.
type TicketListResult struct {
	Tickets      []domain.Ticket
	Total        int
	Page         int
	PageSize     int
	StatusCounts map[domain.TicketStatus]int
}

// Create validates input, persists the ticket and notifies staff.
func (s *TicketService) Create(ctx context.Context, principal *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if err := validateContent(subject, description, input.Tags); err != nil {
		return nil, err
	}
	if input.DueDate != nil && !input.DueDate.After(time.Now()) {
		return nil, apperrors.NewValidationError("due date must be in the future", map[string]any{"field": "dueDate"})
	}
	if len(input.Attachments) > maxAttachments {
		return nil, apperrors.NewValidationError("too many attachments", map[string]any{"max": maxAttachments})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority"})
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidReference("invalid category", map[string]any{"field": "category"})
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		Subject:     subject,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CategoryID:  input.CategoryID,
		CreatedBy:   principal.ID,
		Tags:        input.Tags,
		Attachments: input.Attachments,
		DueDate:     input.DueDate,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketCreated,
		Ticket:  ticketRef(ticket),
		ActorID: principal.ID,
	})

	return s.tickets.GetByID(ctx, ticket.ID)
}

// List returns a page of tickets under the caller's role scope, plus
// per-status counts under the same scope.
func (s *TicketService) List(ctx context.Context, principal *domain.User, input TicketListInput) (*TicketListResult, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	filter := repository.TicketFilter{
		Status:      input.Status,
		Priority:    input.Priority,
		CategoryID:  input.CategoryID,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   input.CreatedBy,
		Search:      input.Search,
		CreatedFrom: input.DateFrom,
		CreatedTo:   input.DateTo,
		SortBy:      input.SortBy,
		SortDesc:    input.SortDesc,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}

	// Role scope is applied last so no query parameter can widen it.
	var countScope *string
	if principal.Role == domain.RoleUser {
		id := principal.ID
		filter.CreatedBy = &id
		filter.MineUserID = nil
		countScope = &id
	} else if input.Mine {
		id := principal.ID
		if principal.Role == domain.RoleAgent {
			filter.MineUserID = &id
			filter.CreatedBy = nil
		} else {
			filter.CreatedBy = &id
		}
	}

	tickets, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts, err := s.tickets.StatusCounts(ctx, countScope)
	if err != nil {
		return nil, err
	}

	return &TicketListResult{
		Tickets:      tickets,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		StatusCounts: counts,
	}, nil
}

// GetByID fetches a single ticket. Any authenticated principal may view
// any ticket by id; only listings are scope-restricted.
func (s *TicketService) GetByID(ctx context.Context, principal *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketErr(err)
	}
	// View counting is best-effort.
	_ = s.tickets.IncrementViews(ctx, id)
	return ticket, nil
}

// Update applies a role-projected patch. Users may only touch subject,
// description and tags on their own tickets; staff may change anything.
// The resolution fields latch on the first transition into Resolved.
func (s *TicketService) Update(ctx context.Context, principal *domain.User, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	allowed := patch.AllowedPatch(principal.Role)
	if err := validatePatch(allowed); err != nil {
		return nil, err
	}

	if allowed.AssignedTo != nil && *allowed.AssignedTo != nil {
		if err := s.requireStaffUser(ctx, **allowed.AssignedTo); err != nil {
			return nil, err
		}
	}

	var prevStatus domain.TicketStatus
	var prevAssignee *string

	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		if principal.Role == domain.RoleUser && t.CreatedBy != principal.ID {
			return apperrors.NewForbidden("access denied")
		}
		prevStatus = t.Status
		prevAssignee = t.AssignedTo

		applyPatch(t, allowed)

		if t.Status != prevStatus && t.Status == domain.TicketStatusResolved && !t.IsResolved {
			now := time.Now()
			resolvedBy := principal.ID
			t.IsResolved = true
			t.ResolvedAt = &now
			t.ResolvedBy = &resolvedBy
		}
		return nil
	})
	if err != nil {
		return nil, mapTicketErr(err)
	}

	if ticket.Status != prevStatus {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketStatusChanged,
			Ticket:  ticketRef(ticket),
			ActorID: principal.ID,
			Payload: events.StatusChangedPayload{OldStatus: prevStatus, NewStatus: ticket.Status},
		})
	}
	if ticket.AssignedTo != nil && (prevAssignee == nil || *prevAssignee != *ticket.AssignedTo) {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketAssigned,
			Ticket:  ticketRef(ticket),
			ActorID: principal.ID,
			Payload: events.AssignedPayload{AssigneeID: *ticket.AssignedTo},
		})
	}

	return s.tickets.GetByID(ctx, ticket.ID)
}

// Assign sets or clears the assignee. Assigning a ticket that is still
// Open moves it to In Progress; any other status is left alone.
func (s *TicketService) Assign(ctx context.Context, principal *domain.User, id string, assigneeID *string) (*domain.Ticket, error) {
	if assigneeID != nil {
		if err := s.requireStaffUser(ctx, *assigneeID); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		t.AssignedTo = assigneeID
		if assigneeID != nil && t.Status == domain.TicketStatusOpen {
			t.Status = domain.TicketStatusInProgress
		}
		return nil
	})
	if err != nil {
		return nil, mapTicketErr(err)
	}

	if assigneeID != nil {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketAssigned,
			Ticket:  ticketRef(ticket),
			ActorID: principal.ID,
			Payload: events.AssignedPayload{AssigneeID: *assigneeID},
		})
	}

	return s.tickets.GetByID(ctx, ticket.ID)
}

// VoteResult carries post-vote counters.
type VoteResult struct {
	Upvotes   int
	Downvotes int
	UserVote  domain.VoteType
}

// Vote records or switches the caller's vote. A same-direction revote is
// rejected rather than treated as a no-op.
func (s *TicketService) Vote(ctx context.Context, principal *domain.User, id string, vote domain.VoteType) (*VoteResult, error) {
	if !vote.Valid() {
		return nil, apperrors.NewValidationError("invalid vote type", map[string]any{"field": "type"})
	}

	upvotes, downvotes, err := s.tickets.Vote(ctx, id, principal.ID, vote)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			return nil, apperrors.NewDuplicateVote()
		}
		return nil, mapTicketErr(err)
	}

	return &VoteResult{Upvotes: upvotes, Downvotes: downvotes, UserVote: vote}, nil
}

func (s *TicketService) requireStaffUser(ctx context.Context, userID string) error {
	assignee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidReference("invalid assignee", map[string]any{"field": "assignedTo"})
		}
		return err
	}
	if !assignee.Role.IsStaff() {
		return apperrors.NewInvalidReference("assignee must be an agent or admin", map[string]any{"field": "assignedTo"})
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ticketRef(t *domain.Ticket) events.TicketRef {
	return events.TicketRef{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Subject:      t.Subject,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedBy:    t.CreatedBy,
		AssignedTo:   t.AssignedTo,
	}
}

func mapTicketErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return err
}

func validateContent(subject, description string, tags []string) error {
	if subject == "" {
		return apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	}
	if len(subject) > maxSubjectLen {
		return apperrors.NewValidationError("subject too long", map[string]any{"field": "subject", "max": maxSubjectLen})
	}
	if description == "" {
		return apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if len(description) > maxDescriptionLen {
		return apperrors.NewValidationError("description too long", map[string]any{"field": "description", "max": maxDescriptionLen})
	}
	return validateTags(tags)
}

func validateTags(tags []string) error {
	if len(tags) > maxTags {
		return apperrors.NewValidationError("too many tags", map[string]any{"field": "tags", "max": maxTags})
	}
	for _, tag := range tags {
		if len(tag) > maxTagLen {
			return apperrors.NewValidationError("tag too long", map[string]any{"field": "tags", "max": maxTagLen})
		}
	}
	return nil
}

func validatePatch(patch domain.TicketPatch) error {
	if patch.Subject != nil {
		trimmed := strings.TrimSpace(*patch.Subject)
		if trimmed == "" || len(trimmed) > maxSubjectLen {
			return apperrors.NewValidationError("invalid subject", map[string]any{"field": "subject"})
		}
		*patch.Subject = trimmed
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if trimmed == "" || len(trimmed) > maxDescriptionLen {
			return apperrors.NewValidationError("invalid description", map[string]any{"field": "description"})
		}
		*patch.Description = trimmed
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority"})
	}
	if patch.Tags != nil {
		if err := validateTags(*patch.Tags); err != nil {
			return err
		}
	}
	if patch.EstimatedHrs != nil && *patch.EstimatedHrs < 0 {
		return apperrors.NewValidationError("estimated hours must be non-negative", map[string]any{"field": "estimatedHours"})
	}
	if patch.ActualHrs != nil && *patch.ActualHrs < 0 {
		return apperrors.NewValidationError("actual hours must be non-negative", map[string]any{"field": "actualHours"})
	}
	return nil
}

func applyPatch(t *domain.Ticket, patch domain.TicketPatch) {
	if patch.Subject != nil {
		t.Subject = *patch.Subject
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = *patch.AssignedTo
	}
	if patch.Tags != nil {
		t.Tags = *patch.Tags
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.EstimatedHrs != nil {
		t.EstimatedHrs = patch.EstimatedHrs
	}
	if patch.ActualHrs != nil {
		t.ActualHrs = patch.ActualHrs
	}
}
