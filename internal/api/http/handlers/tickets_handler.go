package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/api/dto"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/blob"
	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/service"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

// TicketsHandler exposes ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets         *service.TicketService
	comments        *service.CommentService
	files           *blob.Store
	maxTicketFiles  int
	maxCommentFiles int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, files *blob.Store, storage config.StorageConfig) *TicketsHandler {
	maxTicketFiles := storage.MaxTicketFiles
	if maxTicketFiles <= 0 {
		maxTicketFiles = 5
	}
	maxCommentFiles := storage.MaxCommentFiles
	if maxCommentFiles <= 0 {
		maxCommentFiles = 3
	}
	return &TicketsHandler{
		tickets:         tickets,
		comments:        comments,
		files:           files,
		maxTicketFiles:  maxTicketFiles,
		maxCommentFiles: maxCommentFiles,
	}
}

// Create POST /tickets. Accepts JSON or multipart with attachments.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CreateTicketRequest
	var attachments []domain.Attachment

	if form, err := c.MultipartForm(); err == nil && form != nil {
		req = createRequestFromForm(c)
		if h.files != nil {
			attachments, err = h.files.SaveAll(form.File["attachments"], h.maxTicketFiles)
			if err != nil {
				return err
			}
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.Category,
		Priority:    domain.TicketPriority(req.Priority),
		Tags:        req.Tags,
		DueDate:     req.DueDate,
		Attachments: attachments,
	}
	ticket, err := h.tickets.Create(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	input, err := parseTicketListQuery(c)
	if err != nil {
		return err
	}
	result, err := h.tickets.List(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}

	return c.JSON(dto.TicketListResponse{
		Tickets:    dto.NewTicketResponses(result.Tickets),
		Pagination: dto.NewPagination(result.Page, result.PageSize, result.Total),
		Stats:      result.StatusCounts,
	})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.tickets.GetByID(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Update PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := domain.TicketPatch{
		Subject:      req.Subject,
		Description:  req.Description,
		EstimatedHrs: req.EstimatedHours,
		ActualHrs:    req.ActualHours,
		Tags:         req.Tags,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.AssignedTo.Set {
		patch.AssignedTo = &req.AssignedTo.Value
	}
	if req.DueDate.Set {
		patch.DueDate = &req.DueDate.Value
	}

	ticket, err := h.tickets.Update(c.UserContext(), principal.User, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Assign PATCH /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Assign(c.UserContext(), principal.User, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Vote POST /tickets/:id/vote.
func (h *TicketsHandler) Vote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.tickets.Vote(c.UserContext(), principal.User, c.Params("id"), domain.VoteType(req.Type))
	if err != nil {
		return err
	}
	return c.JSON(dto.VoteResponse{
		Upvotes:   result.Upvotes,
		Downvotes: result.Downvotes,
		UserVote:  string(result.UserVote),
	})
}

// AddComment POST /tickets/:id/comments. Accepts JSON or multipart.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CreateCommentRequest
	var attachments []domain.Attachment

	if form, err := c.MultipartForm(); err == nil && form != nil {
		req.Message = c.FormValue("message")
		req.IsInternal = c.FormValue("isInternal") == "true"
		if h.files != nil {
			attachments, err = h.files.SaveAll(form.File["attachments"], h.maxCommentFiles)
			if err != nil {
				return err
			}
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.comments.Add(c.UserContext(), principal.User, c.Params("id"), req.Message, req.IsInternal, attachments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"comment": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	comments, err := h.comments.ListForTicket(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"comments": items})
}

func createRequestFromForm(c *fiber.Ctx) dto.CreateTicketRequest {
	req := dto.CreateTicketRequest{
		Subject:     c.FormValue("subject"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Priority:    c.FormValue("priority"),
	}
	if raw := c.FormValue("tags"); raw != "" {
		// Tags arrive either as a JSON array or comma-separated.
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			req.Tags = tags
		} else {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					req.Tags = append(req.Tags, tag)
				}
			}
		}
	}
	if raw := c.FormValue("dueDate"); raw != "" {
		if due, err := time.Parse(time.RFC3339, raw); err == nil {
			req.DueDate = &due
		}
	}
	return req
}

func parseTicketListQuery(c *fiber.Ctx) (service.TicketListInput, error) {
	input := service.TicketListInput{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "limit", 10),
		SortBy:   c.Query("sortBy", "createdAt"),
		SortDesc: !strings.EqualFold(c.Query("sortOrder", "desc"), "asc"),
		Mine:     c.Query("myTickets") == "true",
	}
	if input.PageSize > 100 {
		input.PageSize = 100
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return input, apperrors.NewValidationError("invalid status filter", map[string]any{"field": "status"})
		}
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			return input, apperrors.NewValidationError("invalid priority filter", map[string]any{"field": "priority"})
		}
		input.Priority = &priority
	}
	if raw := c.Query("category"); raw != "" {
		input.CategoryID = &raw
	}
	if raw := c.Query("assignedTo"); raw != "" {
		input.AssignedTo = &raw
	}
	if raw := c.Query("createdBy"); raw != "" {
		input.CreatedBy = &raw
	}
	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		input.Search = &raw
	}
	var err error
	if input.DateFrom, err = parseDateQuery(c, "dateFrom"); err != nil {
		return input, err
	}
	if input.DateTo, err = parseDateQuery(c, "dateTo"); err != nil {
		return input, err
	}
	return input, nil
}

func parseIntQuery(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": key})
}
