package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/api/dto"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/internal/service"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

// UsersHandler exposes auth and account administration endpoints.
type UsersHandler struct {
	authSvc *service.AuthService
	users   *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authSvc *service.AuthService, users *service.UserService) *UsersHandler {
	return &UsersHandler{authSvc: authSvc, users: users}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.authSvc.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		User:      dto.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.authSvc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		User:      dto.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Me GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(principal.User)})
}

// ChangePassword PUT /auth/change-password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.authSvc.ChangePassword(c.UserContext(), principal.User, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password changed"})
}

// List GET /users. Admin-only.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "limit", 20)
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.UserFilter{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			return apperrors.NewValidationError("invalid role filter", map[string]any{"field": "role"})
		}
		filter.Role = &role
	}
	if raw := c.Query("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		filter.Search = &raw
	}

	users, total, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(dto.UserListResponse{
		Users:      items,
		Pagination: dto.NewPagination(page, pageSize, total),
	})
}

// ListAgents GET /users/agents. Staff-only; feeds assignment pickers.
func (h *UsersHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.users.ListAgents(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.NewUserResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"agents": items})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.users.GetByID(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Update PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := service.UserPatch{
		Username:    req.Username,
		Email:       req.Email,
		NotifyEmail: req.NotifyEmail,
		IsActive:    req.IsActive,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.users.Update(c.UserContext(), principal.User, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Dashboard GET /users/:id/dashboard.
func (h *UsersHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	dashboard, err := h.users.Dashboard(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.DashboardResponse{
		User:            dto.NewUserResponse(dashboard.User),
		CreatedTickets:  dashboard.CreatedCounts,
		AssignedTickets: dashboard.AssignedCounts,
	}
	return c.JSON(resp)
}

// Delete DELETE /users/:id. Admin-only.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.users.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}
