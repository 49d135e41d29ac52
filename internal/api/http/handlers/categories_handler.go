package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/api/dto"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/service"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

// CategoriesHandler exposes category endpoints. Mutations are admin-only,
// enforced by route middleware.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List GET /categories. Defaults to active categories only; admins may
// pass all=true to include inactive ones.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	var isActive *bool
	if c.Query("all") != "true" {
		active := true
		isActive = &active
	}

	categories, err := h.categories.List(c.UserContext(), isActive)
	if err != nil {
		return err
	}

	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"categories": items})
}

// Get GET /categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.categories.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": dto.NewCategoryResponse(category)})
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category, err := h.categories.Create(c.UserContext(), principal.User, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"category": dto.NewCategoryResponse(category)})
}

// Update PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category, err := h.categories.Update(c.UserContext(), c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": dto.NewCategoryResponse(category)})
}

// ToggleStatus PATCH /categories/:id/toggle-status.
func (h *CategoriesHandler) ToggleStatus(c *fiber.Ctx) error {
	category, err := h.categories.ToggleActive(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": dto.NewCategoryResponse(category)})
}

// Delete DELETE /categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "category deleted"})
}
