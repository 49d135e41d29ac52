package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

const (
	maxCategoryNameLen = 50
	maxCategoryDescLen = 200
	defaultColor       = "#1976d2"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryService manages ticket categories. Mutations are admin-only,
// enforced at the route layer.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CategoryInput describes create/update payload.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
}

// List returns categories, optionally filtered by active flag.
func (s *CategoryService) List(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	return s.categories.List(ctx, isActive)
}

// GetByID fetches one category.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// Create adds a category. Names are unique case-insensitively.
func (s *CategoryService) Create(ctx context.Context, principal *domain.User, input CategoryInput) (*domain.Category, error) {
	name, color, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}

	if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("category already exists", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       color,
		IsActive:    true,
		CreatedBy:   principal.ID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Update modifies a category, keeping the case-insensitive name unique.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	name, color, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err)
	}

	if !strings.EqualFold(name, category.Name) {
		if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil && existing.ID != id {
			return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	category.Color = color
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// ToggleActive flips the active flag. Existing tickets keep their
// category either way.
func (s *CategoryService) ToggleActive(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	category.IsActive = !category.IsActive
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// Delete removes a category unless any ticket still references it.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return mapCategoryErr(err)
	}

	count, err := s.categories.TicketCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict(
			fmt.Sprintf("cannot delete category, it is used by %d ticket(s)", count),
			map[string]any{"ticketCount": count})
	}

	return mapCategoryErr(s.categories.Delete(ctx, id))
}

func validateCategoryInput(input CategoryInput) (name, color string, err error) {
	name = strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if len(name) > maxCategoryNameLen {
		return "", "", apperrors.NewValidationError("name too long", map[string]any{"field": "name", "max": maxCategoryNameLen})
	}
	if len(input.Description) > maxCategoryDescLen {
		return "", "", apperrors.NewValidationError("description too long", map[string]any{"field": "description", "max": maxCategoryDescLen})
	}
	color = input.Color
	if color == "" {
		color = defaultColor
	}
	if !colorPattern.MatchString(color) {
		return "", "", apperrors.NewValidationError("invalid color", map[string]any{"field": "color"})
	}
	return name, color, nil
}

func mapCategoryErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("category", nil)
	}
	return err
}
