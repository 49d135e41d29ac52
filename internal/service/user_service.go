package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

// UserService manages account administration beyond auth.
type UserService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, tickets repository.TicketRepository) *UserService {
	return &UserService{users: users, tickets: tickets}
}

// UserPatch carries optional account updates. Role and IsActive are
// admin-only; the rest may be edited by the account owner.
type UserPatch struct {
	Username    *string
	Email       *string
	NotifyEmail *bool
	Role        *domain.Role
	IsActive    *bool
}

// List returns a filtered page of users. Admin-only, enforced at the
// route layer.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	return s.users.List(ctx, filter)
}

// ListAgents returns active staff for assignment pickers.
func (s *UserService) ListAgents(ctx context.Context) ([]domain.User, error) {
	return s.users.ListAgents(ctx)
}

// GetByID returns a single account. Plain users may only view themselves.
func (s *UserService) GetByID(ctx context.Context, principal *domain.User, id string) (*domain.User, error) {
	if principal.Role == domain.RoleUser && principal.ID != id {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return user, nil
}

// Update applies an account patch. Owners may edit their own profile and
// notification preference; role and active flag require admin, and an
// admin cannot deactivate themself.
func (s *UserService) Update(ctx context.Context, principal *domain.User, id string, patch UserPatch) (*domain.User, error) {
	isSelf := principal.ID == id
	isAdmin := principal.Role == domain.RoleAdmin
	if !isSelf && !isAdmin {
		return nil, apperrors.NewForbidden("access denied")
	}

	if patch.Role != nil || patch.IsActive != nil {
		if !isAdmin {
			return nil, apperrors.NewForbidden("only admins may change role or active status")
		}
		if isSelf && patch.IsActive != nil && !*patch.IsActive {
			return nil, apperrors.NewValidationError("you cannot deactivate your own account", nil)
		}
		if patch.Role != nil && !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if len(username) < 3 {
			return nil, apperrors.NewValidationError("username must be at least 3 characters", map[string]any{"field": "username"})
		}
		if !strings.EqualFold(username, user.Username) {
			if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != id {
				return nil, apperrors.NewConflict("username already taken", map[string]any{"field": "username"})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
		user.Username = username
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if !emailPattern.MatchString(email) {
			return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
		}
		if !strings.EqualFold(email, user.Email) {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != id {
				return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
		user.Email = email
	}
	if patch.NotifyEmail != nil {
		user.NotifyEmail = *patch.NotifyEmail
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapUserErr(err)
	}
	return user, nil
}

// Delete removes an account. Admin-only; self-deletion is rejected, and
// accounts still referenced by tickets stay until those are reassigned.
func (s *UserService) Delete(ctx context.Context, principal *domain.User, id string) error {
	if principal.ID == id {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	count, err := s.tickets.CountForUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("user has associated tickets", map[string]any{"tickets": count})
	}
	return mapUserErr(s.users.Delete(ctx, id))
}

// UserDashboard summarizes one account's ticket workload by status.
// AssignedCounts is nil for plain users, who are never assignees.
type UserDashboard struct {
	User           *domain.User
	CreatedCounts  map[domain.TicketStatus]int
	AssignedCounts map[domain.TicketStatus]int
}

// Dashboard returns per-user rollups. Plain users may only view their own.
func (s *UserService) Dashboard(ctx context.Context, principal *domain.User, id string) (*UserDashboard, error) {
	if principal.Role == domain.RoleUser && principal.ID != id {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}

	created, err := s.tickets.StatusCounts(ctx, &id)
	if err != nil {
		return nil, err
	}
	dashboard := &UserDashboard{User: user, CreatedCounts: created}

	if user.Role.IsStaff() {
		assigned, err := s.tickets.AssigneeStatusCounts(ctx, id)
		if err != nil {
			return nil, err
		}
		dashboard.AssignedCounts = assigned
	}
	return dashboard, nil
}

func mapUserErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", nil)
	}
	return err
}
