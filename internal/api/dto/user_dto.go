package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the account shape returned by the API. The password
// hash never leaves the service layer.
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	NotifyEmail bool      `json:"notifyEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AuthResponse bundles an account with its access token.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateUserRequest patches an account. Absent fields are untouched.
type UpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	NotifyEmail *bool   `json:"notifyEmail"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"isActive"`
}

// UserListResponse is a paginated user listing.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// DashboardResponse reports one account's ticket counts by status.
// Assigned counts only appear for staff accounts.
type DashboardResponse struct {
	User            UserResponse                `json:"user"`
	CreatedTickets  map[domain.TicketStatus]int `json:"createdTickets"`
	AssignedTickets map[domain.TicketStatus]int `json:"assignedTickets,omitempty"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		NotifyEmail: u.NotifyEmail,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
