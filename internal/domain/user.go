package domain

import "time"

// Role determines what a principal may do across the system.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// IsStaff reports whether the role carries agent-level privileges.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent || r == RoleAdmin
}

// User is the domain model for anyone who can authenticate. Requesters,
// agents and admins share one table, distinguished by Role.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	NotifyEmail  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
