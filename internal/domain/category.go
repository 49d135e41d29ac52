package domain

import "time"

// Category groups tickets by topic. Names are unique case-insensitively.
type Category struct {
	ID          string
	Name        string
	Description string
	Color       string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
