package dto

import (
	"encoding/json"
	"time"
)

// OptionalString distinguishes an absent JSON field from an explicit
// null, which matters for unassignment.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// OptionalTime distinguishes an absent JSON field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Pagination describes a result page.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"total"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewPagination computes page bookkeeping.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page*pageSize < total,
		HasPrev:     page > 1,
	}
}

// AttachmentResponse mirrors stored attachment metadata.
type AttachmentResponse struct {
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
