package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// CreateCommentRequest adds a comment to a ticket. IsInternal is only
// honored for staff; multipart submissions carry the same field names.
type CreateCommentRequest struct {
	Message    string `json:"message"`
	IsInternal bool   `json:"isInternal"`
}

// CommentResponse is the comment shape returned by the API.
type CommentResponse struct {
	ID          string               `json:"id"`
	TicketID    string               `json:"ticketId"`
	Author      *UserSummary         `json:"author,omitempty"`
	Message     string               `json:"message"`
	IsInternal  bool                 `json:"isInternal"`
	Attachments []AttachmentResponse `json:"attachments"`
	IsEdited    bool                 `json:"isEdited"`
	EditedAt    *time.Time           `json:"editedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:          c.ID,
		TicketID:    c.TicketID,
		Message:     c.Message,
		IsInternal:  c.IsInternal,
		Attachments: NewAttachmentResponses(c.Attachments),
		IsEdited:    c.IsEdited,
		EditedAt:    c.EditedAt,
		CreatedAt:   c.CreatedAt,
	}
	if c.Author != nil {
		resp.Author = &UserSummary{ID: c.Author.ID, Username: c.Author.Username, Email: c.Author.Email}
	}
	return resp
}

// NewAttachmentResponses maps attachment metadata.
func NewAttachmentResponses(atts []domain.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(atts))
	for _, a := range atts {
		out = append(out, AttachmentResponse{
			StoredName:   a.StoredName,
			OriginalName: a.OriginalName,
			MimeType:     a.MimeType,
			Size:         a.Size,
			UploadedAt:   a.UploadedAt,
		})
	}
	return out
}
