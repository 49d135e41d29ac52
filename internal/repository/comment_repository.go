package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	// Create inserts the comment and bumps the parent ticket's updated_at
	// in the same transaction.
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	db DB
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(db DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if comment.Attachments == nil {
		comment.Attachments = []domain.Attachment{}
	}
	const insert = `
        INSERT INTO comments (ticket_id, author_id, message, is_internal, attachments)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		comment.TicketID,
		comment.AuthorID,
		comment.Message,
		comment.IsInternal,
		comment.Attachments,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, comment.TicketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT cm.id, cm.ticket_id, cm.author_id, cm.message, cm.is_internal,
               cm.attachments, cm.is_edited, cm.edited_at, cm.edited_by, cm.created_at,
               u.username, u.email, u.role
        FROM comments cm
        JOIN users u ON u.id = cm.author_id
        WHERE cm.ticket_id=$1
        ORDER BY cm.created_at, cm.id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		var authorName, authorEmail string
		var authorRole domain.Role
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Message,
			&comment.IsInternal,
			&comment.Attachments,
			&comment.IsEdited,
			&comment.EditedAt,
			&comment.EditedBy,
			&comment.CreatedAt,
			&authorName,
			&authorEmail,
			&authorRole,
		); err != nil {
			return nil, err
		}
		comment.Author = &domain.User{
			ID:       comment.AuthorID,
			Username: authorName,
			Email:    authorEmail,
			Role:     authorRole,
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
