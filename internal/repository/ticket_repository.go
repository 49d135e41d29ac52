package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. CreatedBy doubles as the hard
// role scope for plain users and as an explicit filter for staff.
type TicketFilter struct {
	CreatedBy   *string
	AssignedTo  *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	CategoryID  *string
	MineUserID  *string // tickets created by OR assigned to this user
	Search      *string // substring over subject, description, ticket number
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	SortDesc    bool
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Mutating operations on
// a single ticket are serialized through a FOR UPDATE row lock.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	IncrementViews(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// StatusCounts is scoped only by creator, matching the role restriction
	// of the listing rather than its full filter set.
	StatusCounts(ctx context.Context, createdBy *string) (map[domain.TicketStatus]int, error)
	AssigneeStatusCounts(ctx context.Context, userID string) (map[domain.TicketStatus]int, error)
	// CountForUser counts tickets the user created or is assigned to.
	CountForUser(ctx context.Context, userID string) (int, error)
	// Mutate loads the ticket under a row lock, applies fn and persists the
	// result in the same transaction.
	Mutate(ctx context.Context, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error)
	// Vote applies the one-vote-per-user rule and returns the new counters.
	// A same-direction revote returns ErrDuplicateVote.
	Vote(ctx context.Context, ticketID, userID string, vote domain.VoteType) (upvotes, downvotes int, err error)
	VotesFor(ctx context.Context, ticketID string) ([]domain.Vote, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketBaseColumns = `id, ticket_number, subject, description, status, priority,
    category_id, created_by, assigned_to, tags, attachments, upvotes, downvotes, views,
    is_resolved, resolved_at, resolved_by, due_date, estimated_hours, actual_hours,
    created_at, updated_at`

const ticketJoinedSelect = `
    SELECT t.id, t.ticket_number, t.subject, t.description, t.status, t.priority,
           t.category_id, t.created_by, t.assigned_to, t.tags, t.attachments,
           t.upvotes, t.downvotes, t.views, t.is_resolved, t.resolved_at, t.resolved_by,
           t.due_date, t.estimated_hours, t.actual_hours, t.created_at, t.updated_at,
           c.name, c.description, c.color, c.is_active,
           cu.username, cu.email,
           au.username, au.email
    FROM tickets t
    JOIN categories c ON c.id = t.category_id
    JOIN users cu ON cu.id = t.created_by
    LEFT JOIN users au ON au.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// The ticket number comes from a dedicated sequence so creation stays
	// race-free under concurrency.
	const query = `
        INSERT INTO tickets (ticket_number, subject, description, status, priority,
            category_id, created_by, tags, attachments, due_date, estimated_hours, actual_hours)
        VALUES ('TKT-' || lpad(nextval('ticket_number_seq')::text, 6, '0'),
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, ticket_number, created_at, updated_at`
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}
	return r.db.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.CreatedBy,
		ticket.Tags,
		ticket.Attachments,
		ticket.DueDate,
		ticket.EstimatedHrs,
		ticket.ActualHrs,
	).Scan(&ticket.ID, &ticket.TicketNumber, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, ticketJoinedSelect+` WHERE t.id=$1`, id)
	return scanJoinedTicket(row)
}

func (r *ticketRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET views = views + 1 WHERE id=$1`, id)
	return err
}

var ticketSortColumns = map[string]string{
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
	"priority":  "t.priority",
	"status":    "t.status",
	"subject":   "t.subject",
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	if filter.MineUserID != nil {
		args = append(args, *filter.MineUserID)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(t.created_by=%s OR t.assigned_to=%s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.subject) LIKE %s OR LOWER(t.description) LIKE %s OR LOWER(t.ticket_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets t WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := ticketSortColumns[filter.SortBy]
	if !ok {
		sortCol = "t.created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Secondary key keeps ordering stable across equal sort values.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s %s, t.ticket_number ASC LIMIT %d OFFSET %d`,
		ticketJoinedSelect, where, sortCol, direction, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanJoinedTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) StatusCounts(ctx context.Context, createdBy *string) (map[domain.TicketStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	args := []any{}
	if createdBy != nil {
		query += ` WHERE created_by=$1`
		args = append(args, *createdBy)
	}
	query += ` GROUP BY status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) AssigneeStatusCounts(ctx context.Context, userID string) (map[domain.TicketStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM tickets WHERE assigned_to=$1 GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE created_by=$1 OR assigned_to=$1`, userID,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketBaseColumns)
	ticket, err := scanBaseTicket(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := fn(ticket); err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets SET subject=$1, description=$2, status=$3, priority=$4,
            assigned_to=$5, tags=$6, attachments=$7, due_date=$8,
            estimated_hours=$9, actual_hours=$10, is_resolved=$11,
            resolved_at=$12, resolved_by=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.Tags,
		ticket.Attachments,
		ticket.DueDate,
		ticket.EstimatedHrs,
		ticket.ActualHrs,
		ticket.IsResolved,
		ticket.ResolvedAt,
		ticket.ResolvedBy,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) Vote(ctx context.Context, ticketID, userID string, vote domain.VoteType) (int, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var upvotes, downvotes int
	if err := tx.QueryRow(ctx,
		`SELECT upvotes, downvotes FROM tickets WHERE id=$1 FOR UPDATE`, ticketID,
	).Scan(&upvotes, &downvotes); err != nil {
		return 0, 0, err
	}

	var existing domain.VoteType
	err = tx.QueryRow(ctx,
		`SELECT vote_type FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`, ticketID, userID,
	).Scan(&existing)
	switch err {
	case nil:
		if existing == vote {
			return 0, 0, ErrDuplicateVote
		}
		// Direction switch rewrites the record and moves one count each way.
		if existing == domain.VoteUp {
			upvotes--
			downvotes++
		} else {
			downvotes--
			upvotes++
		}
		if _, err := tx.Exec(ctx,
			`UPDATE ticket_votes SET vote_type=$1, voted_at=NOW() WHERE ticket_id=$2 AND user_id=$3`,
			vote, ticketID, userID); err != nil {
			return 0, 0, err
		}
	case pgx.ErrNoRows:
		if vote == domain.VoteUp {
			upvotes++
		} else {
			downvotes++
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_votes (ticket_id, user_id, vote_type) VALUES ($1,$2,$3)`,
			ticketID, userID, vote); err != nil {
			return 0, 0, err
		}
	default:
		return 0, 0, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE tickets SET upvotes=$1, downvotes=$2, updated_at=NOW() WHERE id=$3`,
		upvotes, downvotes, ticketID); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return upvotes, downvotes, nil
}

func (r *ticketRepository) VotesFor(ctx context.Context, ticketID string) ([]domain.Vote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ticket_id, user_id, vote_type, voted_at FROM ticket_votes WHERE ticket_id=$1 ORDER BY voted_at`,
		ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.TicketID, &v.UserID, &v.Type, &v.VotedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func scanBaseTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Tags,
		&ticket.Attachments,
		&ticket.Upvotes,
		&ticket.Downvotes,
		&ticket.Views,
		&ticket.IsResolved,
		&ticket.ResolvedAt,
		&ticket.ResolvedBy,
		&ticket.DueDate,
		&ticket.EstimatedHrs,
		&ticket.ActualHrs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanJoinedTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var category domain.Category
	var creatorName, creatorEmail string
	var assigneeName, assigneeEmail *string

	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Tags,
		&ticket.Attachments,
		&ticket.Upvotes,
		&ticket.Downvotes,
		&ticket.Views,
		&ticket.IsResolved,
		&ticket.ResolvedAt,
		&ticket.ResolvedBy,
		&ticket.DueDate,
		&ticket.EstimatedHrs,
		&ticket.ActualHrs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&category.Name,
		&category.Description,
		&category.Color,
		&category.IsActive,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}

	category.ID = ticket.CategoryID
	ticket.Category = &category
	ticket.Creator = &domain.User{ID: ticket.CreatedBy, Username: creatorName, Email: creatorEmail}
	if ticket.AssignedTo != nil && assigneeName != nil {
		assignee := domain.User{ID: *ticket.AssignedTo, Username: *assigneeName}
		if assigneeEmail != nil {
			assignee.Email = *assigneeEmail
		}
		ticket.Assignee = &assignee
	}
	return &ticket, nil
}

func scanJoinedTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanJoinedTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
