package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// StatsOverview holds ticket counts by lifecycle state.
type StatsOverview struct {
	Total      int `json:"totalTickets"`
	Open       int `json:"openTickets"`
	InProgress int `json:"inProgressTickets"`
	Resolved   int `json:"resolvedTickets"`
	Closed     int `json:"closedTickets"`
}

// AgentStat aggregates per-agent assignment outcomes.
type AgentStat struct {
	Agent    string `json:"agent"`
	Assigned int    `json:"totalAssigned"`
	Resolved int    `json:"resolved"`
	Closed   int    `json:"closed"`
}

// StatsRepository provides read-only rollups over the ticket store.
type StatsRepository interface {
	Overview(ctx context.Context, from, to *time.Time) (StatsOverview, error)
	PriorityCounts(ctx context.Context, from, to *time.Time) (map[domain.TicketPriority]int, error)
	CategoryCounts(ctx context.Context, from, to *time.Time) (map[string]int, error)
	AgentStats(ctx context.Context, from, to *time.Time) ([]AgentStat, error)
}

type statsRepository struct {
	db DB
}

// NewStatsRepository instantiates repository.
func NewStatsRepository(db DB) StatsRepository {
	return &statsRepository{db: db}
}

func dateRangeClause(from, to *time.Time, column string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *statsRepository) Overview(ctx context.Context, from, to *time.Time) (StatsOverview, error) {
	where, args := dateRangeClause(from, to, "created_at")
	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='Open'),
               COUNT(*) FILTER (WHERE status='In Progress'),
               COUNT(*) FILTER (WHERE status='Resolved'),
               COUNT(*) FILTER (WHERE status='Closed')
        FROM tickets WHERE %s`, where)

	var overview StatsOverview
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&overview.Total,
		&overview.Open,
		&overview.InProgress,
		&overview.Resolved,
		&overview.Closed,
	)
	return overview, err
}

func (r *statsRepository) PriorityCounts(ctx context.Context, from, to *time.Time) (map[domain.TicketPriority]int, error) {
	where, args := dateRangeClause(from, to, "created_at")
	query := fmt.Sprintf(`SELECT priority, COUNT(*) FROM tickets WHERE %s GROUP BY priority`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func (r *statsRepository) CategoryCounts(ctx context.Context, from, to *time.Time) (map[string]int, error) {
	where, args := dateRangeClause(from, to, "t.created_at")
	query := fmt.Sprintf(`
        SELECT c.name, COUNT(*)
        FROM tickets t
        JOIN categories c ON c.id = t.category_id
        WHERE %s
        GROUP BY c.name`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

func (r *statsRepository) AgentStats(ctx context.Context, from, to *time.Time) ([]AgentStat, error) {
	where, args := dateRangeClause(from, to, "t.created_at")
	query := fmt.Sprintf(`
        SELECT u.username,
               COUNT(*),
               COUNT(*) FILTER (WHERE t.status='Resolved'),
               COUNT(*) FILTER (WHERE t.status='Closed')
        FROM tickets t
        JOIN users u ON u.id = t.assigned_to
        WHERE t.assigned_to IS NOT NULL AND %s
        GROUP BY u.username
        ORDER BY u.username`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []AgentStat
	for rows.Next() {
		var stat AgentStat
		if err := rows.Scan(&stat.Agent, &stat.Assigned, &stat.Resolved, &stat.Closed); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
