package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// CategoryRepository encapsulates category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// GetByName matches case-insensitively; name uniqueness checks rely on it.
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context, isActive *bool) ([]domain.Category, error)
	// TicketCount reports how many tickets reference the category.
	TicketCount(ctx context.Context, id string) (int, error)
}

type categoryRepository struct {
	db DB
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, name, description, color, is_active, created_by, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, description, color, is_active, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.IsActive,
		category.CreatedBy,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, description=$2, color=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.IsActive,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id=$1`, categoryColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE LOWER(name)=LOWER($1)`, categoryColumns)
	return r.fetchSingle(ctx, query, name)
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Color,
		&category.IsActive,
		&category.CreatedBy,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories`, categoryColumns)
	args := []any{}
	if isActive != nil {
		query += ` WHERE is_active=$1`
		args = append(args, *isActive)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.Color,
			&category.IsActive,
			&category.CreatedBy,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

func (r *categoryRepository) TicketCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE category_id=$1`, id).Scan(&count)
	return count, err
}
