package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, description, active, created_at, updated_at
		FROM categories
		WHERE active = 1
		ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) GetActive(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, description, active, created_at, updated_at
		FROM categories
		WHERE id = ? AND active = 1`, id)
	return c, err
}

func (r *CategoryRepo) NameTaken(ctx context.Context, name, excludingID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM categories
		WHERE active = 1 AND LOWER(name) = LOWER(?) AND id != ?
	`, name, excludingID)
	return n > 0, err
}

func (r *CategoryRepo) Insert(ctx context.Context, name, description string) (domain.Category, error) {
	c := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   nowStamp(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, name, description, active, created_at)
		VALUES(?, ?, ?, 1, ?)
	`, c.ID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id, name, description string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND active = 1
	`, name, description, nowStamp(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ActiveProductCount reports how many active products still reference the
// category; deactivation is refused while it is non-zero.
func (r *CategoryRepo) ActiveProductCount(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM products WHERE category_id = ? AND active = 1`, id)
	return n, err
}

func (r *CategoryRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET active = 0, updated_at = ? WHERE id = ? AND active = 1
	`, nowStamp(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
