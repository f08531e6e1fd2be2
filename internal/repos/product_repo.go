package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, COALESCE(category_id,'') AS category_id, name, description, price_cents,
  sellable_stock, warehouse_stock, COALESCE(cover_image_id,'') AS cover_image_id,
  active, created_at, updated_at`

// ListFilter narrows the admin product listing. Search matches name,
// description and category name case-insensitively.
type ListFilter struct {
	Search     string
	CategoryID string
}

func (r *ProductRepo) DB() *sqlx.DB { return r.db }

func (r *ProductRepo) Insert(ctx context.Context, e sqlx.ExtContext, p domain.Product) error {
	var catID any
	if p.CategoryID != "" {
		catID = p.CategoryID
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO products(id, category_id, name, description, price_cents,
		  sellable_stock, warehouse_stock, active, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, p.ID, catID, p.Name, p.Description, p.PriceCents,
		p.SellableStock, p.WarehouseStock, nowStamp())
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// GetActive returns sql.ErrNoRows for retired products as well as unknown ids.
func (r *ProductRepo) GetActive(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ? AND active = 1`, id)
	return p, err
}

func buildWhere(f ListFilter) (string, []any) {
	where := `p.active = 1`
	args := []any{}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		where += ` AND (LOWER(p.name) LIKE LOWER(?) OR LOWER(p.description) LIKE LOWER(?)
		  OR LOWER(COALESCE(c.name,'')) LIKE LOWER(?))`
		args = append(args, like, like, like)
	}
	if f.CategoryID != "" {
		where += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	return where, args
}

func (r *ProductRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Product, error) {
	where, args := buildWhere(f)
	q := `
	  SELECT p.id, COALESCE(p.category_id,'') AS category_id, p.name, p.description,
	    p.price_cents, p.sellable_stock, p.warehouse_stock,
	    COALESCE(p.cover_image_id,'') AS cover_image_id, p.active, p.created_at, p.updated_at
	  FROM products p
	  LEFT JOIN categories c ON c.id = p.category_id
	  WHERE ` + where + `
	  ORDER BY p.created_at ASC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

func (r *ProductRepo) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := buildWhere(f)
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*)
	  FROM products p
	  LEFT JOIN categories c ON c.id = p.category_id
	  WHERE `+where, args...)
	return n, err
}

// NameTaken reports whether an active product other than excludingID already
// uses the name (case-insensitive).
func (r *ProductRepo) NameTaken(ctx context.Context, name, excludingID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM products
	  WHERE active = 1 AND LOWER(name) = LOWER(?) AND id != ?
	`, name, excludingID)
	return n > 0, err
}

// FieldUpdate carries optional column changes; nil means leave unchanged.
type FieldUpdate struct {
	Name        *string
	Description *string
	PriceCents  *int64
	CategoryID  *string
}

func (u FieldUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.PriceCents == nil && u.CategoryID == nil
}

func (r *ProductRepo) UpdateFields(ctx context.Context, e sqlx.ExtContext, id string, u FieldUpdate) error {
	set := `updated_at = ?`
	args := []any{nowStamp()}
	if u.Name != nil {
		set += `, name = ?`
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		set += `, description = ?`
		args = append(args, *u.Description)
	}
	if u.PriceCents != nil {
		set += `, price_cents = ?`
		args = append(args, *u.PriceCents)
	}
	if u.CategoryID != nil {
		set += `, category_id = ?`
		if *u.CategoryID == "" {
			args = append(args, nil)
		} else {
			args = append(args, *u.CategoryID)
		}
	}
	args = append(args, id)

	res, err := e.ExecContext(ctx, `UPDATE products SET `+set+` WHERE id = ? AND active = 1`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ProductRepo) SetCover(ctx context.Context, e sqlx.ExtContext, id, coverImageID string) error {
	var cover any
	if coverImageID != "" {
		cover = coverImageID
	}
	_, err := e.ExecContext(ctx, `UPDATE products SET cover_image_id = ?, updated_at = ? WHERE id = ?`,
		cover, nowStamp(), id)
	return err
}

// Retire soft-deletes; image rows and blobs are left in place for historical
// order rendering.
func (r *ProductRepo) Retire(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET active = 0, updated_at = ? WHERE id = ? AND active = 1`,
		nowStamp(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
