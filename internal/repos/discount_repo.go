package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
)

// DiscountRepo manages the discount codes the storefront offers at checkout.
// The admin side owns the rows; redemption bookkeeping (the used counter)
// belongs to the storefront's order flow.
type DiscountRepo struct{ db *sqlx.DB }

func NewDiscountRepo(db *sqlx.DB) *DiscountRepo { return &DiscountRepo{db: db} }

var discountTypes = map[string]bool{"percentage": true, "fixed": true}

// ValidDiscountType reports whether t is one of the supported kinds:
// "percentage" (value is percent points) or "fixed" (value is cents).
func ValidDiscountType(t string) bool { return discountTypes[t] }

const discountCols = `
  id, code, type, value, minimum_purchase_cents, usage_limit, used,
  is_active, COALESCE(valid_until,'') AS valid_until, created_at`

func (r *DiscountRepo) List(ctx context.Context) ([]domain.Discount, error) {
	var out []domain.Discount
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+discountCols+` FROM discounts ORDER BY created_at DESC`)
	return out, err
}

func (r *DiscountRepo) Insert(ctx context.Context, d domain.Discount) (domain.Discount, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = nowStamp()

	var until any
	if d.ValidUntil != "" {
		until = d.ValidUntil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO discounts(id, code, type, value, minimum_purchase_cents,
		  usage_limit, used, is_active, valid_until, created_at)
		VALUES(?, ?, ?, ?, ?, ?, 0, 1, ?, ?)
	`, d.ID, d.Code, d.Type, d.Value, d.MinimumPurchaseCents, d.UsageLimit, until, d.CreatedAt)
	if err != nil {
		return domain.Discount{}, err
	}
	d.Used = 0
	d.Active = true
	return d, nil
}

func (r *DiscountRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discounts SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
