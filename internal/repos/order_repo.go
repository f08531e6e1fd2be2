package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// OrderRepo is the admin's read/status view over orders placed by the
// storefront bot. Items snapshot product name and price, so listings stay
// valid after a product is retired.
type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type OrderSummary struct {
	ID          string `db:"id" json:"id"`
	CustomerRef string `db:"customer_ref" json:"customer_ref"`
	TotalCents  int64  `db:"total_cents" json:"total_cents"`
	Status      string `db:"status" json:"status"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

type OrderItemRow struct {
	ProductID  string `db:"product_id" json:"product_id"`
	Name       string `db:"name" json:"name"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	Qty        int    `db:"qty" json:"qty"`
	Subtotal   int64  `db:"subtotal" json:"subtotal_cents"`
}

var orderStatuses = map[string]bool{
	"PLACED": true, "PAID": true, "SHIPPED": true, "DELIVERED": true, "CANCELED": true,
}

func ValidOrderStatus(s string) bool { return orderStatuses[s] }

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, customer_ref, total_cents, status, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	return out, err
}

func (r *OrderRepo) Get(orderID string) (OrderSummary, []OrderItemRow, error) {
	var o OrderSummary
	if err := r.db.Get(&o, `
		SELECT id, customer_ref, total_cents, status, created_at
		FROM orders WHERE id = ?`, orderID); err != nil {
		return OrderSummary{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.Select(&items, `
		SELECT product_id, name, price_cents, qty, (qty * price_cents) AS subtotal
		FROM order_items
		WHERE order_id = ?
		ORDER BY name`, orderID); err != nil {
		return OrderSummary{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
