package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
)

// StockRepo owns the two-counter stock columns and their audit trail. Every
// mutation happens inside one transaction and the transfer is guarded in SQL,
// so two concurrent edits can never both subtract from the same snapshot.
type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// Transfer sets sellable_stock to newSellable and moves the difference out of
// (or back into) the warehouse, keeping the sum of both counters constant.
// Returns domain.ErrInsufficientWarehouseStock when the warehouse cannot
// cover the increase; counters are untouched in every failure case.
func (r *StockRepo) Transfer(ctx context.Context, productID string, newSellable int, reason, actor string) (domain.StockLevel, error) {
	var level domain.StockLevel

	err := retryBusy(func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var cur struct {
			Sellable  int `db:"sellable_stock"`
			Warehouse int `db:"warehouse_stock"`
		}
		if err := tx.GetContext(ctx, &cur, `
			SELECT sellable_stock, warehouse_stock FROM products
			WHERE id = ? AND active = 1`, productID); err != nil {
			return err
		}

		delta := newSellable - cur.Sellable
		if delta == 0 {
			level = domain.StockLevel{SellableStock: cur.Sellable, WarehouseStock: cur.Warehouse}
			return tx.Commit()
		}

		// The WHERE guard re-checks sufficiency at write time; a concurrent
		// transfer that got in first makes this a no-op instead of a drift.
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET sellable_stock = ?, warehouse_stock = warehouse_stock - ?, updated_at = ?
			WHERE id = ? AND active = 1 AND warehouse_stock - ? >= 0
		`, newSellable, delta, nowStamp(), productID, delta)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInsufficientWarehouseStock
		}

		if err := insertAdjustment(ctx, tx, productID, delta, reason, actor); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &level, `
			SELECT sellable_stock, warehouse_stock FROM products WHERE id = ?`, productID); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return domain.StockLevel{}, err
	}
	return level, nil
}

// Restock increases warehouse_stock only.
func (r *StockRepo) Restock(ctx context.Context, productID string, amount int, actor string) (domain.StockLevel, error) {
	var level domain.StockLevel

	err := retryBusy(func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET warehouse_stock = warehouse_stock + ?, updated_at = ?
			WHERE id = ? AND active = 1
		`, amount, nowStamp(), productID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}

		if err := insertAdjustment(ctx, tx, productID, amount, "warehouse_restock", actor); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &level, `
			SELECT sellable_stock, warehouse_stock FROM products WHERE id = ?`, productID); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return domain.StockLevel{}, err
	}
	return level, nil
}

func (r *StockRepo) Levels(ctx context.Context, productID string) (domain.StockLevel, error) {
	var level domain.StockLevel
	err := r.db.GetContext(ctx, &level, `
		SELECT sellable_stock, warehouse_stock FROM products WHERE id = ?`, productID)
	return level, err
}

// Adjustments returns the audit trail, newest first.
func (r *StockRepo) Adjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []domain.StockAdjustment
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, product_id, delta, reason, actor, created_at
		FROM stock_adjustments
		WHERE product_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, productID, limit)
	return out, err
}

// InitCounters sets both counters on a freshly inserted product row, on the
// caller's transaction. Creation-time only.
func (r *StockRepo) InitCounters(ctx context.Context, e sqlx.ExtContext, productID string, sellable, warehouse int) error {
	res, err := e.ExecContext(ctx, `
		UPDATE products SET sellable_stock = ?, warehouse_stock = ?, updated_at = ?
		WHERE id = ?`, sellable, warehouse, nowStamp(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertAdjustment records a stock mutation on the caller's transaction; used
// by product creation so the seed adjustment commits with the product row.
func (r *StockRepo) InsertAdjustment(ctx context.Context, e sqlx.ExtContext, productID string, delta int, reason, actor string) error {
	return insertAdjustment(ctx, e, productID, delta, reason, actor)
}

func insertAdjustment(ctx context.Context, e sqlx.ExtContext, productID string, delta int, reason, actor string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO stock_adjustments(id, product_id, delta, reason, actor, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), productID, delta, reason, actor, nowStamp())
	return err
}
