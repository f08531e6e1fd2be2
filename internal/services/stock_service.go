package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
	"botshop/internal/repos"
)

// StockService is the only sanctioned way to change stock. Sellable and
// warehouse counters move together: editing sellable stock is a transfer
// against the warehouse, so the sum of both counters never drifts.
type StockService struct {
	Stock *repos.StockRepo

	// WarehouseSeed is the warehouse allocation granted at product creation.
	WarehouseSeed int

	// OnMutate runs after a committed stock mutation. The service graph
	// points it at the product listing cache invalidation, since cached
	// pages embed both counters.
	OnMutate func(ctx context.Context)

	locks *productLocks
}

func NewStockService(stock *repos.StockRepo, warehouseSeed int, locks *productLocks) *StockService {
	return &StockService{Stock: stock, WarehouseSeed: warehouseSeed, locks: locks}
}

// SetSellableStock moves the difference between the current and requested
// sellable quantity out of (or back into) the warehouse. Fails with
// ErrInsufficientWarehouseStock when the warehouse cannot cover an increase;
// both counters stay untouched on any failure.
func (s *StockService) SetSellableStock(ctx context.Context, productID string, newSellable int, actor string) (domain.StockLevel, error) {
	if newSellable < 0 {
		return domain.StockLevel{}, fmt.Errorf("%w: sellable stock must be >= 0", domain.ErrInvalidQuantity)
	}
	unlock := s.locks.lock(productID)
	defer unlock()
	return s.setSellable(ctx, productID, newSellable, actor)
}

// setSellable is the lock-free variant for callers already holding the
// product lock.
func (s *StockService) setSellable(ctx context.Context, productID string, newSellable int, actor string) (domain.StockLevel, error) {
	level, err := s.Stock.Transfer(ctx, productID, newSellable, "sellable_set", actor)
	if err != nil {
		return domain.StockLevel{}, storageErr("stock.transfer", err)
	}
	s.mutated(ctx)
	return level, nil
}

func (s *StockService) mutated(ctx context.Context) {
	if s.OnMutate != nil {
		s.OnMutate(ctx)
	}
}

// InitializeStock seeds a freshly created product with its initial sellable
// quantity and the configured warehouse allocation, on the creation
// transaction so nothing is visible until the product row commits.
func (s *StockService) InitializeStock(ctx context.Context, e sqlx.ExtContext, productID string, initialSellable int, actor string) error {
	if initialSellable < 0 {
		return fmt.Errorf("%w: initial stock must be >= 0", domain.ErrInvalidQuantity)
	}
	if err := s.Stock.InitCounters(ctx, e, productID, initialSellable, s.WarehouseSeed); err != nil {
		return storageErr("stock.init", err)
	}
	if err := s.Stock.InsertAdjustment(ctx, e, productID, initialSellable+s.WarehouseSeed, "initial_allocation", actor); err != nil {
		return storageErr("stock.init.adjustment", err)
	}
	return nil
}

// RestockWarehouse increases the warehouse counter only.
func (s *StockService) RestockWarehouse(ctx context.Context, productID string, amount int, actor string) (domain.StockLevel, error) {
	if amount <= 0 {
		return domain.StockLevel{}, fmt.Errorf("%w: restock amount must be > 0", domain.ErrInvalidQuantity)
	}
	unlock := s.locks.lock(productID)
	defer unlock()

	level, err := s.Stock.Restock(ctx, productID, amount, actor)
	if err != nil {
		return domain.StockLevel{}, storageErr("stock.restock", err)
	}
	s.mutated(ctx)
	return level, nil
}

// Adjustments returns the audit trail for a product, newest first.
func (s *StockService) Adjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	rows, err := s.Stock.Adjustments(ctx, productID, limit)
	if err != nil {
		return nil, storageErr("stock.adjustments", err)
	}
	return rows, nil
}
