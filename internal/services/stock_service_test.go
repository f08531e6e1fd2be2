package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"botshop/internal/blob"
	"botshop/internal/domain"
)

func TestSetSellableStock_TransfersAgainstWarehouse(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 20)
	p := mustCreate(t, set, "Gameboy Color", 10)

	if p.SellableStock != 10 || p.WarehouseStock != 20 {
		t.Fatalf("seed: want 10/20, got %d/%d", p.SellableStock, p.WarehouseStock)
	}

	// increase pulls from the warehouse
	level, err := set.Stock.SetSellableStock(context.Background(), p.ID, 15, "u-test")
	if err != nil {
		t.Fatal(err)
	}
	if level.SellableStock != 15 || level.WarehouseStock != 15 {
		t.Fatalf("want 15/15, got %d/%d", level.SellableStock, level.WarehouseStock)
	}

	// decrease returns to the warehouse
	level, err = set.Stock.SetSellableStock(context.Background(), p.ID, 5, "u-test")
	if err != nil {
		t.Fatal(err)
	}
	if level.SellableStock != 5 || level.WarehouseStock != 25 {
		t.Fatalf("want 5/25, got %d/%d", level.SellableStock, level.WarehouseStock)
	}
}

func TestSetSellableStock_InsufficientWarehouse(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	p := mustCreate(t, set, "Tamagotchi", 10) // 10 sellable / 5 warehouse

	_, err := set.Stock.SetSellableStock(context.Background(), p.ID, 20, "u-test")
	if !errors.Is(err, domain.ErrInsufficientWarehouseStock) {
		t.Fatalf("want ErrInsufficientWarehouseStock, got %v", err)
	}

	// both counters untouched after the failure
	got, _, err := set.Products.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SellableStock != 10 || got.WarehouseStock != 5 {
		t.Fatalf("counters drifted: got %d/%d", got.SellableStock, got.WarehouseStock)
	}
}

func TestSetSellableStock_RejectsNegative(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	p := mustCreate(t, set, "Walkman", 3)

	_, err := set.Stock.SetSellableStock(context.Background(), p.ID, -1, "u-test")
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
}

func TestRestockWarehouse(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	p := mustCreate(t, set, "Discman", 3) // 3/5

	for _, bad := range []int{0, -7} {
		if _, err := set.Stock.RestockWarehouse(context.Background(), p.ID, bad, "u-test"); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("amount=%d: want ErrInvalidQuantity, got %v", bad, err)
		}
	}

	level, err := set.Stock.RestockWarehouse(context.Background(), p.ID, 7, "u-test")
	if err != nil {
		t.Fatal(err)
	}
	if level.SellableStock != 3 || level.WarehouseStock != 12 {
		t.Fatalf("want 3/12, got %d/%d", level.SellableStock, level.WarehouseStock)
	}

	if _, err := set.Stock.RestockWarehouse(context.Background(), "no-such-id", 1, "u-test"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAdjustmentTrail(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 20)
	p := mustCreate(t, set, "Polaroid", 10)

	if _, err := set.Stock.SetSellableStock(context.Background(), p.ID, 12, "u-test"); err != nil {
		t.Fatal(err)
	}
	if _, err := set.Stock.RestockWarehouse(context.Background(), p.ID, 100, "u-test"); err != nil {
		t.Fatal(err)
	}

	rows, err := set.Stock.Adjustments(context.Background(), p.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 adjustments, got %d", len(rows))
	}
	// newest first
	if rows[0].Reason != "warehouse_restock" || rows[0].Delta != 100 {
		t.Fatalf("rows[0]: %+v", rows[0])
	}
	if rows[1].Reason != "sellable_set" || rows[1].Delta != 2 {
		t.Fatalf("rows[1]: %+v", rows[1])
	}
	if rows[2].Reason != "initial_allocation" || rows[2].Delta != 30 {
		t.Fatalf("rows[2]: %+v", rows[2])
	}
}

// Cached listing pages embed both counters, so every successful stock edit
// must bump the cache, and failed ones must not.
func TestStockMutations_InvalidateListing(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	p := mustCreate(t, set, "Boombox", 3)

	if set.Stock.OnMutate == nil {
		t.Fatal("stock service not wired to listing invalidation")
	}
	var bumps int
	set.Stock.OnMutate = func(context.Context) { bumps++ }

	if _, err := set.Stock.SetSellableStock(context.Background(), p.ID, 2, "u-test"); err != nil {
		t.Fatal(err)
	}
	if _, err := set.Stock.RestockWarehouse(context.Background(), p.ID, 10, "u-test"); err != nil {
		t.Fatal(err)
	}
	if bumps != 2 {
		t.Fatalf("want 2 invalidations, got %d", bumps)
	}

	// failures leave the cache version alone
	if _, err := set.Stock.SetSellableStock(context.Background(), p.ID, 100, "u-test"); !errors.Is(err, domain.ErrInsufficientWarehouseStock) {
		t.Fatal(err)
	}
	if _, err := set.Stock.RestockWarehouse(context.Background(), p.ID, -1, "u-test"); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatal(err)
	}
	if bumps != 2 {
		t.Fatalf("failed mutations bumped the cache: %d", bumps)
	}
}

// Concurrent edits must never leak or mint stock: whatever interleaving
// wins, sellable+warehouse stays equal to the initial allocation.
func TestSetSellableStock_ConcurrentConservesSum(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 40)
	p := mustCreate(t, set, "Virtual Boy", 10) // sum = 50

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// some of these exceed the warehouse and must fail cleanly
			_, _ = set.Stock.SetSellableStock(context.Background(), p.ID, n*5, "u-test")
		}(i)
	}
	wg.Wait()

	got, _, err := set.Products.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum := got.SellableStock + got.WarehouseStock; sum != 50 {
		t.Fatalf("stock drifted: %d sellable + %d warehouse = %d, want 50",
			got.SellableStock, got.WarehouseStock, sum)
	}
}
