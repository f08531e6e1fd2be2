package services_test

import (
	"context"
	"errors"
	"testing"

	"botshop/internal/blob"
	"botshop/internal/domain"
	"botshop/internal/services"
)

func TestCategory_DuplicateNameCaseInsensitive(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	if _, err := set.Categories.Create(context.Background(), "Consoles", "", "u-test"); err != nil {
		t.Fatal(err)
	}
	_, err := set.Categories.Create(context.Background(), "  consoles ", "", "u-test")
	if !errors.Is(err, domain.ErrDuplicateCategoryName) {
		t.Fatalf("want ErrDuplicateCategoryName, got %v", err)
	}
}

func TestCategory_DeactivateBlockedWhileReferenced(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	cat, err := set.Categories.Create(context.Background(), "Handhelds", "", "u-test")
	if err != nil {
		t.Fatal(err)
	}
	p, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         "Game Gear",
		PriceCents:   100,
		InitialStock: 1,
		CategoryID:   cat.ID,
		Images:       []services.ImageUpload{upload("gg.png")},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = set.Categories.Deactivate(context.Background(), cat.ID, "u-test")
	if !errors.Is(err, domain.ErrCategoryInUse) {
		t.Fatalf("want ErrCategoryInUse, got %v", err)
	}

	// retiring the last product unblocks deactivation
	if err := set.Products.Retire(context.Background(), p.ID, "u-test"); err != nil {
		t.Fatal(err)
	}
	if err := set.Categories.Deactivate(context.Background(), cat.ID, "u-test"); err != nil {
		t.Fatal(err)
	}

	// and the name frees up among active categories
	if _, err := set.Categories.Create(context.Background(), "Handhelds", "", "u-test"); err != nil {
		t.Fatal(err)
	}
}

func TestCategory_CreateOnUnknownCategoryFails(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	_, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         "Orphan",
		PriceCents:   100,
		InitialStock: 1,
		CategoryID:   "no-such-category",
		Images:       []services.ImageUpload{upload("o.png")},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCategory_UpdateRename(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	a, err := set.Categories.Create(context.Background(), "Audio", "", "u-test")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := set.Categories.Create(context.Background(), "Video", "", "u-test"); err != nil {
		t.Fatal(err)
	}

	if _, err := set.Categories.Update(context.Background(), a.ID, "VIDEO", "", "u-test"); !errors.Is(err, domain.ErrDuplicateCategoryName) {
		t.Fatalf("want ErrDuplicateCategoryName, got %v", err)
	}

	got, err := set.Categories.Update(context.Background(), a.ID, "Audio Gear", "tapes and decks", "u-test")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Audio Gear" || got.Description != "tapes and decks" {
		t.Fatalf("update: %+v", got)
	}
}
