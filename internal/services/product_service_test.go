package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"botshop/internal/blob"
	"botshop/internal/domain"
	"botshop/internal/repos"
	"botshop/internal/services"
)

func TestCreateProduct_DuplicateNameCaseInsensitive(t *testing.T) {
	db := testdb(t)
	mem := blob.NewMemory()
	set := newSet(t, db, mem, 5)
	mustCreate(t, set, "Gadget", 1)

	_, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         "gAdGeT",
		PriceCents:   100,
		InitialStock: 1,
		Images:       []services.ImageUpload{upload("dup.png")},
	})
	if !errors.Is(err, domain.ErrDuplicateProductName) {
		t.Fatalf("want ErrDuplicateProductName, got %v", err)
	}

	// the failed create left no rows and no blobs behind
	if n := countRows(t, db, `SELECT COUNT(*) FROM products`); n != 1 {
		t.Fatalf("want 1 product, got %d", n)
	}
	if mem.Len() != 1 {
		t.Fatalf("want 1 blob, got %d", mem.Len())
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	cases := []services.CreateProductInput{
		{Name: "", PriceCents: 100, Images: []services.ImageUpload{upload("x.png")}},
		{Name: "No Images", PriceCents: 100},
		{Name: "Negative Price", PriceCents: -1, Images: []services.ImageUpload{upload("x.png")}},
		{Name: "Negative Stock", PriceCents: 100, InitialStock: -5, Images: []services.ImageUpload{upload("x.png")}},
	}
	for _, in := range cases {
		if _, err := set.Products.Create(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%q: want ErrValidation, got %v", in.Name, err)
		}
	}
}

func TestUpdateProduct_RenameToTakenName(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	mustCreate(t, set, "Keyboard", 1)
	p2 := mustCreate(t, set, "Mouse", 1)

	name := "KEYBOARD"
	_, err := set.Products.Update(context.Background(), p2.ID, services.UpdateProductInput{Name: &name})
	if !errors.Is(err, domain.ErrDuplicateProductName) {
		t.Fatalf("want ErrDuplicateProductName, got %v", err)
	}

	// renaming to your own name is not a conflict
	own := "Mouse"
	if _, err := set.Products.Update(context.Background(), p2.ID, services.UpdateProductInput{Name: &own}); err != nil {
		t.Fatal(err)
	}
}

func TestRetire_HidesFromListingKeepsImages(t *testing.T) {
	db := testdb(t)
	mem := blob.NewMemory()
	set := newSet(t, db, mem, 5)
	p1 := mustCreate(t, set, "CRT Monitor", 1)
	mustCreate(t, set, "Trackball", 1)

	if err := set.Products.Retire(context.Background(), p1.ID, "u-test"); err != nil {
		t.Fatal(err)
	}

	page, err := set.Products.List(context.Background(), repos.ListFilter{}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Name != "Trackball" {
		t.Fatalf("listing after retire: %+v", page)
	}

	// retired products stay readable for order history, images intact
	got, imgs, err := set.Products.Get(context.Background(), p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Fatal("retired product still active")
	}
	if len(imgs) != 1 || mem.Len() != 2 {
		t.Fatalf("images gone: rows=%d blobs=%d", len(imgs), mem.Len())
	}

	// and the name frees up for reuse
	mustCreate(t, set, "CRT Monitor", 1)
}

func TestList_Pagination(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5) // page size 6
	for i := 0; i < 7; i++ {
		mustCreate(t, set, fmt.Sprintf("Widget %02d", i), 1)
	}

	page, err := set.Products.List(context.Background(), repos.ListFilter{}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 6 || page.Total != 7 || page.TotalPages != 2 || page.Page != 1 {
		t.Fatalf("page 1: items=%d total=%d pages=%d", len(page.Items), page.Total, page.TotalPages)
	}
	if page.Items[0].Name != "Widget 00" {
		t.Fatalf("want oldest first, got %s", page.Items[0].Name)
	}

	page, err = set.Products.List(context.Background(), repos.ListFilter{}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Widget 06" {
		t.Fatalf("page 2: %+v", page.Items)
	}

	// out-of-range page numbers clamp to 1
	for _, bad := range []int{0, -3} {
		page, err = set.Products.List(context.Background(), repos.ListFilter{}, bad, 0)
		if err != nil {
			t.Fatal(err)
		}
		if page.Page != 1 || len(page.Items) != 6 {
			t.Fatalf("page %d: got page=%d items=%d", bad, page.Page, len(page.Items))
		}
	}
}

func TestList_EmptyCatalog(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	page, err := set.Products.List(context.Background(), repos.ListFilter{}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 || page.TotalPages != 1 {
		t.Fatalf("empty catalog: total=%d pages=%d", page.Total, page.TotalPages)
	}
}

func TestList_SearchFilter(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	mustCreate(t, set, "Neon Sign", 1)
	mustCreate(t, set, "Desk Fan", 1)

	page, err := set.Products.List(context.Background(), repos.ListFilter{Search: "neon"}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Name != "Neon Sign" {
		t.Fatalf("search: %+v", page)
	}
}

func TestCheckNameAvailable(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)
	p := mustCreate(t, set, "Lamp", 1)

	ok, err := set.Products.CheckNameAvailable(context.Background(), "lamp", "")
	if err != nil || ok {
		t.Fatalf("want taken, got ok=%v err=%v", ok, err)
	}
	// the product's own name is available when editing itself
	ok, err = set.Products.CheckNameAvailable(context.Background(), "Lamp", p.ID)
	if err != nil || !ok {
		t.Fatalf("want available excluding self, got ok=%v err=%v", ok, err)
	}
	ok, err = set.Products.CheckNameAvailable(context.Background(), "Brand New", "")
	if err != nil || !ok {
		t.Fatalf("want available, got ok=%v err=%v", ok, err)
	}
}

func TestCreateProduct_CoverIndex(t *testing.T) {
	db := testdb(t)
	set := newSet(t, db, blob.NewMemory(), 5)

	p, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         "Slide Viewer",
		PriceCents:   100,
		InitialStock: 1,
		Images:       []services.ImageUpload{upload("a.png"), upload("b.png")},
		CoverIndex:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	imgs, err := set.Images.Images.ListByProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.CoverImageID != imgs[1].ID {
		t.Fatalf("cover: want %s, got %s", imgs[1].ID, p.CoverImageID)
	}

	// out-of-range index clamps instead of failing
	p2, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         "View-Master",
		PriceCents:   100,
		InitialStock: 1,
		Images:       []services.ImageUpload{upload("only.png")},
		CoverIndex:   9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p2.CoverImageID == "" {
		t.Fatal("cover not assigned")
	}
}
