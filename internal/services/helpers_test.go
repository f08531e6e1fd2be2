package services_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"botshop/internal/blob"
	"botshop/internal/domain"
	"botshop/internal/repos"
	"botshop/internal/services"
)

func testdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSet(t *testing.T, db *sqlx.DB, store blob.Store, warehouseSeed int) *services.Set {
	t.Helper()
	return services.NewSet(db, store, nil, 6, warehouseSeed)
}

func upload(name string) services.ImageUpload {
	return services.ImageUpload{Name: name, ContentType: "image/png", Data: []byte("png-bytes-" + name)}
}

func mustCreate(t *testing.T, set *services.Set, name string, initialStock int, images ...services.ImageUpload) domain.Product {
	t.Helper()
	if len(images) == 0 {
		images = []services.ImageUpload{upload(name + ".png")}
	}
	p, err := set.Products.Create(context.Background(), services.CreateProductInput{
		Name:         name,
		PriceCents:   4999,
		InitialStock: initialStock,
		Images:       images,
		Actor:        "u-test",
	})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return p
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

// failingStore delegates to an in-memory store but fails the Nth Put,
// for exercising mid-sequence blob failures.
type failingStore struct {
	*blob.Memory
	failAt int
	puts   int
}

func (f *failingStore) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	f.puts++
	if f.puts == f.failAt {
		return "", fmt.Errorf("simulated blob outage")
	}
	return f.Memory.Put(ctx, name, contentType, r, size)
}
