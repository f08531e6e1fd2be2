package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"botshop/internal/domain"
)

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

// Insert appends an image row at the next free position for the product and
// returns the created record.
func (r *ImageRepo) Insert(ctx context.Context, e sqlx.ExtContext, productID, objectKey string) (domain.ProductImage, error) {
	img := domain.ProductImage{
		ID:        uuid.NewString(),
		ProductID: productID,
		ObjectKey: objectKey,
		CreatedAt: nowStamp(),
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO product_images(id, product_id, object_key, position, created_at)
		VALUES(?, ?, ?,
		  (SELECT COALESCE(MAX(position), -1) + 1 FROM product_images WHERE product_id = ?),
		  ?)
	`, img.ID, img.ProductID, img.ObjectKey, img.ProductID, img.CreatedAt)
	if err != nil {
		return domain.ProductImage{}, err
	}
	return r.getOn(ctx, e, img.ID)
}

func (r *ImageRepo) getOn(ctx context.Context, q sqlx.ExtContext, id string) (domain.ProductImage, error) {
	var img domain.ProductImage
	err := sqlx.GetContext(ctx, q, &img, `
		SELECT id, product_id, object_key, position, created_at
		FROM product_images WHERE id = ?`, id)
	return img, err
}

func (r *ImageRepo) Get(ctx context.Context, id string) (domain.ProductImage, error) {
	return r.getOn(ctx, r.db, id)
}

// ListByProduct returns the image set in insertion order.
func (r *ImageRepo) ListByProduct(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	var out []domain.ProductImage
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, product_id, object_key, position, created_at
		FROM product_images
		WHERE product_id = ?
		ORDER BY position ASC`, productID)
	return out, err
}

// Owned returns the subset of ids that belong to the product, keyed by id.
func (r *ImageRepo) Owned(ctx context.Context, productID string, ids []string) (map[string]domain.ProductImage, error) {
	if len(ids) == 0 {
		return map[string]domain.ProductImage{}, nil
	}
	q, args, err := sqlx.In(`
		SELECT id, product_id, object_key, position, created_at
		FROM product_images
		WHERE product_id = ? AND id IN (?)`, productID, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.ProductImage
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make(map[string]domain.ProductImage, len(rows))
	for _, img := range rows {
		out[img.ID] = img
	}
	return out, nil
}

func (r *ImageRepo) Delete(ctx context.Context, e sqlx.ExtContext, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM product_images WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, q, args...)
	return err
}

// Earliest returns the earliest-inserted image for the product, or a zero
// record with sql.ErrNoRows when the product has no images.
func (r *ImageRepo) Earliest(ctx context.Context, q sqlx.ExtContext, productID string) (domain.ProductImage, error) {
	var img domain.ProductImage
	err := sqlx.GetContext(ctx, q, &img, `
		SELECT id, product_id, object_key, position, created_at
		FROM product_images
		WHERE product_id = ?
		ORDER BY position ASC
		LIMIT 1`, productID)
	return img, err
}
