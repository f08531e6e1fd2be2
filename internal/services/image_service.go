package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"botshop/internal/blob"
	"botshop/internal/domain"
	applog "botshop/internal/log"
	"botshop/internal/repos"
)

// ImageUpload is one decoded file payload from the request layer.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImageService keeps a product's image rows consistent with blob storage and
// manages the designated cover image. Ordering contract: blobs are written
// before rows (an unreferenced blob is inert), rows are deleted before blobs,
// and failed composites compensate by deleting the blobs they wrote.
type ImageService struct {
	db       *sqlx.DB
	Images   *repos.ImageRepo
	Products *repos.ProductRepo
	Blobs    blob.Store

	locks *productLocks
}

func NewImageService(db *sqlx.DB, images *repos.ImageRepo, products *repos.ProductRepo, blobs blob.Store, locks *productLocks) *ImageService {
	return &ImageService{db: db, Images: images, Products: products, Blobs: blobs, locks: locks}
}

// AttachImages stores each payload and appends one image row per file in
// input order. If any blob write fails, blobs already stored by this call are
// deleted before the error surfaces. A product left without a cover adopts
// the earliest image.
func (s *ImageService) AttachImages(ctx context.Context, productID string, files []ImageUpload) ([]domain.ProductImage, error) {
	unlock := s.locks.lock(productID)
	defer unlock()
	return s.attachImages(ctx, productID, files)
}

func (s *ImageService) attachImages(ctx context.Context, productID string, files []ImageUpload) ([]domain.ProductImage, error) {
	p, err := s.Products.GetActive(ctx, productID)
	if err != nil {
		return nil, storageErr("images.attach.product", err)
	}
	if len(files) == 0 {
		return nil, validationErr("images", "must not be empty")
	}

	keys, err := s.storeBlobs(ctx, files)
	if err != nil {
		return nil, err
	}

	var created []domain.ProductImage
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		created, err = s.insertRows(ctx, tx, productID, keys)
		if err != nil {
			return err
		}
		if p.CoverImageID == "" {
			earliest, err := s.Images.Earliest(ctx, tx, productID)
			if err != nil {
				return err
			}
			return s.Products.SetCover(ctx, tx, productID, earliest.ID)
		}
		return nil
	})
	if err != nil {
		s.deleteBlobs(ctx, keys)
		return nil, storageErr("images.attach", err)
	}
	return created, nil
}

// RemoveImages deletes the given image rows and then, only after the rows are
// committed, their blobs (best-effort). The whole batch is rejected with
// ErrImageNotFound if any id does not belong to the product.
func (s *ImageService) RemoveImages(ctx context.Context, productID string, imageIDs []string) error {
	unlock := s.locks.lock(productID)
	defer unlock()
	return s.removeImages(ctx, productID, imageIDs)
}

func (s *ImageService) removeImages(ctx context.Context, productID string, imageIDs []string) error {
	imageIDs = dedupe(imageIDs)
	if len(imageIDs) == 0 {
		return nil
	}
	p, err := s.Products.GetActive(ctx, productID)
	if err != nil {
		return storageErr("images.remove.product", err)
	}
	owned, err := s.verifyOwned(ctx, productID, imageIDs)
	if err != nil {
		return err
	}

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.Images.Delete(ctx, tx, imageIDs); err != nil {
			return err
		}
		if _, removed := owned[p.CoverImageID]; removed {
			return s.recoverOn(ctx, tx, productID)
		}
		return nil
	})
	if err != nil {
		return storageErr("images.remove", err)
	}

	keys := make([]string, 0, len(owned))
	for _, img := range owned {
		keys = append(keys, img.ObjectKey)
	}
	s.deleteBlobs(ctx, keys)
	return nil
}

// SetCover designates imageID as the product's cover. An empty imageID (or a
// product whose images changed underneath its cover) falls back to the
// earliest-inserted remaining image; zero images clears the cover.
func (s *ImageService) SetCover(ctx context.Context, productID, imageID string) error {
	unlock := s.locks.lock(productID)
	defer unlock()
	return s.setCover(ctx, productID, imageID)
}

func (s *ImageService) setCover(ctx context.Context, productID, imageID string) error {
	if _, err := s.Products.GetActive(ctx, productID); err != nil {
		return storageErr("images.cover.product", err)
	}
	return storageErr("images.cover", inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if imageID == "" {
			return s.recoverOn(ctx, tx, productID)
		}
		img, err := s.Images.Get(ctx, imageID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && img.ProductID != productID) {
			return fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
		}
		if err != nil {
			return err
		}
		return s.Products.SetCover(ctx, tx, productID, imageID)
	}))
}

// ReplaceImageSet is the composed edit operation: remove, attach, re-cover as
// one unit. No partial image-set mutation is visible to readers: rows change
// in a single transaction, new blobs are deleted if it fails, and removed
// blobs are deleted only after it commits.
func (s *ImageService) ReplaceImageSet(ctx context.Context, productID string, removedIDs []string, newFiles []ImageUpload, desiredCoverID string) ([]domain.ProductImage, error) {
	unlock := s.locks.lock(productID)
	defer unlock()
	return s.replaceImageSet(ctx, productID, removedIDs, newFiles, desiredCoverID)
}

func (s *ImageService) replaceImageSet(ctx context.Context, productID string, removedIDs []string, newFiles []ImageUpload, desiredCoverID string) ([]domain.ProductImage, error) {
	if _, err := s.Products.GetActive(ctx, productID); err != nil {
		return nil, storageErr("images.replace.product", err)
	}

	removedIDs = dedupe(removedIDs)
	removed, err := s.verifyOwned(ctx, productID, removedIDs)
	if err != nil {
		return nil, err
	}
	if _, gone := removed[desiredCoverID]; gone {
		return nil, fmt.Errorf("%w: requested cover is being removed", domain.ErrImageNotFound)
	}

	newKeys, err := s.storeBlobs(ctx, newFiles)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.Images.Delete(ctx, tx, removedIDs); err != nil {
			return err
		}
		created, err := s.insertRows(ctx, tx, productID, newKeys)
		if err != nil {
			return err
		}
		if desiredCoverID == "" {
			return s.recoverOn(ctx, tx, productID)
		}
		if !belongs(desiredCoverID, created) {
			img, err := s.Images.Get(ctx, desiredCoverID)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && img.ProductID != productID) {
				return fmt.Errorf("%w: %s", domain.ErrImageNotFound, desiredCoverID)
			}
			if err != nil {
				return err
			}
		}
		return s.Products.SetCover(ctx, tx, productID, desiredCoverID)
	})
	if err != nil {
		s.deleteBlobs(ctx, newKeys)
		return nil, storageErr("images.replace", err)
	}

	keys := make([]string, 0, len(removed))
	for _, img := range removed {
		keys = append(keys, img.ObjectKey)
	}
	s.deleteBlobs(ctx, keys)

	set, err := s.Images.ListByProduct(ctx, productID)
	if err != nil {
		return nil, storageErr("images.replace.list", err)
	}
	return set, nil
}

// WithURLs resolves a retrievable URL per image record.
func (s *ImageService) WithURLs(ctx context.Context, imgs []domain.ProductImage) []domain.ProductImage {
	for i := range imgs {
		u, err := s.Blobs.URL(ctx, imgs[i].ObjectKey)
		if err != nil {
			applog.OpError("images.url", err, map[string]any{"key": imgs[i].ObjectKey})
			continue
		}
		imgs[i].URL = u
	}
	return imgs
}

// ---------- internals ----------

// storeBlobs writes every payload; on a mid-sequence failure the blobs
// already stored by this call are rolled back so none are orphaned.
func (s *ImageService) storeBlobs(ctx context.Context, files []ImageUpload) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key, err := s.Blobs.Put(ctx, f.Name, f.ContentType, bytes.NewReader(f.Data), int64(len(f.Data)))
		if err != nil {
			s.deleteBlobs(ctx, keys)
			applog.OpError("images.blob.put", err, map[string]any{"name": f.Name})
			return nil, fmt.Errorf("%w: blob store", domain.ErrStorage)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// deleteBlobs is best-effort: the database is already consistent when it
// runs, so failures are logged, never surfaced.
func (s *ImageService) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.Blobs.Delete(ctx, key); err != nil {
			applog.OpError("images.blob.delete", err, map[string]any{"key": key})
		}
	}
}

func (s *ImageService) insertRows(ctx context.Context, e sqlx.ExtContext, productID string, keys []string) ([]domain.ProductImage, error) {
	created := make([]domain.ProductImage, 0, len(keys))
	for _, key := range keys {
		img, err := s.Images.Insert(ctx, e, productID, key)
		if err != nil {
			return nil, err
		}
		created = append(created, img)
	}
	return created, nil
}

// verifyOwned rejects the whole batch if any id does not belong to the product.
func (s *ImageService) verifyOwned(ctx context.Context, productID string, ids []string) (map[string]domain.ProductImage, error) {
	owned, err := s.Images.Owned(ctx, productID, ids)
	if err != nil {
		return nil, storageErr("images.owned", err)
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, id)
		}
	}
	return owned, nil
}

// recoverOn points the cover at the earliest remaining image, or clears it
// when the product has none.
func (s *ImageService) recoverOn(ctx context.Context, tx *sqlx.Tx, productID string) error {
	earliest, err := s.Images.Earliest(ctx, tx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return s.Products.SetCover(ctx, tx, productID, "")
	}
	if err != nil {
		return err
	}
	return s.Products.SetCover(ctx, tx, productID, earliest.ID)
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func belongs(id string, imgs []domain.ProductImage) bool {
	for _, img := range imgs {
		if img.ID == id {
			return true
		}
	}
	return false
}
