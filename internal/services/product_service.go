package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"botshop/internal/domain"
	applog "botshop/internal/log"
	"botshop/internal/repos"
)

// ProductService is the single entry point for creating, editing, listing
// and retiring products. It composes the repositories, the stock ledger and
// the image manager into one consistent unit of work per operation.
type ProductService struct {
	db         *sqlx.DB
	Products   *repos.ProductRepo
	Categories *repos.CategoryRepo
	Images     *ImageService
	Stock      *StockService

	// Cache is optional; nil disables the listing cache.
	Cache    *redis.Client
	PageSize int

	locks *productLocks
}

func NewProductService(db *sqlx.DB, products *repos.ProductRepo, categories *repos.CategoryRepo,
	images *ImageService, stock *StockService, cache *redis.Client, pageSize int, locks *productLocks) *ProductService {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &ProductService{
		db: db, Products: products, Categories: categories,
		Images: images, Stock: stock, Cache: cache, PageSize: pageSize, locks: locks,
	}
}

type CreateProductInput struct {
	Name         string
	Description  string
	PriceCents   int64
	InitialStock int
	CategoryID   string
	Images       []ImageUpload
	CoverIndex   int
	Actor        string
}

// Create validates the input, checks name uniqueness, then writes blobs
// first and commits product row + stock seed + image rows + cover in one
// transaction. A failure at any step deletes the blobs written by this call
// and leaves no partially created product visible.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return domain.Product{}, validationErr("name", "is required")
	case in.PriceCents < 0:
		return domain.Product{}, validationErr("price", "must be >= 0")
	case in.InitialStock < 0:
		return domain.Product{}, validationErr("initial_stock", "must be >= 0")
	case len(in.Images) == 0:
		return domain.Product{}, validationErr("images", "at least one image is required")
	}

	if in.CategoryID != "" {
		if _, err := s.Categories.GetActive(ctx, in.CategoryID); err != nil {
			return domain.Product{}, storageErr("product.create.category", err)
		}
	}

	taken, err := s.Products.NameTaken(ctx, in.Name, "")
	if err != nil {
		return domain.Product{}, storageErr("product.create.namecheck", err)
	}
	if taken {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrDuplicateProductName, in.Name)
	}

	keys, err := s.Images.storeBlobs(ctx, in.Images)
	if err != nil {
		return domain.Product{}, err
	}

	id := uuid.NewString()
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.Products.Insert(ctx, tx, domain.Product{
			ID:          id,
			CategoryID:  in.CategoryID,
			Name:        in.Name,
			Description: in.Description,
			PriceCents:  in.PriceCents,
		}); err != nil {
			return err
		}
		if err := s.Stock.InitializeStock(ctx, tx, id, in.InitialStock, in.Actor); err != nil {
			return err
		}
		created, err := s.Images.insertRows(ctx, tx, id, keys)
		if err != nil {
			return err
		}
		cover := created[clamp(in.CoverIndex, 0, len(created)-1)]
		return s.Products.SetCover(ctx, tx, id, cover.ID)
	})
	if err != nil {
		s.Images.deleteBlobs(ctx, keys)
		if isUniqueViolation(err) {
			// Lost a race with a concurrent create; the index is the backstop.
			return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrDuplicateProductName, in.Name)
		}
		return domain.Product{}, storageErr("product.create", err)
	}

	s.invalidateListCache(ctx)
	applog.Op("product.created", map[string]any{"product_id": id, "name": in.Name, "actor": in.Actor})

	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, storageErr("product.create.read", err)
	}
	return p, nil
}

type ImageEdits struct {
	RemovedIDs     []string
	NewImages      []ImageUpload
	DesiredCoverID string
}

func (e ImageEdits) empty() bool {
	return len(e.RemovedIDs) == 0 && len(e.NewImages) == 0 && e.DesiredCoverID == ""
}

type UpdateProductInput struct {
	Name          *string
	Description   *string
	PriceCents    *int64
	CategoryID    *string
	SellableStock *int
	ImageEdits    ImageEdits
	Actor         string
}

// Update applies field changes, routes stock changes through the ledger and
// delegates image changes to ReplaceImageSet, all under the product lock.
func (s *ProductService) Update(ctx context.Context, productID string, in UpdateProductInput) (domain.Product, error) {
	unlock := s.locks.lock(productID)
	defer unlock()

	if _, err := s.Products.GetActive(ctx, productID); err != nil {
		return domain.Product{}, storageErr("product.update", err)
	}

	fields := repos.FieldUpdate{
		Description: in.Description,
		PriceCents:  in.PriceCents,
		CategoryID:  in.CategoryID,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Product{}, validationErr("name", "is required")
		}
		taken, err := s.Products.NameTaken(ctx, name, productID)
		if err != nil {
			return domain.Product{}, storageErr("product.update.namecheck", err)
		}
		if taken {
			return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrDuplicateProductName, name)
		}
		fields.Name = &name
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return domain.Product{}, validationErr("price", "must be >= 0")
	}
	if in.CategoryID != nil && *in.CategoryID != "" {
		if _, err := s.Categories.GetActive(ctx, *in.CategoryID); err != nil {
			return domain.Product{}, storageErr("product.update.category", err)
		}
	}

	if !fields.Empty() {
		if err := s.Products.UpdateFields(ctx, s.db, productID, fields); err != nil {
			if isUniqueViolation(err) {
				return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrDuplicateProductName, *fields.Name)
			}
			return domain.Product{}, storageErr("product.update.fields", err)
		}
	}

	if in.SellableStock != nil {
		if *in.SellableStock < 0 {
			return domain.Product{}, fmt.Errorf("%w: sellable stock must be >= 0", domain.ErrInvalidQuantity)
		}
		if _, err := s.Stock.setSellable(ctx, productID, *in.SellableStock, in.Actor); err != nil {
			return domain.Product{}, err
		}
	}

	if !in.ImageEdits.empty() {
		if _, err := s.Images.replaceImageSet(ctx, productID,
			in.ImageEdits.RemovedIDs, in.ImageEdits.NewImages, in.ImageEdits.DesiredCoverID); err != nil {
			return domain.Product{}, err
		}
	}

	s.invalidateListCache(ctx)
	applog.Op("product.updated", map[string]any{"product_id": productID, "actor": in.Actor})

	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, storageErr("product.update.read", err)
	}
	return p, nil
}

// Retire soft-deletes the product. Image rows and blobs stay addressable for
// historical order rendering.
func (s *ProductService) Retire(ctx context.Context, productID, actor string) error {
	unlock := s.locks.lock(productID)
	defer unlock()

	if err := s.Products.Retire(ctx, productID); err != nil {
		return storageErr("product.retire", err)
	}
	s.invalidateListCache(ctx)
	applog.Op("product.retired", map[string]any{"product_id": productID, "actor": actor})
	return nil
}

// List returns one page of active products. Page numbers below 1 clamp to 1;
// totalPages is ceil(total/pageSize) with a minimum of 1. Unfiltered pages
// are served read-through from the cache when one is configured.
func (s *ProductService) List(ctx context.Context, filter repos.ListFilter, page, pageSize int) (domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.PageSize
	}

	cacheKey := ""
	if s.Cache != nil && filter.Search == "" && filter.CategoryID == "" {
		cacheKey = s.listCacheKey(ctx, page, pageSize)
		if val, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil && val != "" {
			var cached domain.ProductPage
			if json.Unmarshal([]byte(val), &cached) == nil {
				return cached, nil
			}
		}
	}

	total, err := s.Products.Count(ctx, filter)
	if err != nil {
		return domain.ProductPage{}, storageErr("product.list.count", err)
	}
	items, err := s.Products.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.ProductPage{}, storageErr("product.list", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	result := domain.ProductPage{Items: items, Total: total, TotalPages: totalPages, Page: page}

	if cacheKey != "" {
		if data, err := json.Marshal(result); err == nil {
			s.Cache.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}
	return result, nil
}

// Get returns one product (active or retired) with its image set and
// retrievable URLs.
func (s *ProductService) Get(ctx context.Context, productID string) (domain.Product, []domain.ProductImage, error) {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, nil, storageErr("product.get", err)
	}
	imgs, err := s.Images.Images.ListByProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, nil, storageErr("product.get.images", err)
	}
	return p, s.Images.WithURLs(ctx, imgs), nil
}

// CheckNameAvailable is a pure read used for interactive duplicate feedback.
func (s *ProductService) CheckNameAvailable(ctx context.Context, name, excludingProductID string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, validationErr("name", "is required")
	}
	taken, err := s.Products.NameTaken(ctx, name, excludingProductID)
	if err != nil {
		return false, storageErr("product.namecheck", err)
	}
	return !taken, nil
}

// ---------- cache ----------

// The cache is versioned: every catalog mutation bumps a version counter and
// keys embed it, so stale pages simply expire instead of needing a scan.
const listCacheVersionKey = "products:list:ver"

func (s *ProductService) listCacheKey(ctx context.Context, page, pageSize int) string {
	ver, err := s.Cache.Get(ctx, listCacheVersionKey).Int64()
	if err != nil {
		ver = 0
	}
	return fmt.Sprintf("products:list:v%d:p%d:s%d", ver, page, pageSize)
}

func (s *ProductService) invalidateListCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Incr(ctx, listCacheVersionKey).Err(); err != nil {
		applog.OpError("product.cache.invalidate", err, nil)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
