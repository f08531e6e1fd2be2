package services

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"botshop/internal/blob"
	"botshop/internal/repos"
)

// Set wires every service over one database handle and one shared lock
// table, so composite operations and the single-purpose endpoints agree on
// which product is being mutated.
type Set struct {
	Auth       *AuthService
	Products   *ProductService
	Categories *CategoryService
	Stock      *StockService
	Images     *ImageService
}

// NewSet builds the full service graph. cache may be nil to disable the
// listing cache.
func NewSet(db *sqlx.DB, blobs blob.Store, cache *redis.Client, pageSize, warehouseSeed int) *Set {
	locks := newProductLocks()

	prodRepo := repos.NewProductRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	imgRepo := repos.NewImageRepo(db)
	stockRepo := repos.NewStockRepo(db)
	userRepo := repos.NewUserRepo(db)

	stockSvc := NewStockService(stockRepo, warehouseSeed, locks)
	imageSvc := NewImageService(db, imgRepo, prodRepo, blobs, locks)
	productSvc := NewProductService(db, prodRepo, catRepo, imageSvc, stockSvc, cache, pageSize, locks)

	// Direct stock edits change counters that cached listing pages embed.
	stockSvc.OnMutate = productSvc.invalidateListCache

	return &Set{
		Auth:       &AuthService{Users: userRepo},
		Products:   productSvc,
		Categories: NewCategoryService(catRepo),
		Stock:      stockSvc,
		Images:     imageSvc,
	}
}
