package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"botshop/internal/blob"
	"botshop/internal/config"
	"botshop/internal/repos"
	"botshop/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	ProductHandler  *ProductHandler
	StockHandler    *StockHandler
	CategoryHandler *CategoryHandler
	OrderHandler    *OrderHandler
	DiscountHandler *DiscountHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, blobs blob.Store, cache *redis.Client) *Deps {
	set := services.NewSet(db, blobs, cache, cfg.PageSize, cfg.WarehouseSeed)

	return &Deps{
		Auth:            set.Auth,
		AuthHandler:     &AuthHandler{Auth: set.Auth},
		ProductHandler:  &ProductHandler{Products: set.Products},
		StockHandler:    &StockHandler{Stock: set.Stock},
		CategoryHandler: &CategoryHandler{Categories: set.Categories},
		OrderHandler:    &OrderHandler{Orders: repos.NewOrderRepo(db)},
		DiscountHandler: &DiscountHandler{Discounts: repos.NewDiscountRepo(db)},
	}
}
