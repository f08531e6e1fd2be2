package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"botshop/internal/blob"
	"botshop/internal/config"
	"botshop/internal/http/handlers"
	applog "botshop/internal/log"
	"botshop/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Blob store: MinIO when configured, in-memory otherwise (dev, tests).
	var blobs blob.Store
	if cfg.MinioEndpoint != "" {
		ms, err := blob.NewMinioStore(context.Background(), blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal(err)
		}
		blobs = ms
	} else {
		log.Printf("[blob] MINIO_ENDPOINT unset, using in-memory store")
		blobs = blob.NewMemory()
	}

	// Listing cache is optional.
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Printf("[warn] redis unreachable (%v), listing cache disabled", err)
			cache = nil
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	// Uploads are multi-image multipart posts.
	app.Server().MaxRequestBodySize = 32 << 20 // 32 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())

	deps := handlers.NewDeps(db, cfg, blobs, cache)

	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, retry later"})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	admin := app.Group("/admin", handlers.RequireAdmin(deps.Auth))

	admin.Post("/products", deps.ProductHandler.Create)
	admin.Get("/products", deps.ProductHandler.List)
	admin.Get("/products/name-check", deps.ProductHandler.NameCheck)
	admin.Get("/products/:id", deps.ProductHandler.Get)
	admin.Patch("/products/:id", deps.ProductHandler.Update)
	admin.Delete("/products/:id", deps.ProductHandler.Retire)

	admin.Put("/products/:id/stock", deps.StockHandler.SetSellable)
	admin.Post("/products/:id/restock", deps.StockHandler.Restock)
	admin.Get("/products/:id/adjustments", deps.StockHandler.Adjustments)

	admin.Get("/categories", deps.CategoryHandler.List)
	admin.Post("/categories", deps.CategoryHandler.Create)
	admin.Patch("/categories/:id", deps.CategoryHandler.Update)
	admin.Delete("/categories/:id", deps.CategoryHandler.Deactivate)

	admin.Get("/discounts", deps.DiscountHandler.List)
	admin.Post("/discounts", deps.DiscountHandler.Create)
	admin.Post("/discounts/:id/active", deps.DiscountHandler.SetActive)

	admin.Get("/orders", deps.OrderHandler.List)
	admin.Get("/orders/:id", deps.OrderHandler.Get)
	admin.Post("/orders/:id/status", deps.OrderHandler.UpdateStatus)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
