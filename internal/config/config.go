package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	// Catalog behaviour
	PageSize      int // products per admin listing page
	WarehouseSeed int // warehouse allocation granted to every new product

	// Blob store (empty endpoint selects the in-memory store)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// List cache (empty addr disables caching)
	RedisAddr     string
	RedisPassword string
}

func Load() Config {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	cfg := Config{
		Port:           getenv("PORT", "8081"),
		DBDSN:          getenv("DB_DSN", "botshop.db"),
		LogFile:        os.Getenv("LOG_FILE"),
		PageSize:       getint("PAGE_SIZE", 6),
		WarehouseSeed:  getint("WAREHOUSE_SEED", 15000),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "botshop-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
	}

	log.Printf("[config] PORT=%s DB_DSN=%s PAGE_SIZE=%d WAREHOUSE_SEED=%d MINIO=%q REDIS=%q",
		cfg.Port, cfg.DBDSN, cfg.PageSize, cfg.WarehouseSeed, cfg.MinioEndpoint, cfg.RedisAddr)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring bad %s=%q", key, v)
		return def
	}
	return n
}
