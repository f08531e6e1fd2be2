package repos

import (
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Ensure an admin login exists (idempotent; safe to run every start)
	if err := seedAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

// withPragmas attaches foreign-key enforcement and a busy timeout to the DSN
// so every pooled connection gets them, not just the one that ran the schema.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Categories (soft delete; names unique among active rows, case-insensitive)
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase
  ON categories(LOWER(name)) WHERE active = 1;

-- Products: two stock counters, both non-negative by constraint
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
  sellable_stock INTEGER NOT NULL DEFAULT 0 CHECK (sellable_stock >= 0),
  warehouse_stock INTEGER NOT NULL DEFAULT 0 CHECK (warehouse_stock >= 0),
  cover_image_id TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_nocase
  ON products(LOWER(name)) WHERE active = 1;
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Product images; rows are exclusively owned by one product
CREATE TABLE IF NOT EXISTS product_images(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  object_key TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id, position);

-- Stock audit trail (append-only)
CREATE TABLE IF NOT EXISTS stock_adjustments(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id),
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stock_adjustments_product
  ON stock_adjustments(product_id, created_at);

-- Orders: items snapshot name/price so retired products stay renderable
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_ref TEXT NOT NULL DEFAULT '',
  total_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'PLACED',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  PRIMARY KEY (order_id, product_id)
);

-- Discount codes: the admin owns the rows, the storefront validates and
-- applies them at checkout. Codes are case-sensitive.
CREATE TABLE IF NOT EXISTS discounts(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL CHECK (type IN ('percentage','fixed')),
  value INTEGER NOT NULL CHECK (value > 0),
  minimum_purchase_cents INTEGER NOT NULL DEFAULT 0 CHECK (minimum_purchase_cents >= 0),
  usage_limit INTEGER NOT NULL DEFAULT 1 CHECK (usage_limit >= 1),
  used INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  valid_until TEXT,
  created_at TEXT NOT NULL
);

-- Staff & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('STAFF','ADMIN')),
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL DEFAULT '',
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedAdmin ensures one ADMIN login exists (idempotent).
func seedAdmin(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users WHERE role='ADMIN'`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] creating default admin user")
	h, err := bcrypt.GenerateFromPassword([]byte("ChangeMe1!"), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role,created_at)
		VALUES('u-admin','admin@botshop.test','Admin',?, 'ADMIN', ?)
		ON CONFLICT(email) DO NOTHING
	`, string(h), nowStamp())
	return err
}

// nowStamp returns a fixed-width UTC timestamp that sorts lexicographically,
// so created_at ordering is stable even within the same second.
func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05.000000000")
}

// retryBusy runs fn and retries once after a short backoff when SQLite
// reports a locked database (concurrent writer). Second failure surfaces.
func retryBusy(fn func() error) error {
	err := fn()
	if err == nil || !isBusy(err) {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	return fn()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
