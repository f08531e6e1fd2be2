package domain

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Active      bool   `db:"active" json:"active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID             string `db:"id" json:"id"`
	CategoryID     string `db:"category_id" json:"category_id,omitempty"`
	Name           string `db:"name" json:"name"`
	Description    string `db:"description" json:"description"`
	PriceCents     int64  `db:"price_cents" json:"price_cents"`
	SellableStock  int    `db:"sellable_stock" json:"sellable_stock"`
	WarehouseStock int    `db:"warehouse_stock" json:"warehouse_stock"`
	CoverImageID   string `db:"cover_image_id" json:"cover_image_id,omitempty"`
	Active         bool   `db:"active" json:"active"`
	CreatedAt      string `db:"created_at" json:"created_at"`
	UpdatedAt      string `db:"updated_at" json:"updated_at,omitempty"`
}

// ProductImage is exclusively owned by one product. Position preserves the
// order the files were uploaded in.
type ProductImage struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	ObjectKey string `db:"object_key" json:"object_key"`
	Position  int    `db:"position" json:"position"`
	CreatedAt string `db:"created_at" json:"created_at"`
	URL       string `db:"-" json:"url,omitempty"`
}

// StockAdjustment is append-only: one row per stock mutation, never updated.
type StockAdjustment struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	Delta     int    `db:"delta" json:"delta"`
	Reason    string `db:"reason" json:"reason"`
	Actor     string `db:"actor" json:"actor,omitempty"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// StockLevel is what stock mutations return to the caller.
type StockLevel struct {
	SellableStock  int `db:"sellable_stock" json:"sellable_stock"`
	WarehouseStock int `db:"warehouse_stock" json:"warehouse_stock"`
}

// ProductPage is one page of the admin product listing.
type ProductPage struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Page       int       `json:"page"`
}

// Discount is a checkout code the storefront offers. Value is percent points
// for "percentage" codes and cents for "fixed" ones.
type Discount struct {
	ID                   string `db:"id" json:"id"`
	Code                 string `db:"code" json:"code"`
	Type                 string `db:"type" json:"type"`
	Value                int64  `db:"value" json:"value"`
	MinimumPurchaseCents int64  `db:"minimum_purchase_cents" json:"minimum_purchase_cents"`
	UsageLimit           int    `db:"usage_limit" json:"usage_limit"`
	Used                 int    `db:"used" json:"used"`
	Active               bool   `db:"is_active" json:"active"`
	ValidUntil           string `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt            string `db:"created_at" json:"created_at"`
}

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}
