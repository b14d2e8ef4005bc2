package model

import "time"

// Product is a catalog entry. SalePrice is the unit price charged during a
// flash sale and may never exceed BasePrice.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"base_price"`
	SalePrice   float64   `json:"sale_price"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductQuery filters the paginated catalog listing.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string // case-insensitive match on name or description
	MinPrice *float64
	MaxPrice *float64
}

// ProductPatch is a partial update for a product. Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	BasePrice   *float64 `json:"base_price"`
	SalePrice   *float64 `json:"sale_price"`
	ImageURL    *string  `json:"image_url"`
}
