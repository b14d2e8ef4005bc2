package model

import "time"

// Purchase is one committed ledger entry. Records are append-only: they are
// never updated or deleted after creation.
type Purchase struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	SaleID        string    `json:"sale_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	TotalPrice    float64   `json:"total_price"`
	PurchaseTime  time.Time `json:"purchase_time"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryEntry is a purchase joined with display summaries for the owning user.
type HistoryEntry struct {
	Purchase
	ProductName   string     `json:"product_name"`
	SaleStartTime time.Time  `json:"sale_start_time"`
	SaleEndTime   *time.Time `json:"sale_end_time"`
}

// SalePurchase is a purchase row in a by-sale listing.
type SalePurchase struct {
	Purchase
	ProductName string `json:"product_name"`
	Username    string `json:"username,omitempty"`
}

// LeaderboardEntry annotates a purchase with its absolute 1-based position in
// purchase-time ascending order. Rank reflects who bought first, not price or
// quantity, and does not depend on the requested page.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Quantity     int       `json:"quantity"`
	TotalPrice   float64   `json:"total_price"`
	PurchaseTime time.Time `json:"purchase_time"`
}
