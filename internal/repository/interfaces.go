package repository

import (
	"context"
	"time"

	"flash-sale-api/internal/model"
)

// SaleRepository owns all Sale mutation. Lifecycle transitions are conditional
// updates: they apply only if the stored state still satisfies the guard, and
// callers can distinguish "no such sale" from "guard failed" by the returned
// sentinel error.
type SaleRepository interface {
	// Create inserts a new sale in the Scheduled state.
	Create(ctx context.Context, sale *model.Sale) error

	// GetByID fetches a sale, returning model.ErrSaleNotFound if absent.
	GetByID(ctx context.Context, id string) (*model.Sale, error)

	// GetActive fetches the single active sale, or model.ErrSaleNotFound.
	GetActive(ctx context.Context) (*model.Sale, error)

	// GetActiveByProduct fetches the active sale for a product, if any.
	GetActiveByProduct(ctx context.Context, productID string) (*model.Sale, error)

	// List returns sales ordered by start time descending.
	List(ctx context.Context, page, limit int) ([]model.Sale, int64, error)

	// Update persists field edits (schedule, capacity, cap). Lifecycle flags
	// and remaining units are not written through this path.
	Update(ctx context.Context, sale *model.Sale) error

	// Activate flips an inactive, stocked, started sale to active. The store's
	// single-active constraint resolves concurrent activations: the loser gets
	// model.ErrAnotherSaleActive.
	Activate(ctx context.Context, id string, now time.Time) (*model.Sale, error)

	// Deactivate ends an active sale, stamping its end time.
	Deactivate(ctx context.Context, id string, now time.Time) (*model.Sale, error)

	// ResetInventory restores capacity on a non-active sale and clears the end
	// time, returning the sale to Scheduled.
	ResetInventory(ctx context.Context, id string, totalUnits int, now time.Time) (*model.Sale, error)
}

// PurchaseRepository is the only writer of the purchase ledger and the only
// code path permitted to decrement a sale's remaining units.
type PurchaseRepository interface {
	// CreateReserving performs the reservation commit: one transaction that
	// conditionally decrements the sale's remaining units (guard: still active
	// and enough stock at write time), deactivates the sale in the same write
	// when stock hits zero, and appends the purchase. Zero rows matched by the
	// decrement means the race was lost: model.ErrStockDepleted, nothing
	// committed. A failed ledger insert rolls the decrement back.
	CreateReserving(ctx context.Context, p *model.Purchase) error

	// CountByUserAndSale counts a user's committed purchase rows against a
	// sale. The per-user cap counts rows, not cumulative units.
	CountByUserAndSale(ctx context.Context, userID, saleID string) (int, error)

	// ListByUser returns a user's purchases, most recent first, joined with
	// product and sale summaries.
	ListByUser(ctx context.Context, userID string, page, limit int) ([]model.HistoryEntry, int64, error)

	// ListBySale returns a sale's purchases in purchase-time ascending order.
	ListBySale(ctx context.Context, saleID string, page, limit int) ([]model.SalePurchase, int64, error)

	// GetStats returns ledger and sale counters for the admin stats endpoint.
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// ProductRepository defines catalog data access.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines account data access against the accounts database.
type UserRepository interface {
	// Create inserts a user, returning model.ErrEmailTaken or
	// model.ErrUsernameTaken on duplicates.
	Create(ctx context.Context, u *model.User) error

	// GetByID fetches a user, returning model.ErrUserNotFound if absent.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmailOrUsername resolves a login identifier to a user.
	GetByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error)

	// GetUsernames resolves display names for a batch of user IDs. Unknown IDs
	// are simply absent from the result.
	GetUsernames(ctx context.Context, ids []string) (map[string]string, error)
}
