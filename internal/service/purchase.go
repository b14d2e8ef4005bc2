package service

import (
	"context"
	"fmt"
	"log"

	"flash-sale-api/internal/clock"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
	"flash-sale-api/pkg/uid"
)

// PurchaseService runs purchase attempts against the active sale and serves
// the read paths over the ledger.
//
// The service's own precondition checks are optimistic: the authoritative
// stock check is the conditional decrement inside CreateReserving, so
// concurrent attempts can never jointly overdraw a sale.
type PurchaseService struct {
	purchases repository.PurchaseRepository
	sales     repository.SaleRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	clock     clock.Clock
}

// NewPurchaseService creates a new purchase service. users may be nil when
// the accounts database is not configured; user existence is then taken on
// trust from the session layer.
func NewPurchaseService(purchases repository.PurchaseRepository, sales repository.SaleRepository,
	products repository.ProductRepository, users repository.UserRepository, clk clock.Clock) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		sales:     sales,
		products:  products,
		users:     users,
		clock:     clk,
	}
}

// Create attempts to purchase quantity units from the sale. Each precondition
// failure surfaces its own sentinel so callers can tell them apart; losing
// the commit-time race surfaces ErrStockDepleted.
func (s *PurchaseService) Create(ctx context.Context, userID, saleID string, quantity int) (*model.Purchase, error) {
	if s.users != nil {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return nil, err
		}
	}

	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.IsActive {
		return nil, model.ErrSaleNotActive
	}

	now := s.clock.Now()
	// Schedules can be edited while a sale is active; re-check the start.
	if !sale.Started(now) {
		return nil, model.ErrSaleNotStarted
	}

	product, err := s.products.GetByID(ctx, sale.ProductID)
	if err != nil {
		return nil, err
	}

	if quantity < 1 || quantity > sale.MaxPurchasePerUser {
		return nil, model.ErrInvalidQuantity
	}

	// The cap counts committed purchase rows, not cumulative units.
	count, err := s.purchases.CountByUserAndSale(ctx, userID, saleID)
	if err != nil {
		return nil, err
	}
	if count >= sale.MaxPurchasePerUser {
		return nil, model.ErrPurchaseLimitReached
	}

	if sale.RemainingUnits < quantity {
		return nil, model.ErrInsufficientStock
	}

	purchase := &model.Purchase{
		ID:            uid.New(),
		UserID:        userID,
		SaleID:        saleID,
		ProductID:     sale.ProductID,
		Quantity:      quantity,
		TotalPrice:    product.SalePrice * float64(quantity),
		PurchaseTime:  now,
		TransactionID: uid.New(),
		CreatedAt:     now,
	}

	if err := s.purchases.CreateReserving(ctx, purchase); err != nil {
		if err == model.ErrStockDepleted {
			return nil, err
		}
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	log.Printf("[PurchaseService] User %s bought %d unit(s) of sale %s (txn %s)",
		userID, quantity, saleID, purchase.TransactionID)
	return purchase, nil
}

// History returns the user's purchases, most recent first.
func (s *PurchaseService) History(ctx context.Context, userID string, page, limit int) ([]model.HistoryEntry, int64, error) {
	if s.users != nil {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return nil, 0, err
		}
	}
	return s.purchases.ListByUser(ctx, userID, page, limit)
}

// BySale returns a sale's purchases in commit order, annotated with buyer
// usernames when the accounts database is available.
func (s *PurchaseService) BySale(ctx context.Context, saleID string, page, limit int) ([]model.SalePurchase, int64, error) {
	if _, err := s.sales.GetByID(ctx, saleID); err != nil {
		return nil, 0, err
	}

	purchases, total, err := s.purchases.ListBySale(ctx, saleID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	s.fillUsernames(ctx, purchases)
	return purchases, total, nil
}

// Leaderboard returns a sale's purchases ranked in commit order. Rank is
// absolute across pages: the first entry of page 2 with limit 10 is rank 11.
func (s *PurchaseService) Leaderboard(ctx context.Context, saleID string, page, limit int) ([]model.LeaderboardEntry, int64, error) {
	purchases, total, err := s.BySale(ctx, saleID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	entries := make([]model.LeaderboardEntry, len(purchases))
	for i, p := range purchases {
		entries[i] = model.LeaderboardEntry{
			Rank:         offset + i + 1,
			UserID:       p.UserID,
			Username:     p.Username,
			Quantity:     p.Quantity,
			TotalPrice:   p.TotalPrice,
			PurchaseTime: p.PurchaseTime,
		}
	}

	return entries, total, nil
}

// Stats returns ledger and sale counters for the admin dashboard.
func (s *PurchaseService) Stats(ctx context.Context) (map[string]interface{}, error) {
	return s.purchases.GetStats(ctx)
}

func (s *PurchaseService) fillUsernames(ctx context.Context, purchases []model.SalePurchase) {
	if s.users == nil || len(purchases) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(purchases))
	ids := make([]string, 0, len(purchases))
	for _, p := range purchases {
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			ids = append(ids, p.UserID)
		}
	}

	names, err := s.users.GetUsernames(ctx, ids)
	if err != nil {
		log.Printf("[PurchaseService] Failed to resolve usernames: %v", err)
		return
	}

	for i := range purchases {
		purchases[i].Username = names[purchases[i].UserID]
	}
}
