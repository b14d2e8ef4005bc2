package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"flash-sale-api/internal/clock"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
	"flash-sale-api/pkg/uid"
)

// SaleDefaults fills in capacity and cap when a create request omits them.
type SaleDefaults struct {
	TotalUnits         int
	MaxPurchasePerUser int
}

// SaleService drives the sale lifecycle. State transitions live in the
// repository as conditional writes; this layer validates inputs and applies
// the pinning rule.
type SaleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	defaults SaleDefaults
	clock    clock.Clock
}

// NewSaleService creates a new sale service.
func NewSaleService(sales repository.SaleRepository, products repository.ProductRepository,
	defaults SaleDefaults, clk clock.Clock) *SaleService {
	return &SaleService{
		sales:    sales,
		products: products,
		defaults: defaults,
		clock:    clk,
	}
}

// SaleInput carries a sale creation request. TotalUnits and
// MaxPurchasePerUser fall back to configured defaults when omitted.
type SaleInput struct {
	ProductID          string     `json:"productId"`
	StartTime          *time.Time `json:"startTime"`
	TotalUnits         *int       `json:"totalUnits"`
	MaxPurchasePerUser *int       `json:"maxPurchasePerUser"`
}

// Create schedules a new sale. The sale starts out inactive with
// remainingUnits equal to totalUnits.
func (s *SaleService) Create(ctx context.Context, in SaleInput) (*model.Sale, error) {
	if !uid.IsValid(in.ProductID) {
		return nil, model.ErrProductNotFound
	}
	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	if _, err := s.sales.GetActiveByProduct(ctx, in.ProductID); err == nil {
		return nil, model.ErrAnotherSaleActive
	} else if err != model.ErrSaleNotFound {
		return nil, err
	}

	now := s.clock.Now()

	startTime := now
	if in.StartTime != nil {
		startTime = *in.StartTime
	}

	totalUnits := s.defaults.TotalUnits
	if in.TotalUnits != nil {
		totalUnits = *in.TotalUnits
	}
	if totalUnits < 1 {
		return nil, fmt.Errorf("%w: totalUnits must be at least 1", model.ErrValidation)
	}

	maxPerUser := s.defaults.MaxPurchasePerUser
	if in.MaxPurchasePerUser != nil {
		maxPerUser = *in.MaxPurchasePerUser
	}
	if maxPerUser < 1 {
		return nil, fmt.Errorf("%w: maxPurchasePerUser must be at least 1", model.ErrValidation)
	}

	sale := &model.Sale{
		ID:                 uid.New(),
		ProductID:          in.ProductID,
		StartTime:          startTime,
		TotalUnits:         totalUnits,
		RemainingUnits:     totalUnits,
		IsActive:           false,
		MaxPurchasePerUser: maxPerUser,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, err
	}

	log.Printf("[SaleService] Created sale %s for product %s (%d units)",
		sale.ID, sale.ProductID, sale.TotalUnits)
	return sale, nil
}

// GetByID fetches a sale by ID.
func (s *SaleService) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	if !uid.IsValid(id) {
		return nil, model.ErrSaleNotFound
	}
	return s.sales.GetByID(ctx, id)
}

// GetActive returns the currently active sale, or ErrSaleNotFound when none
// is running.
func (s *SaleService) GetActive(ctx context.Context) (*model.Sale, error) {
	return s.sales.GetActive(ctx)
}

// List returns pages of sales, newest schedule first.
func (s *SaleService) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	return s.sales.List(ctx, page, limit)
}

// Update applies a patch. A sale that has ever been active is permanently
// pinned to its product; capacity edits must not drop below the units still
// in stock.
func (s *SaleService) Update(ctx context.Context, id string, patch model.SalePatch) (*model.Sale, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.ProductID != nil && *patch.ProductID != sale.ProductID {
		if sale.ProductPinned() {
			return nil, model.ErrProductLocked
		}
		if _, err := s.products.GetByID(ctx, *patch.ProductID); err != nil {
			return nil, err
		}
		sale.ProductID = *patch.ProductID
	}
	if patch.StartTime != nil {
		sale.StartTime = *patch.StartTime
	}
	if patch.TotalUnits != nil {
		if *patch.TotalUnits < 1 {
			return nil, fmt.Errorf("%w: totalUnits must be at least 1", model.ErrValidation)
		}
		if *patch.TotalUnits < sale.RemainingUnits {
			return nil, fmt.Errorf("%w: totalUnits cannot drop below remaining units (%d)", model.ErrValidation, sale.RemainingUnits)
		}
		sale.TotalUnits = *patch.TotalUnits
	}
	if patch.MaxPurchasePerUser != nil {
		if *patch.MaxPurchasePerUser < 1 {
			return nil, fmt.Errorf("%w: maxPurchasePerUser must be at least 1", model.ErrValidation)
		}
		sale.MaxPurchasePerUser = *patch.MaxPurchasePerUser
	}

	sale.UpdatedAt = s.clock.Now()
	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// Activate flips a sale to active, subject to the single-active-sale
// invariant, stock remaining, and the start time having passed.
func (s *SaleService) Activate(ctx context.Context, id string) (*model.Sale, error) {
	if !uid.IsValid(id) {
		return nil, model.ErrSaleNotFound
	}

	sale, err := s.sales.Activate(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Printf("[SaleService] Activated sale %s (%d units remaining)", sale.ID, sale.RemainingUnits)
	return sale, nil
}

// Deactivate ends the sale manually, stamping its end time.
func (s *SaleService) Deactivate(ctx context.Context, id string) (*model.Sale, error) {
	if !uid.IsValid(id) {
		return nil, model.ErrSaleNotFound
	}

	sale, err := s.sales.Deactivate(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Printf("[SaleService] Deactivated sale %s", sale.ID)
	return sale, nil
}

// ResetInventory restores a non-active sale to a fresh Scheduled state. When
// newTotalUnits is nil the previous capacity is reused.
func (s *SaleService) ResetInventory(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error) {
	if !uid.IsValid(id) {
		return nil, model.ErrSaleNotFound
	}

	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	totalUnits := sale.TotalUnits
	if newTotalUnits != nil {
		totalUnits = *newTotalUnits
	}
	if totalUnits < 1 {
		return nil, fmt.Errorf("%w: totalUnits must be at least 1", model.ErrValidation)
	}

	sale, err = s.sales.ResetInventory(ctx, id, totalUnits, s.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Printf("[SaleService] Reset sale %s inventory to %d units", sale.ID, sale.TotalUnits)
	return sale, nil
}
