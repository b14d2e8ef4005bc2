package model

import "time"

// Sale lifecycle states. Depleted is a reporting sub-state of ended: it is
// derived from remaining units, never stored separately.
const (
	SaleStatusScheduled = "scheduled"
	SaleStatusActive    = "active"
	SaleStatusEnded     = "ended"
	SaleStatusDepleted  = "depleted"
)

// Sale represents a time-boxed, capacity-limited selling window for one product.
type Sale struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"product_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	TotalUnits         int        `json:"total_units"`
	RemainingUnits     int        `json:"remaining_units"`
	IsActive           bool       `json:"is_active"`
	MaxPurchasePerUser int        `json:"max_purchase_per_user"`
	// ActivatedAt is stamped on first activation and pins ProductID for the
	// rest of the sale's life.
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Status derives the lifecycle state from stored fields. ActivatedAt is
// deliberately not consulted: it survives a reset (it pins the product), but
// a reset sale with stock and no end time is scheduled again.
func (s *Sale) Status() string {
	switch {
	case s.IsActive:
		return SaleStatusActive
	case s.RemainingUnits <= 0:
		return SaleStatusDepleted
	case s.EndTime != nil:
		return SaleStatusEnded
	default:
		return SaleStatusScheduled
	}
}

// Started reports whether purchases are permitted by the schedule.
func (s *Sale) Started(now time.Time) bool {
	return !s.StartTime.After(now)
}

// ProductPinned reports whether the product reference may no longer change.
func (s *Sale) ProductPinned() bool {
	return s.IsActive || s.ActivatedAt != nil
}

// SalePatch is a partial update for a sale. Nil fields are left unchanged.
type SalePatch struct {
	ProductID          *string    `json:"product_id"`
	StartTime          *time.Time `json:"start_time"`
	TotalUnits         *int       `json:"total_units"`
	MaxPurchasePerUser *int       `json:"max_purchase_per_user"`
}
