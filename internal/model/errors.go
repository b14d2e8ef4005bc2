package model

import "errors"

// Domain sentinel errors. Services return these; the HTTP layer maps each to
// a stable apierror code so callers can tell validation failures, state
// conflicts and lost races apart.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrSaleNotFound    = errors.New("sale not found")

	// Reservation preconditions.
	ErrSaleNotActive        = errors.New("active sale not found")
	ErrSaleNotStarted       = errors.New("sale has not started yet")
	ErrInvalidQuantity      = errors.New("invalid purchase quantity")
	ErrPurchaseLimitReached = errors.New("maximum purchase limit reached for this sale")
	ErrInsufficientStock    = errors.New("not enough stock available")

	// ErrStockDepleted is the commit-time race loss: the conditional decrement
	// matched zero rows because concurrent purchases consumed the stock first.
	// It is final for the attempt and never retried by the engine.
	ErrStockDepleted = errors.New("stock was depleted before the purchase could be processed")

	// Lifecycle conflicts.
	ErrAnotherSaleActive = errors.New("another sale is already active")
	ErrNoRemainingUnits  = errors.New("cannot activate sale with no remaining units")
	ErrSaleActive        = errors.New("operation requires an inactive sale")
	ErrProductLocked     = errors.New("cannot change product for a sale that has been active")

	// ErrValidation marks input-rule failures raised inside services; wrap it
	// with fmt.Errorf("%w: ...") so the HTTP layer can map them to 400.
	ErrValidation = errors.New("validation failed")

	// Accounts.
	ErrEmailTaken         = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
