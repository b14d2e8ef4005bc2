package handler

import (
	"errors"
	"log"
	"net/http"

	"flash-sale-api/internal/model"
	"flash-sale-api/pkg/apierror"
)

// mapServiceError converts domain sentinels into stable API error codes.
// Clients distinguish "fix your input" (400), "re-read state and retry" (409)
// and "lost the race, do not retry" (STOCK_DEPLETED) by code, not message.
func mapServiceError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("USER_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrProductNotFound):
		return apierror.NotFound("PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrSaleNotFound):
		return apierror.NotFound("SALE_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrSaleNotActive):
		return apierror.Conflict("SALE_NOT_ACTIVE", err.Error())
	case errors.Is(err, model.ErrSaleNotStarted):
		return apierror.Conflict("SALE_NOT_STARTED", err.Error())
	case errors.Is(err, model.ErrInvalidQuantity):
		return apierror.New(http.StatusBadRequest, "INVALID_QUANTITY", err.Error())
	case errors.Is(err, model.ErrPurchaseLimitReached):
		return apierror.Conflict("PURCHASE_LIMIT_REACHED", err.Error())
	case errors.Is(err, model.ErrInsufficientStock):
		return apierror.Conflict("INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, model.ErrStockDepleted):
		return apierror.Conflict("STOCK_DEPLETED", err.Error())
	case errors.Is(err, model.ErrAnotherSaleActive):
		return apierror.Conflict("ANOTHER_SALE_ACTIVE", err.Error())
	case errors.Is(err, model.ErrNoRemainingUnits):
		return apierror.Conflict("NO_REMAINING_UNITS", err.Error())
	case errors.Is(err, model.ErrSaleActive):
		return apierror.Conflict("SALE_ACTIVE", err.Error())
	case errors.Is(err, model.ErrProductLocked):
		return apierror.Conflict("PRODUCT_LOCKED", err.Error())
	case errors.Is(err, model.ErrEmailTaken):
		return apierror.Conflict("EMAIL_TAKEN", err.Error())
	case errors.Is(err, model.ErrUsernameTaken):
		return apierror.Conflict("USERNAME_TAKEN", err.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		return apierror.Unauthorized("Invalid credentials")
	case errors.Is(err, model.ErrValidation):
		return apierror.BadRequest(err.Error())
	default:
		log.Printf("[Handler] Internal error: %v", err)
		return apierror.InternalError("")
	}
}
