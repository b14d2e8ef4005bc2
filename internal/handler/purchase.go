package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"flash-sale-api/internal/middleware"
	"flash-sale-api/internal/model"
	"flash-sale-api/pkg/apierror"
	"flash-sale-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// PurchaseService is the surface of the purchase service used by this handler.
type PurchaseService interface {
	Create(ctx context.Context, userID, saleID string, quantity int) (*model.Purchase, error)
	History(ctx context.Context, userID string, page, limit int) ([]model.HistoryEntry, int64, error)
	BySale(ctx context.Context, saleID string, page, limit int) ([]model.SalePurchase, int64, error)
	Leaderboard(ctx context.Context, saleID string, page, limit int) ([]model.LeaderboardEntry, int64, error)
}

// PurchaseHandler handles purchase attempts and ledger reads.
type PurchaseHandler struct {
	purchases PurchaseService
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchases PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// Create handles POST /api/v1/purchases
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenDataFromContext(r.Context())
	if data == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var body struct {
		SaleID   string `json:"saleId"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	if body.SaleID == "" {
		response.Error(w, apierror.BadRequest("saleId is required"))
		return
	}

	purchase, err := h.purchases.Create(r.Context(), data.UserID, body.SaleID, body.Quantity)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.Created(w, purchase)
}

// History handles GET /api/v1/purchases/history
func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenDataFromContext(r.Context())
	if data == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	entries, total, err := h.purchases.History(r.Context(), data.UserID, page, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, page, limit, total)
}

// UserHistory handles GET /api/v1/users/{userId}/purchases (admin).
func (h *PurchaseHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	entries, total, err := h.purchases.History(r.Context(), userID, page, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, page, limit, total)
}

// BySale handles GET /api/v1/sales/{id}/purchases
func (h *PurchaseHandler) BySale(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")

	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	purchases, total, err := h.purchases.BySale(r.Context(), saleID, page, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, purchases, page, limit, total)
}

// Leaderboard handles GET /api/v1/sales/{id}/leaderboard
func (h *PurchaseHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")

	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	entries, total, err := h.purchases.Leaderboard(r.Context(), saleID, page, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, page, limit, total)
}
