package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"flash-sale-api/internal/model"
	"flash-sale-api/internal/service"
	"flash-sale-api/pkg/apierror"
	"flash-sale-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// SaleService is the surface of the sale service used by this handler.
type SaleService interface {
	Create(ctx context.Context, in service.SaleInput) (*model.Sale, error)
	GetByID(ctx context.Context, id string) (*model.Sale, error)
	GetActive(ctx context.Context) (*model.Sale, error)
	List(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	Update(ctx context.Context, id string, patch model.SalePatch) (*model.Sale, error)
	Activate(ctx context.Context, id string) (*model.Sale, error)
	Deactivate(ctx context.Context, id string) (*model.Sale, error)
	ResetInventory(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error)
}

// SaleHandler handles sale lifecycle HTTP requests.
type SaleHandler struct {
	sales SaleService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(sales SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Create handles POST /api/v1/sales
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	if in.ProductID == "" {
		response.Error(w, apierror.BadRequest("productId is required"))
		return
	}

	sale, err := h.sales.Create(r.Context(), in)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.Created(w, sale)
}

// Get handles GET /api/v1/sales/{id}
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}

// GetActive handles GET /api/v1/sales/active
func (h *SaleHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.GetActive(r.Context())
	if err == model.ErrSaleNotFound {
		response.Error(w, apierror.NotFound("SALE_NOT_ACTIVE", "no sale is currently active"))
		return
	}
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}

// List handles GET /api/v1/sales
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	sales, total, err := h.sales.List(r.Context(), page, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, sales, page, limit, total)
}

// Update handles PATCH /api/v1/sales/{id}
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.SalePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	sale, err := h.sales.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}

// Activate handles POST /api/v1/sales/{id}/activate
func (h *SaleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}

// Deactivate handles POST /api/v1/sales/{id}/deactivate
func (h *SaleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}

// Reset handles POST /api/v1/sales/{id}/reset
func (h *SaleHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TotalUnits *int `json:"totalUnits"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
	}

	sale, err := h.sales.ResetInventory(r.Context(), chi.URLParam(r, "id"), body.TotalUnits)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, sale)
}
