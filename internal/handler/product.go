package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"flash-sale-api/internal/model"
	"flash-sale-api/internal/service"
	"flash-sale-api/pkg/apierror"
	"flash-sale-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ProductService is the surface of the product service used by this handler.
type ProductService interface {
	Create(ctx context.Context, in service.ProductInput) (*model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	products ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	product, err := h.products.Create(r.Context(), in)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.Created(w, product)
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, product)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, apiErr := parsePagination(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	q := model.ProductQuery{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			response.Error(w, apierror.BadRequest("minPrice must be a non-negative number"))
			return
		}
		q.MinPrice = &v
	}
	if raw := r.URL.Query().Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			response.Error(w, apierror.BadRequest("maxPrice must be a non-negative number"))
			return
		}
		q.MaxPrice = &v
	}

	products, total, err := h.products.List(r.Context(), q)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, products, page, limit, total)
}

// Update handles PATCH /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	product, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, product)
}

// Delete handles DELETE /api/v1/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.products.Delete(r.Context(), id); err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.NoContent(w)
}
