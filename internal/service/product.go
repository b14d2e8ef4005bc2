package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"flash-sale-api/internal/cache"
	"flash-sale-api/internal/clock"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
	"flash-sale-api/pkg/uid"
)

const productCacheTTL = 30 * time.Second

// ProductService manages the catalog. Reads of single products go through a
// short-TTL cache; writes invalidate it.
type ProductService struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
	cache    cache.Cache
	clock    clock.Clock
}

// NewProductService creates a new product service. cache may be nil.
func NewProductService(products repository.ProductRepository, sales repository.SaleRepository,
	c cache.Cache, clk clock.Clock) *ProductService {
	return &ProductService{
		products: products,
		sales:    sales,
		cache:    c,
		clock:    clk,
	}
}

// ProductInput carries a create/update request.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BasePrice   float64 `json:"basePrice"`
	SalePrice   float64 `json:"salePrice"`
	ImageURL    string  `json:"imageUrl"`
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: product name is required", model.ErrValidation)
	}
	if in.BasePrice <= 0 {
		return fmt.Errorf("%w: base price must be positive", model.ErrValidation)
	}
	if in.SalePrice <= 0 {
		return fmt.Errorf("%w: sale price must be positive", model.ErrValidation)
	}
	if in.SalePrice > in.BasePrice {
		return fmt.Errorf("%w: sale price cannot exceed base price", model.ErrValidation)
	}
	return nil
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product := &model.Product{
		ID:          uid.New(),
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		SalePrice:   in.SalePrice,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	log.Printf("[ProductService] Created product %s (%s)", product.Name, product.ID)
	return product, nil
}

// GetByID returns a product, serving from cache when possible.
func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if !uid.IsValid(id) {
		return nil, model.ErrProductNotFound
	}

	cacheKey := "product:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p model.Product
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, productCacheTTL); err != nil {
				log.Printf("[ProductService] Failed to cache product %s: %v", id, err)
			}
		}
	}

	return product, nil
}

// List returns catalog pages matching the query.
func (s *ProductService) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, 0, fmt.Errorf("%w: minPrice cannot exceed maxPrice", model.ErrValidation)
	}
	return s.products.List(ctx, q)
}

// Update applies a patch to a product and invalidates its cache entry.
func (s *ProductService) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.BasePrice != nil {
		product.BasePrice = *patch.BasePrice
	}
	if patch.SalePrice != nil {
		product.SalePrice = *patch.SalePrice
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}

	in := ProductInput{
		Name:      product.Name,
		BasePrice: product.BasePrice,
		SalePrice: product.SalePrice,
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product.UpdatedAt = s.clock.Now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return product, nil
}

// Delete removes a product. A product referenced by the active sale stays.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.sales.GetActiveByProduct(ctx, id); err == nil {
		return model.ErrProductLocked
	} else if err != model.ErrSaleNotFound {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	log.Printf("[ProductService] Deleted product %s", id)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "product:"+id); err != nil {
		log.Printf("[ProductService] Failed to invalidate product %s: %v", id, err)
	}
}
