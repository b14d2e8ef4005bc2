package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flash-sale-api/internal/model"
	"flash-sale-api/internal/service"
	"flash-sale-api/pkg/uid"
)

// stubSaleService implements SaleService with overridable funcs.
type stubSaleService struct {
	create         func(ctx context.Context, in service.SaleInput) (*model.Sale, error)
	getByID        func(ctx context.Context, id string) (*model.Sale, error)
	getActive      func(ctx context.Context) (*model.Sale, error)
	list           func(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	update         func(ctx context.Context, id string, patch model.SalePatch) (*model.Sale, error)
	activate       func(ctx context.Context, id string) (*model.Sale, error)
	deactivate     func(ctx context.Context, id string) (*model.Sale, error)
	resetInventory func(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error)
}

func (s *stubSaleService) Create(ctx context.Context, in service.SaleInput) (*model.Sale, error) {
	return s.create(ctx, in)
}

func (s *stubSaleService) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	return s.getByID(ctx, id)
}

func (s *stubSaleService) GetActive(ctx context.Context) (*model.Sale, error) {
	return s.getActive(ctx)
}

func (s *stubSaleService) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	return s.list(ctx, page, limit)
}

func (s *stubSaleService) Update(ctx context.Context, id string, patch model.SalePatch) (*model.Sale, error) {
	return s.update(ctx, id, patch)
}

func (s *stubSaleService) Activate(ctx context.Context, id string) (*model.Sale, error) {
	return s.activate(ctx, id)
}

func (s *stubSaleService) Deactivate(ctx context.Context, id string) (*model.Sale, error) {
	return s.deactivate(ctx, id)
}

func (s *stubSaleService) ResetInventory(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error) {
	return s.resetInventory(ctx, id, newTotalUnits)
}

func TestSaleHandlerCreate(t *testing.T) {
	t.Run("creates and returns 201", func(t *testing.T) {
		productID := uid.New()
		svc := &stubSaleService{
			create: func(ctx context.Context, in service.SaleInput) (*model.Sale, error) {
				if in.ProductID != productID {
					t.Errorf("ProductID = %q, want %q", in.ProductID, productID)
				}
				return &model.Sale{ID: uid.New(), ProductID: in.ProductID}, nil
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales",
			strings.NewReader(`{"productId":"`+productID+`","totalUnits":50}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("requires productId", func(t *testing.T) {
		h := NewSaleHandler(&stubSaleService{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("maps validation failures to 400", func(t *testing.T) {
		svc := &stubSaleService{
			create: func(ctx context.Context, in service.SaleInput) (*model.Sale, error) {
				return nil, model.ErrValidation
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales",
			strings.NewReader(`{"productId":"`+uid.New()+`","totalUnits":0}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSaleHandlerGetActive(t *testing.T) {
	t.Run("returns the active sale", func(t *testing.T) {
		sale := &model.Sale{ID: uid.New(), IsActive: true, RemainingUnits: 5}
		svc := &stubSaleService{
			getActive: func(ctx context.Context) (*model.Sale, error) { return sale, nil },
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/active", nil)
		rec := httptest.NewRecorder()
		h.GetActive(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		var got model.Sale
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("decode sale: %v", err)
		}
		if got.ID != sale.ID {
			t.Errorf("sale ID = %q, want %q", got.ID, sale.ID)
		}
	})

	t.Run("404 with SALE_NOT_ACTIVE when none runs", func(t *testing.T) {
		svc := &stubSaleService{
			getActive: func(ctx context.Context) (*model.Sale, error) { return nil, model.ErrSaleNotFound },
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/active", nil)
		rec := httptest.NewRecorder()
		h.GetActive(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != "SALE_NOT_ACTIVE" {
			t.Errorf("error = %+v, want code SALE_NOT_ACTIVE", env.Error)
		}
	})
}

func TestSaleHandlerActivate(t *testing.T) {
	saleID := uid.New()

	t.Run("activates", func(t *testing.T) {
		svc := &stubSaleService{
			activate: func(ctx context.Context, id string) (*model.Sale, error) {
				return &model.Sale{ID: id, IsActive: true}, nil
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID+"/activate", nil)
		req = withURLParam(req, "id", saleID)
		rec := httptest.NewRecorder()
		h.Activate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("conflicting active sale maps to 409", func(t *testing.T) {
		svc := &stubSaleService{
			activate: func(ctx context.Context, id string) (*model.Sale, error) {
				return nil, model.ErrAnotherSaleActive
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID+"/activate", nil)
		req = withURLParam(req, "id", saleID)
		rec := httptest.NewRecorder()
		h.Activate(rec, req)

		env := decodeEnvelope(t, rec)
		if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "ANOTHER_SALE_ACTIVE" {
			t.Errorf("got %d / %+v, want 409 ANOTHER_SALE_ACTIVE", rec.Code, env.Error)
		}
	})
}

func TestSaleHandlerReset(t *testing.T) {
	saleID := uid.New()

	t.Run("empty body reuses previous capacity", func(t *testing.T) {
		svc := &stubSaleService{
			resetInventory: func(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error) {
				if newTotalUnits != nil {
					t.Errorf("newTotalUnits = %v, want nil", *newTotalUnits)
				}
				return &model.Sale{ID: id, TotalUnits: 10, RemainingUnits: 10}, nil
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID+"/reset", nil)
		req = withURLParam(req, "id", saleID)
		rec := httptest.NewRecorder()
		h.Reset(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("body overrides capacity", func(t *testing.T) {
		svc := &stubSaleService{
			resetInventory: func(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error) {
				if newTotalUnits == nil || *newTotalUnits != 25 {
					t.Errorf("newTotalUnits = %v, want 25", newTotalUnits)
				}
				return &model.Sale{ID: id, TotalUnits: 25, RemainingUnits: 25}, nil
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID+"/reset",
			strings.NewReader(`{"totalUnits":25}`))
		req = withURLParam(req, "id", saleID)
		rec := httptest.NewRecorder()
		h.Reset(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("reset on an active sale maps to 409", func(t *testing.T) {
		svc := &stubSaleService{
			resetInventory: func(ctx context.Context, id string, newTotalUnits *int) (*model.Sale, error) {
				return nil, model.ErrSaleActive
			},
		}
		h := NewSaleHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID+"/reset", nil)
		req = withURLParam(req, "id", saleID)
		rec := httptest.NewRecorder()
		h.Reset(rec, req)

		env := decodeEnvelope(t, rec)
		if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "SALE_ACTIVE" {
			t.Errorf("got %d / %+v, want 409 SALE_ACTIVE", rec.Code, env.Error)
		}
	})
}

func TestSaleHandlerList(t *testing.T) {
	svc := &stubSaleService{
		list: func(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
			return []model.Sale{{ID: uid.New()}}, 1, nil
		},
	}
	h := NewSaleHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Meta == nil || env.Meta.Page != 1 || env.Meta.Limit != 10 {
		t.Errorf("meta = %+v, want default page 1 limit 10", env.Meta)
	}
}
