package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/dto"
	apperrors "newsstand/internal/errors"
)

// Mock implementations

type mockProductService struct {
	GetByIDFunc      func(ctx context.Context, id int64) (*dto.ProductDTO, error)
	GetAllFunc       func(ctx context.Context) ([]dto.ProductDTO, error)
	GetActiveFunc    func(ctx context.Context) ([]dto.ProductDTO, error)
	SearchByNameFunc func(ctx context.Context, query string) ([]dto.ProductDTO, error)
	GetLowStockFunc  func(ctx context.Context, threshold int) ([]dto.ProductDTO, error)
	CreateFunc       func(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductDTO, error)
	UpdateFunc       func(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductDTO, error)
	AddStockFunc     func(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error)
	RemoveStockFunc  func(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error)
	ActivateFunc     func(ctx context.Context, id int64) (*dto.ProductDTO, error)
	DeactivateFunc   func(ctx context.Context, id int64) (*dto.ProductDTO, error)
	RemoveFunc       func(ctx context.Context, id int64) error
}

func (m *mockProductService) GetByID(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockProductService) GetAll(ctx context.Context) ([]dto.ProductDTO, error) {
	return m.GetAllFunc(ctx)
}

func (m *mockProductService) GetActive(ctx context.Context) ([]dto.ProductDTO, error) {
	return m.GetActiveFunc(ctx)
}

func (m *mockProductService) SearchByName(ctx context.Context, query string) ([]dto.ProductDTO, error) {
	return m.SearchByNameFunc(ctx, query)
}

func (m *mockProductService) GetLowStock(ctx context.Context, threshold int) ([]dto.ProductDTO, error) {
	return m.GetLowStockFunc(ctx, threshold)
}

func (m *mockProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductDTO, error) {
	return m.CreateFunc(ctx, req)
}

func (m *mockProductService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductDTO, error) {
	return m.UpdateFunc(ctx, id, req)
}

func (m *mockProductService) AddStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
	return m.AddStockFunc(ctx, id, quantity)
}

func (m *mockProductService) RemoveStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
	return m.RemoveStockFunc(ctx, id, quantity)
}

func (m *mockProductService) Activate(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	return m.ActivateFunc(ctx, id)
}

func (m *mockProductService) Deactivate(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	return m.DeactivateFunc(ctx, id)
}

func (m *mockProductService) Remove(ctx context.Context, id int64) error {
	return m.RemoveFunc(ctx, id)
}

// Helpers

func newTestRouter(svc ProductService) http.Handler {
	c := NewProductController(svc, commons.NewValidator(), zap.NewNop())

	r := chi.NewRouter()
	r.Get("/products", c.List)
	r.Get("/products/low-stock", c.LowStock)
	r.Get("/products/{id}", c.Get)
	r.Post("/products", c.Create)
	r.Put("/products/{id}", c.Update)
	r.Post("/products/{id}/stock", c.AddStock)
	r.Post("/products/{id}/stock/remove", c.RemoveStock)
	r.Post("/products/{id}/activate", c.Activate)
	r.Post("/products/{id}/deactivate", c.Deactivate)
	r.Delete("/products/{id}", c.Remove)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func sampleProduct(id int64) *dto.ProductDTO {
	return &dto.ProductDTO{ID: id, Name: "Jornal X", Price: decimal.RequireFromString("5.50"), Stock: 10, Active: true}
}

// Tests

func TestProductController_List(t *testing.T) {
	var called string
	svc := &mockProductService{
		GetAllFunc: func(context.Context) ([]dto.ProductDTO, error) {
			called = "all"
			return []dto.ProductDTO{*sampleProduct(1)}, nil
		},
		GetActiveFunc: func(context.Context) ([]dto.ProductDTO, error) {
			called = "active"
			return []dto.ProductDTO{}, nil
		},
		SearchByNameFunc: func(_ context.Context, q string) ([]dto.ProductDTO, error) {
			called = "search:" + q
			return []dto.ProductDTO{}, nil
		},
	}
	h := newTestRouter(svc)

	tests := []struct {
		target string
		want   string
	}{
		{"/products", "all"},
		{"/products?active=true", "active"},
		{"/products?q=veja", "search:veja"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, called)
			assert.NotEmpty(t, rec.Header().Get(commons.TraceHeader))
		})
	}
}

func TestProductController_LowStock(t *testing.T) {
	var got int
	svc := &mockProductService{
		GetLowStockFunc: func(_ context.Context, threshold int) ([]dto.ProductDTO, error) {
			got = threshold
			return []dto.ProductDTO{}, nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodGet, "/products/low-stock?threshold=3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, got)

	rec = do(t, h, http.MethodGet, "/products/low-stock", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, got)

	rec = do(t, h, http.MethodGet, "/products/low-stock?threshold=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductController_Get(t *testing.T) {
	svc := &mockProductService{
		GetByIDFunc: func(_ context.Context, id int64) (*dto.ProductDTO, error) {
			if id == 1 {
				return sampleProduct(1), nil
			}
			return nil, nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodGet, "/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.ProductDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Jornal X", body.Name)
	assert.True(t, decimal.RequireFromString("5.50").Equal(body.Price))

	rec = do(t, h, http.MethodGet, "/products/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductController_Create(t *testing.T) {
	var got dto.CreateProductRequest
	svc := &mockProductService{
		CreateFunc: func(_ context.Context, req dto.CreateProductRequest) (*dto.ProductDTO, error) {
			got = req
			return sampleProduct(7), nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPost, "/products", `{"name":"Jornal X","price":"5.50","quantity":10,"barcode":"123"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Jornal X", got.Name)
	assert.True(t, decimal.RequireFromString("5.50").Equal(got.Price))
	require.NotNil(t, got.Barcode)
	assert.Equal(t, "123", *got.Barcode)
}

func TestProductController_Create_ValidationError(t *testing.T) {
	svc := &mockProductService{
		CreateFunc: func(context.Context, dto.CreateProductRequest) (*dto.ProductDTO, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := newTestRouter(svc)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"invalid json", `{"name":`, "body"},
		{"empty body", ``, "body"},
		{"missing name", `{"price":"1.00"}`, "name"},
		{"negative quantity", `{"name":"X","price":"1.00","quantity":-1}`, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/products", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			require.NotEmpty(t, body.Details)
			assert.Equal(t, tt.field, body.Details[0].Field)
			assert.Equal(t, rec.Header().Get(commons.TraceHeader), body.TraceID)
		})
	}
}

func TestProductController_Create_Conflict(t *testing.T) {
	svc := &mockProductService{
		CreateFunc: func(context.Context, dto.CreateProductRequest) (*dto.ProductDTO, error) {
			return nil, apperrors.NewConflictError("barcode 123 is already used by product 1")
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/products", `{"name":"X","price":"1.00","barcode":"123"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)
}

func TestProductController_Update(t *testing.T) {
	var gotID int64
	svc := &mockProductService{
		UpdateFunc: func(_ context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductDTO, error) {
			gotID = id
			if id == 404 {
				return nil, apperrors.NewNotFoundError("product with id 404 not found")
			}
			return sampleProduct(id), nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPut, "/products/5", `{"name":"Jornal","price":"6.00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), gotID)

	rec = do(t, h, http.MethodPut, "/products/404", `{"name":"Jornal","price":"6.00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductController_AddStock(t *testing.T) {
	var gotQty int
	svc := &mockProductService{
		AddStockFunc: func(_ context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
			gotQty = quantity
			if quantity < 0 {
				return nil, apperrors.FieldError("quantity", "quantity must not be negative")
			}
			return sampleProduct(id), nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPost, "/products/1/stock", `{"quantity":7}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, gotQty)

	rec = do(t, h, http.MethodPost, "/products/1/stock", `{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductController_RemoveStock(t *testing.T) {
	var gotQty int
	svc := &mockProductService{
		RemoveStockFunc: func(_ context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
			gotQty = quantity
			p := sampleProduct(id)
			p.Stock -= quantity
			return p, nil
		},
	}

	rec := do(t, newTestRouter(svc), http.MethodPost, "/products/1/stock/remove", `{"quantity":12}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, gotQty)
	var body dto.ProductDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, -2, body.Stock)
}

func TestProductController_ActivateDeactivate(t *testing.T) {
	svc := &mockProductService{
		ActivateFunc: func(_ context.Context, id int64) (*dto.ProductDTO, error) {
			return sampleProduct(id), nil
		},
		DeactivateFunc: func(_ context.Context, id int64) (*dto.ProductDTO, error) {
			p := sampleProduct(id)
			p.Active = false
			return p, nil
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPost, "/products/3/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.ProductDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Active)

	rec = do(t, h, http.MethodPost, "/products/3/activate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductController_Remove(t *testing.T) {
	svc := &mockProductService{
		RemoveFunc: func(_ context.Context, id int64) error {
			switch id {
			case 1:
				return nil
			case 2:
				return apperrors.NewConflictError("product 2 is referenced by sales")
			default:
				return errors.New("connection reset")
			}
		},
	}
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodDelete, "/products/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/products/2", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/products/3", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "an unexpected error occurred", body.Message)
}
