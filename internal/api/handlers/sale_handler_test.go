package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-platform/sales-service/internal/application"
	"github.com/retail-platform/sales-service/internal/domain"
	"github.com/retail-platform/sales-service/pkg/logging"
)

type fakeSaleRepo struct {
	createFn                func(context.Context, *domain.Sale) error
	getByIDFn               func(context.Context, string) (*domain.Sale, error)
	getAllFn                func(context.Context, domain.SaleQuery) ([]*domain.Sale, error)
	countFn                 func(context.Context, *domain.SaleFilter) (int64, error)
	updateFn                func(context.Context, *domain.Sale) (bool, error)
	deleteFn                func(context.Context, string) (bool, error)
	existsAndNotCancelledFn func(context.Context, string) (bool, error)
}

func (f *fakeSaleRepo) Create(ctx context.Context, sale *domain.Sale) error {
	if f.createFn != nil {
		return f.createFn(ctx, sale)
	}
	return nil
}

func (f *fakeSaleRepo) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeSaleRepo) GetAll(ctx context.Context, query domain.SaleQuery) ([]*domain.Sale, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx, query)
	}
	return nil, nil
}

func (f *fakeSaleRepo) Count(ctx context.Context, filter *domain.SaleFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

func (f *fakeSaleRepo) Update(ctx context.Context, sale *domain.Sale) (bool, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, sale)
	}
	return true, nil
}

func (f *fakeSaleRepo) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return true, nil
}

func (f *fakeSaleRepo) ExistsAndNotCancelled(ctx context.Context, id string) (bool, error) {
	if f.existsAndNotCancelledFn != nil {
		return f.existsAndNotCancelledFn(ctx, id)
	}
	return true, nil
}

type fakePublisher struct{}

func (f *fakePublisher) Publish(context.Context, domain.DomainEvent) error { return nil }

func (f *fakePublisher) PublishBatch(context.Context, []domain.DomainEvent) error { return nil }

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("sale-handler-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func newRouter(repo *fakeSaleRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := application.NewSaleService(repo, &fakePublisher{}, domain.DefaultDiscountPolicy(), testLogger())
	handler := NewSaleHandler(service, testLogger(), nil)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func makeRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSaleBody() map[string]interface{} {
	return map[string]interface{}{
		"saleDate":     time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"customerId":   1,
		"customerName": "Acme Corp",
		"branchId":     2,
		"branchName":   "Main Branch",
		"items": []map[string]interface{}{
			{"productId": 1, "productName": "Widget Standard", "quantity": 5, "unitPrice": 10},
			{"productId": 2, "productName": "Widget Deluxe", "quantity": 15, "unitPrice": 10},
		},
	}
}

func persistedSale(t *testing.T) *domain.Sale {
	t.Helper()
	sale, err := domain.NewSale(
		time.Now().UTC().Add(-time.Hour),
		1, "Acme Corp", 2, "Main Branch",
		[]*domain.SaleItem{domain.NewSaleItem(1, "Widget Standard", 5, decimal.NewFromInt(10))},
	)
	require.NoError(t, err)
	require.NoError(t, sale.ApplyDiscounts(domain.DefaultDiscountPolicy()))
	sale.CalculateTotalAmount()
	sale.ClearDomainEvents()
	return sale
}

func TestSaleHandlerCreateSale(t *testing.T) {
	router := newRouter(&fakeSaleRepo{})

	rec := makeRequest(router, http.MethodPost, "/api/v1/sales", createSaleBody())
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		Data application.SaleDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Regexp(t, `^SALE-\d{8}-[A-F0-9]{8}$`, response.Data.SaleNumber)
	assert.Equal(t, 2, response.Data.ItemCount)
}

func TestSaleHandlerCreateSaleBindingErrors(t *testing.T) {
	router := newRouter(&fakeSaleRepo{})

	// missing items
	body := createSaleBody()
	delete(body, "items")
	rec := makeRequest(router, http.MethodPost, "/api/v1/sales", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// quantity above the binding cap
	body = createSaleBody()
	body["items"] = []map[string]interface{}{
		{"productId": 1, "productName": "Widget Standard", "quantity": 25, "unitPrice": 10},
	}
	rec = makeRequest(router, http.MethodPost, "/api/v1/sales", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleHandlerCreateSaleRepoError(t *testing.T) {
	repo := &fakeSaleRepo{
		createFn: func(context.Context, *domain.Sale) error {
			return assert.AnError
		},
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodPost, "/api/v1/sales", createSaleBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSaleHandlerGetSale(t *testing.T) {
	sale := persistedSale(t)
	repo := &fakeSaleRepo{
		getByIDFn: func(_ context.Context, id string) (*domain.Sale, error) {
			if id == sale.ID {
				return sale, nil
			}
			return nil, nil
		},
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodGet, "/api/v1/sales/"+sale.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/sales/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleHandlerListSales(t *testing.T) {
	var captured domain.SaleQuery
	repo := &fakeSaleRepo{
		getAllFn: func(_ context.Context, query domain.SaleQuery) ([]*domain.Sale, error) {
			captured = query
			return []*domain.Sale{persistedSale(t)}, nil
		},
		countFn: func(context.Context, *domain.SaleFilter) (int64, error) {
			return 1, nil
		},
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodGet,
		"/api/v1/sales?page=2&pageSize=5&order=desc&CustomerName=Acme", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.SortDescending, captured.Order)
	assert.Equal(t, int64(5), captured.Limit())
	assert.Equal(t, int64(5), captured.Skip())
	assert.Equal(t, "Acme", captured.Filter.CustomerName)

	var response application.SaleListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(2), response.Page)
	assert.Len(t, response.Data, 1)
}

func TestSaleHandlerListSalesBadFilter(t *testing.T) {
	router := newRouter(&fakeSaleRepo{})

	rec := makeRequest(router, http.MethodGet, "/api/v1/sales?SaleDate=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleHandlerUpdateSale(t *testing.T) {
	sale := persistedSale(t)
	repo := &fakeSaleRepo{
		getByIDFn: func(_ context.Context, id string) (*domain.Sale, error) {
			if id == sale.ID {
				return sale, nil
			}
			return nil, nil
		},
	}
	router := newRouter(repo)

	body := createSaleBody()
	rec := makeRequest(router, http.MethodPut, "/api/v1/sales/"+sale.ID, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodPut, "/api/v1/sales/missing", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleHandlerUpdateCancelledSale(t *testing.T) {
	sale := persistedSale(t)
	sale.Cancel()
	repo := &fakeSaleRepo{
		getByIDFn: func(context.Context, string) (*domain.Sale, error) { return sale, nil },
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodPut, "/api/v1/sales/"+sale.ID, createSaleBody())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSaleHandlerCancelSale(t *testing.T) {
	router := newRouter(&fakeSaleRepo{})

	rec := makeRequest(router, http.MethodDelete, "/api/v1/sales/sale-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaleHandlerCancelSaleNotFound(t *testing.T) {
	repo := &fakeSaleRepo{
		existsAndNotCancelledFn: func(context.Context, string) (bool, error) { return false, nil },
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodDelete, "/api/v1/sales/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleHandlerCancelSaleAlreadyCancelled(t *testing.T) {
	sale := persistedSale(t)
	sale.Cancel()
	repo := &fakeSaleRepo{
		existsAndNotCancelledFn: func(context.Context, string) (bool, error) { return false, nil },
		getByIDFn:               func(context.Context, string) (*domain.Sale, error) { return sale, nil },
	}
	router := newRouter(repo)

	rec := makeRequest(router, http.MethodDelete, "/api/v1/sales/"+sale.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
