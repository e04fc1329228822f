package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/config"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/http/handler"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"github.com/norfield-as/fieldops-api/internal/service"
	"github.com/norfield-as/fieldops-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProductHandler(t *testing.T) (*gorm.DB, chi.Router, context.Context, *domain.Tenant) {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})

	logger := zap.NewNop()
	productRepo := repository.NewProductRepository(db)
	notifications := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		&config.NotificationsConfig{},
		logger,
	)
	stock := service.NewStockService(productRepo, notifications, logger)
	productService := service.NewProductService(productRepo, stock, logger)
	h := handler.NewProductHandler(productService, logger)

	r := chi.NewRouter()
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/stock", h.SetStockLevel)
		r.Post("/{id}/stock/pin", h.PinStockStatus)
		r.Delete("/{id}/stock/pin", h.UnpinStockStatus)
	})

	tenant := testutil.CreateTestTenant(t, db)
	return db, r, testutil.AuthContext(tenant.ID), tenant
}

func doJSON(t *testing.T, r chi.Router, ctx context.Context, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestProductHandler_CreateAndGet(t *testing.T) {
	_, r, ctx, _ := setupProductHandler(t)

	rr := doJSON(t, r, ctx, http.MethodPost, "/products", domain.CreateProductRequest{
		Name:              "Varmepumpe Toshiba",
		Kind:              domain.ProductKindGood,
		UnitPrice:         18900,
		TaxRate:           25,
		StockLevel:        testutil.IntPtr(7),
		MinimumStockLevel: 2,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created domain.ProductDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Varmepumpe Toshiba", created.Name)
	require.NotNil(t, created.StockLevel)
	assert.Equal(t, 7, *created.StockLevel)
	assert.Equal(t, domain.StockStatusAvailable, created.StockStatus)

	rr = doJSON(t, r, ctx, http.MethodGet, "/products/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched domain.ProductDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestProductHandler_Create_ValidationError(t *testing.T) {
	_, r, ctx, _ := setupProductHandler(t)

	rr := doJSON(t, r, ctx, http.MethodPost, "/products", domain.CreateProductRequest{
		Name: "",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductHandler_GetByID_Errors(t *testing.T) {
	_, r, ctx, _ := setupProductHandler(t)

	rr := doJSON(t, r, ctx, http.MethodGet, "/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, r, ctx, http.MethodGet, "/products/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProductHandler_SetStockLevel(t *testing.T) {
	db, r, ctx, tenant := setupProductHandler(t)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Sikringsskap", testutil.IntPtr(10), 3)

	rr := doJSON(t, r, ctx, http.MethodPut, fmt.Sprintf("/products/%s/stock", product.ID),
		domain.SetStockLevelRequest{StockLevel: testutil.IntPtr(2)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var dto domain.ProductDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	require.NotNil(t, dto.StockLevel)
	assert.Equal(t, 2, *dto.StockLevel)
	assert.Equal(t, domain.StockStatusLow, dto.StockStatus)
}

func TestProductHandler_SetStockLevel_MissingBodyField(t *testing.T) {
	db, r, ctx, tenant := setupProductHandler(t)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Sikringsskap", testutil.IntPtr(10), 3)

	rr := doJSON(t, r, ctx, http.MethodPut, fmt.Sprintf("/products/%s/stock", product.ID),
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductHandler_PinAndUnpin(t *testing.T) {
	db, r, ctx, tenant := setupProductHandler(t)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Utsolgt produkt", testutil.IntPtr(0), 3)

	rr := doJSON(t, r, ctx, http.MethodPost, fmt.Sprintf("/products/%s/stock/pin", product.ID),
		domain.PinStockStatusRequest{})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var dto domain.ProductDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, domain.StockStatusAvailableSoon, dto.StockStatus)

	rr = doJSON(t, r, ctx, http.MethodDelete, fmt.Sprintf("/products/%s/stock/pin", product.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, domain.StockStatusUnavailable, dto.StockStatus)

	// Unpinning an unpinned product is a 400
	rr = doJSON(t, r, ctx, http.MethodDelete, fmt.Sprintf("/products/%s/stock/pin", product.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductHandler_Delete(t *testing.T) {
	db, r, ctx, tenant := setupProductHandler(t)

	t.Run("deletes unreferenced product", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Ubrukt produkt", nil, 0)

		rr := doJSON(t, r, ctx, http.MethodDelete, "/products/"+product.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("refuses referenced product", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Brukt produkt", nil, 0)
		docID := uuid.New()
		lineItemRepo := repository.NewLineItemRepository(db)
		require.NoError(t, lineItemRepo.ReplaceForDocument(context.Background(), domain.DocumentTypeInvoice, docID, []domain.LineItem{
			{TenantID: tenant.ID, ProductID: &product.ID, Quantity: 1},
		}))

		rr := doJSON(t, r, ctx, http.MethodDelete, "/products/"+product.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestProductHandler_List(t *testing.T) {
	db, r, ctx, tenant := setupProductHandler(t)
	testutil.CreateTestProduct(t, db, tenant.ID, "Kabel 3x2.5", nil, 0)
	testutil.CreateTestProduct(t, db, tenant.ID, "Kabel 5x6", nil, 0)
	testutil.CreateTestProduct(t, db, tenant.ID, "Downlight", nil, 0)

	rr := doJSON(t, r, ctx, http.MethodGet, "/products?search=kabel", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var page domain.PaginatedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.TotalCount)
}
