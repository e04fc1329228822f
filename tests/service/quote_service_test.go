package service_test

import (
	"context"
	"testing"

	"github.com/norfield-as/fieldops-api/internal/config"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"github.com/norfield-as/fieldops-api/internal/service"
	"github.com/norfield-as/fieldops-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type quoteServiceFixture struct {
	db       *gorm.DB
	quotes   *service.QuoteService
	products *repository.ProductRepository
	tenant   *domain.Tenant
	customer *domain.Customer
	ctx      context.Context
}

func setupQuoteService(t *testing.T) *quoteServiceFixture {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})

	log := zap.NewNop()
	productRepo := repository.NewProductRepository(db)
	notifications := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		&config.NotificationsConfig{},
		log,
	)
	stock := service.NewStockService(productRepo, notifications, log)
	lifecycle := service.NewDocumentLifecycle(stock, log)
	numberSvc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log)
	quotes := service.NewQuoteService(db,
		repository.NewQuoteRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewCustomerRepository(db),
		numberSvc, lifecycle, log)

	tenant := testutil.CreateTestTenant(t, db)
	customer := testutil.CreateTestCustomer(t, db, tenant.ID, "Sunnfjord Rør AS")

	return &quoteServiceFixture{
		db:       db,
		quotes:   quotes,
		products: productRepo,
		tenant:   tenant,
		customer: customer,
		ctx:      testutil.AuthContext(tenant.ID),
	}
}

func (f *quoteServiceFixture) stockLevel(t *testing.T, product *domain.Product) int {
	t.Helper()
	current, err := f.products.GetByID(f.ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, current.StockLevel)
	return *current.StockLevel
}

func TestQuoteService_DeclineReleasesReservation(t *testing.T) {
	f := setupQuoteService(t)
	product := testutil.CreateTestProduct(t, f.db, f.tenant.ID, "Rørdeler", testutil.IntPtr(10), 3)

	resp, err := f.quotes.Create(f.ctx, &domain.CreateQuoteRequest{
		CustomerID: f.customer.ID,
		Status:     domain.QuoteStatusSent,
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 4, UnitPrice: 250},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.stockLevel(t, product))
	assert.Equal(t, "QUO", resp.Quote.Number[:3])

	// Accepting keeps the reservation
	resp, err = f.quotes.UpdateStatus(f.ctx, resp.Quote.ID, domain.QuoteStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 6, f.stockLevel(t, product))

	// Declining releases it
	resp, err = f.quotes.UpdateStatus(f.ctx, resp.Quote.ID, domain.QuoteStatusDeclined)
	require.NoError(t, err)
	assert.Empty(t, resp.StockWarning)
	assert.Equal(t, 10, f.stockLevel(t, product))
}

func TestQuoteService_DraftDeleteDoesNotTouchStock(t *testing.T) {
	f := setupQuoteService(t)
	product := testutil.CreateTestProduct(t, f.db, f.tenant.ID, "Ventil", testutil.IntPtr(5), 2)

	resp, err := f.quotes.Create(f.ctx, &domain.CreateQuoteRequest{
		CustomerID: f.customer.ID,
		Status:     domain.QuoteStatusDraft,
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 2, UnitPrice: 150},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stockLevel(t, product))

	err = f.quotes.Delete(f.ctx, resp.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stockLevel(t, product))
}

func TestQuoteService_InvalidStatus(t *testing.T) {
	f := setupQuoteService(t)

	_, err := f.quotes.Create(f.ctx, &domain.CreateQuoteRequest{
		CustomerID: f.customer.ID,
		Status:     domain.QuoteStatus("paid"),
	})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}
