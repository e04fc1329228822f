package service_test

import (
	"context"
	"testing"
	"time"

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

type visitServiceFixture struct {
	db       *gorm.DB
	visits   *service.VisitService
	products *repository.ProductRepository
	tenant   *domain.Tenant
	customer *domain.Customer
	ctx      context.Context
}

func setupVisitService(t *testing.T) *visitServiceFixture {
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
	visits := service.NewVisitService(db,
		repository.NewVisitRepository(db),
		repository.NewLineItemRepository(db),
		repository.NewCustomerRepository(db),
		numberSvc, lifecycle, log)

	tenant := testutil.CreateTestTenant(t, db)
	customer := testutil.CreateTestCustomer(t, db, tenant.ID, "Hardanger Hotell AS")

	return &visitServiceFixture{
		db:       db,
		visits:   visits,
		products: productRepo,
		tenant:   tenant,
		customer: customer,
		ctx:      testutil.AuthContext(tenant.ID),
	}
}

func (f *visitServiceFixture) stockLevel(t *testing.T, product *domain.Product) int {
	t.Helper()
	current, err := f.products.GetByID(f.ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, current.StockLevel)
	return *current.StockLevel
}

func TestVisitService_PlannedReservesImmediately(t *testing.T) {
	f := setupVisitService(t)
	product := testutil.CreateTestProduct(t, f.db, f.tenant.ID, "Filter", testutil.IntPtr(8), 2)

	// Visits default to planned, which reserves; unlike invoices there is
	// no non-reserving initial state
	resp, err := f.visits.Create(f.ctx, &domain.CreateVisitRequest{
		CustomerID:  f.customer.ID,
		Status:      domain.VisitStatusPlanned,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 3, UnitPrice: 120},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.StockWarning)
	assert.Equal(t, "VIS", resp.Visit.Number[:3])
	assert.Equal(t, 5, f.stockLevel(t, product))

	// Completing keeps the reservation
	resp, err = f.visits.UpdateStatus(f.ctx, resp.Visit.ID, domain.VisitStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stockLevel(t, product))

	// Cancelling releases it
	resp, err = f.visits.UpdateStatus(f.ctx, resp.Visit.ID, domain.VisitStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 8, f.stockLevel(t, product))
}

func TestVisitService_QuantityAdjustmentWhilePlanned(t *testing.T) {
	f := setupVisitService(t)
	product := testutil.CreateTestProduct(t, f.db, f.tenant.ID, "Termostat", testutil.IntPtr(10), 2)

	resp, err := f.visits.Create(f.ctx, &domain.CreateVisitRequest{
		CustomerID:  f.customer.ID,
		Status:      domain.VisitStatusPlanned,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 2, UnitPrice: 600},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stockLevel(t, product))

	// Technician used more on site than planned
	resp, err = f.visits.Update(f.ctx, resp.Visit.ID, &domain.UpdateVisitRequest{
		Status: domain.VisitStatusCompleted,
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 5, UnitPrice: 600},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.StockWarning)
	assert.Equal(t, 5, f.stockLevel(t, product))
}

func TestVisitService_DeleteReleasesReservation(t *testing.T) {
	f := setupVisitService(t)
	product := testutil.CreateTestProduct(t, f.db, f.tenant.ID, "Pakning", testutil.IntPtr(6), 2)

	resp, err := f.visits.Create(f.ctx, &domain.CreateVisitRequest{
		CustomerID:  f.customer.ID,
		Status:      domain.VisitStatusPlanned,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Items: []domain.LineItemRequest{
			{ProductID: &product.ID, Quantity: 2, UnitPrice: 45},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stockLevel(t, product))

	err = f.visits.Delete(f.ctx, resp.Visit.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, f.stockLevel(t, product))

	_, err = f.visits.GetByID(f.ctx, resp.Visit.ID)
	assert.ErrorIs(t, err, service.ErrVisitNotFound)
}
