package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"github.com/norfield-as/fieldops-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func TestProductRepository_ApplyAdjustments_DeductsStock(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Cable Tray", testutil.IntPtr(10), 3)
	ctx := testutil.AuthContext(tenant.ID)

	crossed, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 4},
	})
	require.NoError(t, err)
	assert.Empty(t, crossed)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.StockLevel)
	assert.Equal(t, 6, *updated.StockLevel)
	assert.Equal(t, domain.StockStatusAvailable, updated.StockStatus)
}

func TestProductRepository_ApplyAdjustments_ReleasesStock(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Junction Box", testutil.IntPtr(6), 3)
	ctx := testutil.AuthContext(tenant.ID)

	_, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: -4},
	})
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, *updated.StockLevel)
}

func TestProductRepository_ApplyAdjustments_SkipsUntrackedProducts(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Consulting Hour", nil, 0)
	ctx := testutil.AuthContext(tenant.ID)

	crossed, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 4},
	})
	require.NoError(t, err)
	assert.Empty(t, crossed)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.StockLevel)
}

func TestProductRepository_ApplyAdjustments_FractionalDeltaRounds(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Cable Meter", testutil.IntPtr(10), 0)
	ctx := testutil.AuthContext(tenant.ID)

	_, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 2.5},
	})
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, *updated.StockLevel)
}

func TestProductRepository_ApplyAdjustments_PinnedStatusNotRecomputed(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Back-Ordered Panel", testutil.IntPtr(10), 3)
	ctx := testutil.AuthContext(tenant.ID)

	_, err := repo.PinStockStatus(ctx, product.ID, nil)
	require.NoError(t, err)

	_, err = repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 9},
	})
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *updated.StockLevel)
	assert.Equal(t, domain.StockStatusAvailableSoon, updated.StockStatus, "pinned status must survive adjustments")
}

func TestProductRepository_ApplyAdjustments_ReportsThresholdCrossings(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	crossing := testutil.CreateTestProduct(t, db, tenant.ID, "Crossing Product", testutil.IntPtr(5), 3)
	staysAbove := testutil.CreateTestProduct(t, db, tenant.ID, "Healthy Product", testutil.IntPtr(50), 3)
	alreadyBelow := testutil.CreateTestProduct(t, db, tenant.ID, "Already Low Product", testutil.IntPtr(2), 3)

	crossed, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: crossing.ID, Delta: 3},
		{ProductID: staysAbove.ID, Delta: 3},
		{ProductID: alreadyBelow.ID, Delta: 1},
	})
	require.NoError(t, err)

	require.Len(t, crossed, 1)
	assert.Equal(t, crossing.ID, crossed[0].ID)
	require.NotNil(t, crossed[0].StockLevel)
	assert.Equal(t, 2, *crossed[0].StockLevel)
}

func TestProductRepository_ApplyAdjustments_StatusTransitions(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Depleting Product", testutil.IntPtr(6), 3)
	ctx := testutil.AuthContext(tenant.ID)

	_, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 4},
	})
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusLow, updated.StockStatus)

	_, err = repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 2},
	})
	require.NoError(t, err)

	updated, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *updated.StockLevel)
	assert.Equal(t, domain.StockStatusUnavailable, updated.StockStatus)
}

func TestProductRepository_ApplyAdjustments_AllOrNothing(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Valid Product", testutil.IntPtr(10), 3)
	ctx := testutil.AuthContext(tenant.ID)

	// Second adjustment references a nonexistent product; the whole batch
	// must roll back
	_, err := repo.ApplyAdjustments(context.Background(), tenant.ID, []domain.StockAdjustment{
		{ProductID: product.ID, Delta: 4},
		{ProductID: uuid.New(), Delta: 1},
	})
	assert.Error(t, err)

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, *updated.StockLevel, "batch failure must not leave partial adjustments")
}

func TestProductRepository_SetStockLevel(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	ctx := testutil.AuthContext(tenant.ID)

	t.Run("overwrites level and recomputes status", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Counted Product", testutil.IntPtr(10), 3)

		updated, crossed, err := repo.SetStockLevel(ctx, product.ID, 2)
		require.NoError(t, err)
		assert.True(t, crossed)
		assert.Equal(t, 2, *updated.StockLevel)
		assert.Equal(t, domain.StockStatusLow, updated.StockStatus)
	})

	t.Run("no crossing when raising level", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Restocked Product", testutil.IntPtr(1), 3)

		updated, crossed, err := repo.SetStockLevel(ctx, product.ID, 20)
		require.NoError(t, err)
		assert.False(t, crossed)
		assert.Equal(t, domain.StockStatusAvailable, updated.StockStatus)
	})

	t.Run("tracking an untracked product into low stock crosses", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Newly Tracked Product", nil, 3)

		updated, crossed, err := repo.SetStockLevel(ctx, product.ID, 2)
		require.NoError(t, err)
		assert.True(t, crossed)
		require.NotNil(t, updated.StockLevel)
		assert.Equal(t, 2, *updated.StockLevel)
		assert.Equal(t, domain.StockStatusLow, updated.StockStatus)
	})

	t.Run("tracking an untracked product above minimum does not cross", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Newly Tracked Healthy Product", nil, 3)

		_, crossed, err := repo.SetStockLevel(ctx, product.ID, 10)
		require.NoError(t, err)
		assert.False(t, crossed)
	})

	t.Run("pinned status survives manual count", func(t *testing.T) {
		product := testutil.CreateTestProduct(t, db, tenant.ID, "Pinned Product", testutil.IntPtr(10), 3)
		_, err := repo.PinStockStatus(ctx, product.ID, nil)
		require.NoError(t, err)

		updated, _, err := repo.SetStockLevel(ctx, product.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.StockStatusAvailableSoon, updated.StockStatus)
	})

	t.Run("enforces tenant scoping", func(t *testing.T) {
		otherTenant := testutil.CreateTestTenant(t, db)
		product := testutil.CreateTestProduct(t, db, otherTenant.ID, "Foreign Product", testutil.IntPtr(10), 3)

		_, _, err := repo.SetStockLevel(ctx, product.ID, 5)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestProductRepository_PinAndUnpinStockStatus(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	ctx := testutil.AuthContext(tenant.ID)

	product := testutil.CreateTestProduct(t, db, tenant.ID, "Seasonal Product", testutil.IntPtr(2), 3)
	restockDate := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	pinned, err := repo.PinStockStatus(ctx, product.ID, &restockDate)
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusAvailableSoon, pinned.StockStatus)
	require.NotNil(t, pinned.RestockDate)

	unpinned, err := repo.UnpinStockStatus(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusLow, unpinned.StockStatus, "derived status restored from current level")
	assert.Nil(t, unpinned.RestockDate)
}

func TestProductRepository_CountLineItemReferences(t *testing.T) {
	db := setupProductTestDB(t)
	repo := repository.NewProductRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)
	tenant := testutil.CreateTestTenant(t, db)
	product := testutil.CreateTestProduct(t, db, tenant.ID, "Referenced Product", testutil.IntPtr(10), 3)

	count, err := repo.CountLineItemReferences(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	docID := uuid.New()
	err = lineItemRepo.ReplaceForDocument(context.Background(), domain.DocumentTypeInvoice, docID, []domain.LineItem{
		{TenantID: tenant.ID, DocumentType: domain.DocumentTypeInvoice, DocumentID: docID, ProductID: &product.ID, Quantity: 1},
	})
	require.NoError(t, err)

	count, err = repo.CountLineItemReferences(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
