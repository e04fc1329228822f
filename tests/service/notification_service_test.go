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

func setupNotificationService(t *testing.T, cfg *config.NotificationsConfig) (*gorm.DB, *service.NotificationService) {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	svc := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		cfg,
		zap.NewNop(),
	)
	return db, svc
}

func TestNotificationService_NotifyLowStock_FanOut(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{})
	tenant := testutil.CreateTestTenant(t, db)

	keyUser := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleKeyUser)
	admin := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleAdmin)
	superAdmin := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleSuperAdmin)
	technician := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleFieldTechnician)

	product := testutil.CreateTestProduct(t, db, tenant.ID, "Overspenningsvern", testutil.IntPtr(2), 3)
	svc.NotifyLowStock(context.Background(), tenant.ID, []domain.Product{*product})

	var rows []domain.Notification
	require.NoError(t, db.Where("tenant_id = ?", tenant.ID).Find(&rows).Error)
	require.Len(t, rows, 2)

	recipients := map[string]bool{}
	for _, n := range rows {
		recipients[n.UserID.String()] = true
		assert.Equal(t, domain.NotificationCategoryLowStock, n.Category)
		assert.Contains(t, n.Title, "Overspenningsvern")
		assert.Contains(t, n.Message, "minimum 3")
	}
	assert.True(t, recipients[keyUser.ID.String()])
	assert.True(t, recipients[admin.ID.String()])
	assert.False(t, recipients[superAdmin.ID.String()], "super admins excluded by default")
	assert.False(t, recipients[technician.ID.String()])
}

func TestNotificationService_NotifyLowStock_IncludesSuperAdminsWhenConfigured(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{NotifySuperAdmins: true})
	tenant := testutil.CreateTestTenant(t, db)
	superAdmin := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleSuperAdmin)

	product := testutil.CreateTestProduct(t, db, tenant.ID, "Jordfeilbryter", testutil.IntPtr(1), 3)
	svc.NotifyLowStock(context.Background(), tenant.ID, []domain.Product{*product})

	var rows []domain.Notification
	require.NoError(t, db.Where("tenant_id = ?", tenant.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, superAdmin.ID, rows[0].UserID)
}

func TestNotificationService_NotifyLowStock_NoProducts(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{})
	tenant := testutil.CreateTestTenant(t, db)
	testutil.CreateTestUser(t, db, tenant.ID, domain.RoleAdmin)

	svc.NotifyLowStock(context.Background(), tenant.ID, nil)

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNotificationService_NotifyLowStock_MultipleProducts(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{})
	tenant := testutil.CreateTestTenant(t, db)
	testutil.CreateTestUser(t, db, tenant.ID, domain.RoleKeyUser)
	testutil.CreateTestUser(t, db, tenant.ID, domain.RoleAdmin)

	first := testutil.CreateTestProduct(t, db, tenant.ID, "Product A", testutil.IntPtr(1), 3)
	second := testutil.CreateTestProduct(t, db, tenant.ID, "Product B", testutil.IntPtr(0), 3)
	svc.NotifyLowStock(context.Background(), tenant.ID, []domain.Product{*first, *second})

	// One row per product per recipient
	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Where("tenant_id = ?", tenant.ID).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestNotificationService_UserFacingFlow(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{})
	tenant := testutil.CreateTestTenant(t, db)
	user := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleAdmin)
	other := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleKeyUser)
	ctx := testutil.AuthContextForUser(user)

	product := testutil.CreateTestProduct(t, db, tenant.ID, "Lysarmatur", testutil.IntPtr(2), 3)
	svc.NotifyLowStock(context.Background(), tenant.ID, []domain.Product{*product})

	page, err := svc.GetForCurrentUser(ctx, 1, 20, false, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	dtos := page.Data.([]domain.NotificationDTO)
	require.Len(t, dtos, 1)
	notificationID := dtos[0].ID
	assert.False(t, dtos[0].Read)

	count, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)

	// The other recipient cannot read someone else's notification
	_, err = svc.GetByID(testutil.AuthContextForUser(other), notificationID)
	assert.ErrorIs(t, err, service.ErrNotificationNotOwned)

	err = svc.MarkAsRead(ctx, notificationID)
	require.NoError(t, err)

	// Marking twice is a no-op
	err = svc.MarkAsRead(ctx, notificationID)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, notificationID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.NotNil(t, got.ReadAt)

	count, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	db, svc := setupNotificationService(t, &config.NotificationsConfig{})
	tenant := testutil.CreateTestTenant(t, db)
	user := testutil.CreateTestUser(t, db, tenant.ID, domain.RoleAdmin)
	ctx := testutil.AuthContextForUser(user)

	for _, name := range []string{"Product A", "Product B", "Product C"} {
		product := testutil.CreateTestProduct(t, db, tenant.ID, name, testutil.IntPtr(1), 3)
		svc.NotifyLowStock(context.Background(), tenant.ID, []domain.Product{*product})
	}

	count, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count.Count)

	err = svc.MarkAllAsReadForUser(ctx)
	require.NoError(t, err)

	count, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count)
}

func TestNotificationService_RequiresUserContext(t *testing.T) {
	_, svc := setupNotificationService(t, &config.NotificationsConfig{})

	_, err := svc.GetForCurrentUser(context.Background(), 1, 20, false, "")
	assert.ErrorIs(t, err, service.ErrUserContextRequired)

	_, err = svc.GetUnreadCount(context.Background())
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}
