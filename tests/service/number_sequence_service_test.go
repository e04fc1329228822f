package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"github.com/norfield-as/fieldops-api/internal/service"
	"github.com/norfield-as/fieldops-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSequenceServiceTest(t *testing.T) (*gorm.DB, *service.NumberSequenceService) {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	repo := repository.NewNumberSequenceRepository(db)
	return db, service.NewNumberSequenceService(repo, zap.NewNop())
}

func TestFormatDocumentNumber(t *testing.T) {
	tests := []struct {
		docType  domain.DocumentType
		year     int
		sequence int
		expected string
	}{
		{domain.DocumentTypeInvoice, 2025, 1, "INV-2025-00001"},
		{domain.DocumentTypeQuote, 2025, 42, "QUO-2025-00042"},
		{domain.DocumentTypeVisit, 2026, 12345, "VIS-2026-12345"},
		{domain.DocumentTypeInvoice, 2025, 123456, "INV-2025-123456"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.FormatDocumentNumber(tc.docType, tc.year, tc.sequence))
		})
	}
}

func TestValidateDocumentNumber(t *testing.T) {
	tests := []struct {
		number   string
		expected bool
	}{
		{"INV-2025-00001", true},
		{"QUO-2025-00042", true},
		{"VIS-2026-123456", true},
		{"INV-2025-0001", false},
		{"INVOICE-2025-00001", false},
		{"inv-2025-00001", false},
		{"INV-25-00001", false},
		{"INV-2025-", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.number, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.ValidateDocumentNumber(tc.number))
		})
	}
}

func TestNumberSequenceService_GenerateNumber(t *testing.T) {
	db, svc := setupSequenceServiceTest(t)
	tenant := testutil.CreateTestTenant(t, db)
	year := time.Now().Year()

	number, err := svc.GenerateNumber(context.Background(), nil, tenant.ID, domain.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-00001", year), number)

	number, err = svc.GenerateNumber(context.Background(), nil, tenant.ID, domain.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-00002", year), number)

	// Separate counter per document type
	number, err = svc.GenerateNumber(context.Background(), nil, tenant.ID, domain.DocumentTypeVisit)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("VIS-%d-00001", year), number)

	assert.True(t, service.ValidateDocumentNumber(number))
}

func TestNumberSequenceService_GenerateNumber_InvalidType(t *testing.T) {
	db, svc := setupSequenceServiceTest(t)
	tenant := testutil.CreateTestTenant(t, db)

	_, err := svc.GenerateNumber(context.Background(), nil, tenant.ID, domain.DocumentType("order"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestNumberSequenceService_GenerateNumber_RollsBackWithTx(t *testing.T) {
	db, svc := setupSequenceServiceTest(t)
	tenant := testutil.CreateTestTenant(t, db)

	// Allocate inside a transaction that rolls back; the counter must not
	// advance
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.GenerateNumber(context.Background(), tx, tenant.ID, domain.DocumentTypeQuote)
		require.NoError(t, err)
		return fmt.Errorf("force rollback")
	})
	require.Error(t, err)

	current, err := svc.GetCurrentSequence(context.Background(), tenant.ID, domain.DocumentTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, 0, current)
}

func TestNumberSequenceService_InitializeSequence(t *testing.T) {
	db, svc := setupSequenceServiceTest(t)
	tenant := testutil.CreateTestTenant(t, db)
	year := time.Now().Year()

	err := svc.InitializeSequence(context.Background(), tenant.ID, domain.DocumentTypeInvoice, 99)
	require.NoError(t, err)

	number, err := svc.GenerateNumber(context.Background(), nil, tenant.ID, domain.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-00100", year), number)
}
