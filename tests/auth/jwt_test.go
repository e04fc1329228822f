package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/config"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret: "test-secret-at-least-32-characters",
		Issuer:    "fieldops-api",
		TokenTTL:  3600,
	}
}

func testUser(role domain.UserRole) *domain.User {
	return &domain.User{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		TenantID:    uuid.New(),
		Email:       "tech@example.com",
		DisplayName: "Ola Nordmann",
		Role:        role,
	}
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	manager := auth.NewTokenManager(testAuthConfig())
	user := testUser(domain.RoleKeyUser)

	token, err := manager.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userCtx, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, user.TenantID, userCtx.TenantID)
	assert.Equal(t, user.DisplayName, userCtx.DisplayName)
	assert.Equal(t, user.Email, userCtx.Email)
	assert.Equal(t, domain.RoleKeyUser, userCtx.Role)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenTTL = -60
	manager := auth.NewTokenManager(cfg)

	token, err := manager.IssueToken(testUser(domain.RoleAdmin))
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	manager := auth.NewTokenManager(testAuthConfig())
	token, err := manager.IssueToken(testUser(domain.RoleAdmin))
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "a-completely-different-signing-secret"
	otherManager := auth.NewTokenManager(otherCfg)

	_, err = otherManager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	issuerCfg := testAuthConfig()
	issuerCfg.Issuer = "some-other-service"
	manager := auth.NewTokenManager(issuerCfg)
	token, err := manager.IssueToken(testUser(domain.RoleAdmin))
	require.NoError(t, err)

	validator := auth.NewTokenManager(testAuthConfig())
	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_UnknownRole(t *testing.T) {
	manager := auth.NewTokenManager(testAuthConfig())
	user := testUser(domain.UserRole("intern"))

	token, err := manager.IssueToken(user)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_GarbageToken(t *testing.T) {
	manager := auth.NewTokenManager(testAuthConfig())

	_, err := manager.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = manager.ValidateToken("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_TokenTTLRespected(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenTTL = 7200
	assert.Equal(t, 2*time.Hour, cfg.TokenTTLDuration())
}
