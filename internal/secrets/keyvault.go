// Package secrets resolves runtime secrets from Azure Key Vault with an
// environment-variable fallback. In development all secrets come from the
// environment; in staging and production database credentials are fetched
// from the configured vault using DefaultAzureCredential (managed identity
// in Azure, az CLI locally).
package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// Resolver fetches secrets by name, preferring an explicit environment
// override, then Key Vault (when configured), caching vault hits.
type Resolver struct {
	client    *azsecrets.Client
	vaultName string
	logger    *zap.Logger
	cacheTTL  time.Duration

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewResolver creates a Resolver. With an empty vaultName the resolver is
// environment-only, which is the development configuration.
func NewResolver(vaultName string, cacheTTL time.Duration, logger *zap.Logger) (*Resolver, error) {
	r := &Resolver{
		vaultName: vaultName,
		logger:    logger,
		cacheTTL:  cacheTTL,
		cache:     make(map[string]cachedSecret),
	}
	if r.cacheTTL == 0 {
		r.cacheTTL = 5 * time.Minute
	}

	if vaultName != "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
		client, err := azsecrets.NewClient(vaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
		}
		r.client = client
		logger.Info("Key Vault secret resolver initialized", zap.String("vault", vaultName))
	}

	return r, nil
}

// Get resolves a secret. envName, when set and present in the environment,
// wins over the vault so deployments can override individual secrets.
func (r *Resolver) Get(ctx context.Context, secretName, envName string) (string, error) {
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}

	if r.client == nil {
		return "", fmt.Errorf("secret %q not set in environment and no vault configured", secretName)
	}

	r.mu.Lock()
	if cached, ok := r.cache[secretName]; ok && time.Now().Before(cached.expiresAt) {
		r.mu.Unlock()
		return cached.value, nil
	}
	r.mu.Unlock()

	resp, err := r.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", secretName)
	}

	r.mu.Lock()
	r.cache[secretName] = cachedSecret{value: *resp.Value, expiresAt: time.Now().Add(r.cacheTTL)}
	r.mu.Unlock()

	return *resp.Value, nil
}

// VaultEnabled reports whether a Key Vault client is configured
func (r *Resolver) VaultEnabled() bool {
	return r.client != nil
}
