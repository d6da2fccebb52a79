package adapters

import (
	"context"
	"fmt"

	"taxbridge/internal/core/cache"
	"taxbridge/internal/core/logger"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"go.uber.org/zap"
)

// CachedTaxClient wraps a TaxClient with a response cache keyed by the
// hashed canonical request body. Identical requests within the cache TTL
// are answered without touching the tax service. Cache failures are logged
// and degrade to a direct fetch, never to a calculation failure.
type CachedTaxClient struct {
	inner ports.TaxClient
	cache *cache.HashedCache
}

// NewCachedTaxClient creates a new instance of CachedTaxClient.
func NewCachedTaxClient(inner ports.TaxClient, hashed *cache.HashedCache) *CachedTaxClient {
	return &CachedTaxClient{inner: inner, cache: hashed}
}

var _ ports.TaxClient = (*CachedTaxClient)(nil)

// GetTaxes returns the cached response for an equivalent request body, or
// fetches from the tax service and caches the raw response.
func (c *CachedTaxClient) GetTaxes(body *domain.RequestBody) (*domain.TaxDetails, error) {
	ctx := context.Background()
	keyData := body.ToCanonicalForm()

	if raw, err := c.cache.ReadHashedValue(ctx, keyData); err == nil {
		details, err := domain.NewTaxDetails(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cached tax response: %w", err)
		}
		details.SetLocation(body.ToAddress())
		return details, nil
	}

	details, err := c.inner.GetTaxes(body)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetWithHashedKey(ctx, keyData, details.RawResponse()); err != nil {
		logger.Get().Warn("failed to cache tax response", zap.Error(err))
	}
	return details, nil
}
