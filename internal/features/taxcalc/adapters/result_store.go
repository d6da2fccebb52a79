package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taxbridge/internal/core/cache"
	"taxbridge/internal/features/taxcalc/ports"
)

const resultKeyPrefix = "tax_result_"

// CacheResultStore keeps the latest calculation outcome per order in the
// cache, so the status endpoint can answer without replaying the pipeline.
type CacheResultStore struct {
	// cache is the underlying cache implementation.
	cache cache.Cache
}

// NewCacheResultStore creates a new instance of CacheResultStore.
func NewCacheResultStore(c cache.Cache) *CacheResultStore {
	return &CacheResultStore{cache: c}
}

var _ ports.ResultStore = (*CacheResultStore)(nil)

// Record stores the outcome of a calculation, replacing any previous result
// for the same order.
func (s *CacheResultStore) Record(ctx context.Context, result ports.CalculationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode calculation result: %w", err)
	}

	if err := s.cache.Set(ctx, resultKeyPrefix+result.OrderID, data, 0); err != nil {
		return fmt.Errorf("failed to store calculation result: %w", err)
	}
	return nil
}

// Latest returns the most recent result recorded for the order, or
// cache.ErrKeyNotFound when no calculation has run yet.
func (s *CacheResultStore) Latest(ctx context.Context, orderID string) (*ports.CalculationResult, error) {
	raw, err := s.cache.Get(ctx, resultKeyPrefix+orderID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read calculation result: %w", err)
	}

	var result ports.CalculationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode calculation result: %w", err)
	}
	return &result, nil
}
