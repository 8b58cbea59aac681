package cache

import (
	"context"
	"time"

	"wms/backend/internal/domain"
)

type SearchCache interface {
	Get(ctx context.Context, key string) ([]domain.BrokenProduct, bool, error)
	Set(ctx context.Context, key string, records []domain.BrokenProduct, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopSearchCache struct{}

func (NoopSearchCache) Get(_ context.Context, _ string) ([]domain.BrokenProduct, bool, error) {
	return nil, false, nil
}

func (NoopSearchCache) Set(_ context.Context, _ string, _ []domain.BrokenProduct, _ time.Duration) error {
	return nil
}

func (NoopSearchCache) Invalidate(_ context.Context) error {
	return nil
}
