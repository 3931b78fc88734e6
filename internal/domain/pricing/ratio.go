package pricing

import (
	"context"

	"github.com/academypay/academypay/internal/cache"
)

// RatioSource supplies the global per-country ratio table.
type RatioSource interface {
	Ratios(ctx context.Context) (map[string]CountryRatio, error)
}

// RatioRepository is the persistence interface behind the ratio table.
type RatioRepository interface {
	ListRatios(ctx context.Context) (map[string]CountryRatio, error)
	UpsertRatio(ctx context.Context, countryCode string, ratio CountryRatio) error
}

const ratioTableKey = cache.PrefixPricingRatio + "table"

// CachedRatioSource is a read-through cache over the ratio table. Writes go
// through UpsertRatio and invalidate the cached table.
type CachedRatioSource struct {
	repo  RatioRepository
	cache cache.Cache
}

func NewCachedRatioSource(repo RatioRepository, c cache.Cache) *CachedRatioSource {
	return &CachedRatioSource{repo: repo, cache: c}
}

func (s *CachedRatioSource) Ratios(ctx context.Context) (map[string]CountryRatio, error) {
	if cached, ok := s.cache.Get(ctx, ratioTableKey); ok {
		if table, ok := cached.(map[string]CountryRatio); ok {
			return table, nil
		}
	}

	table, err := s.repo.ListRatios(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, ratioTableKey, table, cache.DefaultExpiration)
	return table, nil
}

// UpsertRatio writes a ratio row and drops the cached table.
func (s *CachedRatioSource) UpsertRatio(ctx context.Context, countryCode string, ratio CountryRatio) error {
	if err := s.repo.UpsertRatio(ctx, countryCode, ratio); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.PrefixPricingRatio)
	return nil
}
