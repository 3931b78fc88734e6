package testutil

import (
	"context"
	"sync"

	"github.com/academypay/academypay/internal/domain/pricing"
)

// StaticRatioSource implements pricing.RatioSource from a fixed table.
type StaticRatioSource struct {
	mu     sync.RWMutex
	ratios map[string]pricing.CountryRatio
}

func NewStaticRatioSource(ratios map[string]pricing.CountryRatio) *StaticRatioSource {
	if ratios == nil {
		ratios = make(map[string]pricing.CountryRatio)
	}
	return &StaticRatioSource{ratios: ratios}
}

func (s *StaticRatioSource) Ratios(ctx context.Context) (map[string]pricing.CountryRatio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]pricing.CountryRatio, len(s.ratios))
	for k, v := range s.ratios {
		out[k] = v
	}
	return out, nil
}

func (s *StaticRatioSource) SetRatio(countryCode string, ratio pricing.CountryRatio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratios[countryCode] = ratio
}
