package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/domain/coupon"
	ierr "github.com/academypay/academypay/internal/errors"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	*InMemoryStore[*coupon.Coupon]
}

func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore[*coupon.Coupon](),
	}
}

func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	return s.InMemoryStore.Create(ctx, c.ID, copyCoupon(c))
}

func (s *InMemoryCouponStore) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) GetBySlug(ctx context.Context, slug string) (*coupon.Coupon, error) {
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, c *coupon.Coupon) bool {
		return c.Slug == slug
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithHint("Coupon not found").
			WithReportableDetails(map[string]any{"slug": slug}).
			Mark(ierr.ErrNotFound)
	}
	return copyCoupon(matches[0]), nil
}

func (s *InMemoryCouponStore) GetBatch(ctx context.Context, ids []string) ([]*coupon.Coupon, error) {
	found := make([]*coupon.Coupon, 0, len(ids))
	for _, id := range ids {
		c, err := s.InMemoryStore.Get(ctx, id)
		if err != nil {
			continue
		}
		found = append(found, copyCoupon(c))
	}
	return found, nil
}
