package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/domain/bag"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// InMemoryBagStore implements bag.Repository
type InMemoryBagStore struct {
	*InMemoryStore[*bag.Bag]
}

func NewInMemoryBagStore() *InMemoryBagStore {
	return &InMemoryBagStore{
		InMemoryStore: NewInMemoryStore[*bag.Bag](),
	}
}

func copyBag(b *bag.Bag) *bag.Bag {
	if b == nil {
		return nil
	}
	out := *b
	out.PlanIDs = append([]string(nil), b.PlanIDs...)
	out.LineItems = append([]bag.LineItem(nil), b.LineItems...)
	out.CouponIDs = append([]string(nil), b.CouponIDs...)
	return &out
}

func (s *InMemoryBagStore) Create(ctx context.Context, b *bag.Bag) error {
	return s.InMemoryStore.Create(ctx, b.ID, copyBag(b))
}

func (s *InMemoryBagStore) Get(ctx context.Context, id string) (*bag.Bag, error) {
	b, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyBag(b), nil
}

func (s *InMemoryBagStore) GetChecking(ctx context.Context, userID string) (*bag.Bag, error) {
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, b *bag.Bag) bool {
		return b.UserID == userID && b.Status == types.BagStatusChecking && !b.WasDelivered
	}, func(i, j *bag.Bag) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no checking bag for user").
			WithHint("User has no open bag").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrNotFound)
	}
	return copyBag(matches[0]), nil
}

func (s *InMemoryBagStore) Update(ctx context.Context, b *bag.Bag) error {
	return s.InMemoryStore.Update(ctx, b.ID, copyBag(b))
}
