package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(i *invoice.Invoice) *invoice.Invoice {
	if i == nil {
		return nil
	}
	out := *i
	out.CouponIDs = append([]string(nil), i.CouponIDs...)
	return &out
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) ListByBag(ctx context.Context, bagID string) ([]*invoice.Invoice, error) {
	matches, err := s.InMemoryStore.List(ctx, func(ctx context.Context, i *invoice.Invoice) bool {
		return i.BagID == bagID
	}, func(i, j *invoice.Invoice) bool {
		return i.PaidAt.Before(j.PaidAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(matches, func(i *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(i)
	}), nil
}

func (s *InMemoryInvoiceStore) HasPaidInvoice(ctx context.Context, bagID string) (bool, error) {
	count, err := s.InMemoryStore.Count(ctx, func(ctx context.Context, i *invoice.Invoice) bool {
		return i.BagID == bagID &&
			i.Status == types.InvoiceStatusFulfilled &&
			i.Amount.IsPositive()
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *InMemoryInvoiceStore) CountRedemptions(ctx context.Context, couponID string) (int, error) {
	return s.InMemoryStore.Count(ctx, func(ctx context.Context, i *invoice.Invoice) bool {
		return i.Status == types.InvoiceStatusFulfilled && lo.Contains(i.CouponIDs, couponID)
	})
}
