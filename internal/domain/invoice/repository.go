package invoice

import (
	"context"
)

// Repository defines the interface for invoice data access
type Repository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByBag(ctx context.Context, bagID string) ([]*Invoice, error)
	// HasPaidInvoice reports whether a bag has at least one fulfilled
	// invoice with amount > 0. Used by the renewal paid-through filter.
	HasPaidInvoice(ctx context.Context, bagID string) (bool, error)
	// CountRedemptions counts fulfilled invoices referencing a coupon
	CountRedemptions(ctx context.Context, couponID string) (int, error)
}
