package coupon

import (
	"context"
)

// Repository defines the interface for coupon data access
type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	Get(ctx context.Context, id string) (*Coupon, error)
	GetBySlug(ctx context.Context, slug string) (*Coupon, error)
	GetBatch(ctx context.Context, ids []string) ([]*Coupon, error)
}
