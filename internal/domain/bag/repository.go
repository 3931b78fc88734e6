package bag

import (
	"context"
)

// Repository defines the interface for bag data access
type Repository interface {
	Create(ctx context.Context, bag *Bag) error
	Get(ctx context.Context, id string) (*Bag, error)
	// GetChecking returns the user's current CHECKING bag, if any
	GetChecking(ctx context.Context, userID string) (*Bag, error)
	Update(ctx context.Context, bag *Bag) error
}
