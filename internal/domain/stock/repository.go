package stock

import (
	"context"
	"time"
)

// Repository defines the interface for scheduler and consumable data access
type Repository interface {
	Create(ctx context.Context, scheduler *ServiceStockScheduler) error
	Get(ctx context.Context, id string) (*ServiceStockScheduler, error)
	Update(ctx context.Context, scheduler *ServiceStockScheduler) error
	// GetByItemAndOwner is the idempotence key: at most one scheduler per
	// (service item, owner) pair
	GetByItemAndOwner(ctx context.Context, serviceItemID string, ownerType string, ownerID string) (*ServiceStockScheduler, error)
	ListByOwner(ctx context.Context, ownerType string, ownerID string) ([]*ServiceStockScheduler, error)
	// ListDue returns schedulers whose mirrored valid_until is null or
	// within the lookahead window. The owner paid-through filter runs in
	// the service, which re-reads current owner state.
	ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*ServiceStockScheduler, error)

	CreateConsumable(ctx context.Context, consumable *Consumable) error
	GetLatestConsumable(ctx context.Context, schedulerID string) (*Consumable, error)
	ListConsumables(ctx context.Context, schedulerID string) ([]*Consumable, error)
}
