package serviceitem

import (
	"context"
)

// Repository defines the interface for service and service item data access
type Repository interface {
	CreateService(ctx context.Context, service *Service) error
	GetService(ctx context.Context, id string) (*Service, error)

	Create(ctx context.Context, item *ServiceItem) error
	// Get returns the item with its Service resolved
	Get(ctx context.Context, id string) (*ServiceItem, error)
	// GetBatch returns the items found for ids; missing ids are simply
	// absent from the result so callers can report the whole unresolved set
	GetBatch(ctx context.Context, ids []string) ([]*ServiceItem, error)
}
