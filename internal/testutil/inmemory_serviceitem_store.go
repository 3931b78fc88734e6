package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/domain/serviceitem"
)

// InMemoryServiceItemStore implements serviceitem.Repository
type InMemoryServiceItemStore struct {
	services *InMemoryStore[*serviceitem.Service]
	items    *InMemoryStore[*serviceitem.ServiceItem]
}

func NewInMemoryServiceItemStore() *InMemoryServiceItemStore {
	return &InMemoryServiceItemStore{
		services: NewInMemoryStore[*serviceitem.Service](),
		items:    NewInMemoryStore[*serviceitem.ServiceItem](),
	}
}

func copyServiceItem(i *serviceitem.ServiceItem) *serviceitem.ServiceItem {
	if i == nil {
		return nil
	}
	out := *i
	if i.Service != nil {
		svc := *i.Service
		out.Service = &svc
	}
	return &out
}

func (s *InMemoryServiceItemStore) CreateService(ctx context.Context, svc *serviceitem.Service) error {
	copied := *svc
	return s.services.Create(ctx, svc.ID, &copied)
}

func (s *InMemoryServiceItemStore) GetService(ctx context.Context, id string) (*serviceitem.Service, error) {
	svc, err := s.services.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	copied := *svc
	return &copied, nil
}

func (s *InMemoryServiceItemStore) Create(ctx context.Context, item *serviceitem.ServiceItem) error {
	return s.items.Create(ctx, item.ID, copyServiceItem(item))
}

func (s *InMemoryServiceItemStore) Get(ctx context.Context, id string) (*serviceitem.ServiceItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := copyServiceItem(item)
	if out.Service == nil && out.ServiceID != "" {
		if svc, err := s.services.Get(ctx, out.ServiceID); err == nil {
			copied := *svc
			out.Service = &copied
		}
	}
	return out, nil
}

func (s *InMemoryServiceItemStore) GetBatch(ctx context.Context, ids []string) ([]*serviceitem.ServiceItem, error) {
	found := make([]*serviceitem.ServiceItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		found = append(found, item)
	}
	return found, nil
}

func (s *InMemoryServiceItemStore) Clear() {
	s.services.Clear()
	s.items.Clear()
}
