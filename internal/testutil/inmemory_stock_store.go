package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/academypay/academypay/internal/domain/stock"
	ierr "github.com/academypay/academypay/internal/errors"
)

// InMemoryStockStore implements stock.Repository
type InMemoryStockStore struct {
	schedulers  *InMemoryStore[*stock.ServiceStockScheduler]
	consumables *InMemoryStore[*stock.Consumable]
}

func NewInMemoryStockStore() *InMemoryStockStore {
	return &InMemoryStockStore{
		schedulers:  NewInMemoryStore[*stock.ServiceStockScheduler](),
		consumables: NewInMemoryStore[*stock.Consumable](),
	}
}

func copyScheduler(sc *stock.ServiceStockScheduler) *stock.ServiceStockScheduler {
	if sc == nil {
		return nil
	}
	out := *sc
	if sc.PlanID != nil {
		p := *sc.PlanID
		out.PlanID = &p
	}
	if sc.LastRenewAt != nil {
		t := *sc.LastRenewAt
		out.LastRenewAt = &t
	}
	if sc.ValidUntil != nil {
		t := *sc.ValidUntil
		out.ValidUntil = &t
	}
	return &out
}

func copyConsumable(c *stock.Consumable) *stock.Consumable {
	if c == nil {
		return nil
	}
	out := *c
	if c.ValidUntil != nil {
		t := *c.ValidUntil
		out.ValidUntil = &t
	}
	return &out
}

func (s *InMemoryStockStore) Create(ctx context.Context, scheduler *stock.ServiceStockScheduler) error {
	return s.schedulers.Create(ctx, scheduler.ID, copyScheduler(scheduler))
}

func (s *InMemoryStockStore) Get(ctx context.Context, id string) (*stock.ServiceStockScheduler, error) {
	scheduler, err := s.schedulers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyScheduler(scheduler), nil
}

func (s *InMemoryStockStore) Update(ctx context.Context, scheduler *stock.ServiceStockScheduler) error {
	return s.schedulers.Update(ctx, scheduler.ID, copyScheduler(scheduler))
}

func (s *InMemoryStockStore) GetByItemAndOwner(ctx context.Context, serviceItemID string, ownerType string, ownerID string) (*stock.ServiceStockScheduler, error) {
	matches, err := s.schedulers.List(ctx, func(ctx context.Context, sc *stock.ServiceStockScheduler) bool {
		return sc.ServiceItemID == serviceItemID &&
			string(sc.OwnerType) == ownerType &&
			sc.OwnerID == ownerID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no scheduler for item and owner").
			WithHint("Stock scheduler not found").
			Mark(ierr.ErrNotFound)
	}
	return copyScheduler(matches[0]), nil
}

func (s *InMemoryStockStore) ListByOwner(ctx context.Context, ownerType string, ownerID string) ([]*stock.ServiceStockScheduler, error) {
	matches, err := s.schedulers.List(ctx, func(ctx context.Context, sc *stock.ServiceStockScheduler) bool {
		return string(sc.OwnerType) == ownerType && sc.OwnerID == ownerID
	}, func(i, j *stock.ServiceStockScheduler) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(matches, func(sc *stock.ServiceStockScheduler, _ int) *stock.ServiceStockScheduler {
		return copyScheduler(sc)
	}), nil
}

func (s *InMemoryStockStore) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*stock.ServiceStockScheduler, error) {
	horizon := now.Add(lookahead)
	matches, err := s.schedulers.List(ctx, func(ctx context.Context, sc *stock.ServiceStockScheduler) bool {
		return sc.ValidUntil == nil || !sc.ValidUntil.After(horizon)
	}, func(i, j *stock.ServiceStockScheduler) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(paginate(matches, limit, offset), func(sc *stock.ServiceStockScheduler, _ int) *stock.ServiceStockScheduler {
		return copyScheduler(sc)
	}), nil
}

func (s *InMemoryStockStore) CreateConsumable(ctx context.Context, consumable *stock.Consumable) error {
	return s.consumables.Create(ctx, consumable.ID, copyConsumable(consumable))
}

func (s *InMemoryStockStore) GetLatestConsumable(ctx context.Context, schedulerID string) (*stock.Consumable, error) {
	matches, err := s.consumables.List(ctx, func(ctx context.Context, c *stock.Consumable) bool {
		return c.SchedulerID == schedulerID
	}, func(i, j *stock.Consumable) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no consumable for scheduler").
			WithHint("Consumable not found").
			Mark(ierr.ErrNotFound)
	}
	return copyConsumable(matches[0]), nil
}

func (s *InMemoryStockStore) ListConsumables(ctx context.Context, schedulerID string) ([]*stock.Consumable, error) {
	matches, err := s.consumables.List(ctx, func(ctx context.Context, c *stock.Consumable) bool {
		return c.SchedulerID == schedulerID
	}, func(i, j *stock.Consumable) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(matches, func(c *stock.Consumable, _ int) *stock.Consumable {
		return copyConsumable(c)
	}), nil
}

func (s *InMemoryStockStore) Clear() {
	s.schedulers.Clear()
	s.consumables.Clear()
}
