package planfinancing

import (
	"context"
	"time"
)

// Repository defines the interface for plan financing data access
type Repository interface {
	Create(ctx context.Context, pf *PlanFinancing) error
	Get(ctx context.Context, id string) (*PlanFinancing, error)
	Update(ctx context.Context, pf *PlanFinancing) error
	// ExistsForUserPlan reports whether the user already has a financing of
	// the plan that is not cancelled. Used by the "already financed" check.
	ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error)
	// GetByBag returns the financing created from a purchase bag, if any.
	// This is the idempotence key of the entitlement builder.
	GetByBag(ctx context.Context, bagID string) (*PlanFinancing, error)
	// ListDue returns financings whose next installment falls within the
	// lookahead and whose status allows charging
	ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*PlanFinancing, error)
	// ListExpired returns non-terminal financings whose life window has
	// fully elapsed; the sweep flips them to EXPIRED without charging
	ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*PlanFinancing, error)
}
