package subscription

import (
	"context"
	"time"
)

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	// GetActiveForUserPlan returns the user's live subscription for a plan:
	// status not terminal and validity window not elapsed at now
	GetActiveForUserPlan(ctx context.Context, userID, planID string, now time.Time) (*Subscription, error)
	// ExistsForUserPlan reports whether any subscription of the plan ever
	// existed for the user, regardless of status. Used by free-trial reuse
	// detection.
	ExistsForUserPlan(ctx context.Context, userID, planID string) (bool, error)
	// GetByBag returns the subscription created from a purchase bag, if any.
	// This is the idempotence key of the entitlement builder.
	GetByBag(ctx context.Context, bagID string) (*Subscription, error)
	// ListDue returns subscriptions whose next payment falls within the
	// lookahead and whose status allows charging
	ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit, offset int) ([]*Subscription, error)
	// ListExpired returns non-terminal subscriptions whose validity window
	// has fully elapsed; the sweep flips them to EXPIRED without charging
	ListExpired(ctx context.Context, now time.Time, limit, offset int) ([]*Subscription, error)

	// Seats
	CreateSeat(ctx context.Context, seat *Seat) error
	UpdateSeat(ctx context.Context, seat *Seat) error
	GetActiveSeat(ctx context.Context, subscriptionID, normalizedEmail string) (*Seat, error)
	ListSeats(ctx context.Context, subscriptionID string) ([]*Seat, error)
	CreateSeatLog(ctx context.Context, log *SeatActivityLog) error
}
