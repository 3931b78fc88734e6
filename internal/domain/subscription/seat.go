package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/types"
)

// Seat is a named team member's allotment under a subscription. At most one
// active seat may exist per (subscription, normalized email).
type Seat struct {
	ID             string `db:"id" json:"id"`
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`
	// Email is stored normalized (lowercased, trimmed)
	Email  string  `db:"email" json:"email"`
	UserID *string `db:"user_id" json:"user_id,omitempty"`
	// Multiplier scales the priced amount for this seat
	Multiplier decimal.Decimal `db:"multiplier" json:"multiplier"`

	types.BaseModel
}

// IsActive reports whether the seat still occupies its slot.
func (s *Seat) IsActive() bool {
	return s.BaseModel.Status == types.StatusPublished
}

// SeatLogAction is the kind of seat activity recorded.
type SeatLogAction string

const (
	SeatLogAdded    SeatLogAction = "ADDED"
	SeatLogReplaced SeatLogAction = "REPLACED"
	SeatLogRemoved  SeatLogAction = "REMOVED"
)

// SeatActivityLog is one append-only entry in a seat's history.
type SeatActivityLog struct {
	ID     string        `db:"id" json:"id"`
	SeatID string        `db:"seat_id" json:"seat_id"`
	Action SeatLogAction `db:"action" json:"action"`
	Email  string        `db:"email" json:"email"`
	At     time.Time     `db:"at" json:"at"`
}
