package stock

import (
	"time"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// ServiceStockScheduler binds one service item to one billing entity and
// governs when that item's consumables renew. Exactly one exists per
// (service item, owner) pair for the owner's whole life.
type ServiceStockScheduler struct {
	ID            string `db:"id" json:"id"`
	ServiceItemID string `db:"service_item_id" json:"service_item_id"`

	OwnerType types.BillingOwnerType `db:"owner_type" json:"owner_type"`
	OwnerID   string                 `db:"owner_id" json:"owner_id"`

	// PlanID is set when the entitlement is inherited through a plan rather
	// than purchased directly as an add-on
	PlanID *string `db:"plan_id" json:"plan_id,omitempty"`

	// LastRenewAt and ValidUntil mirror the latest minted consumable so the
	// sweep can select due schedulers without joining consumables
	LastRenewAt *time.Time `db:"last_renew_at" json:"last_renew_at,omitempty"`
	ValidUntil  *time.Time `db:"valid_until" json:"valid_until,omitempty"`

	types.BaseModel
}

func (s *ServiceStockScheduler) Validate() error {
	if err := s.OwnerType.Validate(); err != nil {
		return err
	}
	if s.OwnerID == "" {
		return ierr.NewError("scheduler has no owning billing entity").
			WithHint("A stock scheduler must reference its owner").
			WithReportableDetails(map[string]any{"scheduler_id": s.ID}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Consumable is a time-boxed grant of usable quantity. Rows are immutable
// once created; they simply expire.
type Consumable struct {
	ID          string `db:"id" json:"id"`
	SchedulerID string `db:"scheduler_id" json:"scheduler_id"`
	// ServiceItemID snapshots the item the grant came from
	ServiceItemID string `db:"service_item_id" json:"service_item_id"`
	UserID        string `db:"user_id" json:"user_id"`

	// HowMany -1 means unlimited
	HowMany  int64                 `db:"how_many" json:"how_many"`
	UnitType types.ServiceUnitType `db:"unit_type" json:"unit_type"`

	ValidUntil *time.Time `db:"valid_until" json:"valid_until,omitempty"`

	Resource types.ResourceSelection `json:"resource"`

	types.BaseModel
}

// IsLiveAt reports whether the consumable is still usable at now.
func (c *Consumable) IsLiveAt(now time.Time) bool {
	return c.ValidUntil == nil || now.Before(*c.ValidUntil)
}
