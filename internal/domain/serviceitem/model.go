package serviceitem

import (
	"github.com/shopspring/decimal"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// Service is a sellable/grantable capability (mentorship, cohort access,
// event attendance). Its type determines the resource a consumable links to.
type Service struct {
	ID    string            `db:"id" json:"id"`
	Slug  string            `db:"slug" json:"slug"`
	Type  types.ServiceType `db:"type" json:"type"`
	Title string            `db:"title" json:"title"`
	// PricePerUnit is the base price when the service is sold as an add-on
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	CurrencyCode string          `db:"currency_code" json:"currency_code"`

	types.BaseModel
}

// ServiceItem is a unit of entitlement: how much of a service is granted and
// how often the grant renews.
type ServiceItem struct {
	ID        string `db:"id" json:"id"`
	ServiceID string `db:"service_id" json:"service_id"`
	// HowMany is the granted quantity per renewal; -1 means unlimited
	HowMany  int64                 `db:"how_many" json:"how_many"`
	UnitType types.ServiceUnitType `db:"unit_type" json:"unit_type"`
	// RenewAt / RenewAtUnit define the renewal cadence of minted consumables
	RenewAt     int                `db:"renew_at" json:"renew_at"`
	RenewAtUnit types.DurationUnit `db:"renew_at_unit" json:"renew_at_unit"`
	IsRenewable bool               `db:"is_renewable" json:"is_renewable"`

	// Service is the resolved service row, populated by repositories
	Service *Service `db:"-" json:"service,omitempty"`

	types.BaseModel
}

// IsUnlimited reports whether the item grants an unlimited balance.
func (i *ServiceItem) IsUnlimited() bool {
	return i.HowMany == types.UnlimitedHowMany
}

func (i *ServiceItem) Validate() error {
	if i.HowMany < types.UnlimitedHowMany || i.HowMany == 0 {
		return ierr.NewError("invalid service item quantity").
			WithHint("how_many must be positive or -1 for unlimited").
			WithReportableDetails(map[string]any{"how_many": i.HowMany}).
			Mark(ierr.ErrValidation)
	}
	if err := i.UnitType.Validate(); err != nil {
		return err
	}
	if i.IsRenewable {
		if i.RenewAt <= 0 {
			return ierr.NewError("renewable service item has no cadence").
				WithHint("renew_at must be positive for renewable items").
				WithReportableDetails(map[string]any{"service_item_id": i.ID}).
				Mark(ierr.ErrValidation)
		}
		if err := i.RenewAtUnit.Validate(); err != nil {
			return err
		}
	}
	return nil
}
