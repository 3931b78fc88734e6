package types

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// ServiceType determines which kind of resource a consumable of this service
// must be linked to when it is minted.
type ServiceType string

const (
	// ServiceTypeVoid needs no linked resource
	ServiceTypeVoid ServiceType = "VOID"
	// ServiceTypeCohortSet grants cohort seats
	ServiceTypeCohortSet ServiceType = "COHORT_SET"
	// ServiceTypeMentorshipServiceSet grants mentorship session credits
	ServiceTypeMentorshipServiceSet ServiceType = "MENTORSHIP_SERVICE_SET"
	// ServiceTypeEventTypeSet grants event attendance credits
	ServiceTypeEventTypeSet ServiceType = "EVENT_TYPE_SET"
)

func (t ServiceType) String() string {
	return string(t)
}

func (t ServiceType) Validate() error {
	allowed := []ServiceType{
		ServiceTypeVoid,
		ServiceTypeCohortSet,
		ServiceTypeMentorshipServiceSet,
		ServiceTypeEventTypeSet,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid service type").
			WithHint("Invalid service type").
			WithReportableDetails(map[string]any{
				"service_type":  t,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RequiresResource reports whether consumables of this service type must be
// linked to a concrete selected resource.
func (t ServiceType) RequiresResource() bool {
	return t != ServiceTypeVoid
}

// ServiceUnitType is the unit in which a consumable's balance is expressed.
type ServiceUnitType string

const (
	ServiceUnitTypeUnit ServiceUnitType = "UNIT"
)

func (u ServiceUnitType) String() string {
	return string(u)
}

func (u ServiceUnitType) Validate() error {
	if u != ServiceUnitTypeUnit {
		return ierr.NewError("invalid service unit type").
			WithHint("Invalid service unit type").
			WithReportableDetails(map[string]any{"unit_type": u}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UnlimitedHowMany is the sentinel for an unlimited consumable balance.
// It is part of the storage contract.
const UnlimitedHowMany int64 = -1
