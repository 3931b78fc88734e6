package dto

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// BagItemRequest is one service-item add-on in a bag request.
type BagItemRequest struct {
	// Service is the service item id or slug
	Service string `json:"service" binding:"required"`
	HowMany int64  `json:"how_many" binding:"required"`
}

// BagRequest asks the bag builder to converge a cart.
type BagRequest struct {
	UserID string `json:"-"`
	// BagID continues an existing CHECKING bag; empty starts a new one
	BagID string `json:"bag_id,omitempty"`
	// Checking marks an exploratory request that resets prior attachments
	Checking bool `json:"checking,omitempty"`

	Plans        []string         `json:"plans,omitempty"`
	ServiceItems []BagItemRequest `json:"service_items,omitempty"`
	Seats        int              `json:"seats,omitempty"`
	CountryCode  string           `json:"country_code,omitempty"`

	ChosenPeriod        types.BillingPeriod `json:"chosen_period,omitempty"`
	HowManyInstallments int                 `json:"how_many_installments,omitempty"`

	CohortSet            string `json:"cohort_set,omitempty"`
	MentorshipServiceSet string `json:"mentorship_service_set,omitempty"`
	EventTypeSet         string `json:"event_type_set,omitempty"`
}

// ResourceSelection converts the three mutually exclusive resource fields
// into the typed selection, rejecting requests that set more than one.
func (r *BagRequest) ResourceSelection() (types.ResourceSelection, error) {
	selections := make([]types.ResourceSelection, 0, 1)
	if r.CohortSet != "" {
		selections = append(selections, types.ResourceSelection{Kind: types.ResourceKindCohortSet, ID: r.CohortSet})
	}
	if r.MentorshipServiceSet != "" {
		selections = append(selections, types.ResourceSelection{Kind: types.ResourceKindMentorshipServiceSet, ID: r.MentorshipServiceSet})
	}
	if r.EventTypeSet != "" {
		selections = append(selections, types.ResourceSelection{Kind: types.ResourceKindEventTypeSet, ID: r.EventTypeSet})
	}

	switch len(selections) {
	case 0:
		return types.NoResource(), nil
	case 1:
		return selections[0], nil
	default:
		return types.ResourceSelection{}, ierr.NewError("more than one resource selected").
			WithHint("Select at most one of cohort set, mentorship service set or event type set").
			Mark(ierr.ErrValidation)
	}
}

func (r *BagRequest) Validate() error {
	if r.UserID == "" {
		return ierr.NewError("bag request has no user").
			WithHint("User is required").
			Mark(ierr.ErrValidation)
	}
	for _, item := range r.ServiceItems {
		if item.Service == "" {
			return ierr.NewError("add-on is missing its service item").
				WithHint("Every add-on needs a service item reference").
				Mark(ierr.ErrValidation)
		}
		if item.HowMany <= 0 {
			return ierr.NewError("add-on quantity must be positive").
				WithHint("how_many must be a positive integer").
				WithReportableDetails(map[string]any{
					"service":  item.Service,
					"how_many": item.HowMany,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	if r.Seats < 0 {
		return ierr.NewError("seat count cannot be negative").
			WithHint("Seats must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.ChosenPeriod != "" {
		if err := r.ChosenPeriod.Validate(); err != nil {
			return err
		}
	}
	if _, err := r.ResourceSelection(); err != nil {
		return err
	}
	return nil
}
