package types

import (
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/samber/lo"
)

// ResourceKind is the typed variant over the resources a billing entity can
// select. It replaces the dynamic `selected_{resource_key}` attribute lookup
// of legacy consumers with an explicit sum type.
type ResourceKind string

const (
	ResourceKindNone                 ResourceKind = "NONE"
	ResourceKindCohortSet            ResourceKind = "COHORT_SET"
	ResourceKindMentorshipServiceSet ResourceKind = "MENTORSHIP_SERVICE_SET"
	ResourceKindEventTypeSet         ResourceKind = "EVENT_TYPE_SET"
)

func (k ResourceKind) String() string {
	return string(k)
}

func (k ResourceKind) Validate() error {
	allowed := []ResourceKind{
		ResourceKindNone,
		ResourceKindCohortSet,
		ResourceKindMentorshipServiceSet,
		ResourceKindEventTypeSet,
	}
	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid resource kind").
			WithHint("Invalid resource kind").
			WithReportableDetails(map[string]any{
				"kind":          k,
				"allowed_kinds": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ResourceKindForService maps a service type to the resource variant its
// consumables must link to. Resolved once at the boundary.
func ResourceKindForService(t ServiceType) ResourceKind {
	switch t {
	case ServiceTypeCohortSet:
		return ResourceKindCohortSet
	case ServiceTypeMentorshipServiceSet:
		return ResourceKindMentorshipServiceSet
	case ServiceTypeEventTypeSet:
		return ResourceKindEventTypeSet
	default:
		return ResourceKindNone
	}
}

// ResourceSelection is one selected resource on a bag or billing entity.
// Kind NONE means nothing is selected and ID must be empty.
type ResourceSelection struct {
	Kind ResourceKind `db:"resource_kind" json:"kind"`
	ID   string       `db:"resource_id" json:"id"`
}

// NoResource is the empty selection.
func NoResource() ResourceSelection {
	return ResourceSelection{Kind: ResourceKindNone}
}

func (s ResourceSelection) IsZero() bool {
	return s.Kind == "" || s.Kind == ResourceKindNone
}

func (s ResourceSelection) Validate() error {
	if s.IsZero() {
		if s.ID != "" {
			return ierr.NewError("resource id set without a resource kind").
				WithHint("A resource selection needs a kind").
				Mark(ierr.ErrValidation)
		}
		return nil
	}
	if err := s.Kind.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		return ierr.NewError("resource selection is missing its id").
			WithHint("Provide the id or slug of the selected resource").
			WithReportableDetails(map[string]any{"kind": s.Kind}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
