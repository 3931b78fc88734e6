package testutil

import (
	"context"

	"github.com/academypay/academypay/internal/domain/resource"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// InMemoryResourceStore implements resource.Repository
type InMemoryResourceStore struct {
	cohortSets            *InMemoryStore[*resource.CohortSet]
	mentorshipServiceSets *InMemoryStore[*resource.MentorshipServiceSet]
	eventTypeSets         *InMemoryStore[*resource.EventTypeSet]
}

func NewInMemoryResourceStore() *InMemoryResourceStore {
	return &InMemoryResourceStore{
		cohortSets:            NewInMemoryStore[*resource.CohortSet](),
		mentorshipServiceSets: NewInMemoryStore[*resource.MentorshipServiceSet](),
		eventTypeSets:         NewInMemoryStore[*resource.EventTypeSet](),
	}
}

func (s *InMemoryResourceStore) AddCohortSet(ctx context.Context, set *resource.CohortSet) {
	_ = s.cohortSets.Create(ctx, set.ID, set)
}

func (s *InMemoryResourceStore) AddMentorshipServiceSet(ctx context.Context, set *resource.MentorshipServiceSet) {
	_ = s.mentorshipServiceSets.Create(ctx, set.ID, set)
}

func (s *InMemoryResourceStore) AddEventTypeSet(ctx context.Context, set *resource.EventTypeSet) {
	_ = s.eventTypeSets.Create(ctx, set.ID, set)
}

func (s *InMemoryResourceStore) GetCohortSet(ctx context.Context, ref string) (*resource.CohortSet, error) {
	if set, err := s.cohortSets.Get(ctx, ref); err == nil {
		return set, nil
	}
	matches, _ := s.cohortSets.List(ctx, func(ctx context.Context, set *resource.CohortSet) bool {
		return set.Slug == ref
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("cohort set not found").
			WithHint("Cohort set not found").
			WithReportableDetails(map[string]any{"ref": ref}).
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryResourceStore) GetMentorshipServiceSet(ctx context.Context, ref string) (*resource.MentorshipServiceSet, error) {
	if set, err := s.mentorshipServiceSets.Get(ctx, ref); err == nil {
		return set, nil
	}
	matches, _ := s.mentorshipServiceSets.List(ctx, func(ctx context.Context, set *resource.MentorshipServiceSet) bool {
		return set.Slug == ref
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("mentorship service set not found").
			WithHint("Mentorship service set not found").
			WithReportableDetails(map[string]any{"ref": ref}).
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryResourceStore) GetEventTypeSet(ctx context.Context, ref string) (*resource.EventTypeSet, error) {
	if set, err := s.eventTypeSets.Get(ctx, ref); err == nil {
		return set, nil
	}
	matches, _ := s.eventTypeSets.List(ctx, func(ctx context.Context, set *resource.EventTypeSet) bool {
		return set.Slug == ref
	}, nil)
	if len(matches) == 0 {
		return nil, ierr.NewError("event type set not found").
			WithHint("Event type set not found").
			WithReportableDetails(map[string]any{"ref": ref}).
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryResourceStore) Exists(ctx context.Context, selection types.ResourceSelection) (bool, error) {
	var err error
	switch selection.Kind {
	case types.ResourceKindCohortSet:
		_, err = s.GetCohortSet(ctx, selection.ID)
	case types.ResourceKindMentorshipServiceSet:
		_, err = s.GetMentorshipServiceSet(ctx, selection.ID)
	case types.ResourceKindEventTypeSet:
		_, err = s.GetEventTypeSet(ctx, selection.ID)
	default:
		return false, nil
	}
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *InMemoryResourceStore) Clear() {
	s.cohortSets.Clear()
	s.mentorshipServiceSets.Clear()
	s.eventTypeSets.Clear()
}
