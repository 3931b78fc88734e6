package postgres

import (
	"context"

	"github.com/academypay/academypay/internal/domain/resource"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/types"
)

type resourceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewResourceRepository(db *postgres.DB, logger *logger.Logger) resource.Repository {
	return &resourceRepository{db: db, logger: logger}
}

func (r *resourceRepository) GetCohortSet(ctx context.Context, ref string) (*resource.CohortSet, error) {
	var set resource.CohortSet
	err := r.db.GetQuerier(ctx).GetContext(ctx, &set,
		`SELECT * FROM cohort_sets WHERE id = $1 OR slug = $1`, ref)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("cohort_set", ref)
		}
		return nil, dbError(err, "Failed to get cohort set")
	}
	return &set, nil
}

func (r *resourceRepository) GetMentorshipServiceSet(ctx context.Context, ref string) (*resource.MentorshipServiceSet, error) {
	var set resource.MentorshipServiceSet
	err := r.db.GetQuerier(ctx).GetContext(ctx, &set,
		`SELECT * FROM mentorship_service_sets WHERE id = $1 OR slug = $1`, ref)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("mentorship_service_set", ref)
		}
		return nil, dbError(err, "Failed to get mentorship service set")
	}
	return &set, nil
}

func (r *resourceRepository) GetEventTypeSet(ctx context.Context, ref string) (*resource.EventTypeSet, error) {
	var set resource.EventTypeSet
	err := r.db.GetQuerier(ctx).GetContext(ctx, &set,
		`SELECT * FROM event_type_sets WHERE id = $1 OR slug = $1`, ref)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("event_type_set", ref)
		}
		return nil, dbError(err, "Failed to get event type set")
	}
	return &set, nil
}

func (r *resourceRepository) Exists(ctx context.Context, selection types.ResourceSelection) (bool, error) {
	var err error
	switch selection.Kind {
	case types.ResourceKindCohortSet:
		_, err = r.GetCohortSet(ctx, selection.ID)
	case types.ResourceKindMentorshipServiceSet:
		_, err = r.GetMentorshipServiceSet(ctx, selection.ID)
	case types.ResourceKindEventTypeSet:
		_, err = r.GetEventTypeSet(ctx, selection.ID)
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
