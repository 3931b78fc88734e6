package resource

import (
	"context"

	"github.com/academypay/academypay/internal/types"
)

// Repository resolves resource references for each selectable kind. Billing
// only reads these; the owning domains maintain them.
type Repository interface {
	GetCohortSet(ctx context.Context, ref string) (*CohortSet, error)
	GetMentorshipServiceSet(ctx context.Context, ref string) (*MentorshipServiceSet, error)
	GetEventTypeSet(ctx context.Context, ref string) (*EventTypeSet, error)
	// Exists resolves a typed selection to whether its target row exists
	Exists(ctx context.Context, selection types.ResourceSelection) (bool, error)
}
