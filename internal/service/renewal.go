package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sourcegraph/conc/pool"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/domain/stock"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// RenewalService runs the scheduler sweep that emits renewal jobs, the
// per-scheduler worker that mints consumables, and the non-destructive
// diagnostic used by operators.
type RenewalService interface {
	// SweepRenewals selects due schedulers whose owner is paid through and
	// emits one renewal job per scheduler. It never executes renewal logic
	// itself.
	SweepRenewals(ctx context.Context) (*dto.SweepResponse, error)
	// RenewConsumables evaluates one scheduler and mints at most one new
	// consumable. Safe to re-run for the same id.
	RenewConsumables(ctx context.Context, schedulerID string) error
	// CheckScheduler re-runs every renewal precondition for one scheduler
	// and reports each check independently, mutating nothing.
	CheckScheduler(ctx context.Context, schedulerID string) (*dto.SchedulerDiagnostics, error)
}

type renewalService struct {
	ServiceParams
}

func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{ServiceParams: params}
}

// ownerView is the worker's snapshot of whichever billing entity owns a
// scheduler, re-read at invocation time.
type ownerView struct {
	Type   types.BillingOwnerType
	ID     string
	UserID string
	BagID  string
	PlanID string

	IsFree       bool
	Blocked      bool
	Over         bool
	NeedsPayment bool

	// PaidThrough caps consumable validity; nil means uncapped
	PaidThrough *time.Time
	Resource    types.ResourceSelection
}

func (s *renewalService) resolveOwner(ctx context.Context, ownerType types.BillingOwnerType, ownerID string, now time.Time) (*ownerView, error) {
	switch ownerType {
	case types.BillingOwnerSubscription:
		sub, err := s.SubscriptionRepo.Get(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return &ownerView{
			Type:         ownerType,
			ID:           sub.ID,
			UserID:       sub.UserID,
			BagID:        sub.BagID,
			PlanID:       sub.PlanID,
			IsFree:       sub.IsFree,
			Blocked:      sub.Status.IsBlockedForRenewal(),
			Over:         sub.IsOverAt(now),
			NeedsPayment: !sub.IsFree && sub.NeedsPaymentAt(now),
			PaidThrough:  sub.PaidThroughDate(),
			Resource:     sub.Resource,
		}, nil
	case types.BillingOwnerPlanFinancing:
		pf, err := s.PlanFinancingRepo.Get(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return &ownerView{
			Type:         ownerType,
			ID:           pf.ID,
			UserID:       pf.UserID,
			BagID:        pf.BagID,
			PlanID:       pf.PlanID,
			Blocked:      pf.Status.IsBlockedForRenewal(),
			Over:         pf.IsOverAt(now),
			NeedsPayment: pf.NeedsPaymentAt(now),
			PaidThrough:  pf.PaidThroughDate(),
			Resource:     pf.Resource,
		}, nil
	default:
		return nil, ierr.NewError("unknown billing owner type").
			WithHint("Scheduler references an unknown owner type").
			WithReportableDetails(map[string]any{"owner_type": ownerType}).
			Mark(ierr.ErrValidation)
	}
}

func (s *renewalService) SweepRenewals(ctx context.Context) (*dto.SweepResponse, error) {
	now := time.Now().UTC()
	lookahead := s.Config.Billing.RenewalLookahead
	batchSize := s.Config.Billing.SweepBatchSize

	resp := &dto.SweepResponse{StartAt: now}
	var scanned, emitted, skipped, failed atomic.Int64

	for offset := 0; ; offset += batchSize {
		batch, err := s.StockRepo.ListDue(ctx, now, lookahead, batchSize, offset)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		p := pool.New().WithMaxGoroutines(s.Config.Billing.SweepWorkers)
		for _, scheduler := range batch {
			scheduler := scheduler
			p.Go(func() {
				scanned.Add(1)
				eligible, err := s.ownerPaidThrough(ctx, scheduler, now)
				if err != nil {
					failed.Add(1)
					s.Logger.Errorw("sweep could not evaluate scheduler",
						"scheduler_id", scheduler.ID, "error", err)
					return
				}
				if !eligible {
					skipped.Add(1)
					return
				}
				if err := s.publishRenewal(ctx, scheduler.ID); err != nil {
					failed.Add(1)
					s.Logger.Errorw("sweep could not emit renewal job",
						"scheduler_id", scheduler.ID, "error", err)
					return
				}
				emitted.Add(1)
			})
		}
		p.Wait()

		if len(batch) < batchSize {
			break
		}
	}

	resp.TotalScanned = int(scanned.Load())
	resp.TotalEmitted = int(emitted.Load())
	resp.TotalSkipped = int(skipped.Load())
	resp.TotalFailed = int(failed.Load())
	s.Logger.Infow("renewal sweep finished",
		"scanned", resp.TotalScanned,
		"emitted", resp.TotalEmitted,
		"skipped", resp.TotalSkipped,
		"failed", resp.TotalFailed)
	return resp, nil
}

// ownerPaidThrough re-reads the owner and applies the sweep eligibility
// filter: status not blocked, validity not elapsed, and either the owner is
// free within its window or its next payment is ahead with at least one
// fulfilled invoice of positive amount behind it.
func (s *renewalService) ownerPaidThrough(ctx context.Context, scheduler *stock.ServiceStockScheduler, now time.Time) (bool, error) {
	owner, err := s.resolveOwner(ctx, scheduler.OwnerType, scheduler.OwnerID, now)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if owner.Blocked || owner.Over {
		return false, nil
	}
	if owner.IsFree {
		return true, nil
	}
	if owner.NeedsPayment {
		return false, nil
	}
	paid, err := s.InvoiceRepo.HasPaidInvoice(ctx, owner.BagID)
	if err != nil {
		return false, err
	}
	return paid, nil
}

func (s *renewalService) RenewConsumables(ctx context.Context, schedulerID string) error {
	now := time.Now().UTC()

	scheduler, err := s.StockRepo.Get(ctx, schedulerID)
	if err != nil {
		return err
	}

	// re-read the owner at execution time: a job emitted while the owner was
	// eligible may land after a manual cancellation
	owner, err := s.resolveOwner(ctx, scheduler.OwnerType, scheduler.OwnerID, now)
	if err != nil {
		return err
	}
	if owner.Blocked {
		return ierr.NewError("billing entity does not renew").
			WithHint("The owning subscription or financing is cancelled or on hold").
			WithReportableDetails(map[string]any{
				"scheduler_id": scheduler.ID,
				"owner_type":   owner.Type,
				"owner_id":     owner.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if owner.Over {
		return ierr.NewError("billing entity is over").
			WithHint("The owning subscription or financing has expired").
			WithReportableDetails(map[string]any{
				"scheduler_id": scheduler.ID,
				"owner_type":   owner.Type,
				"owner_id":     owner.ID,
			}).
			Mark(ierr.ErrEntityIsOver)
	}
	if owner.NeedsPayment {
		return ierr.NewError("billing entity needs to be paid").
			WithHint("Renewal resumes once the next charge succeeds").
			WithReportableDetails(map[string]any{
				"scheduler_id": scheduler.ID,
				"owner_type":   owner.Type,
				"owner_id":     owner.ID,
			}).
			Mark(ierr.ErrEntityNeedsPayment)
	}

	item, err := s.ServiceItemRepo.Get(ctx, scheduler.ServiceItemID)
	if err != nil {
		return err
	}

	selection, err := s.resolveResource(ctx, scheduler, owner, item)
	if err != nil {
		return err
	}

	latest, err := s.StockRepo.GetLatestConsumable(ctx, scheduler.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}

	if latest != nil && !item.IsRenewable {
		return renewalNotDue(scheduler.ID, "service item does not renew")
	}
	if latest != nil && latest.ValidUntil == nil {
		return renewalNotDue(scheduler.ID, "latest consumable never expires")
	}
	if latest != nil && latest.ValidUntil.After(now.Add(s.Config.Billing.RenewalLookahead)) {
		return renewalNotDue(scheduler.ID, "latest consumable is not near expiry")
	}

	validUntil := s.consumableValidity(item, owner, now)

	consumable := &stock.Consumable{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONSUMABLE),
		SchedulerID:   scheduler.ID,
		ServiceItemID: item.ID,
		UserID:        owner.UserID,
		HowMany:       item.HowMany,
		UnitType:      item.UnitType,
		ValidUntil:    validUntil,
		Resource:      selection,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := s.StockRepo.CreateConsumable(ctx, consumable); err != nil {
		return err
	}

	scheduler.LastRenewAt = &now
	scheduler.ValidUntil = validUntil
	scheduler.UpdatedAt = now
	if err := s.StockRepo.Update(ctx, scheduler); err != nil {
		return err
	}

	s.Logger.Infow("consumable minted",
		"scheduler_id", scheduler.ID,
		"consumable_id", consumable.ID,
		"how_many", consumable.HowMany,
		"valid_until", consumable.ValidUntil)
	return nil
}

func renewalNotDue(schedulerID, reason string) error {
	return ierr.NewError("consumable doesn't need to be renewed").
		WithHint("The scheduler's latest consumable is still valid").
		WithReportableDetails(map[string]any{
			"scheduler_id": schedulerID,
			"reason":       reason,
		}).
		Mark(ierr.ErrRenewalNotDue)
}

// resolveResource picks the concrete resource a new consumable links to:
// the owner's own selection when it matches the service's kind, otherwise
// the plan's default. A required kind with neither is a data gap an
// operator must fix.
func (s *renewalService) resolveResource(ctx context.Context, scheduler *stock.ServiceStockScheduler, owner *ownerView, item *serviceitem.ServiceItem) (types.ResourceSelection, error) {
	if item.Service == nil {
		return types.NoResource(), ierr.NewError("service item has no service").
			WithHint("The service item row is missing its service").
			WithReportableDetails(map[string]any{"service_item_id": item.ID}).
			Mark(ierr.ErrValidation)
	}
	kind := types.ResourceKindForService(item.Service.Type)
	if kind == types.ResourceKindNone {
		return types.NoResource(), nil
	}

	if !owner.Resource.IsZero() && owner.Resource.Kind == kind {
		return owner.Resource, nil
	}

	planID := owner.PlanID
	if scheduler.PlanID != nil {
		planID = *scheduler.PlanID
	}
	if planID != "" {
		p, err := s.PlanRepo.Get(ctx, planID)
		if err != nil {
			return types.NoResource(), err
		}
		if id := p.DefaultResourceID(kind); id != nil {
			return types.ResourceSelection{Kind: kind, ID: *id}, nil
		}
	}

	return types.NoResource(), ierr.NewError("no resource linked to the billing entity").
		WithHint("Link a resource to the entity or set a default on the plan").
		WithReportableDetails(map[string]any{
			"scheduler_id": scheduler.ID,
			"owner_type":   owner.Type,
			"owner_id":     owner.ID,
			"kind":         kind,
		}).
		Mark(ierr.ErrNoResourceLinked)
}

// consumableValidity is now plus the item's cadence, never exceeding the
// owner's own paid-through date.
func (s *renewalService) consumableValidity(item *serviceitem.ServiceItem, owner *ownerView, now time.Time) *time.Time {
	var validUntil *time.Time
	if item.IsRenewable && item.RenewAt > 0 {
		v := item.RenewAtUnit.Add(now, item.RenewAt)
		validUntil = &v
	}
	return types.MinTime(validUntil, owner.PaidThrough)
}

func (s *renewalService) CheckScheduler(ctx context.Context, schedulerID string) (*dto.SchedulerDiagnostics, error) {
	now := time.Now().UTC()
	diag := &dto.SchedulerDiagnostics{SchedulerID: schedulerID}
	add := func(name string, passed bool, detail string) {
		diag.Checks = append(diag.Checks, dto.SchedulerCheck{Name: name, Passed: passed, Detail: detail})
	}

	scheduler, err := s.StockRepo.Get(ctx, schedulerID)
	if err != nil {
		add("scheduler_exists", false, err.Error())
		return diag, nil
	}
	add("scheduler_exists", true, "")

	owner, err := s.resolveOwner(ctx, scheduler.OwnerType, scheduler.OwnerID, now)
	if err != nil {
		add("owner_resolves", false, err.Error())
		return diag, nil
	}
	add("owner_resolves", true, fmt.Sprintf("%s %s", owner.Type, owner.ID))

	add("owner_within_validity", !owner.Over, "")
	add("owner_status_allows_renewal", !owner.Blocked, "")
	add("owner_paid_through", !owner.NeedsPayment, "")

	item, err := s.ServiceItemRepo.Get(ctx, scheduler.ServiceItemID)
	if err != nil {
		add("service_item_exists", false, err.Error())
		return diag, nil
	}
	add("service_item_exists", true, "")

	if _, err := s.resolveResource(ctx, scheduler, owner, item); err != nil {
		add("resource_linked", false, err.Error())
	} else {
		add("resource_linked", true, "")
	}

	latest, err := s.StockRepo.GetLatestConsumable(ctx, scheduler.ID)
	switch {
	case err != nil && !ierr.IsNotFound(err):
		add("renewal_due", false, err.Error())
	case latest == nil:
		add("renewal_due", true, "no consumable minted yet")
	case latest.ValidUntil == nil:
		add("renewal_due", false, "latest consumable never expires")
	case latest.ValidUntil.After(now.Add(s.Config.Billing.RenewalLookahead)):
		add("renewal_due", false, "latest consumable is not near expiry")
	default:
		add("renewal_due", true, "")
	}

	return diag, nil
}

func (s *renewalService) publishRenewal(ctx context.Context, schedulerID string) error {
	payload, err := json.Marshal(types.RenewConsumablesJob{SchedulerID: schedulerID})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.Publisher.Publish(ctx, types.TopicRenewConsumables, msg)
}
