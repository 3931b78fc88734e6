package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/samber/lo"

	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// EntitlementService turns a paid (bag, invoice) pair into billing entities
// and stock schedulers. Every step is get-or-create so a redelivered job
// converges instead of duplicating.
type EntitlementService interface {
	Deliver(ctx context.Context, b *bag.Bag, inv *invoice.Invoice) error
}

type entitlementService struct {
	ServiceParams
}

func NewEntitlementService(params ServiceParams) EntitlementService {
	return &entitlementService{ServiceParams: params}
}

func (s *entitlementService) Deliver(ctx context.Context, b *bag.Bag, inv *invoice.Invoice) error {
	if len(b.PlanIDs) == 0 {
		return ierr.NewError("bag has no plan to deliver").
			WithHint("Nothing to deliver for this bag").
			WithReportableDetails(map[string]any{"bag_id": b.ID}).
			Mark(ierr.ErrValidation)
	}
	p, err := s.PlanRepo.Get(ctx, b.PlanIDs[0])
	if err != nil {
		return err
	}

	var ownerType types.BillingOwnerType
	var ownerID string
	if p.Renewable {
		sub, err := s.deliverSubscription(ctx, b, inv, p)
		if err != nil {
			return err
		}
		ownerType, ownerID = types.BillingOwnerSubscription, sub.ID
	} else {
		pf, err := s.deliverPlanFinancing(ctx, b, inv, p)
		if err != nil {
			return err
		}
		ownerType, ownerID = types.BillingOwnerPlanFinancing, pf.ID
	}

	schedulerIDs, err := s.ensureSchedulers(ctx, b, p, ownerType, ownerID)
	if err != nil {
		return err
	}

	// first renewal runs right away so the buyer does not wait for a sweep
	for _, id := range schedulerIDs {
		if err := s.publishRenewal(ctx, id); err != nil {
			s.Logger.Errorw("failed to enqueue first renewal",
				"scheduler_id", id, "error", err)
		}
	}
	return nil
}

func (s *entitlementService) deliverSubscription(ctx context.Context, b *bag.Bag, inv *invoice.Invoice, p *plan.Plan) (*subscription.Subscription, error) {
	existing, err := s.SubscriptionRepo.GetByBag(ctx, b.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	paidAt := inv.PaidAt
	sub := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:        b.UserID,
		PlanID:        p.ID,
		BagID:         b.ID,
		Status:        types.SubscriptionStatusActive,
		NextPaymentAt: b.ChosenPeriod.NextPayment(paidAt),
		BillingPeriod: b.ChosenPeriod,
		CountryCode:   b.CountryCode,
		CurrencyCode:  b.CurrencyCode,
		CouponIDs:     b.CouponIDs,
		Resource:      b.Resource,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if inv.Amount.IsZero() {
		sub.IsFree = true
		if p.HasTrial() {
			trialEnd := p.TrialDurationUnit.Add(paidAt, p.TrialDuration)
			sub.Status = types.SubscriptionStatusFreeTrial
			sub.ValidUntil = &trialEnd
			sub.NextPaymentAt = trialEnd
		}
	}

	if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.Logger.Infow("subscription created",
		"subscription_id", sub.ID,
		"plan_id", p.ID,
		"status", sub.Status,
		"next_payment_at", sub.NextPaymentAt)
	return sub, nil
}

func (s *entitlementService) deliverPlanFinancing(ctx context.Context, b *bag.Bag, inv *invoice.Invoice, p *plan.Plan) (*planfinancing.PlanFinancing, error) {
	existing, err := s.PlanFinancingRepo.GetByBag(ctx, b.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	paidAt := inv.PaidAt
	installments := b.HowManyInstallments
	if installments <= 0 {
		// a non-renewable plan bought outright is a single-installment
		// financing that is immediately settled
		installments = 1
	}

	pf := &planfinancing.PlanFinancing{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_FINANCING),
		UserID:            b.UserID,
		PlanID:            p.ID,
		BagID:             b.ID,
		Status:            types.PlanFinancingStatusActive,
		PlanExpiresAt:     p.TimeOfLifeUnit.Add(paidAt, p.TimeOfLife),
		ValidUntil:        paidAt.AddDate(0, installments, 0),
		NextPaymentAt:     paidAt.AddDate(0, 1, 0),
		InstallmentsTotal: installments,
		InstallmentsPaid:  1,
		CountryCode:       b.CountryCode,
		CurrencyCode:      b.CurrencyCode,
		CouponIDs:         b.CouponIDs,
		Resource:          b.Resource,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if option, ok := p.FinancingFor(installments); ok {
		pf.MonthlyPrice = option.MonthlyPrice
	} else {
		pf.MonthlyPrice = inv.Amount
	}
	if pf.IsFullyPaid() {
		pf.Status = types.PlanFinancingStatusFullyPaid
	}

	if err := s.PlanFinancingRepo.Create(ctx, pf); err != nil {
		return nil, err
	}
	s.Logger.Infow("plan financing created",
		"plan_financing_id", pf.ID,
		"plan_id", p.ID,
		"installments", pf.InstallmentsTotal,
		"plan_expires_at", pf.PlanExpiresAt)
	return pf, nil
}

// ensureSchedulers creates the missing schedulers for every service item
// the owner is entitled to. Items inherited through the plan carry its id
// so renewal can fall back to the plan's default resources.
func (s *entitlementService) ensureSchedulers(ctx context.Context, b *bag.Bag, p *plan.Plan, ownerType types.BillingOwnerType, ownerID string) ([]string, error) {
	type entitledItem struct {
		serviceItemID string
		fromPlan      bool
	}

	items := make([]entitledItem, 0, len(p.ServiceItemIDs)+len(b.LineItems))
	for _, id := range p.ServiceItemIDs {
		items = append(items, entitledItem{serviceItemID: id, fromPlan: true})
	}
	for _, li := range b.LineItems {
		if !lo.Contains(p.ServiceItemIDs, li.ServiceItemID) {
			items = append(items, entitledItem{serviceItemID: li.ServiceItemID})
		}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		existing, err := s.StockRepo.GetByItemAndOwner(ctx, item.serviceItemID, string(ownerType), ownerID)
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			ids = append(ids, existing.ID)
			continue
		}

		scheduler := &stock.ServiceStockScheduler{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STOCK_SCHEDULER),
			ServiceItemID: item.serviceItemID,
			OwnerType:     ownerType,
			OwnerID:       ownerID,
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		if item.fromPlan {
			scheduler.PlanID = &p.ID
		}
		if err := scheduler.Validate(); err != nil {
			return nil, err
		}
		if err := s.StockRepo.Create(ctx, scheduler); err != nil {
			return nil, err
		}
		ids = append(ids, scheduler.ID)
	}
	return ids, nil
}

func (s *entitlementService) publishRenewal(ctx context.Context, schedulerID string) error {
	payload, err := json.Marshal(types.RenewConsumablesJob{SchedulerID: schedulerID})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.Publisher.Publish(ctx, types.TopicRenewConsumables, msg)
}
