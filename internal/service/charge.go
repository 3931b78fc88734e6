package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/pricing"
	"github.com/academypay/academypay/internal/domain/subscription"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/notification"
	"github.com/academypay/academypay/internal/types"
)

// ChargeService runs the periodic charge sweep, expires entities whose
// window fully elapsed, and executes recurring charges for one entity at a
// time. Charge workers re-read the entity at invocation time and converge
// when re-run.
type ChargeService interface {
	// SweepCharges emits one charge job per due entity and flips fully
	// elapsed entities to EXPIRED without charging them.
	SweepCharges(ctx context.Context) (*dto.SweepResponse, error)
	// ChargeSubscription bills one subscription for its next period.
	ChargeSubscription(ctx context.Context, subscriptionID string) error
	// ChargePlanFinancing bills one installment of a financing.
	ChargePlanFinancing(ctx context.Context, planFinancingID string) error
}

type chargeService struct {
	ServiceParams
	couponSvc CouponService
}

func NewChargeService(params ServiceParams) ChargeService {
	return &chargeService{
		ServiceParams: params,
		couponSvc:     NewCouponService(params),
	}
}

func (s *chargeService) SweepCharges(ctx context.Context) (*dto.SweepResponse, error) {
	now := time.Now().UTC()
	resp := &dto.SweepResponse{StartAt: now}

	if err := s.expireElapsed(ctx, now, resp); err != nil {
		return nil, err
	}

	lookahead := s.Config.Billing.ChargeLookahead
	batchSize := s.Config.Billing.SweepBatchSize

	for offset := 0; ; offset += batchSize {
		subs, err := s.SubscriptionRepo.ListDue(ctx, now, lookahead, batchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			resp.TotalScanned++
			if sub.IsFree {
				resp.TotalSkipped++
				continue
			}
			job := types.ChargeSubscriptionJob{SubscriptionID: sub.ID}
			if err := s.publishJob(ctx, types.TopicChargeSubscription, job); err != nil {
				resp.TotalFailed++
				s.Logger.Errorw("sweep could not emit subscription charge",
					"subscription_id", sub.ID, "error", err)
				continue
			}
			resp.TotalEmitted++
		}
		if len(subs) < batchSize {
			break
		}
	}

	for offset := 0; ; offset += batchSize {
		pfs, err := s.PlanFinancingRepo.ListDue(ctx, now, lookahead, batchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, pf := range pfs {
			resp.TotalScanned++
			job := types.ChargePlanFinancingJob{PlanFinancingID: pf.ID}
			if err := s.publishJob(ctx, types.TopicChargePlanFinancing, job); err != nil {
				resp.TotalFailed++
				s.Logger.Errorw("sweep could not emit financing charge",
					"plan_financing_id", pf.ID, "error", err)
				continue
			}
			resp.TotalEmitted++
		}
		if len(pfs) < batchSize {
			break
		}
	}

	s.Logger.Infow("charge sweep finished",
		"scanned", resp.TotalScanned,
		"emitted", resp.TotalEmitted,
		"expired", resp.TotalExpired,
		"skipped", resp.TotalSkipped,
		"failed", resp.TotalFailed)
	return resp, nil
}

// expireElapsed flips entities whose whole window has passed to EXPIRED
// without attempting a charge.
func (s *chargeService) expireElapsed(ctx context.Context, now time.Time, resp *dto.SweepResponse) error {
	batchSize := s.Config.Billing.SweepBatchSize

	for {
		subs, err := s.SubscriptionRepo.ListExpired(ctx, now, batchSize, 0)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			break
		}
		for _, sub := range subs {
			sub.Status = types.SubscriptionStatusExpired
			sub.UpdatedAt = now
			if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
				return err
			}
			resp.TotalExpired++
			s.notifyExpired(ctx, sub.UserID)
		}
		if len(subs) < batchSize {
			break
		}
	}

	for {
		pfs, err := s.PlanFinancingRepo.ListExpired(ctx, now, batchSize, 0)
		if err != nil {
			return err
		}
		if len(pfs) == 0 {
			break
		}
		for _, pf := range pfs {
			pf.Status = types.PlanFinancingStatusExpired
			pf.UpdatedAt = now
			if err := s.PlanFinancingRepo.Update(ctx, pf); err != nil {
				return err
			}
			resp.TotalExpired++
			s.notifyExpired(ctx, pf.UserID)
		}
		if len(pfs) < batchSize {
			break
		}
	}
	return nil
}

func (s *chargeService) ChargeSubscription(ctx context.Context, subscriptionID string) error {
	now := time.Now().UTC()

	sub, err := s.SubscriptionRepo.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.IsFree || sub.Status == types.SubscriptionStatusCancelled ||
		sub.Status == types.SubscriptionStatusDeprecated ||
		sub.Status == types.SubscriptionStatusExpired {
		return ierr.NewError("subscription is not chargeable").
			WithHint("The subscription's current state does not allow charging").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"status":          sub.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.IsOverAt(now) {
		return ierr.NewError("billing entity is over").
			WithHint("The subscription's validity window has elapsed").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrEntityIsOver)
	}

	coupons, err := s.couponSvc.ValidForRecurring(ctx, sub.CouponIDs, sub.UserID, now)
	if err != nil {
		return err
	}

	amount, err := s.subscriptionAmount(ctx, sub, coupons)
	if err != nil {
		return err
	}

	inv, err := s.chargeOwner(ctx, sub.UserID, amount, sub.CurrencyCode, coupons)
	if err != nil {
		sub.Status = types.SubscriptionStatusPaymentIssue
		sub.UpdatedAt = now
		if uerr := s.SubscriptionRepo.Update(ctx, sub); uerr != nil {
			s.Logger.Errorw("failed to flag payment issue",
				"subscription_id", sub.ID, "error", uerr)
		}
		s.notifyPaymentFailed(ctx, sub.UserID)
		s.Logger.Warnw("subscription charge failed",
			"subscription_id", sub.ID, "error", err)
		return nil
	}

	sub.Status = types.SubscriptionStatusActive
	sub.NextPaymentAt = sub.BillingPeriod.NextPayment(sub.NextPaymentAt)
	sub.UpdatedAt = now
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription charged",
		"subscription_id", sub.ID,
		"invoice_id", inv.ID,
		"amount", inv.Amount,
		"next_payment_at", sub.NextPaymentAt)

	return s.triggerRenewals(ctx, types.BillingOwnerSubscription, sub.ID)
}

func (s *chargeService) ChargePlanFinancing(ctx context.Context, planFinancingID string) error {
	now := time.Now().UTC()

	pf, err := s.PlanFinancingRepo.Get(ctx, planFinancingID)
	if err != nil {
		return err
	}
	if pf.Status == types.PlanFinancingStatusFullyPaid ||
		pf.Status == types.PlanFinancingStatusCancelled ||
		pf.Status == types.PlanFinancingStatusDeprecated ||
		pf.Status == types.PlanFinancingStatusExpired ||
		pf.IsFullyPaid() {
		return ierr.NewError("financing is not chargeable").
			WithHint("The financing's current state does not allow charging").
			WithReportableDetails(map[string]any{
				"plan_financing_id": pf.ID,
				"status":            pf.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if pf.IsOverAt(now) {
		return ierr.NewError("billing entity is over").
			WithHint("The financing's life window has elapsed").
			WithReportableDetails(map[string]any{"plan_financing_id": pf.ID}).
			Mark(ierr.ErrEntityIsOver)
	}

	coupons, err := s.couponSvc.ValidForRecurring(ctx, pf.CouponIDs, pf.UserID, now)
	if err != nil {
		return err
	}

	// installments charge the price locked at purchase, not current plan
	// pricing
	amount := pricing.ChargeAmount(pricing.Discount(pf.MonthlyPrice, coupons))

	inv, err := s.chargeOwner(ctx, pf.UserID, amount, pf.CurrencyCode, coupons)
	if err != nil {
		pf.Status = types.PlanFinancingStatusPaymentIssue
		pf.UpdatedAt = now
		if uerr := s.PlanFinancingRepo.Update(ctx, pf); uerr != nil {
			s.Logger.Errorw("failed to flag payment issue",
				"plan_financing_id", pf.ID, "error", uerr)
		}
		s.notifyPaymentFailed(ctx, pf.UserID)
		s.Logger.Warnw("financing charge failed",
			"plan_financing_id", pf.ID, "error", err)
		return nil
	}

	pf.InstallmentsPaid++
	pf.NextPaymentAt = pf.NextPaymentAt.AddDate(0, 1, 0)
	if pf.IsFullyPaid() {
		pf.Status = types.PlanFinancingStatusFullyPaid
	} else {
		pf.Status = types.PlanFinancingStatusActive
	}
	pf.UpdatedAt = now
	if err := s.PlanFinancingRepo.Update(ctx, pf); err != nil {
		return err
	}

	s.Logger.Infow("financing installment charged",
		"plan_financing_id", pf.ID,
		"invoice_id", inv.ID,
		"amount", inv.Amount,
		"installments_paid", pf.InstallmentsPaid,
		"installments_total", pf.InstallmentsTotal)

	return s.triggerRenewals(ctx, types.BillingOwnerPlanFinancing, pf.ID)
}

// subscriptionAmount re-prices the entity's chosen period against the
// plan's current prices, country adjustment and seat count, then applies
// the surviving coupons and rounds at the charge boundary.
func (s *chargeService) subscriptionAmount(ctx context.Context, sub *subscription.Subscription, coupons []*coupon.Coupon) (decimal.Decimal, error) {
	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return decimal.Zero, err
	}
	base := p.PriceForPeriod(sub.BillingPeriod)
	if !base.IsPositive() {
		return decimal.Zero, ierr.NewError("plan no longer offers this period").
			WithHint("The plan stopped selling the subscription's billing period").
			WithReportableDetails(map[string]any{
				"plan":   p.Slug,
				"period": sub.BillingPeriod,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	ratios, err := s.RatioSource.Ratios(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	result := pricing.Price(base, sub.CountryCode, p.PricingOverrides, ratios)

	price := result.Price
	if b, err := s.BagRepo.Get(ctx, sub.BagID); err == nil && b.Seats > 1 {
		price = price.Mul(decimal.NewFromInt(int64(b.Seats)))
	}
	return pricing.ChargeAmount(pricing.Discount(price, coupons)), nil
}

// chargeOwner calls the gateway and records the invoice on a RENEWAL bag.
// The original purchase bag keeps only its first invoice.
func (s *chargeService) chargeOwner(ctx context.Context, userID string, amount decimal.Decimal, currencyCode string, coupons []*coupon.Coupon) (*invoice.Invoice, error) {
	cust, err := s.CustomerRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.ChargeProvider.Pay(ctx, cust, amount, currencyCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	renewalBag := &bag.Bag{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		UserID:       userID,
		Status:       types.BagStatusRenewal,
		CurrencyCode: currencyCode,
		WasDelivered: true,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	if err := s.BagRepo.Create(ctx, renewalBag); err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		Number:           types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		BagID:            renewalBag.ID,
		UserID:           userID,
		Amount:           amount,
		CurrencyCode:     currencyCode,
		PaidAt:           now,
		Status:           types.InvoiceStatusFulfilled,
		GatewayReference: result.Reference,
		CouponIDs:        couponIDs(coupons),
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// triggerRenewals asks the renewal worker to evaluate every scheduler of a
// freshly paid entity so consumables follow the payment immediately.
func (s *chargeService) triggerRenewals(ctx context.Context, ownerType types.BillingOwnerType, ownerID string) error {
	schedulers, err := s.StockRepo.ListByOwner(ctx, string(ownerType), ownerID)
	if err != nil {
		return err
	}
	for _, scheduler := range schedulers {
		job := types.RenewConsumablesJob{SchedulerID: scheduler.ID}
		if err := s.publishJob(ctx, types.TopicRenewConsumables, job); err != nil {
			s.Logger.Errorw("failed to enqueue renewal after charge",
				"scheduler_id", scheduler.ID, "error", err)
		}
	}
	return nil
}

func (s *chargeService) publishJob(ctx context.Context, topic string, job any) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.Publisher.Publish(ctx, topic, msg)
}

func (s *chargeService) notifyPaymentFailed(ctx context.Context, userID string) {
	cust, err := s.CustomerRepo.Get(ctx, userID)
	if err != nil {
		s.Logger.Warnw("cannot notify payment failure", "user_id", userID, "error", err)
		return
	}
	s.Notifier.Send(ctx, notification.TemplatePaymentFailed, cust.Email, map[string]string{
		"first_name": cust.FirstName,
	})
}

func (s *chargeService) notifyExpired(ctx context.Context, userID string) {
	cust, err := s.CustomerRepo.Get(ctx, userID)
	if err != nil {
		s.Logger.Warnw("cannot notify expiry", "user_id", userID, "error", err)
		return
	}
	s.Notifier.Send(ctx, notification.TemplateSubscriptionExpired, cust.Email, map[string]string{
		"first_name": cust.FirstName,
	})
}
