package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/pricing"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// CheckoutService turns a converged bag into a fulfilled invoice and hands
// the pair off to entitlement delivery exactly once.
type CheckoutService interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest) (*invoice.Invoice, error)
}

type checkoutService struct {
	ServiceParams
	couponSvc      CouponService
	entitlementSvc EntitlementService
}

func NewCheckoutService(params ServiceParams) CheckoutService {
	return &checkoutService{
		ServiceParams:  params,
		couponSvc:      NewCouponService(params),
		entitlementSvc: NewEntitlementService(params),
	}
}

func (s *checkoutService) Checkout(ctx context.Context, req *dto.CheckoutRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.BagRepo.Get(ctx, req.BagID)
	if err != nil {
		return nil, err
	}
	if b.UserID != req.UserID {
		return nil, ierr.NewError("bag belongs to another user").
			WithHint("Bag not found").
			Mark(ierr.ErrNotFound)
	}

	// a delivered bag never double-delivers; hand back what it produced
	if b.WasDelivered {
		existing, err := s.InvoiceRepo.ListByBag(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing[0], nil
		}
		return nil, ierr.NewError("bag was delivered without an invoice").
			WithHint("The bag is already delivered").
			WithReportableDetails(map[string]any{"bag_id": b.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	if req.ChosenPeriod != "" {
		b.ChosenPeriod = req.ChosenPeriod
	}
	b.HowManyInstallments = req.HowManyInstallments

	coupons, err := s.couponSvc.ResolveForCheckout(ctx, req.Coupons, b.UserID)
	if err != nil {
		return nil, err
	}
	b.CouponIDs = couponIDs(coupons)

	p, err := s.bagPlan(ctx, b)
	if err != nil {
		return nil, err
	}

	amount, err := s.chargeableAmount(ctx, b, p, coupons)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		Number:       types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		BagID:        b.ID,
		UserID:       b.UserID,
		Amount:       amount,
		CurrencyCode: b.CurrencyCode,
		PaidAt:       time.Now().UTC(),
		Status:       types.InvoiceStatusFulfilled,
		CouponIDs:    b.CouponIDs,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}

	if amount.IsPositive() {
		cust, err := s.CustomerRepo.Get(ctx, b.UserID)
		if err != nil {
			return nil, err
		}
		// one direct attempt; recurring retries belong to the charge worker
		result, err := s.ChargeProvider.Pay(ctx, cust, amount, b.CurrencyCode)
		if err != nil {
			return nil, err
		}
		inv.GatewayReference = result.Reference
	}

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	b.Status = types.BagStatusPaid
	b.WasDelivered = true
	b.UpdatedAt = time.Now().UTC()
	if err := s.BagRepo.Update(ctx, b); err != nil {
		return nil, err
	}

	if err := s.entitlementSvc.Deliver(ctx, b, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("checkout fulfilled",
		"bag_id", b.ID,
		"invoice_id", inv.ID,
		"amount", inv.Amount,
		"currency", inv.CurrencyCode)
	return inv, nil
}

func (s *checkoutService) bagPlan(ctx context.Context, b *bag.Bag) (*plan.Plan, error) {
	if len(b.PlanIDs) == 0 {
		return nil, ierr.NewError("bag has no plan to check out").
			WithHint("Add a plan to the bag before checking out").
			WithReportableDetails(map[string]any{"bag_id": b.ID}).
			Mark(ierr.ErrValidation)
	}
	return s.PlanRepo.Get(ctx, b.PlanIDs[0])
}

// chargeableAmount prices one charge for the bag's cadence. Rounding up to
// whole currency units happens only here, at the charge boundary.
func (s *checkoutService) chargeableAmount(ctx context.Context, b *bag.Bag, p *plan.Plan, coupons []*coupon.Coupon) (decimal.Decimal, error) {
	if !b.ChargeNow {
		return decimal.Zero, nil
	}

	if b.HowManyInstallments > 0 {
		option, ok := p.FinancingFor(b.HowManyInstallments)
		if !ok {
			return decimal.Zero, ierr.NewError("plan has no such financing option").
				WithHint("The plan is not sold in that number of installments").
				WithReportableDetails(map[string]any{
					"plan":         p.Slug,
					"installments": b.HowManyInstallments,
				}).
				Mark(ierr.ErrValidation)
		}
		ratios, err := s.RatioSource.Ratios(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		result := pricing.Price(option.MonthlyPrice, b.CountryCode, p.PricingOverrides, ratios)
		if result.CurrencyCode != nil {
			b.CurrencyCode = *result.CurrencyCode
		}
		return pricing.ChargeAmount(pricing.Discount(result.Price, coupons)), nil
	}

	base := b.AmountForPeriod(b.ChosenPeriod)
	if !base.IsPositive() {
		return decimal.Zero, nil
	}
	return pricing.ChargeAmount(pricing.Discount(base, coupons)), nil
}

func couponIDs(coupons []*coupon.Coupon) []string {
	ids := make([]string, 0, len(coupons))
	for _, c := range coupons {
		ids = append(ids, c.ID)
	}
	return ids
}
