package service

import (
	"context"
	"time"

	"github.com/academypay/academypay/internal/domain/coupon"
	ierr "github.com/academypay/academypay/internal/errors"
)

// CouponService resolves and validates coupons for checkout and recurring
// charges.
type CouponService interface {
	// ResolveForCheckout resolves coupon slugs for a user's purchase,
	// rejecting unknown, expired, capped-out or not-allowed coupons.
	ResolveForCheckout(ctx context.Context, slugs []string, userID string) ([]*coupon.Coupon, error)
	// ValidForRecurring re-validates previously attached coupons for a
	// recurring charge: expired coupons and coupons sold by the paying
	// user are silently dropped.
	ValidForRecurring(ctx context.Context, couponIDs []string, userID string, now time.Time) ([]*coupon.Coupon, error)
}

type couponService struct {
	ServiceParams
}

func NewCouponService(params ServiceParams) CouponService {
	return &couponService{ServiceParams: params}
}

func (s *couponService) ResolveForCheckout(ctx context.Context, slugs []string, userID string) ([]*coupon.Coupon, error) {
	now := time.Now().UTC()
	coupons := make([]*coupon.Coupon, 0, len(slugs))

	for _, slug := range slugs {
		c, err := s.CouponRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Coupon not found").
				WithReportableDetails(map[string]any{"coupon": slug}).
				Mark(ierr.ErrNotFound)
		}

		if !c.IsValidAt(now) {
			return nil, ierr.NewError("coupon is outside its validity window").
				WithHint("Coupon is expired or not yet redeemable").
				WithReportableDetails(map[string]any{"coupon": slug}).
				Mark(ierr.ErrValidation)
		}

		if !c.AllowsUser(userID) {
			return nil, ierr.NewError("coupon is restricted to another user").
				WithHint("This coupon cannot be redeemed by this user").
				WithReportableDetails(map[string]any{"coupon": slug}).
				Mark(ierr.ErrValidation)
		}

		if c.UsageCap != nil {
			redemptions, err := s.InvoiceRepo.CountRedemptions(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			if redemptions >= *c.UsageCap {
				return nil, ierr.NewError("coupon usage cap reached").
					WithHint("This coupon has no redemptions left").
					WithReportableDetails(map[string]any{
						"coupon":    slug,
						"usage_cap": *c.UsageCap,
					}).
					Mark(ierr.ErrValidation)
			}
		}

		coupons = append(coupons, c)
	}

	return coupons, nil
}

func (s *couponService) ValidForRecurring(ctx context.Context, couponIDs []string, userID string, now time.Time) ([]*coupon.Coupon, error) {
	if len(couponIDs) == 0 {
		return nil, nil
	}

	attached, err := s.CouponRepo.GetBatch(ctx, couponIDs)
	if err != nil {
		return nil, err
	}

	valid := make([]*coupon.Coupon, 0, len(attached))
	for _, c := range attached {
		if !c.IsValidAt(now) {
			continue
		}
		// referral coupons never discount the seller's own charges
		if c.IsSoldBy(userID) {
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}
