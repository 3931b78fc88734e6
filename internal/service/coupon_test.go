package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/invoice"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/testutil"
	"github.com/academypay/academypay/internal/types"
)

type CouponServiceSuite struct {
	testutil.BaseServiceTestSuite
	couponService CouponService
}

func TestCouponService(t *testing.T) {
	suite.Run(t, new(CouponServiceSuite))
}

func (s *CouponServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.couponService = NewCouponService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *CouponServiceSuite) seedCoupon(c *coupon.Coupon) *coupon.Coupon {
	c.BaseModel = types.GetDefaultBaseModel(s.GetContext())
	s.NoError(s.GetStores().CouponRepo.Create(s.GetContext(), c))
	return c
}

func (s *CouponServiceSuite) TestResolveForCheckout() {
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-1",
		Slug:          "launch20",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
	})
	expired := s.GetNow().AddDate(0, 0, -1)
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-2",
		Slug:          "old-promo",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("50"),
		ExpiresAt:     &expired,
	})
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-3",
		Slug:          "personal",
		DiscountType:  types.CouponDiscountFixedPrice,
		DiscountValue: decimal.RequireFromString("10"),
		AllowedUserID: lo.ToPtr("someone-else"),
	})

	tests := []struct {
		name    string
		slugs   []string
		wantErr string
	}{
		{name: "valid coupon resolves", slugs: []string{"launch20"}},
		{name: "unknown coupon", slugs: []string{"ghost"}, wantErr: ierr.ErrCodeNotFound},
		{name: "expired coupon", slugs: []string{"old-promo"}, wantErr: ierr.ErrCodeValidation},
		{name: "restricted coupon", slugs: []string{"personal"}, wantErr: ierr.ErrCodeValidation},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			coupons, err := s.couponService.ResolveForCheckout(s.GetContext(), tc.slugs, "user-1")
			if tc.wantErr != "" {
				s.Error(err)
				s.Equal(tc.wantErr, ierr.ErrorCode(err))
				return
			}
			s.NoError(err)
			s.Len(coupons, len(tc.slugs))
		})
	}
}

func (s *CouponServiceSuite) TestUsageCapCountsFulfilledInvoices() {
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-cap",
		Slug:          "capped",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
		UsageCap:      lo.ToPtr(1),
	})

	coupons, err := s.couponService.ResolveForCheckout(s.GetContext(), []string{"capped"}, "user-1")
	s.NoError(err)
	s.Len(coupons, 1)

	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), &invoice.Invoice{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		BagID:        "bag-1",
		UserID:       "user-2",
		Amount:       decimal.RequireFromString("40"),
		CurrencyCode: "USD",
		PaidAt:       s.GetNow(),
		Status:       types.InvoiceStatusFulfilled,
		CouponIDs:    []string{"coupon-cap"},
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}))

	_, err = s.couponService.ResolveForCheckout(s.GetContext(), []string{"capped"}, "user-1")
	s.Error(err)
	s.Equal(ierr.ErrCodeValidation, ierr.ErrorCode(err))
}

func (s *CouponServiceSuite) TestRecurringDropsInvalidSilently() {
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-live",
		Slug:          "live",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
	})
	expired := s.GetNow().AddDate(0, 0, -1)
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-dead",
		Slug:          "dead",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
		ExpiresAt:     &expired,
	})
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-own",
		Slug:          "own-referral",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
		SellerUserID:  lo.ToPtr("user-1"),
	})

	valid, err := s.couponService.ValidForRecurring(s.GetContext(),
		[]string{"coupon-live", "coupon-dead", "coupon-own", "coupon-gone"},
		"user-1", time.Now().UTC())
	s.NoError(err)
	s.Require().Len(valid, 1)
	s.Equal("coupon-live", valid[0].ID)
}

func (s *CouponServiceSuite) TestRecurringKeepsOtherSellersReferral() {
	s.seedCoupon(&coupon.Coupon{
		ID:            "coupon-ref",
		Slug:          "referral",
		DiscountType:  types.CouponDiscountPercentOff,
		DiscountValue: decimal.RequireFromString("20"),
		SellerUserID:  lo.ToPtr("seller-9"),
	})

	valid, err := s.couponService.ValidForRecurring(s.GetContext(),
		[]string{"coupon-ref"}, "user-1", time.Now().UTC())
	s.NoError(err)
	s.Len(valid, 1)
}
