package service

import (
	"github.com/academypay/academypay/internal/testutil"
)

// newTestParams wires ServiceParams from the suite's in-memory stores and
// fakes.
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		CustomerRepo:      stores.CustomerRepo,
		PlanRepo:          stores.PlanRepo,
		ServiceItemRepo:   stores.ServiceItemRepo,
		BagRepo:           stores.BagRepo,
		InvoiceRepo:       stores.InvoiceRepo,
		CouponRepo:        stores.CouponRepo,
		SubscriptionRepo:  stores.SubscriptionRepo,
		PlanFinancingRepo: stores.PlanFinancingRepo,
		StockRepo:         stores.StockRepo,
		ResourceRepo:      stores.ResourceRepo,
		RatioSource:       s.GetRatioSource(),
		ChargeProvider:    s.GetGateway(),
		Notifier:          s.GetNotifier(),
		Publisher:         s.GetPublisher(),
	}
}
