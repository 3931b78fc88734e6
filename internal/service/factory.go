package service

import (
	"github.com/academypay/academypay/internal/config"
	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/pricing"
	"github.com/academypay/academypay/internal/domain/resource"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/domain/subscription"
	"github.com/academypay/academypay/internal/gateway"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/notification"
	"github.com/academypay/academypay/internal/postgres"
	"github.com/academypay/academypay/internal/pubsub"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB

	// Repositories
	CustomerRepo      customer.Repository
	PlanRepo          plan.Repository
	ServiceItemRepo   serviceitem.Repository
	BagRepo           bag.Repository
	InvoiceRepo       invoice.Repository
	CouponRepo        coupon.Repository
	SubscriptionRepo  subscription.Repository
	PlanFinancingRepo planfinancing.Repository
	StockRepo         stock.Repository
	ResourceRepo      resource.Repository
	RatioSource       pricing.RatioSource

	// Outbound collaborators
	ChargeProvider gateway.ChargeProvider
	Notifier       notification.Sender
	Publisher      pubsub.Publisher
}
