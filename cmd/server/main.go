package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/academypay/academypay/internal/api"
	"github.com/academypay/academypay/internal/api/cron"
	v1 "github.com/academypay/academypay/internal/api/v1"
	"github.com/academypay/academypay/internal/cache"
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
	"github.com/academypay/academypay/internal/pubsub/memory"
	pubsubRouter "github.com/academypay/academypay/internal/pubsub/router"
	"github.com/academypay/academypay/internal/repository"
	"github.com/academypay/academypay/internal/service"
	"github.com/academypay/academypay/internal/types"
	"github.com/academypay/academypay/internal/worker"
)

// @title AcademyPay API
// @version 1.0
// @description Recurring billing and entitlement scheduling service
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			config.NewConfig,
			provideLogLevel,
			logger.NewLogger,

			cache.NewInMemoryCache,

			postgres.NewDB,

			memory.NewPubSub,
			providePublisher,
			provideSubscriber,
			pubsubRouter.NewRouter,

			provideChargeProvider,
			provideNotifier,

			// Repositories
			repository.NewCustomerRepository,
			repository.NewPlanRepository,
			repository.NewServiceItemRepository,
			repository.NewBagRepository,
			repository.NewInvoiceRepository,
			repository.NewCouponRepository,
			repository.NewSubscriptionRepository,
			repository.NewPlanFinancingRepository,
			repository.NewStockRepository,
			repository.NewResourceRepository,
			repository.NewRatioRepository,
			provideRatioSource,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			provideServiceParams,

			service.NewBagService,
			service.NewCheckoutService,
			service.NewEntitlementService,
			service.NewCouponService,
			service.NewSeatService,
			service.NewRenewalService,
			service.NewChargeService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideLogLevel(cfg *config.Configuration) types.LogLevel {
	return cfg.Logging.Level
}

func providePublisher(ps pubsub.PubSub) pubsub.Publisher {
	return ps
}

func provideSubscriber(ps pubsub.PubSub) pubsub.Subscriber {
	return ps
}

func provideChargeProvider(cfg *config.Configuration, log *logger.Logger) gateway.ChargeProvider {
	return gateway.NewStripeProvider(cfg, log)
}

func provideNotifier(log *logger.Logger) notification.Sender {
	return notification.NewLogSender(log)
}

func provideRatioSource(repo pricing.RatioRepository, c cache.Cache) pricing.RatioSource {
	return pricing.NewCachedRatioSource(repo, c)
}

func provideServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	db *postgres.DB,
	customerRepo customer.Repository,
	planRepo plan.Repository,
	serviceItemRepo serviceitem.Repository,
	bagRepo bag.Repository,
	invoiceRepo invoice.Repository,
	couponRepo coupon.Repository,
	subscriptionRepo subscription.Repository,
	planFinancingRepo planfinancing.Repository,
	stockRepo stock.Repository,
	resourceRepo resource.Repository,
	ratioSource pricing.RatioSource,
	chargeProvider gateway.ChargeProvider,
	notifier notification.Sender,
	publisher pubsub.Publisher,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:            log,
		Config:            cfg,
		DB:                db,
		CustomerRepo:      customerRepo,
		PlanRepo:          planRepo,
		ServiceItemRepo:   serviceItemRepo,
		BagRepo:           bagRepo,
		InvoiceRepo:       invoiceRepo,
		CouponRepo:        couponRepo,
		SubscriptionRepo:  subscriptionRepo,
		PlanFinancingRepo: planFinancingRepo,
		StockRepo:         stockRepo,
		ResourceRepo:      resourceRepo,
		RatioSource:       ratioSource,
		ChargeProvider:    chargeProvider,
		Notifier:          notifier,
		Publisher:         publisher,
	}
}

func provideHandlers(
	log *logger.Logger,
	bagService service.BagService,
	checkoutService service.CheckoutService,
	seatService service.SeatService,
	renewalService service.RenewalService,
	chargeService service.ChargeService,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(log),
		Bag:      v1.NewBagHandler(bagService, log),
		Checkout: v1.NewCheckoutHandler(checkoutService, log),
		Seat:     v1.NewSeatHandler(seatService, log),
		Billing:  cron.NewBillingCronHandler(log, renewalService, chargeService),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	subscriber pubsub.Subscriber,
	renewalService service.RenewalService,
	chargeService service.ChargeService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, subscriber, renewalService, chargeService, log)
	case types.ModeServer:
		startAPIServer(lc, r, cfg, log)
	case types.ModeWorker:
		startMessageRouter(lc, router, subscriber, renewalService, chargeService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	subscriber pubsub.Subscriber,
	renewalService service.RenewalService,
	chargeService service.ChargeService,
	log *logger.Logger,
) {
	worker.RegisterHandlers(router, subscriber, renewalService, chargeService, log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(); err != nil {
					log.Fatalf("Failed to run message router: %v", err)
				}
			}()

			select {
			case <-router.Running():
				log.Info("message router is running")
			case <-time.After(10 * time.Second):
				log.Warn("message router did not start in time")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
