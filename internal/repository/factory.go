package repository

import (
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
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	postgresRepo "github.com/academypay/academypay/internal/repository/postgres"
)

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewServiceItemRepository(db *postgres.DB, logger *logger.Logger) serviceitem.Repository {
	return postgresRepo.NewServiceItemRepository(db, logger)
}

func NewBagRepository(db *postgres.DB, logger *logger.Logger) bag.Repository {
	return postgresRepo.NewBagRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return postgresRepo.NewCouponRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewPlanFinancingRepository(db *postgres.DB, logger *logger.Logger) planfinancing.Repository {
	return postgresRepo.NewPlanFinancingRepository(db, logger)
}

func NewStockRepository(db *postgres.DB, logger *logger.Logger) stock.Repository {
	return postgresRepo.NewStockRepository(db, logger)
}

func NewResourceRepository(db *postgres.DB, logger *logger.Logger) resource.Repository {
	return postgresRepo.NewResourceRepository(db, logger)
}

func NewRatioRepository(db *postgres.DB, logger *logger.Logger) pricing.RatioRepository {
	return postgresRepo.NewRatioRepository(db, logger)
}
