package testutil

import (
	"context"
	"time"

	"github.com/academypay/academypay/internal/config"
	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/coupon"
	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/domain/invoice"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/planfinancing"
	"github.com/academypay/academypay/internal/domain/serviceitem"
	"github.com/academypay/academypay/internal/domain/stock"
	"github.com/academypay/academypay/internal/domain/subscription"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	CustomerRepo      customer.Repository
	PlanRepo          plan.Repository
	ServiceItemRepo   serviceitem.Repository
	BagRepo           bag.Repository
	InvoiceRepo       invoice.Repository
	CouponRepo        coupon.Repository
	SubscriptionRepo  subscription.Repository
	PlanFinancingRepo planfinancing.Repository
	StockRepo         stock.Repository
	ResourceRepo      *InMemoryResourceStore
}

// BaseServiceTestSuite provides common functionality for all service test
// suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	stores      Stores
	ratioSource *StaticRatioSource
	gateway     *FakeChargeProvider
	notifier    *RecordingNotifier
	publisher   *InMemoryPublisher
	logger      *logger.Logger
	config      *config.Configuration
	now         time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	var err error
	s.logger, err = logger.NewLogger(types.LogLevelInfo)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.config = config.GetDefaultConfig()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		CustomerRepo:      NewInMemoryCustomerStore(),
		PlanRepo:          NewInMemoryPlanStore(),
		ServiceItemRepo:   NewInMemoryServiceItemStore(),
		BagRepo:           NewInMemoryBagStore(),
		InvoiceRepo:       NewInMemoryInvoiceStore(),
		CouponRepo:        NewInMemoryCouponStore(),
		SubscriptionRepo:  NewInMemorySubscriptionStore(),
		PlanFinancingRepo: NewInMemoryPlanFinancingStore(),
		StockRepo:         NewInMemoryStockStore(),
		ResourceRepo:      NewInMemoryResourceStore(),
	}
	s.ratioSource = NewStaticRatioSource(nil)
	s.gateway = NewFakeChargeProvider()
	s.notifier = NewRecordingNotifier()
	s.publisher = NewInMemoryPublisher()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.ServiceItemRepo.(*InMemoryServiceItemStore).Clear()
	s.stores.BagRepo.(*InMemoryBagStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.CouponRepo.(*InMemoryCouponStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.PlanFinancingRepo.(*InMemoryPlanFinancingStore).Clear()
	s.stores.StockRepo.(*InMemoryStockStore).Clear()
	s.stores.ResourceRepo.Clear()
	s.gateway.Clear()
	s.notifier.Clear()
	s.publisher.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetRatioSource returns the static pricing ratio source
func (s *BaseServiceTestSuite) GetRatioSource() *StaticRatioSource {
	return s.ratioSource
}

// GetGateway returns the fake charge provider
func (s *BaseServiceTestSuite) GetGateway() *FakeChargeProvider {
	return s.gateway
}

// GetNotifier returns the recording notifier
func (s *BaseServiceTestSuite) GetNotifier() *RecordingNotifier {
	return s.notifier
}

// GetPublisher returns the in-memory job publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryPublisher {
	return s.publisher
}

// GetNow returns the time captured at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
