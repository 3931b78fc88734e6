package api

import (
	"github.com/gin-gonic/gin"

	"github.com/academypay/academypay/internal/api/cron"
	v1 "github.com/academypay/academypay/internal/api/v1"
	"github.com/academypay/academypay/internal/rest/middleware"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Bag      *v1.BagHandler
	Checkout *v1.CheckoutHandler
	Seat     *v1.SeatHandler
	Billing  *cron.BillingCronHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes carry the gateway-resolved user identity
	v1Group := router.Group("/v1", middleware.UserContextMiddleware)
	registerV1Routes(v1Group, handlers)

	// cron routes are only reachable from the internal network
	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	bags := router.Group("/bags")
	{
		bags.PUT("", handlers.Bag.AddToBag)
	}

	router.POST("/checkout", handlers.Checkout.Checkout)

	seats := router.Group("/subscriptions/:id/seats")
	{
		seats.GET("", handlers.Seat.ListSeats)
		seats.POST("", handlers.Seat.AddSeat)
		seats.POST("/replace", handlers.Seat.ReplaceSeat)
		seats.DELETE("", handlers.Seat.RemoveSeat)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	billing := router.Group("/billing")
	{
		billing.POST("/renewals/sweep", handlers.Billing.SweepRenewals)
		billing.POST("/charges/sweep", handlers.Billing.SweepCharges)
		billing.GET("/schedulers/:id/checks", handlers.Billing.CheckScheduler)
	}
}
