package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/service"
)

// BillingCronHandler exposes the two periodic sweeps and the scheduler
// diagnostics endpoint. The sweeps only enqueue jobs; workers do the actual
// renewing and charging.
type BillingCronHandler struct {
	logger         *logger.Logger
	renewalService service.RenewalService
	chargeService  service.ChargeService
}

func NewBillingCronHandler(
	logger *logger.Logger,
	renewalService service.RenewalService,
	chargeService service.ChargeService,
) *BillingCronHandler {
	return &BillingCronHandler{
		logger:         logger,
		renewalService: renewalService,
		chargeService:  chargeService,
	}
}

// SweepRenewals emits one renewal job per due scheduler whose owner is paid
// through.
func (h *BillingCronHandler) SweepRenewals(c *gin.Context) {
	response, err := h.renewalService.SweepRenewals(c.Request.Context())
	if err != nil {
		h.logger.Errorw("renewal sweep failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("renewal sweep finished",
		"scanned", response.TotalScanned,
		"emitted", response.TotalEmitted,
		"skipped", response.TotalSkipped,
		"failed", response.TotalFailed,
	)
	c.JSON(http.StatusOK, response)
}

// SweepCharges emits one charge job per due billing entity and expires the
// entities whose life window has fully elapsed.
func (h *BillingCronHandler) SweepCharges(c *gin.Context) {
	response, err := h.chargeService.SweepCharges(c.Request.Context())
	if err != nil {
		h.logger.Errorw("charge sweep failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("charge sweep finished",
		"scanned", response.TotalScanned,
		"emitted", response.TotalEmitted,
		"expired", response.TotalExpired,
		"skipped", response.TotalSkipped,
		"failed", response.TotalFailed,
	)
	c.JSON(http.StatusOK, response)
}

// CheckScheduler re-runs every renewal precondition for one scheduler and
// reports each check independently, mutating nothing.
func (h *BillingCronHandler) CheckScheduler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("scheduler ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	diagnostics, err := h.renewalService.CheckScheduler(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, diagnostics)
}
