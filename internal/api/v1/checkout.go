package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academypay/academypay/internal/api/dto"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/service"
	"github.com/academypay/academypay/internal/types"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *logger.Logger
}

func NewCheckoutHandler(checkoutService service.CheckoutService, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// @Summary Check out a bag
// @Description Charges the converged bag and delivers its entitlements
// @Tags Checkout
// @Accept json
// @Produce json
// @Param checkout body dto.CheckoutRequest true "Checkout request"
// @Success 200 {object} invoice.Invoice
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserID = types.GetUserID(c.Request.Context())

	inv, err := h.checkoutService.Checkout(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, inv)
}
