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

type BagHandler struct {
	bagService service.BagService
	logger     *logger.Logger
}

func NewBagHandler(bagService service.BagService, logger *logger.Logger) *BagHandler {
	return &BagHandler{
		bagService: bagService,
		logger:     logger,
	}
}

// @Summary Add to bag
// @Description Attaches plans, add-ons, seats and a resource to the user's open bag
// @Tags Bags
// @Accept json
// @Produce json
// @Param bag body dto.BagRequest true "Bag request"
// @Success 200 {object} bag.Bag
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/bags [put]
func (h *BagHandler) AddToBag(c *gin.Context) {
	var req dto.BagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserID = types.GetUserID(c.Request.Context())

	b, err := h.bagService.AddToBag(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b)
}
