package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academypay/academypay/internal/api/dto"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/service"
)

type SeatHandler struct {
	seatService service.SeatService
	logger      *logger.Logger
}

func NewSeatHandler(seatService service.SeatService, logger *logger.Logger) *SeatHandler {
	return &SeatHandler{
		seatService: seatService,
		logger:      logger,
	}
}

// @Summary List seats
// @Description Lists every seat of a team subscription
// @Tags Seats
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {array} subscription.Seat
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/subscriptions/{id}/seats [get]
func (h *SeatHandler) ListSeats(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("subscription ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	seats, err := h.seatService.ListSeats(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, seats)
}

// @Summary Add a seat
// @Description Assigns one purchased seat to an email
// @Tags Seats
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param seat body dto.AddSeatRequest true "Seat request"
// @Success 201 {object} subscription.Seat
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/subscriptions/{id}/seats [post]
func (h *SeatHandler) AddSeat(c *gin.Context) {
	id := c.Param("id")
	var req dto.AddSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	seat, err := h.seatService.AddSeat(c.Request.Context(), id, req.Email, req.Multiplier)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, seat)
}

// @Summary Replace a seat
// @Description Moves a seat from one email to another without changing capacity
// @Tags Seats
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param seat body dto.ReplaceSeatRequest true "Replacement request"
// @Success 200 {object} subscription.Seat
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/subscriptions/{id}/seats/replace [post]
func (h *SeatHandler) ReplaceSeat(c *gin.Context) {
	id := c.Param("id")
	var req dto.ReplaceSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	seat, err := h.seatService.ReplaceSeat(c.Request.Context(), id, req.FromEmail, req.ToEmail)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, seat)
}

// @Summary Remove a seat
// @Description Frees the seat held by an email
// @Tags Seats
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param seat body dto.RemoveSeatRequest true "Removal request"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /v1/subscriptions/{id}/seats [delete]
func (h *SeatHandler) RemoveSeat(c *gin.Context) {
	id := c.Param("id")
	var req dto.RemoveSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.seatService.RemoveSeat(c.Request.Context(), id, req.Email); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
