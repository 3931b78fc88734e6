package dto

import (
	"github.com/shopspring/decimal"

	ierr "github.com/academypay/academypay/internal/errors"
)

// AddSeatRequest assigns one seat of a team subscription to an email.
type AddSeatRequest struct {
	Email string `json:"email" binding:"required"`
	// Multiplier scales the priced amount for this seat; zero means 1
	Multiplier decimal.Decimal `json:"multiplier,omitempty"`
}

func (r *AddSeatRequest) Validate() error {
	if r.Email == "" {
		return ierr.NewError("seat request has no email").
			WithHint("Email is required").
			Mark(ierr.ErrValidation)
	}
	if r.Multiplier.IsNegative() {
		return ierr.NewError("seat multiplier cannot be negative").
			WithHint("Multiplier must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ReplaceSeatRequest moves a seat from one email to another.
type ReplaceSeatRequest struct {
	FromEmail string `json:"from_email" binding:"required"`
	ToEmail   string `json:"to_email" binding:"required"`
}

func (r *ReplaceSeatRequest) Validate() error {
	if r.FromEmail == "" || r.ToEmail == "" {
		return ierr.NewError("seat replacement needs both emails").
			WithHint("from_email and to_email are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RemoveSeatRequest frees the seat held by an email.
type RemoveSeatRequest struct {
	Email string `json:"email" binding:"required"`
}
