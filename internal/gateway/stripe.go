package gateway

import (
	"context"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/academypay/academypay/internal/config"
	"github.com/academypay/academypay/internal/domain/customer"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
)

// StripeProvider charges customers through Stripe off-session payment
// intents using their saved default payment method.
type StripeProvider struct {
	logger *logger.Logger
}

func NewStripeProvider(cfg *config.Configuration, logger *logger.Logger) *StripeProvider {
	stripe.Key = cfg.Stripe.SecretKey
	return &StripeProvider{logger: logger}
}

func (p *StripeProvider) Pay(ctx context.Context, cust *customer.Customer, amount decimal.Decimal, currencyCode string) (*ChargeResult, error) {
	if cust.GatewayCustomerID == "" {
		return nil, ierr.NewError("customer has no gateway reference").
			WithHint("Customer has no saved payment method").
			WithReportableDetails(map[string]any{"customer_id": cust.ID}).
			Mark(ierr.ErrGateway)
	}

	params := &stripe.PaymentIntentParams{
		// stripe wants minor units
		Amount:     stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency:   stripe.String(strings.ToLower(currencyCode)),
		Customer:   stripe.String(cust.GatewayCustomerID),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	params.Context = ctx

	var intent *stripe.PaymentIntent
	operation := func() error {
		var err error
		intent, err = paymentintent.New(params)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			p.logger.Warnw("transient stripe error, will retry",
				"customer_id", cust.ID,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment could not be completed").
			WithReportableDetails(map[string]any{
				"customer_id": cust.ID,
				"amount":      amount,
				"currency":    currencyCode,
			}).
			Mark(ierr.ErrGateway)
	}

	return &ChargeResult{Reference: intent.ID}, nil
}

// isTransient distinguishes infrastructure hiccups from declines. Declines
// are terminal for this invocation; the next sweep retries them.
func isTransient(err error) bool {
	var stripeErr *stripe.Error
	if ierr.As(err, &stripeErr) {
		// rate limits and API hiccups come back as api_error
		return stripeErr.Type == stripe.ErrorTypeAPI
	}
	// non-stripe errors are transport failures
	return true
}
