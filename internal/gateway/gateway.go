package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/domain/customer"
)

// ChargeResult is the provider's reference for a successful charge. The
// engine never inspects gateway payloads beyond this.
type ChargeResult struct {
	Reference string
}

// ChargeProvider is the outbound payment gateway. Amount is already rounded
// to integer currency units by the caller.
type ChargeProvider interface {
	Pay(ctx context.Context, cust *customer.Customer, amount decimal.Decimal, currencyCode string) (*ChargeResult, error)
}
