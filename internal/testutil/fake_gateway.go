package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/domain/customer"
	"github.com/academypay/academypay/internal/gateway"
)

// ChargeCall records one call to the fake gateway.
type ChargeCall struct {
	CustomerID   string
	Amount       decimal.Decimal
	CurrencyCode string
}

// FakeChargeProvider implements gateway.ChargeProvider for tests. Set
// FailWith to make every charge fail.
type FakeChargeProvider struct {
	mu       sync.Mutex
	calls    []ChargeCall
	FailWith error
}

func NewFakeChargeProvider() *FakeChargeProvider {
	return &FakeChargeProvider{}
}

func (p *FakeChargeProvider) Pay(ctx context.Context, cust *customer.Customer, amount decimal.Decimal, currencyCode string) (*gateway.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, ChargeCall{
		CustomerID:   cust.ID,
		Amount:       amount,
		CurrencyCode: currencyCode,
	})
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	return &gateway.ChargeResult{
		Reference: fmt.Sprintf("ch_test_%d", len(p.calls)),
	}, nil
}

// Calls returns every recorded charge attempt.
func (p *FakeChargeProvider) Calls() []ChargeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChargeCall(nil), p.calls...)
}

func (p *FakeChargeProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.FailWith = nil
}
