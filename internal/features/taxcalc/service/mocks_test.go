package service

import (
	"context"

	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"github.com/shopspring/decimal"
)

// mockOrder is a configurable in-memory implementation of ports.Order.
type mockOrder struct {
	id            string
	shipping      domain.Address
	productLines  []ports.ProductLine
	feeLines      []ports.FeeLine
	shippingTotal decimal.Decimal
	customerID    int
	exemptionType string
	vatExempt     bool

	taxLinesRemoved int
	addedTaxLines   []ports.TaxLine
	recalculated    bool
	removeErr       error
	addErr          error
}

func (m *mockOrder) ID() string                       { return m.id }
func (m *mockOrder) ShippingAddress() domain.Address  { return m.shipping }
func (m *mockOrder) ProductLines() []ports.ProductLine { return m.productLines }
func (m *mockOrder) FeeLines() []ports.FeeLine        { return m.feeLines }
func (m *mockOrder) ShippingTotal() decimal.Decimal   { return m.shippingTotal }
func (m *mockOrder) CustomerID() int                  { return m.customerID }
func (m *mockOrder) ExemptionType() string            { return m.exemptionType }
func (m *mockOrder) IsVATExempt() bool                { return m.vatExempt }

func (m *mockOrder) RemoveTaxLines() error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.taxLinesRemoved++
	m.addedTaxLines = nil
	return nil
}

func (m *mockOrder) AddTaxLine(line ports.TaxLine) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.addedTaxLines = append(m.addedTaxLines, line)
	return nil
}

func (m *mockOrder) RecalculateTotals() error {
	m.recalculated = true
	return nil
}

// testOrder builds an order with one taxable product and one fee.
func testOrder() *mockOrder {
	return &mockOrder{
		id: "123",
		shipping: domain.Address{
			Country: "US", State: "UT", Zip: "84111", City: "Salt Lake City",
		},
		productLines: []ports.ProductLine{{
			Key:       "1",
			ProductID: "42",
			Quantity:  2,
			TaxStatus: "taxable",
			Subtotal:  decimal.NewFromInt(20),
			Total:     decimal.NewFromInt(18),
		}},
		feeLines: []ports.FeeLine{{
			Key:       "3",
			Name:      "Setup Fee",
			TaxStatus: "taxable",
			Amount:    decimal.NewFromInt(5),
		}},
		shippingTotal: decimal.NewFromFloat(7.50),
	}
}

// mockOrderSource returns a fixed order for any id.
type mockOrderSource struct {
	order ports.Order
	err   error
}

func (m *mockOrderSource) GetOrder(orderID string) (ports.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

// mockCustomers is a configurable CustomerDirectory.
type mockCustomers struct {
	exempt map[int]bool
	err    error
}

func (m *mockCustomers) IsVATExempt(customerID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.exempt[customerID], nil
}

// mockNexus is a configurable NexusChecker.
type mockNexus struct {
	hasNexus bool
	err      error
}

func (m *mockNexus) HasNexus(country, state string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.hasNexus, nil
}

// mockRateStore records upserts and hands out sequential rate ids.
type mockRateStore struct {
	upserts []struct {
		Key  ports.RateKey
		Rate ports.Rate
	}
	err error
}

func (m *mockRateStore) Upsert(key ports.RateKey, rate ports.Rate) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.upserts = append(m.upserts, struct {
		Key  ports.RateKey
		Rate ports.Rate
	}{key, rate})
	return "9", nil
}

// mockTaxClient returns a canned response or error.
type mockTaxClient struct {
	rawResponse string
	err         error
	calls       int
}

func (m *mockTaxClient) GetTaxes(body *domain.RequestBody) (*domain.TaxDetails, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	details, err := domain.NewTaxDetails([]byte(m.rawResponse))
	if err != nil {
		return nil, err
	}
	details.SetLocation(body.ToAddress())
	return details, nil
}

// mockTokens accepts a single action/token pair.
type mockTokens struct {
	action string
	token  string
}

func (m *mockTokens) Validate(action, token string) bool {
	return action == m.action && token == m.token
}

// mockResultStore records outcomes in memory.
type mockResultStore struct {
	recorded []ports.CalculationResult
	err      error
}

func (m *mockResultStore) Record(ctx context.Context, result ports.CalculationResult) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, result)
	return nil
}

func (m *mockResultStore) Latest(ctx context.Context, orderID string) (*ports.CalculationResult, error) {
	for i := len(m.recorded) - 1; i >= 0; i-- {
		if m.recorded[i].OrderID == orderID {
			return &m.recorded[i], nil
		}
	}
	return nil, nil
}

// mockCalcLogger captures logged outcomes.
type mockCalcLogger struct {
	successes []ports.CalculationDetails
	failures  []ports.CalculationDetails
}

func (m *mockCalcLogger) LogSuccess(details ports.CalculationDetails) {
	m.successes = append(m.successes, details)
}

func (m *mockCalcLogger) LogFailure(details ports.CalculationDetails) {
	m.failures = append(m.failures, details)
}

// staticResolver maps every class to a fixed code.
type staticResolver struct {
	code string
}

func (r staticResolver) TaxCodeForClass(taxClass string) string { return r.code }
