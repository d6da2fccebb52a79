package service

import (
	"testing"

	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func taxDetailsFor(t *testing.T, raw string) *domain.TaxDetails {
	t.Helper()

	details, err := domain.NewTaxDetails([]byte(raw))
	require.NoError(t, err)
	details.SetLocation(domain.Address{Country: "US", State: "UT", Zip: "84111", City: "Salt Lake City"})
	return details
}

const applicatorResponse = `{
	"tax": {
		"has_nexus": true,
		"freight_taxable": true,
		"rate": 0.08,
		"breakdown": {
			"shipping": {"combined_tax_rate": 0.08},
			"line_items": [
				{"id": "42-1", "combined_tax_rate": 0.08, "tax_collectable": 1.6, "taxable_amount": 20},
				{"id": "fee-3", "combined_tax_rate": 0.08, "tax_collectable": 0.4, "taxable_amount": 5}
			]
		}
	}
}`

// TestOrderApplicator_ApplyTax verifies old tax lines are removed, the rate
// record is upserted with the host's percentage convention and a tax line
// referencing it is attached.
func TestOrderApplicator_ApplyTax(t *testing.T) {
	order := testOrder()
	rates := &mockRateStore{}
	applicator := NewOrderApplicator(order, rates)

	err := applicator.ApplyTax(taxDetailsFor(t, applicatorResponse))
	require.NoError(t, err)

	assert.Equal(t, 1, order.taxLinesRemoved)

	// both lines share the standard tax class, so one record covers them
	require.Len(t, rates.upserts, 1)
	upsert := rates.upserts[0]
	assert.Equal(t, "US", upsert.Key.Country)
	assert.Equal(t, "UT", upsert.Key.State)
	assert.Equal(t, "84111", upsert.Key.Zip)
	assert.Equal(t, "", upsert.Key.TaxClass)
	assert.True(t, upsert.Rate.Percent.Equal(decimalFromString(t, "8")))
	assert.Equal(t, "UT Tax", upsert.Rate.Name)
	assert.True(t, upsert.Rate.ShippingTaxable)

	require.Len(t, order.addedTaxLines, 1)
	assert.Equal(t, "9", order.addedTaxLines[0].RateID)
	assert.Equal(t, "UT Tax", order.addedTaxLines[0].Label)

	assert.False(t, order.recalculated)
}

// TestOrderApplicator_ApplyTax_Idempotent verifies a second application
// converges on the same final state.
func TestOrderApplicator_ApplyTax_Idempotent(t *testing.T) {
	order := testOrder()
	applicator := NewOrderApplicator(order, &mockRateStore{})
	details := taxDetailsFor(t, applicatorResponse)

	require.NoError(t, applicator.ApplyTax(details))
	require.NoError(t, applicator.ApplyTax(details))

	assert.Len(t, order.addedTaxLines, 1)
}

// TestOrderApplicator_PerClassRecords verifies distinct tax classes get
// their own rate records.
func TestOrderApplicator_PerClassRecords(t *testing.T) {
	order := testOrder()
	order.productLines[0].TaxClass = "reduced-rate"
	rates := &mockRateStore{}
	applicator := NewOrderApplicator(order, rates)

	require.NoError(t, applicator.ApplyTax(taxDetailsFor(t, applicatorResponse)))

	assert.Len(t, rates.upserts, 2)
	assert.Len(t, order.addedTaxLines, 2)
}

// TestOrderApplicator_HighestRateWinsWithinClass verifies that when lines
// sharing a tax class come back with different rates, the class record
// carries the highest one regardless of line order.
func TestOrderApplicator_HighestRateWinsWithinClass(t *testing.T) {
	const mixedRateResponse = `{
		"tax": {
			"has_nexus": true,
			"freight_taxable": false,
			"rate": 0.05,
			"breakdown": {
				"line_items": [
					{"id": "42-1", "combined_tax_rate": 0.05, "tax_collectable": 1.0, "taxable_amount": 20},
					{"id": "43-2", "combined_tax_rate": 0.085, "tax_collectable": 0.85, "taxable_amount": 10},
					{"id": "fee-3", "combined_tax_rate": 0.05, "tax_collectable": 0.25, "taxable_amount": 5}
				]
			}
		}
	}`

	order := testOrder()
	order.productLines = append(order.productLines, ports.ProductLine{
		Key:       "2",
		ProductID: "43",
		Quantity:  1,
		TaxStatus: "taxable",
		Subtotal:  decimal.NewFromInt(10),
		Total:     decimal.NewFromInt(10),
	})
	rates := &mockRateStore{}
	applicator := NewOrderApplicator(order, rates)

	require.NoError(t, applicator.ApplyTax(taxDetailsFor(t, mixedRateResponse)))

	require.Len(t, rates.upserts, 1)
	assert.True(t, rates.upserts[0].Rate.Percent.Equal(decimalFromString(t, "8.5")))
	require.Len(t, order.addedTaxLines, 1)
}

// TestOrderApplicator_ApplyTaxAndRecalculate verifies the host-side totals
// recalculation runs after application.
func TestOrderApplicator_ApplyTaxAndRecalculate(t *testing.T) {
	order := testOrder()
	applicator := NewOrderApplicator(order, &mockRateStore{})

	require.NoError(t, applicator.ApplyTaxAndRecalculate(taxDetailsFor(t, applicatorResponse)))

	assert.True(t, order.recalculated)
}

// TestOrderApplicator_TaxableShippingWithoutStandardClass verifies taxable
// shipping still produces a standard-class rate record when every line item
// belongs to another class.
func TestOrderApplicator_TaxableShippingWithoutStandardClass(t *testing.T) {
	order := testOrder()
	order.productLines[0].TaxClass = "reduced-rate"
	order.feeLines = nil
	rates := &mockRateStore{}
	applicator := NewOrderApplicator(order, rates)

	require.NoError(t, applicator.ApplyTax(taxDetailsFor(t, applicatorResponse)))

	require.Len(t, rates.upserts, 2)
	classes := map[string]bool{}
	for _, upsert := range rates.upserts {
		classes[upsert.Key.TaxClass] = true
		if upsert.Key.TaxClass == "" {
			assert.True(t, upsert.Rate.Percent.Equal(decimalFromString(t, "8")))
		}
	}
	assert.True(t, classes[""])
	assert.True(t, classes["reduced-rate"])
}

// TestOrderApplicator_CountryLabelFallback verifies the rate label falls
// back to the country when the destination has no state.
func TestOrderApplicator_CountryLabelFallback(t *testing.T) {
	order := testOrder()
	rates := &mockRateStore{}
	applicator := NewOrderApplicator(order, rates)

	details := taxDetailsFor(t, applicatorResponse)
	details.SetLocation(domain.Address{Country: "DK", Zip: "1050", City: "Copenhagen"})

	require.NoError(t, applicator.ApplyTax(details))

	require.Len(t, rates.upserts, 1)
	assert.Equal(t, "DK Tax", rates.upserts[0].Rate.Name)
}
