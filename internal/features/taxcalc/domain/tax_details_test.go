package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTaxResponse = `{
	"tax": {
		"has_nexus": true,
		"freight_taxable": true,
		"rate": 0.08,
		"breakdown": {
			"shipping": {"combined_tax_rate": 0.08},
			"line_items": [
				{"id": "42-1", "combined_tax_rate": 0.08, "tax_collectable": 1.60, "taxable_amount": 20.0},
				{"id": "fee-3", "combined_tax_rate": 0.08, "tax_collectable": 0, "taxable_amount": 0}
			]
		}
	}
}`

// TestNewTaxDetails_Success verifies parsing of a full response.
func TestNewTaxDetails_Success(t *testing.T) {
	details, err := NewTaxDetails([]byte(sampleTaxResponse))
	require.NoError(t, err)

	assert.True(t, details.HasNexus())
	assert.True(t, details.IsShippingTaxable())
	assert.Equal(t, "0.08", details.Rate().String())
	assert.Equal(t, "0.08", details.ShippingTaxRate().String())
	assert.Equal(t, []byte(sampleTaxResponse), details.RawResponse())

	line, err := details.LineItem("42-1")
	require.NoError(t, err)
	assert.Equal(t, "0.08", line.TaxRate().String())
	assert.Equal(t, "1.6", line.TaxCollectable().String())
}

// TestNewTaxDetails_ZeroCollectableForcesZeroRate verifies a line with
// nothing to collect reports a zero rate even with a nominal combined rate.
func TestNewTaxDetails_ZeroCollectableForcesZeroRate(t *testing.T) {
	details, err := NewTaxDetails([]byte(sampleTaxResponse))
	require.NoError(t, err)

	line, err := details.LineItem("fee-3")
	require.NoError(t, err)

	assert.True(t, line.TaxRate().IsZero())
}

// TestNewTaxDetails_ShippingRateOnlyWhenTaxable verifies the shipping rate
// stays zero when freight is not taxable.
func TestNewTaxDetails_ShippingRateOnlyWhenTaxable(t *testing.T) {
	raw := `{"tax": {"has_nexus": true, "freight_taxable": false, "rate": 0.05,
		"breakdown": {"shipping": {"combined_tax_rate": 0.05}, "line_items": []}}}`

	details, err := NewTaxDetails([]byte(raw))
	require.NoError(t, err)

	assert.False(t, details.IsShippingTaxable())
	assert.True(t, details.ShippingTaxRate().IsZero())
}

// TestTaxDetails_LineItem_Unknown verifies lookups of absent line items fail.
func TestTaxDetails_LineItem_Unknown(t *testing.T) {
	details, err := NewTaxDetails([]byte(sampleTaxResponse))
	require.NoError(t, err)

	_, err = details.LineItem("nope")
	assert.Error(t, err)
}

// TestNewTaxDetails_MalformedJSON verifies decode failures are reported.
func TestNewTaxDetails_MalformedJSON(t *testing.T) {
	_, err := NewTaxDetails([]byte("{not json"))
	assert.Error(t, err)
}

// TestTaxDetails_Location verifies the caller-set destination round-trips.
func TestTaxDetails_Location(t *testing.T) {
	details, err := NewTaxDetails([]byte(sampleTaxResponse))
	require.NoError(t, err)

	addr := Address{Country: "US", State: "UT", Zip: "84111"}
	details.SetLocation(addr)

	assert.Equal(t, addr, details.Location())
}
