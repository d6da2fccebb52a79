package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxDetailLineItem is the parsed per-line breakdown of a tax response.
type TaxDetailLineItem struct {
	id              string
	combinedTaxRate decimal.Decimal
	taxCollectable  decimal.Decimal
	taxableAmount   decimal.Decimal
}

// ID returns the line item identifier matching the request line item id.
func (l *TaxDetailLineItem) ID() string { return l.id }

// TaxRate returns the effective rate for the line. A zero tax-collectable
// amount forces the rate to zero regardless of the nominal combined rate, so
// a fully-exempt line never gets a nonzero rate applied.
func (l *TaxDetailLineItem) TaxRate() decimal.Decimal {
	if l.taxCollectable.IsZero() {
		return decimal.Zero
	}
	return l.combinedTaxRate
}

// TaxCollectable returns the tax amount to collect for the line.
func (l *TaxDetailLineItem) TaxCollectable() decimal.Decimal { return l.taxCollectable }

// TaxableAmount returns the taxable portion of the line.
func (l *TaxDetailLineItem) TaxableAmount() decimal.Decimal { return l.taxableAmount }

// taxResponse mirrors the rate service response body.
type taxResponse struct {
	Tax struct {
		HasNexus       bool            `json:"has_nexus"`
		FreightTaxable bool            `json:"freight_taxable"`
		Rate           decimal.Decimal `json:"rate"`
		Breakdown      struct {
			Shipping struct {
				CombinedTaxRate decimal.Decimal `json:"combined_tax_rate"`
			} `json:"shipping"`
			LineItems []struct {
				ID              string          `json:"id"`
				CombinedTaxRate decimal.Decimal `json:"combined_tax_rate"`
				TaxCollectable  decimal.Decimal `json:"tax_collectable"`
				TaxableAmount   decimal.Decimal `json:"taxable_amount"`
			} `json:"line_items"`
		} `json:"breakdown"`
	} `json:"tax"`
}

// TaxDetails is the immutable, queryable view of a tax response. The
// destination location is set by the caller after construction for
// rate-lookup purposes; raw response bytes are retained for caching and
// logging.
type TaxDetails struct {
	hasNexus        bool
	freightTaxable  bool
	shippingTaxRate decimal.Decimal
	rate            decimal.Decimal
	lineItems       map[string]*TaxDetailLineItem

	location    Address
	rawResponse []byte
}

// NewTaxDetails parses a raw tax service response.
func NewTaxDetails(rawResponse []byte) (*TaxDetails, error) {
	var resp taxResponse
	if err := json.Unmarshal(rawResponse, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode tax response: %w", err)
	}

	d := &TaxDetails{
		hasNexus:       resp.Tax.HasNexus,
		freightTaxable: resp.Tax.FreightTaxable,
		rate:           resp.Tax.Rate,
		lineItems:      make(map[string]*TaxDetailLineItem, len(resp.Tax.Breakdown.LineItems)),
		rawResponse:    rawResponse,
	}

	for _, li := range resp.Tax.Breakdown.LineItems {
		d.lineItems[li.ID] = &TaxDetailLineItem{
			id:              li.ID,
			combinedTaxRate: li.CombinedTaxRate,
			taxCollectable:  li.TaxCollectable,
			taxableAmount:   li.TaxableAmount,
		}
	}

	if d.freightTaxable {
		d.shippingTaxRate = resp.Tax.Breakdown.Shipping.CombinedTaxRate
	}

	return d, nil
}

// LineItem returns the breakdown for a request line item id.
func (d *TaxDetails) LineItem(id string) (*TaxDetailLineItem, error) {
	li, ok := d.lineItems[id]
	if !ok {
		return nil, fmt.Errorf("line item %q not present in tax details", id)
	}
	return li, nil
}

// HasNexus reports whether the seller has nexus for the destination.
func (d *TaxDetails) HasNexus() bool { return d.hasNexus }

// IsShippingTaxable reports whether shipping charges are taxable.
func (d *TaxDetails) IsShippingTaxable() bool { return d.freightTaxable }

// ShippingTaxRate returns the shipping rate, zero when shipping is not
// taxable or the response carried no shipping breakdown.
func (d *TaxDetails) ShippingTaxRate() decimal.Decimal { return d.shippingTaxRate }

// Rate returns the overall rate of the transaction, zero when absent.
func (d *TaxDetails) Rate() decimal.Decimal { return d.rate }

// SetLocation sets the destination used for rate-record lookups.
func (d *TaxDetails) SetLocation(a Address) { d.location = a }

// Location returns the destination set by the caller.
func (d *TaxDetails) Location() Address { return d.location }

// RawResponse returns the unparsed response bytes.
func (d *TaxDetails) RawResponse() []byte { return d.rawResponse }
