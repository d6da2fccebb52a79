package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Valid exemption types accepted by the rate service.
var validExemptionTypes = map[string]struct{}{
	"wholesale":  {},
	"government": {},
	"other":      {},
	"non_exempt": {},
}

// IsValidExemptionType reports whether the exemption type is one the rate
// service accepts.
func IsValidExemptionType(exemptionType string) bool {
	_, ok := validExemptionTypes[exemptionType]
	return ok
}

// NonTaxableProductTaxCode is the sentinel tax code for non-taxable items.
const NonTaxableProductTaxCode = "99999"

// Address holds the fields of an origin or destination address.
type Address struct {
	Country string
	State   string
	Zip     string
	City    string
	Street  string
}

// LineItem is a single line of a tax-calculation request. IDs must be unique
// within a request; uniqueness is the factory's responsibility, not enforced
// here.
type LineItem struct {
	ID             string
	Quantity       int
	ProductTaxCode string
	UnitPrice      decimal.Decimal
	Discount       decimal.Decimal
}

// CanonicalFormExtension may add fields to the canonical form without
// altering the core contract.
type CanonicalFormExtension func(form map[string]interface{}, body *RequestBody)

// RequestBody is a normalized tax-calculation request. It is mutable until
// serialized; ToWireBytes produces the deterministic form used for both
// transport and cache-key hashing.
type RequestBody struct {
	to   Address
	from Address

	// shippingAmount is nil when unset, which is distinct from zero.
	shippingAmount *decimal.Decimal
	customerID     int
	exemptionType  string
	lineItems      []LineItem

	extensions []CanonicalFormExtension
}

// NewRequestBody creates an empty request body. Customer id defaults to 0,
// meaning guest.
func NewRequestBody() *RequestBody {
	return &RequestBody{}
}

// SetToAddress sets the destination address.
func (r *RequestBody) SetToAddress(a Address) { r.to = a }

// ToAddress returns the destination address.
func (r *RequestBody) ToAddress() Address { return r.to }

// SetFromAddress sets the origin address.
func (r *RequestBody) SetFromAddress(a Address) { r.from = a }

// FromAddress returns the origin address.
func (r *RequestBody) FromAddress() Address { return r.from }

// SetShippingAmount sets the shipping amount.
func (r *RequestBody) SetShippingAmount(amount decimal.Decimal) { r.shippingAmount = &amount }

// ShippingAmount returns the shipping amount and whether it has been set.
func (r *RequestBody) ShippingAmount() (decimal.Decimal, bool) {
	if r.shippingAmount == nil {
		return decimal.Zero, false
	}
	return *r.shippingAmount, true
}

// SetCustomerID sets the customer identifier.
func (r *RequestBody) SetCustomerID(id int) { r.customerID = id }

// CustomerID returns the customer identifier, 0 for guests.
func (r *RequestBody) CustomerID() int { return r.customerID }

// SetExemptionType sets the exemption type.
func (r *RequestBody) SetExemptionType(t string) { r.exemptionType = t }

// ExemptionType returns the exemption type, empty when none.
func (r *RequestBody) ExemptionType() string { return r.exemptionType }

// AddLineItem appends a line item. Insertion order is preserved.
func (r *RequestBody) AddLineItem(item LineItem) {
	r.lineItems = append(r.lineItems, item)
}

// LineItems returns the line items in insertion order.
func (r *RequestBody) LineItems() []LineItem { return r.lineItems }

// AddCanonicalFormExtension registers a hook that can append fields to the
// canonical form.
func (r *RequestBody) AddCanonicalFormExtension(ext CanonicalFormExtension) {
	r.extensions = append(r.extensions, ext)
}

// Validate runs the structural checks in fixed order; the first failing
// check short-circuits the rest.
func (r *RequestBody) Validate() error {
	if err := r.validateCountryIsPresent(); err != nil {
		return err
	}
	if err := r.validateZipIsPresent(); err != nil {
		return err
	}
	if err := r.validateLineItemsOrShippingPresent(); err != nil {
		return err
	}
	return r.validateZipFormat()
}

func (r *RequestBody) validateCountryIsPresent() error {
	if r.to.Country == "" {
		return NewCalculationError(ErrCodeMissingCountry, "country field is required to perform tax calculation")
	}
	return nil
}

func (r *RequestBody) validateZipIsPresent() error {
	if r.to.Zip == "" {
		return NewCalculationError(ErrCodeMissingZip, "zip code is required to perform tax calculation")
	}
	return nil
}

func (r *RequestBody) validateLineItemsOrShippingPresent() error {
	if len(r.lineItems) > 0 {
		return nil
	}
	if r.shippingAmount != nil && !r.shippingAmount.IsZero() {
		return nil
	}
	return NewCalculationError(ErrCodeMissingLineItemsOrShipping, "either a line item or shipping amount is required to calculate tax")
}

func (r *RequestBody) validateZipFormat() error {
	if !IsPostalCodeValid(r.to.Country, r.to.Zip) {
		return NewCalculationError(ErrCodeInvalidZip,
			fmt.Sprintf("invalid zip code %q for country %q", r.to.Zip, r.to.Country))
	}
	return nil
}

// ToCanonicalForm produces the normalized request mapping. Keys are fixed so
// field population order never affects the derived cache key. customer_id is
// included only when nonzero, exemption_type only when set and valid, and the
// form carries either a line_items array or a zero amount placeholder, never
// both.
func (r *RequestBody) ToCanonicalForm() map[string]interface{} {
	shipping := decimal.Zero
	if r.shippingAmount != nil {
		shipping = *r.shippingAmount
	}

	form := map[string]interface{}{
		"from_country": r.from.Country,
		"from_state":   r.from.State,
		"from_zip":     r.from.Zip,
		"from_city":    r.from.City,
		"from_street":  r.from.Street,
		"to_country":   r.to.Country,
		"to_state":     r.to.State,
		"to_zip":       r.to.Zip,
		"to_city":      r.to.City,
		"to_street":    r.to.Street,
		"shipping":     shipping.InexactFloat64(),
		"plugin":       "woo",
	}

	if r.customerID != 0 {
		form["customer_id"] = r.customerID
	}

	if r.exemptionType != "" && IsValidExemptionType(r.exemptionType) {
		form["exemption_type"] = r.exemptionType
	}

	if len(r.lineItems) == 0 {
		form["amount"] = 0.0
	} else {
		items := make([]map[string]interface{}, 0, len(r.lineItems))
		for _, li := range r.lineItems {
			items = append(items, map[string]interface{}{
				"id":               li.ID,
				"quantity":         li.Quantity,
				"product_tax_code": li.ProductTaxCode,
				"unit_price":       li.UnitPrice.InexactFloat64(),
				"discount":         li.Discount.InexactFloat64(),
			})
		}
		form["line_items"] = items
	}

	for _, ext := range r.extensions {
		ext(form, r)
	}

	return form
}

// ToWireBytes serializes the canonical form deterministically. encoding/json
// emits map keys in sorted order, so equal requests always produce equal
// bytes.
func (r *RequestBody) ToWireBytes() ([]byte, error) {
	data, err := json.Marshal(r.ToCanonicalForm())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tax request body: %w", err)
	}
	return data, nil
}
