package service

import (
	"fmt"
	"strings"

	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"github.com/shopspring/decimal"
)

// destinationSource abstracts where the ship-to address comes from: the
// order record itself, or an admin form that hasn't been saved yet.
type destinationSource interface {
	destination() (domain.Address, error)
}

type orderDestination struct {
	order ports.Order
}

func (s orderDestination) destination() (domain.Address, error) {
	return s.order.ShippingAddress(), nil
}

type formDestination struct {
	address domain.Address
}

// Form fields arrive as typed by the admin, so every field is uppercased
// before it reaches postal validation and nexus matching.
func (s formDestination) destination() (domain.Address, error) {
	return domain.Address{
		Country: strings.ToUpper(s.address.Country),
		State:   strings.ToUpper(s.address.State),
		Zip:     strings.ToUpper(s.address.Zip),
		City:    strings.ToUpper(s.address.City),
		Street:  strings.ToUpper(s.address.Street),
	}, nil
}

// OrderRequestBodyFactory builds a request body from a host order: ship-from
// comes from the store settings, ship-to from the destination source, and
// line items from the order's product and fee lines.
type OrderRequestBodyFactory struct {
	order       ports.Order
	storeOrigin domain.Address
	resolver    ports.TaxCodeResolver
	source      destinationSource
}

// NewOrderRequestBodyFactory builds request bodies for saved orders, taking
// the destination from the order's shipping address.
func NewOrderRequestBodyFactory(order ports.Order, storeOrigin domain.Address, resolver ports.TaxCodeResolver) *OrderRequestBodyFactory {
	return &OrderRequestBodyFactory{
		order:       order,
		storeOrigin: storeOrigin,
		resolver:    resolver,
		source:      orderDestination{order: order},
	}
}

// NewAdminFormRequestBodyFactory builds request bodies for admin edits where
// the destination address comes from unsaved form fields instead of the
// order record.
func NewAdminFormRequestBodyFactory(order ports.Order, storeOrigin domain.Address, resolver ports.TaxCodeResolver, formAddress domain.Address) *OrderRequestBodyFactory {
	return &OrderRequestBodyFactory{
		order:       order,
		storeOrigin: storeOrigin,
		resolver:    resolver,
		source:      formDestination{address: formAddress},
	}
}

var _ ports.RequestBodyFactory = (*OrderRequestBodyFactory)(nil)

// Create assembles the fully-populated request body.
func (f *OrderRequestBodyFactory) Create() (*domain.RequestBody, error) {
	to, err := f.source.destination()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination address: %w", err)
	}

	body := domain.NewRequestBody()
	body.SetFromAddress(f.storeOrigin)
	body.SetToAddress(to)
	body.SetShippingAmount(f.order.ShippingTotal())
	body.SetCustomerID(f.order.CustomerID())
	body.SetExemptionType(f.order.ExemptionType())

	for _, line := range f.order.ProductLines() {
		body.AddLineItem(domain.LineItem{
			ID:             fmt.Sprintf("%s-%s", line.ProductID, line.Key),
			Quantity:       line.Quantity,
			ProductTaxCode: f.taxCode(line.TaxStatus, line.TaxClass),
			UnitPrice:      unitPrice(line.Subtotal, line.Quantity),
			Discount:       line.Subtotal.Sub(line.Total),
		})
	}

	for _, fee := range f.order.FeeLines() {
		body.AddLineItem(domain.LineItem{
			ID:             "fee-" + fee.Key,
			Quantity:       1,
			ProductTaxCode: f.taxCode(fee.TaxStatus, fee.TaxClass),
			UnitPrice:      fee.Amount,
			Discount:       decimal.Zero,
		})
	}

	return body, nil
}

// taxCode resolves the product tax code, forcing the non-taxable sentinel
// for anything the host doesn't mark taxable.
func (f *OrderRequestBodyFactory) taxCode(taxStatus, taxClass string) string {
	if taxStatus != "taxable" {
		return domain.NonTaxableProductTaxCode
	}
	return f.resolver.TaxCodeForClass(taxClass)
}

// unitPrice derives the per-unit price from the line subtotal, rounded to
// two decimal places.
func unitPrice(subtotal decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return subtotal.DivRound(decimal.NewFromInt(int64(quantity)), 2)
}
