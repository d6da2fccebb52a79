package service

import (
	"fmt"
	"strings"

	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"github.com/shopspring/decimal"
)

// OrderApplicator commits a tax result onto the host order. It replaces any
// existing tax lines, upserts one jurisdiction rate record per tax class
// present on the order, and attaches tax lines referencing those records.
// Applying the same result twice converges on the same state.
type OrderApplicator struct {
	order ports.Order
	rates ports.RateStore
}

// NewOrderApplicator creates a new instance of OrderApplicator.
func NewOrderApplicator(order ports.Order, rates ports.RateStore) *OrderApplicator {
	return &OrderApplicator{order: order, rates: rates}
}

var _ ports.Applicator = (*OrderApplicator)(nil)

// ApplyTax writes the calculated tax back onto the order.
func (a *OrderApplicator) ApplyTax(details *domain.TaxDetails) error {
	if err := a.order.RemoveTaxLines(); err != nil {
		return err
	}

	location := details.Location()
	label := rateLabel(location)

	classRates := a.classRates(details)
	if details.IsShippingTaxable() {
		// taxable shipping needs a standard-class record even when no line
		// item references that class
		if _, ok := classRates[""]; !ok {
			classRates[""] = details.ShippingTaxRate().Mul(decimal.NewFromInt(100))
		}
	}

	for class, percent := range classRates {
		key := ports.RateKey{
			Country:  location.Country,
			State:    strings.ToUpper(location.State),
			Zip:      location.Zip,
			City:     location.City,
			TaxClass: class,
		}
		rate := ports.Rate{
			Percent:         percent,
			Name:            label,
			ShippingTaxable: details.IsShippingTaxable(),
		}

		rateID, err := a.rates.Upsert(key, rate)
		if err != nil {
			return fmt.Errorf("failed to upsert rate for class %q: %w", class, err)
		}
		if err := a.order.AddTaxLine(ports.TaxLine{RateID: rateID, Label: label}); err != nil {
			return err
		}
	}

	return nil
}

// ApplyTaxAndRecalculate applies the tax and then asks the host to
// recompute the order's aggregate totals.
func (a *OrderApplicator) ApplyTaxAndRecalculate(details *domain.TaxDetails) error {
	if err := a.ApplyTax(details); err != nil {
		return err
	}
	return a.order.RecalculateTotals()
}

// classRates folds the per-line rates down to one percentage per host tax
// class, following the host's percentage convention (fractional rate times
// 100). Lines the response doesn't know about fall back to the aggregate
// order rate.
func (a *OrderApplicator) classRates(details *domain.TaxDetails) map[string]decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	rates := make(map[string]decimal.Decimal)

	record := func(class string, lineID string) {
		line, err := details.LineItem(lineID)
		percent := details.Rate().Mul(hundred)
		if err == nil {
			percent = line.TaxRate().Mul(hundred)
		}
		if existing, ok := rates[class]; !ok || percent.GreaterThan(existing) {
			rates[class] = percent
		}
	}

	for _, line := range a.order.ProductLines() {
		record(line.TaxClass, fmt.Sprintf("%s-%s", line.ProductID, line.Key))
	}
	for _, fee := range a.order.FeeLines() {
		record(fee.TaxClass, "fee-"+fee.Key)
	}

	return rates
}

// rateLabel names the rate record after the destination region.
func rateLabel(location domain.Address) string {
	region := strings.ToUpper(location.State)
	if region == "" {
		region = strings.ToUpper(location.Country)
	}
	return region + " Tax"
}
