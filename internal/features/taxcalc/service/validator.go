package service

import (
	"fmt"

	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"
)

// OrderValidator enforces the preconditions for calling the tax service:
// structural completeness of the request body, no VAT exemption on the
// order or its customer, and nexus in the destination jurisdiction.
// Checks run in that order and the first failure wins.
type OrderValidator struct {
	order     ports.Order
	customers ports.CustomerDirectory
	nexus     ports.NexusChecker
}

// NewOrderValidator creates a new instance of OrderValidator.
func NewOrderValidator(order ports.Order, customers ports.CustomerDirectory, nexus ports.NexusChecker) *OrderValidator {
	return &OrderValidator{order: order, customers: customers, nexus: nexus}
}

var _ ports.Validator = (*OrderValidator)(nil)

// Validate reports the first violated precondition as a coded
// domain.CalculationError, or a plain error when a lookup itself fails.
func (v *OrderValidator) Validate(body *domain.RequestBody) error {
	if err := body.Validate(); err != nil {
		return err
	}

	if v.order.IsVATExempt() {
		return domain.NewCalculationError(domain.ErrCodeVATExempt, "order is marked VAT exempt")
	}

	if customerID := body.CustomerID(); customerID > 0 {
		exempt, err := v.customers.IsVATExempt(customerID)
		if err != nil {
			return fmt.Errorf("failed to check customer VAT exemption: %w", err)
		}
		if exempt {
			return domain.NewCalculationError(domain.ErrCodeVATExempt,
				fmt.Sprintf("customer %d is marked VAT exempt", customerID))
		}
	}

	to := body.ToAddress()
	hasNexus, err := v.nexus.HasNexus(to.Country, to.State)
	if err != nil {
		return fmt.Errorf("failed to check nexus: %w", err)
	}
	if !hasNexus {
		return domain.NewCalculationError(domain.ErrCodeNoNexus,
			fmt.Sprintf("no nexus in %s %s", to.Country, to.State))
	}

	return nil
}
