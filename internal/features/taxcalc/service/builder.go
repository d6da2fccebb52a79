package service

import (
	"errors"
	"fmt"

	"taxbridge/internal/core/config"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"
)

// Calculation contexts. Each names the surface a calculation was triggered
// from and carries its own gating rules.
const (
	// ContextOrder is a storefront checkout or order save.
	ContextOrder = "order"
	// ContextAPIOrder is an order created through the host's REST API.
	ContextAPIOrder = "api_order"
	// ContextAdminOrder is a partial recalculation from the admin order
	// editor.
	ContextAdminOrder = "admin_order"
)

// ErrSkipCalculation marks a build that was declined by policy rather than
// broken: the context is gated off or the admin action isn't authorized.
// Callers treat it as "leave the order's tax alone", not as a failure.
var ErrSkipCalculation = errors.New("calculation skipped")

// allowedAdminActions are the admin editor actions that may trigger a
// recalculation.
var allowedAdminActions = map[string]struct{}{
	"add_order_fee":       {},
	"add_coupon_discount": {},
	"remove_order_coupon": {},
	"remove_order_item":   {},
	"calc_line_taxes":     {},
}

// BuildRequest describes one calculation trigger.
type BuildRequest struct {
	OrderID string
	Context string
	// Action and Token authorize admin_order triggers.
	Action string
	Token  string
	// Destination overrides the order's shipping address for admin form
	// edits that haven't been saved yet.
	Destination *domain.Address
}

// CalculatorBuilder assembles a fully-wired TaxCalculator for one trigger,
// applying the per-context gating rules first.
type CalculatorBuilder struct {
	orders     ports.OrderSource
	customers  ports.CustomerDirectory
	nexus      ports.NexusChecker
	taxClient  ports.TaxClient
	rates      ports.RateStore
	resolver   ports.TaxCodeResolver
	tokens     ports.TokenValidator
	results    ports.ResultStore
	calcLogger ports.CalculationLogger
	store      config.StoreConfig
}

// NewCalculatorBuilder creates a new instance of CalculatorBuilder.
func NewCalculatorBuilder(
	orders ports.OrderSource,
	customers ports.CustomerDirectory,
	nexus ports.NexusChecker,
	taxClient ports.TaxClient,
	rates ports.RateStore,
	resolver ports.TaxCodeResolver,
	tokens ports.TokenValidator,
	results ports.ResultStore,
	calcLogger ports.CalculationLogger,
	store config.StoreConfig,
) *CalculatorBuilder {
	return &CalculatorBuilder{
		orders:     orders,
		customers:  customers,
		nexus:      nexus,
		taxClient:  taxClient,
		rates:      rates,
		resolver:   resolver,
		tokens:     tokens,
		results:    results,
		calcLogger: calcLogger,
		store:      store,
	}
}

// Build gates the request by context and assembles the calculator. It
// returns an error wrapping ErrSkipCalculation when policy declines the
// trigger.
func (b *CalculatorBuilder) Build(req BuildRequest) (*TaxCalculator, error) {
	if err := b.gate(req); err != nil {
		return nil, err
	}

	order, err := b.orders.GetOrder(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", req.OrderID, err)
	}

	storeOrigin := domain.Address{
		Country: b.store.FromCountry,
		State:   b.store.FromState,
		Zip:     b.store.FromZip,
		City:    b.store.FromCity,
		Street:  b.store.FromStreet,
	}

	var factory ports.RequestBodyFactory
	if req.Context == ContextAdminOrder && req.Destination != nil {
		factory = NewAdminFormRequestBodyFactory(order, storeOrigin, b.resolver, *req.Destination)
	} else {
		factory = NewOrderRequestBodyFactory(order, storeOrigin, b.resolver)
	}

	calc := NewTaxCalculator(req.OrderID, req.Context).
		WithFactory(factory).
		WithValidator(NewOrderValidator(order, b.customers, b.nexus)).
		WithClient(b.taxClient).
		WithApplicator(NewOrderApplicator(order, b.rates)).
		WithLogger(b.calcLogger).
		WithResultStore(b.results).
		WithRecalculation(req.Context == ContextAdminOrder)

	return calc, nil
}

func (b *CalculatorBuilder) gate(req BuildRequest) error {
	switch req.Context {
	case ContextOrder:
		return nil
	case ContextAPIOrder:
		if !b.store.APICalcsEnabled {
			return fmt.Errorf("%w: api order calculations are disabled", ErrSkipCalculation)
		}
		return nil
	case ContextAdminOrder:
		if _, ok := allowedAdminActions[req.Action]; !ok {
			return fmt.Errorf("%w: admin action %q does not trigger calculation", ErrSkipCalculation, req.Action)
		}
		if !b.tokens.Validate(req.Action, req.Token) {
			return fmt.Errorf("%w: invalid token for admin action %q", ErrSkipCalculation, req.Action)
		}
		return nil
	default:
		return fmt.Errorf("unknown calculation context %q", req.Context)
	}
}
