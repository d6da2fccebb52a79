package service

import (
	"context"
	"errors"
	"time"

	"taxbridge/internal/core/logger"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"go.uber.org/zap"
)

// TaxCalculator runs the calculation pipeline for one order: build the
// request body, validate preconditions, fetch the tax result, apply it.
// The first error anywhere in the pipeline stops it; the outcome is logged
// and recorded exactly once either way.
type TaxCalculator struct {
	factory     ports.RequestBodyFactory
	validator   ports.Validator
	client      ports.TaxClient
	applicator  ports.Applicator
	calcLogger  ports.CalculationLogger
	results     ports.ResultStore
	orderID     string
	calcContext string
	recalculate bool
}

// NewTaxCalculator creates an unwired calculator. Collaborators are
// attached with the With setters; Calculate refuses to run until all
// required ones are present.
func NewTaxCalculator(orderID, calcContext string) *TaxCalculator {
	return &TaxCalculator{orderID: orderID, calcContext: calcContext}
}

// WithFactory attaches the request body factory.
func (c *TaxCalculator) WithFactory(f ports.RequestBodyFactory) *TaxCalculator {
	c.factory = f
	return c
}

// WithValidator attaches the precondition validator.
func (c *TaxCalculator) WithValidator(v ports.Validator) *TaxCalculator {
	c.validator = v
	return c
}

// WithClient attaches the tax service client.
func (c *TaxCalculator) WithClient(t ports.TaxClient) *TaxCalculator {
	c.client = t
	return c
}

// WithApplicator attaches the order applicator.
func (c *TaxCalculator) WithApplicator(a ports.Applicator) *TaxCalculator {
	c.applicator = a
	return c
}

// WithLogger attaches the calculation outcome logger.
func (c *TaxCalculator) WithLogger(l ports.CalculationLogger) *TaxCalculator {
	c.calcLogger = l
	return c
}

// WithResultStore attaches an optional store for the latest outcome.
func (c *TaxCalculator) WithResultStore(r ports.ResultStore) *TaxCalculator {
	c.results = r
	return c
}

// WithRecalculation makes Apply also trigger a host-side totals
// recalculation, used for admin-driven contexts.
func (c *TaxCalculator) WithRecalculation(enabled bool) *TaxCalculator {
	c.recalculate = enabled
	return c
}

// ensureWired rejects a partially-assembled calculator. Wiring mistakes are
// programming errors and are surfaced directly instead of being absorbed
// into the calculation outcome.
func (c *TaxCalculator) ensureWired() error {
	switch {
	case c.factory == nil:
		return errors.New("tax calculator: no request body factory wired")
	case c.validator == nil:
		return errors.New("tax calculator: no validator wired")
	case c.client == nil:
		return errors.New("tax calculator: no tax client wired")
	case c.applicator == nil:
		return errors.New("tax calculator: no applicator wired")
	case c.calcLogger == nil:
		return errors.New("tax calculator: no calculation logger wired")
	}
	return nil
}

// Calculate runs the pipeline. A nil error means tax was calculated and
// applied to the order; any error means the host platform's own tax
// calculation stays in effect.
func (c *TaxCalculator) Calculate(ctx context.Context) (*domain.TaxDetails, error) {
	if err := c.ensureWired(); err != nil {
		return nil, err
	}

	body, details, err := c.run()

	outcome := ports.CalculationDetails{
		Err:         err,
		Context:     c.calcContext,
		RequestBody: body,
		TaxDetails:  details,
	}
	if err != nil {
		c.calcLogger.LogFailure(outcome)
		c.record(ctx, false, err)
		return nil, err
	}

	c.calcLogger.LogSuccess(outcome)
	c.record(ctx, true, nil)
	return details, nil
}

func (c *TaxCalculator) run() (*domain.RequestBody, *domain.TaxDetails, error) {
	body, err := c.factory.Create()
	if err != nil {
		return nil, nil, err
	}

	if err := c.validator.Validate(body); err != nil {
		return body, nil, err
	}

	details, err := c.client.GetTaxes(body)
	if err != nil {
		return body, nil, err
	}

	if c.recalculate {
		err = c.applicator.ApplyTaxAndRecalculate(details)
	} else {
		err = c.applicator.ApplyTax(details)
	}
	if err != nil {
		return body, details, err
	}

	return body, details, nil
}

func (c *TaxCalculator) record(ctx context.Context, success bool, cause error) {
	if c.results == nil {
		return
	}

	result := ports.CalculationResult{
		OrderID:      c.orderID,
		Context:      c.calcContext,
		Success:      success,
		CalculatedAt: time.Now().UTC(),
	}
	if cause != nil {
		result.ErrorCode = string(domain.ErrorCodeOf(cause))
		result.Reason = cause.Error()
	}

	if err := c.results.Record(ctx, result); err != nil {
		logger.Get().Warn("failed to record calculation result",
			zap.String("order_id", c.orderID),
			zap.Error(err),
		)
	}
}
