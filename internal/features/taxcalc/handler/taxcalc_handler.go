package handler

import (
	"errors"
	"net/http"

	"taxbridge/internal/core/cache"
	"taxbridge/internal/core/logger"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"
	"taxbridge/internal/features/taxcalc/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TaxCalcHandler handles HTTP requests that trigger or inspect tax
// calculations.
type TaxCalcHandler struct {
	// builder assembles a calculator per trigger.
	builder *service.CalculatorBuilder
	// results answers status queries.
	results ports.ResultStore
}

// NewTaxCalcHandler creates a new instance of TaxCalcHandler.
func NewTaxCalcHandler(b *service.CalculatorBuilder, results ports.ResultStore) *TaxCalcHandler {
	return &TaxCalcHandler{
		builder: b,
		results: results,
	}
}

// calculateRequest is the trigger payload.
type calculateRequest struct {
	// Context names the triggering surface: order, api_order or admin_order.
	Context string `json:"context"`
	// Action and Token authorize admin_order triggers.
	Action string `json:"action,omitempty"`
	Token  string `json:"token,omitempty"`
	// Destination overrides the order's shipping address for unsaved admin
	// form edits.
	Destination *destinationPayload `json:"destination,omitempty"`
}

type destinationPayload struct {
	Country string `json:"country"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Street  string `json:"street"`
}

// calculateResponse reports the outcome of one trigger.
type calculateResponse struct {
	Applied bool `json:"applied"`
	Skipped bool `json:"skipped,omitempty"`
	// ErrorCode classifies an expected failure; the host's own tax stays in
	// effect.
	ErrorCode string `json:"error_code,omitempty"`
	Reason    string `json:"reason,omitempty"`
	// Rate is the aggregate tax rate when tax was applied.
	Rate            string `json:"rate,omitempty"`
	HasNexus        bool   `json:"has_nexus,omitempty"`
	ShippingTaxable bool   `json:"shipping_taxable,omitempty"`
}

// Calculate handles the request to run the tax pipeline for an order.
func (h *TaxCalcHandler) Calculate(c *fiber.Ctx) error {
	orderID := c.Params("id")

	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	if orderID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Order ID is required",
			RayID:   rayID,
		})
	}

	var req calculateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID,
		})
	}
	if req.Context == "" {
		req.Context = service.ContextOrder
	}

	build := service.BuildRequest{
		OrderID: orderID,
		Context: req.Context,
		Action:  req.Action,
		Token:   req.Token,
	}
	if req.Destination != nil {
		build.Destination = &domain.Address{
			Country: req.Destination.Country,
			State:   req.Destination.State,
			Zip:     req.Destination.Zip,
			City:    req.Destination.City,
			Street:  req.Destination.Street,
		}
	}

	calc, err := h.builder.Build(build)
	if err != nil {
		if errors.Is(err, service.ErrSkipCalculation) {
			return c.Status(http.StatusOK).JSON(calculateResponse{
				Skipped: true,
				Reason:  err.Error(),
			})
		}

		logger.Get().Error("Failed to build tax calculator",
			zap.String("order_id", orderID),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	details, err := calc.Calculate(c.Context())
	if err != nil {
		// Coded failures mean the host keeps its own tax tables. Anything
		// else is a real server-side problem.
		if domain.IsCalculationError(err) {
			return c.Status(http.StatusOK).JSON(calculateResponse{
				ErrorCode: string(domain.ErrorCodeOf(err)),
				Reason:    err.Error(),
			})
		}

		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: "Internal Server Error",
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(calculateResponse{
		Applied:         true,
		Rate:            details.Rate().String(),
		HasNexus:        details.HasNexus(),
		ShippingTaxable: details.IsShippingTaxable(),
	})
}

// LatestResult handles the request to fetch the most recent calculation
// outcome for an order.
func (h *TaxCalcHandler) LatestResult(c *fiber.Ctx) error {
	orderID := c.Params("id")

	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	if orderID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Order ID is required",
			RayID:   rayID,
		})
	}

	result, err := h.results.Latest(c.Context(), orderID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Message: "No calculation recorded for order",
				RayID:   rayID,
			})
		}

		logger.Get().Error("Failed to read calculation result",
			zap.String("order_id", orderID),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: "Internal Server Error",
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(result)
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}
