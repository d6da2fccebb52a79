package adapters

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"taxbridge/internal/core/config"
	"taxbridge/internal/core/httpclient"
	"taxbridge/internal/features/taxcalc/domain"
)

// HTTPTaxClient calls the remote tax-rate service. A single attempt per
// invocation; the orchestrator's fallback to host-native calculation is the
// safety net, so no retries happen here.
type HTTPTaxClient struct {
	client *http.Client
	config config.TaxServiceConfig
}

// NewHTTPTaxClient creates a tax client from the service configuration.
func NewHTTPTaxClient(cfg config.TaxServiceConfig) *HTTPTaxClient {
	return &HTTPTaxClient{
		client: httpclient.NewClient(time.Duration(cfg.TimeoutSeconds) * time.Second),
		config: cfg,
	}
}

// GetTaxes serializes the request body, performs the remote call and parses
// the response into tax details. Transport errors and non-200 statuses are
// classified as request_failed calculation errors carrying upstream detail.
func (c *HTTPTaxClient) GetTaxes(body *domain.RequestBody) (*domain.TaxDetails, error) {
	wire, err := body.ToWireBytes()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.config.URL+"/taxes", bytes.NewReader(wire))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", c.config.Token))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewCalculationError(domain.ErrCodeRequestFailed,
			fmt.Sprintf("tax calculation request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewCalculationError(domain.ErrCodeRequestFailed,
			fmt.Sprintf("tax calculation request failed with code: %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewCalculationError(domain.ErrCodeRequestFailed,
			fmt.Sprintf("tax calculation request failed: %v", err))
	}

	details, err := domain.NewTaxDetails(raw)
	if err != nil {
		return nil, err
	}
	details.SetLocation(body.ToAddress())

	return details, nil
}
