package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taxbridge/internal/features/taxcalc/ports"
)

// WooCommerceRateStore persists jurisdiction tax rates as WooCommerce tax
// rate records. Upsert is idempotent: an existing record for the same
// jurisdiction and tax class is updated in place instead of duplicated.
type WooCommerceRateStore struct {
	client *WooCommerceClient
}

// NewWooCommerceRateStore creates a new instance of WooCommerceRateStore.
func NewWooCommerceRateStore(client *WooCommerceClient) *WooCommerceRateStore {
	return &WooCommerceRateStore{client: client}
}

var _ ports.RateStore = (*WooCommerceRateStore)(nil)

// wcTaxRate represents a tax rate record in the WooCommerce API.
type wcTaxRate struct {
	ID       int    `json:"id,omitempty"`
	Country  string `json:"country"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Rate     string `json:"rate"`
	Name     string `json:"name"`
	Shipping bool   `json:"shipping"`
	Class    string `json:"class,omitempty"`
}

// Upsert stores the rate under the jurisdiction key and returns the id of
// the created or updated record.
func (s *WooCommerceRateStore) Upsert(key ports.RateKey, rate ports.Rate) (string, error) {
	existing, err := s.findExisting(key)
	if err != nil {
		return "", err
	}

	record := wcTaxRate{
		Country:  key.Country,
		State:    strings.ToUpper(key.State),
		Postcode: key.Zip,
		City:     key.City,
		Rate:     rate.Percent.StringFixed(4),
		Name:     rate.Name,
		Shipping: rate.ShippingTaxable,
		Class:    key.TaxClass,
	}

	if existing != nil {
		path := "/wp-json/wc/v3/taxes/" + strconv.Itoa(existing.ID)
		updated, err := s.submit(http.MethodPut, path, record)
		if err != nil {
			return "", fmt.Errorf("failed to update tax rate %d: %w", existing.ID, err)
		}
		return strconv.Itoa(updated.ID), nil
	}

	created, err := s.submit(http.MethodPost, "/wp-json/wc/v3/taxes", record)
	if err != nil {
		return "", fmt.Errorf("failed to create tax rate: %w", err)
	}
	return strconv.Itoa(created.ID), nil
}

func (s *WooCommerceRateStore) findExisting(key ports.RateKey) (*wcTaxRate, error) {
	query := url.Values{}
	query.Set("class", key.TaxClass)
	query.Set("per_page", "100")

	var rates []wcTaxRate
	if err := s.client.get("/wp-json/wc/v3/taxes?"+query.Encode(), &rates); err != nil {
		return nil, fmt.Errorf("failed to list tax rates: %w", err)
	}

	for i, candidate := range rates {
		if strings.EqualFold(candidate.Country, key.Country) &&
			strings.EqualFold(candidate.State, key.State) &&
			candidate.Postcode == key.Zip &&
			strings.EqualFold(candidate.City, key.City) {
			return &rates[i], nil
		}
	}
	return nil, nil
}

func (s *WooCommerceRateStore) submit(method, path string, record wcTaxRate) (*wcTaxRate, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tax rate: %w", err)
	}

	req, err := http.NewRequest(method, s.client.config.URL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.client.authorize(req)

	resp, err := s.client.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("woocommerce API returned status: %d", resp.StatusCode)
	}

	var saved wcTaxRate
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &saved, nil
}
