package adapters

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taxbridge/internal/core/config"
	"taxbridge/internal/core/httpclient"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"

	"github.com/shopspring/decimal"
)

// WooCommerceClient talks to the WooCommerce REST API. It fetches orders as
// mutable ports.Order values and looks up customer tax attributes.
type WooCommerceClient struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the WooCommerce connection details.
	config config.WooCommerceConfig
}

// NewWooCommerceClient creates a new instance of WooCommerceClient.
func NewWooCommerceClient(cfg config.WooCommerceConfig) *WooCommerceClient {
	return &WooCommerceClient{
		client: httpclient.NewClient(10 * time.Second),
		config: cfg,
	}
}

func (c *WooCommerceClient) authorize(req *http.Request) {
	authVal := make([]byte, 0, len(c.config.ConsumerKey)+len(c.config.ConsumerSecret)+1)
	authVal = fmt.Appendf(authVal, "%s:%s", c.config.ConsumerKey, c.config.ConsumerSecret)

	encoded := base64.StdEncoding.EncodeToString(authVal)
	req.Header.Add("Authorization", "Basic "+encoded)
}

func (c *WooCommerceClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.config.URL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("woocommerce API returned status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *WooCommerceClient) send(method, path string, payload interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.config.URL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("woocommerce API returned status: %d", resp.StatusCode)
	}
	return nil
}

// GetOrder fetches an order and wraps it as a mutable ports.Order.
func (c *WooCommerceClient) GetOrder(orderID string) (ports.Order, error) {
	var wcOrder wcOrder
	if err := c.get("/wp-json/wc/v3/orders/"+orderID, &wcOrder); err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", orderID, err)
	}
	return &WooCommerceOrder{client: c, raw: wcOrder}, nil
}

// IsVATExempt looks up the customer's VAT exemption flag.
func (c *WooCommerceClient) IsVATExempt(customerID int) (bool, error) {
	var customer wcCustomer
	path := "/wp-json/wc/v3/customers/" + strconv.Itoa(customerID)
	if err := c.get(path, &customer); err != nil {
		return false, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	return customer.metaValue("is_vat_exempt") == "yes", nil
}

// HealthCheck verifies that the WooCommerce API is reachable and credentials
// are valid.
func (c *WooCommerceClient) HealthCheck() error {
	var orders []wcOrder
	if err := c.get("/wp-json/wc/v3/orders?per_page=1", &orders); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// WooCommerceOrder adapts a fetched WooCommerce order to the Order port.
// Tax line mutations accumulate locally and every write PUTs the full
// tax_lines array, so removes and adds share one replacement contract.
type WooCommerceOrder struct {
	client   *WooCommerceClient
	raw      wcOrder
	taxLines []ports.TaxLine
}

var _ ports.Order = (*WooCommerceOrder)(nil)

// ID returns the order identifier.
func (o *WooCommerceOrder) ID() string {
	return strconv.Itoa(o.raw.ID)
}

// ShippingAddress returns the order's ship-to address.
func (o *WooCommerceOrder) ShippingAddress() domain.Address {
	return domain.Address{
		Country: o.raw.Shipping.Country,
		State:   o.raw.Shipping.State,
		Zip:     o.raw.Shipping.Postcode,
		City:    o.raw.Shipping.City,
		Street:  o.raw.Shipping.Address1,
	}
}

// ProductLines returns the product line items.
func (o *WooCommerceOrder) ProductLines() []ports.ProductLine {
	lines := make([]ports.ProductLine, 0, len(o.raw.LineItems))
	for _, item := range o.raw.LineItems {
		lines = append(lines, ports.ProductLine{
			Key:       strconv.Itoa(item.ID),
			ProductID: strconv.Itoa(item.ProductID),
			Quantity:  item.Quantity,
			TaxClass:  item.TaxClass,
			TaxStatus: item.TaxStatus,
			Subtotal:  decimal.Decimal(item.Subtotal),
			Total:     decimal.Decimal(item.Total),
		})
	}
	return lines
}

// FeeLines returns the fee line items.
func (o *WooCommerceOrder) FeeLines() []ports.FeeLine {
	fees := make([]ports.FeeLine, 0, len(o.raw.FeeLines))
	for _, fee := range o.raw.FeeLines {
		fees = append(fees, ports.FeeLine{
			Key:       strconv.Itoa(fee.ID),
			Name:      fee.Name,
			TaxClass:  fee.TaxClass,
			TaxStatus: fee.TaxStatus,
			Amount:    decimal.Decimal(fee.Total),
		})
	}
	return fees
}

// ShippingTotal returns the order's shipping charge.
func (o *WooCommerceOrder) ShippingTotal() decimal.Decimal {
	return decimal.Decimal(o.raw.ShippingTotal)
}

// CustomerID returns the order's customer id, 0 for guests.
func (o *WooCommerceOrder) CustomerID() int {
	return o.raw.CustomerID
}

// ExemptionType returns the order's exemption type metadata, empty when none.
func (o *WooCommerceOrder) ExemptionType() string {
	return o.raw.metaValue("exemption_type")
}

// IsVATExempt reports whether the order is flagged VAT exempt.
func (o *WooCommerceOrder) IsVATExempt() bool {
	return o.raw.metaValue("is_vat_exempt") == "yes"
}

// RemoveTaxLines deletes every existing tax line from the order.
func (o *WooCommerceOrder) RemoveTaxLines() error {
	o.taxLines = nil
	if err := o.writeTaxLines(); err != nil {
		return fmt.Errorf("failed to remove tax lines from order %s: %w", o.ID(), err)
	}
	return nil
}

// AddTaxLine attaches a new tax line referencing a jurisdiction rate record.
func (o *WooCommerceOrder) AddTaxLine(line ports.TaxLine) error {
	o.taxLines = append(o.taxLines, line)
	if err := o.writeTaxLines(); err != nil {
		o.taxLines = o.taxLines[:len(o.taxLines)-1]
		return fmt.Errorf("failed to add tax line to order %s: %w", o.ID(), err)
	}
	return nil
}

func (o *WooCommerceOrder) writeTaxLines() error {
	lines := make([]map[string]interface{}, 0, len(o.taxLines))
	for _, line := range o.taxLines {
		lines = append(lines, map[string]interface{}{
			"rate_id": line.RateID,
			"label":   line.Label,
		})
	}
	payload := map[string]interface{}{"tax_lines": lines}
	return o.client.send(http.MethodPut, "/wp-json/wc/v3/orders/"+o.ID(), payload)
}

// RecalculateTotals instructs the host to recompute aggregate totals from the
// order's line items.
func (o *WooCommerceOrder) RecalculateTotals() error {
	if err := o.client.send(http.MethodPost, "/wp-json/wc/v3/orders/"+o.ID()+"/recalculate", nil); err != nil {
		return fmt.Errorf("failed to recalculate order %s: %w", o.ID(), err)
	}
	return nil
}

// internal structs for mapping

// wcOrder represents the JSON structure of an order from WooCommerce API.
type wcOrder struct {
	ID            int          `json:"id"`
	CustomerID    int          `json:"customer_id"`
	Shipping      wcShipping   `json:"shipping"`
	LineItems     []wcLineItem `json:"line_items"`
	FeeLines      []wcFeeLine  `json:"fee_lines"`
	ShippingTotal wcMoney      `json:"shipping_total"`
	MetaData      []wcMetaData `json:"meta_data"`
}

func (o *wcOrder) metaValue(key string) string {
	for _, meta := range o.MetaData {
		if meta.Key == key {
			if val, ok := meta.Value.(string); ok {
				return val
			}
		}
	}
	return ""
}

// wcMetaData represents a key-value pair in WooCommerce metadata.
type wcMetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// wcShipping holds shipping address information.
type wcShipping struct {
	Address1 string `json:"address_1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// wcLineItem represents a product in the WooCommerce order.
type wcLineItem struct {
	ID        int     `json:"id"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	TaxClass  string  `json:"tax_class"`
	TaxStatus string  `json:"tax_status"`
	Subtotal  wcMoney `json:"subtotal"`
	Total     wcMoney `json:"total"`
}

// wcFeeLine represents a fee line item.
type wcFeeLine struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	TaxClass  string  `json:"tax_class"`
	TaxStatus string  `json:"tax_status"`
	Total     wcMoney `json:"total"`
}

// wcCustomer represents a customer record from the WooCommerce API.
type wcCustomer struct {
	ID       int          `json:"id"`
	MetaData []wcMetaData `json:"meta_data"`
}

func (c *wcCustomer) metaValue(key string) string {
	for _, meta := range c.MetaData {
		if meta.Key == key {
			if val, ok := meta.Value.(string); ok {
				return val
			}
		}
	}
	return ""
}

// wcMoney is a custom helper type to handle WooCommerce's string-encoded
// money values.
type wcMoney decimal.Decimal

// UnmarshalJSON parses amounts that arrive as either strings or numbers.
func (m *wcMoney) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*m = wcMoney(decimal.Zero)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money value %q: %w", s, err)
	}
	*m = wcMoney(d)
	return nil
}
