package ports

import (
	"context"
	"time"

	"taxbridge/internal/features/taxcalc/domain"

	"github.com/shopspring/decimal"
)

// ProductLine is a product line item read from the host order.
type ProductLine struct {
	// Key is the host's position key for the line, unique within the order.
	Key string
	// ProductID identifies the purchased product.
	ProductID string
	Quantity  int
	// TaxClass is the host tax class of the product (empty for standard).
	TaxClass string
	// TaxStatus is "taxable" for taxable items.
	TaxStatus string
	// Subtotal is the line price before coupon application.
	Subtotal decimal.Decimal
	// Total is the line price after coupon application.
	Total decimal.Decimal
}

// FeeLine is a fee line item read from the host order.
type FeeLine struct {
	Key       string
	Name      string
	TaxClass  string
	TaxStatus string
	Amount    decimal.Decimal
}

// TaxLine is a tax line item written back onto the host order, referencing a
// jurisdiction rate record by id.
type TaxLine struct {
	RateID string
	Label  string
}

// Order is the host platform's order object. Reads feed the request body
// factory; writes commit calculated tax back. This is a Secondary Port
// (Driven Port).
type Order interface {
	ID() string
	ShippingAddress() domain.Address
	ProductLines() []ProductLine
	FeeLines() []FeeLine
	ShippingTotal() decimal.Decimal
	CustomerID() int
	ExemptionType() string
	IsVATExempt() bool

	RemoveTaxLines() error
	AddTaxLine(line TaxLine) error
	RecalculateTotals() error
}

// OrderSource fetches host orders by id.
type OrderSource interface {
	GetOrder(orderID string) (Order, error)
}

// CustomerDirectory looks up customer-level tax attributes on the host.
type CustomerDirectory interface {
	IsVATExempt(customerID int) (bool, error)
}

// RateKey is the composite jurisdiction tuple a rate record is keyed by.
// Upserts for the same tuple must converge on a single record.
type RateKey struct {
	Country  string
	State    string
	Zip      string
	City     string
	TaxClass string
}

// Rate is the content of a jurisdiction rate record. Percent follows the
// host's percentage convention (fractional service rate times 100).
type Rate struct {
	Percent         decimal.Decimal
	Name            string
	ShippingTaxable bool
}

// RateStore upserts jurisdiction rate records on the host's rate table and
// returns the opaque rate identifier.
type RateStore interface {
	Upsert(key RateKey, rate Rate) (string, error)
}

// NexusChecker reports whether the seller has a tax-collection obligation in
// a destination jurisdiction.
type NexusChecker interface {
	HasNexus(country, state string) (bool, error)
}

// TaxCodeResolver maps a host tax class to the rate service's classification
// code.
type TaxCodeResolver interface {
	TaxCodeForClass(taxClass string) string
}

// RequestBodyFactory assembles a fully-populated request body from its
// calculation context.
type RequestBodyFactory interface {
	Create() (*domain.RequestBody, error)
}

// Validator enforces preconditions before a remote call is attempted.
type Validator interface {
	Validate(body *domain.RequestBody) error
}

// Applicator commits a tax result back onto the order. Both operations must
// be safe to call repeatedly.
type Applicator interface {
	ApplyTax(details *domain.TaxDetails) error
	ApplyTaxAndRecalculate(details *domain.TaxDetails) error
}

// CalculationDetails carries the pipeline state available when an outcome is
// reported.
type CalculationDetails struct {
	Err         error
	Context     string
	RequestBody *domain.RequestBody
	TaxDetails  *domain.TaxDetails
}

// CalculationLogger records structured success/failure entries for one
// calculation context.
type CalculationLogger interface {
	LogSuccess(details CalculationDetails)
	LogFailure(details CalculationDetails)
}

// TaxClient performs a single-shot remote calculation. Failures are
// classified as domain.CalculationError with code request_failed.
type TaxClient interface {
	GetTaxes(body *domain.RequestBody) (*domain.TaxDetails, error)
}

// TokenValidator checks the security token authorizing an admin-triggered
// partial recalculation action.
type TokenValidator interface {
	Validate(action, token string) bool
}

// CalculationResult is the persisted outcome of one pipeline run.
type CalculationResult struct {
	OrderID      string    `json:"order_id"`
	Context      string    `json:"context"`
	Success      bool      `json:"success"`
	ErrorCode    string    `json:"error_code,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// ResultStore persists the latest calculation outcome per order so the
// status surface can report it.
type ResultStore interface {
	Record(ctx context.Context, result CalculationResult) error
	Latest(ctx context.Context, orderID string) (*CalculationResult, error)
}
