package domain

import "errors"

// ErrorCode identifies a specific calculation failure cause.
type ErrorCode string

const (
	// ErrCodeMissingCountry indicates the destination country is absent.
	ErrCodeMissingCountry ErrorCode = "missing_required_field_country"
	// ErrCodeMissingZip indicates the destination zip code is absent.
	ErrCodeMissingZip ErrorCode = "missing_required_field_zip"
	// ErrCodeMissingLineItemsOrShipping indicates the request carries neither
	// line items nor a shipping amount.
	ErrCodeMissingLineItemsOrShipping ErrorCode = "missing_required_field_line_item_or_shipping"
	// ErrCodeInvalidZip indicates the zip code does not match the destination
	// country's expected format.
	ErrCodeInvalidZip ErrorCode = "invalid_field_zip"
	// ErrCodeVATExempt indicates the order or customer is VAT exempt.
	ErrCodeVATExempt ErrorCode = "is_vat_exempt"
	// ErrCodeNoNexus indicates the destination has no registered nexus.
	ErrCodeNoNexus ErrorCode = "no_nexus"
	// ErrCodeRequestFailed indicates the remote tax service call failed.
	ErrCodeRequestFailed ErrorCode = "request_failed"
)

// CalculationError is a coded, expected calculation failure. It marks the
// fallback path: the host platform's own tax calculation stays in effect.
// Anything that is not a CalculationError is treated as unexpected.
type CalculationError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *CalculationError) Error() string {
	return e.Message
}

// NewCalculationError creates a coded calculation failure.
func NewCalculationError(code ErrorCode, message string) *CalculationError {
	return &CalculationError{Code: code, Message: message}
}

// IsCalculationError reports whether err is (or wraps) a CalculationError.
func IsCalculationError(err error) bool {
	var ce *CalculationError
	return errors.As(err, &ce)
}

// ErrorCodeOf extracts the code from a calculation error, or "" for
// unclassified errors.
func ErrorCodeOf(err error) ErrorCode {
	var ce *CalculationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
