package adapters

import (
	"strings"

	"taxbridge/internal/features/taxcalc/ports"
)

// StaticTaxCodeResolver maps host tax class slugs to product tax codes.
// Unknown classes resolve to the empty code, which the tax service treats
// as fully taxable general merchandise.
type StaticTaxCodeResolver struct {
	codes map[string]string
}

// NewStaticTaxCodeResolver creates a resolver seeded with the given
// class-to-code mapping. Keys are matched case-insensitively.
func NewStaticTaxCodeResolver(codes map[string]string) *StaticTaxCodeResolver {
	normalized := make(map[string]string, len(codes))
	for class, code := range codes {
		normalized[strings.ToLower(strings.TrimSpace(class))] = code
	}
	return &StaticTaxCodeResolver{codes: normalized}
}

var _ ports.TaxCodeResolver = (*StaticTaxCodeResolver)(nil)

// TaxCodeForClass returns the tax code registered for the class, or the
// empty string when none is mapped.
func (r *StaticTaxCodeResolver) TaxCodeForClass(taxClass string) string {
	return r.codes[strings.ToLower(strings.TrimSpace(taxClass))]
}
