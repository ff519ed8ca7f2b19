package constants

import (
	"strings"
)

// InvoiceType is the canonical receipt classification.
type InvoiceType string

const (
	Retail     InvoiceType = "retail"
	Restaurant InvoiceType = "restaurant"
	Utility    InvoiceType = "utility"
	Service    InvoiceType = "service"
	Unknown    InvoiceType = "unknown"
)

var allInvoiceTypes = []InvoiceType{
	Retail,
	Restaurant,
	Utility,
	Service,
	Unknown,
}

func InvoiceTypes() []string {
	result := make([]string, len(allInvoiceTypes))
	for i, t := range allInvoiceTypes {
		result[i] = string(t)
	}
	return result
}

// ParseInvoiceType maps untrusted text onto the closed enum.
// Anything outside the set (including empty input) collapses to Unknown.
func ParseInvoiceType(input string) (InvoiceType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unknown, false
	}

	for _, t := range allInvoiceTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return Unknown, false
}
