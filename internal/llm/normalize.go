package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/entity"
)

// NormalizeExtraction converts an arbitrary decoded JSON value into a
// well-formed ExtractionResult. It is total: every malformed input maps to
// a defined, safe output, and it never panics. Pure function of its input.
func NormalizeExtraction(v any) entity.ExtractionResult {
	res := entity.ExtractionResult{
		InvoiceType: constants.Unknown,
		Items:       []entity.LineItem{},
		Currency:    constants.DefaultCurrency,
	}

	m, ok := v.(map[string]any)
	if !ok {
		return res
	}

	res.MerchantName = optText(m["merchant_name"])
	res.ReceiptDate = canonicalDate(m["receipt_date"])
	res.ReceiptNumber = optText(m["receipt_number"])
	res.InvoiceType = normalizeInvoiceType(m["invoice_type"])
	res.Items = normalizeItems(m["items"])
	res.Subtotal = optNumber(m["subtotal"])
	res.Tax = optNumber(m["tax"])
	res.Total = optNumber(m["total"])
	res.Currency = normalizeCurrency(m["currency"])
	res.PaymentMethod = optText(m["payment_method"])
	res.ConfidenceScore = normalizeConfidence(m["confidence_score"])
	res.ErrorMessage = optText(m["error_message"])

	return res
}

func normalizeInvoiceType(v any) constants.InvoiceType {
	s, ok := v.(string)
	if !ok {
		return constants.Unknown
	}
	t, _ := constants.ParseInvoiceType(s)
	return t
}

func normalizeItems(v any) []entity.LineItem {
	raw, ok := v.([]any)
	if !ok {
		return []entity.LineItem{}
	}

	items := make([]entity.LineItem, 0, len(raw))
	for _, e := range raw {
		items = append(items, normalizeItem(e))
	}
	return items
}

func normalizeItem(v any) entity.LineItem {
	item := entity.LineItem{Name: constants.UnknownItemName}

	m, ok := v.(map[string]any)
	if !ok {
		return item
	}

	switch n := m["name"].(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(n); s != "" {
			item.Name = s
		}
	default:
		item.Name = strings.TrimSpace(fmt.Sprint(n))
		if item.Name == "" {
			item.Name = constants.UnknownItemName
		}
	}

	// Negative quantities are as meaningless as non-numeric ones; both
	// collapse to unknown rather than guessing.
	if q := optNumber(m["quantity"]); q != nil && *q >= 0 {
		item.Quantity = q
	}
	if p := optNumber(m["price"]); p != nil {
		item.Price = *p
	}
	return item
}

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

// canonicalDate rewrites any parseable date text to YYYY-MM-DD. Unparseable
// or absent input yields nil: the information is discarded, not guessed.
func canonicalDate(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format("2006-01-02")
			return &out
		}
	}
	return nil
}

func normalizeCurrency(v any) string {
	s, ok := v.(string)
	if !ok {
		return constants.DefaultCurrency
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return constants.DefaultCurrency
	}
	return s
}

// normalizeConfidence clamps into [0,1]. The model sometimes reports
// confidence on a 0-100 scale; values in (1,100] are read as percentages,
// anything above 100 is already invalid and clamps straight to 1.
func normalizeConfidence(v any) float64 {
	f, ok := asFloat(v)
	if !ok || f < 0 {
		return 0
	}
	if f > 100 {
		return 1
	}
	if f > 1 {
		return f / 100
	}
	return f
}

func optNumber(v any) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func optText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
