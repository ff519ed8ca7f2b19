package llm

import "github.com/arifhossain/receiptscan/constants"

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is included in the prompt as a formatting constraint and
// used locally for an advisory strict validation pass before the lenient
// normalizer takes over.
func BuildReceiptJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "minLength": 1},
			"quantity": map[string]any{"type": "number", "minimum": 0.0},
			"price":    map[string]any{"type": "number"},
		},
		"required": []string{"name"},
	}

	props := map[string]any{
		"merchant_name":    map[string]any{"type": "string", "minLength": 1},
		"receipt_date":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"receipt_number":   map[string]any{"type": "string"},
		"invoice_type":     map[string]any{"type": "string", "enum": constants.InvoiceTypes()},
		"items":            map[string]any{"type": "array", "items": item},
		"subtotal":         map[string]any{"type": "number"},
		"tax":              map[string]any{"type": "number"},
		"total":            map[string]any{"type": "number"},
		"currency":         map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"payment_method":   map[string]any{"type": "string"},
		"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"error_message":    map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
