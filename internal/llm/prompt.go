package llm

import (
	"strings"

	"github.com/arifhossain/receiptscan/constants"
)

// BuildExtractionPrompt composes the fixed instruction sent with every
// receipt image. The reply must be a single JSON object with no
// surrounding prose, so downstream parsing never has to guess.
func BuildExtractionPrompt() string {
	parts := []string{
		"You are a receipt parser. Analyze the attached receipt image and return ONLY a single JSON object, no surrounding prose and no markdown fences.",
		"Fields: merchant_name (string), receipt_date (string), receipt_number (string), invoice_type (string), items (array of {name, quantity, price}), subtotal (number), tax (number), total (number), currency (string), payment_method (string), confidence_score (number), error_message (string).",
		"invoice_type MUST be exactly one of: " + strings.Join(constants.InvoiceTypes(), ", ") + ". If uncertain, use 'unknown'.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Currency must be a 3-letter ISO 4217 code; default to " + constants.DefaultCurrency + " if uncertain.",
		"quantity and price must be plain numbers; omit quantity if not visible.",
		"confidence_score is a number between 0 and 1 reflecting how readable the receipt is.",
		"If the image is not a receipt or is unreadable, set error_message to a short explanation and leave the other fields out.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}
