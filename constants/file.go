package constants

import "strings"

// Image eligibility and payload ceilings. Values are checked before any
// model request is attempted.
const (
	// MaxImageBytes is the largest image file accepted for scanning.
	MaxImageBytes = 20 * 1024 * 1024

	// MaxImagePixels caps image resolution (7680x4320). An image exactly at
	// the limit is still eligible.
	MaxImagePixels = 33_177_600

	// MaxPayloadBytes caps the base64 data URL sent to the vision model.
	MaxPayloadBytes = 4 * 1024 * 1024
)

// Extraction defaults.
const (
	// ExtractionMaxTokens bounds the model reply size.
	ExtractionMaxTokens = 2048

	// DefaultCurrency is assumed when the model omits or garbles the
	// currency field.
	DefaultCurrency = "BDT"

	// UnknownItemName replaces blank or missing line item names.
	UnknownItemName = "Unknown Item"
)

// AllowedExtensions holds the accepted image extensions for scanning.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
