package llm

import (
	"context"

	"github.com/arifhossain/receiptscan/internal/entity"
)

// ReceiptExtractor is the interface the scan pipeline depends on.
// Implementations send an already-encoded image to a vision model and
// return the normalized extraction plus the raw reply content.
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, dataURL string) (entity.ExtractionResult, []byte /*rawJSON*/, error)
}
