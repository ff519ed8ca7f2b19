package receipts

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
	"github.com/arifhossain/receiptscan/internal/ingest"
	"github.com/arifhossain/receiptscan/internal/llm"
	"github.com/arifhossain/receiptscan/internal/pipeline"
	"github.com/arifhossain/receiptscan/internal/repository"
)

// Assemble merges a normalized extraction with capture metadata into the
// persisted Receipt. This is the only point where an identifier and creation
// timestamp are minted; both are immutable afterward. Total is promoted to
// mandatory here: a nil extraction total becomes 0.
func Assemble(res entity.ExtractionResult, imageURI string, now time.Time) entity.Receipt {
	total := 0.0
	if res.Total != nil {
		total = *res.Total
	}
	items := res.Items
	if items == nil {
		items = []entity.LineItem{}
	}
	return entity.Receipt{
		ID:              uuid.New(),
		MerchantName:    res.MerchantName,
		ReceiptDate:     res.ReceiptDate,
		ReceiptNumber:   res.ReceiptNumber,
		InvoiceType:     res.InvoiceType,
		Items:           items,
		Subtotal:        res.Subtotal,
		Tax:             res.Tax,
		Total:           total,
		Currency:        res.Currency,
		PaymentMethod:   res.PaymentMethod,
		ConfidenceScore: res.ConfidenceScore,
		ErrorMessage:    res.ErrorMessage,
		ImageURI:        imageURI,
		CreatedAt:       now,
	}
}

// Service handles receipt business logic: scanning an image end to end and
// CRUD over saved receipts.
type Service struct {
	receiptRepo repository.ReceiptRepository
	processor   *pipeline.Processor
	limits      ingest.Limits
	logger      *slog.Logger
}

// NewService creates a new receipt service.
func NewService(receiptRepo repository.ReceiptRepository, processor *pipeline.Processor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		receiptRepo: receiptRepo,
		processor:   processor,
		limits:      ingest.DefaultLimits(),
		logger:      logger,
	}
}

// Scan runs the full capture-and-process flow for one image: eligibility
// probe, payload encoding, retried extraction, assembly, persistence.
// Eligibility and payload errors are returned directly and never enter the
// retry loop. Once the retry loop has run, a receipt is always persisted:
// even a failed scan is saved, flagged via ErrorMessage, so the captured
// image is not lost.
func (s *Service) Scan(ctx context.Context, imagePath string) (*entity.Receipt, error) {
	start := time.Now()

	if err := ingest.CheckImage(imagePath, s.limits); err != nil {
		s.logger.Warn("scan.rejected", "image", imagePath, "error", err)
		return nil, err
	}

	dataURL, err := llm.ReadImageDataURL(imagePath)
	if err != nil {
		return nil, common.NewAppError("IMAGE_ENCODE_FAILED", imagePath, common.ErrValidation)
	}
	if len(dataURL) > constants.MaxPayloadBytes {
		return nil, common.NewAppError("PAYLOAD_TOO_LARGE", imagePath, common.ErrPayloadTooLarge)
	}

	res, raw := s.processor.Run(ctx, dataURL)

	rec := Assemble(res, imagePath, time.Now().UTC())
	if len(raw) > 0 {
		rawText := string(raw)
		rec.RawText = &rawText
	}

	if err := s.receiptRepo.Create(ctx, &rec); err != nil {
		s.logger.Error("scan.save_failed", "image", imagePath, "error", err)
		return nil, err
	}

	s.logger.Info("scan.saved",
		"receipt_id", rec.ID,
		"invoice_type", string(rec.InvoiceType),
		"total", rec.Total,
		"failed", rec.ErrorMessage != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &rec, nil
}

// Get returns a saved receipt by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return s.receiptRepo.GetByID(ctx, id)
}

// List returns saved receipts matching the filter.
func (s *Service) List(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error) {
	return s.receiptRepo.List(ctx, filter)
}

// Edit applies a partial update. Any subset of fields may be replaced; ID
// and CreatedAt are always preserved.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, patch entity.ReceiptPatch) (*entity.Receipt, error) {
	v := common.NewValidator()
	if patch.Currency != nil {
		v.Field("currency", *patch.Currency, common.CurrencyCode)
	}
	if patch.InvoiceType != nil {
		if _, ok := constants.ParseInvoiceType(string(*patch.InvoiceType)); !ok {
			return nil, common.NewAppError("INVALID_INVOICE_TYPE", string(*patch.InvoiceType), common.ErrInvalidInput)
		}
	}
	if v.HasErrors() {
		return nil, common.NewAppError("INVALID_PATCH", v.Error().Error(), common.ErrInvalidInput)
	}

	rec, err := s.receiptRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt.edited", "receipt_id", id)
	return rec, nil
}

// Delete removes a receipt; the bool reports whether one existed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.receiptRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.logger.Info("receipt.deleted", "receipt_id", id, "existed", ok)
	return ok, nil
}

// Stats returns aggregate counts and sums grouped by type and currency.
func (s *Service) Stats(ctx context.Context) ([]entity.TypeStat, error) {
	return s.receiptRepo.Stats(ctx)
}
