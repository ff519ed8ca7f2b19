package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format selector.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatXLSX:
		return Format(s), nil
	default:
		return "", common.NewAppError("INVALID_FORMAT",
			fmt.Sprintf("unknown export format %q (want json, csv or xlsx)", s),
			common.ErrInvalidInput)
	}
}

// Service renders saved receipts into exportable files.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Export renders receipts in the requested format. For CSV, includeItems
// selects one row per line item instead of one row per receipt.
func (s *Service) Export(recs []*entity.Receipt, format Format, includeItems bool) ([]byte, error) {
	start := time.Now()

	var (
		out []byte
		err error
	)
	switch format {
	case FormatJSON:
		out, err = s.exportJSON(recs)
	case FormatCSV:
		out, err = s.exportCSV(recs, includeItems)
	case FormatXLSX:
		out, err = s.exportXLSX(recs)
	default:
		return nil, common.NewAppError("INVALID_FORMAT", string(format), common.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.ok",
		"format", string(format),
		"receipts", len(recs),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// jsonEnvelope wraps all exported records with the export timestamp and the
// aggregate total.
type jsonEnvelope struct {
	ExportedAt  time.Time         `json:"exported_at"`
	Count       int               `json:"count"`
	TotalAmount float64           `json:"total_amount"`
	Receipts    []*entity.Receipt `json:"receipts"`
}

func (s *Service) exportJSON(recs []*entity.Receipt) ([]byte, error) {
	env := jsonEnvelope{
		ExportedAt: time.Now().UTC(),
		Count:      len(recs),
		Receipts:   recs,
	}
	for _, r := range recs {
		env.TotalAmount += r.Total
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return b, nil
}

var csvHeader = []string{
	"id", "merchant_name", "receipt_date", "receipt_number", "invoice_type",
	"item_name", "item_quantity", "item_price",
	"subtotal", "tax", "total", "currency", "payment_method", "created_at",
}

func (s *Service) exportCSV(recs []*entity.Receipt, includeItems bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range recs {
		base := []string{
			r.ID.String(),
			deref(r.MerchantName),
			deref(r.ReceiptDate),
			deref(r.ReceiptNumber),
			string(r.InvoiceType),
		}
		money := []string{
			floatStr(r.Subtotal),
			floatStr(r.Tax),
			strconv.FormatFloat(r.Total, 'f', 2, 64),
			r.Currency,
			deref(r.PaymentMethod),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}

		if !includeItems || len(r.Items) == 0 {
			row := append(append(base, "", "", ""), money...)
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
			continue
		}

		// One row per line item; receipt-level fields appear only on the
		// receipt's first row.
		blankBase := make([]string, len(base))
		blankMoney := make([]string, len(money))
		for i, item := range r.Items {
			b, m := base, money
			if i > 0 {
				b, m = blankBase, blankMoney
			}
			row := append(append(append([]string{}, b...),
				item.Name, floatStr(item.Quantity), strconv.FormatFloat(item.Price, 'f', 2, 64)),
				m...)
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) exportXLSX(recs []*entity.Receipt) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date", "Merchant", "Type", "Items", "Subtotal", "Tax", "Total",
		"Currency", "Payment Method", "Image",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, deref(r.ReceiptDate))
		write(2, deref(r.MerchantName))
		write(3, string(r.InvoiceType))
		write(4, len(r.Items))
		if r.Subtotal != nil {
			write(5, *r.Subtotal)
		}
		if r.Tax != nil {
			write(6, *r.Tax)
		}
		write(7, r.Total)
		write(8, r.Currency)
		write(9, deref(r.PaymentMethod))
		write(10, r.ImageURI)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // merchant
	_ = f.SetColWidth(sheet, "G", "G", 12) // total
	_ = f.SetColWidth(sheet, "J", "J", 48) // image path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatStr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
