package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
)

// ReceiptRepository is the persistence collaborator contract: create, read
// by id, read many with filter, update, delete, and aggregate stats over the
// Receipt shape.
type ReceiptRepository interface {
	Create(ctx context.Context, rec *entity.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	List(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.ReceiptPatch) (*entity.Receipt, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Stats(ctx context.Context) ([]entity.TypeStat, error)
}

type receiptRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReceiptRepository(db *sql.DB, logger *slog.Logger) ReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptRepository{db: db, logger: logger}
}

const receiptColumns = `id, merchant_name, receipt_date, receipt_number, invoice_type,
	items, subtotal, tax, total, currency, payment_method, confidence_score,
	error_message, image_uri, raw_text, created_at`

func (r *receiptRepository) Create(ctx context.Context, rec *entity.Receipt) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		nullStr(rec.MerchantName),
		nullStr(rec.ReceiptDate),
		nullStr(rec.ReceiptNumber),
		string(rec.InvoiceType),
		string(items),
		nullFloat(rec.Subtotal),
		nullFloat(rec.Tax),
		rec.Total,
		rec.Currency,
		nullStr(rec.PaymentMethod),
		rec.ConfidenceScore,
		nullStr(rec.ErrorMessage),
		rec.ImageURI,
		nullStr(rec.RawText),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("failed to insert receipt", "id", rec.ID, "error", err)
		return common.WrapError(err, "insert receipt")
	}
	return nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id.String())
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("RECEIPT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to load receipt", "id", id, "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *receiptRepository) List(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error) {
	var conds []string
	var args []any

	if filter.InvoiceType != nil {
		conds = append(conds, "invoice_type = ?")
		args = append(args, string(*filter.InvoiceType))
	}
	if filter.FromDate != nil {
		conds = append(conds, "receipt_date >= ?")
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conds = append(conds, "receipt_date <= ?")
		args = append(args, *filter.ToDate)
	}
	if m := strings.TrimSpace(filter.Merchant); m != "" {
		conds = append(conds, "merchant_name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+m+"%")
	}
	if filter.MinTotal != nil {
		conds = append(conds, "total >= ?")
		args = append(args, *filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		conds = append(conds, "total <= ?")
		args = append(args, *filter.MaxTotal)
	}

	q := `SELECT ` + receiptColumns + ` FROM receipts`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list receipts", "error", err)
		return nil, common.WrapError(err, "list receipts")
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *receiptRepository) Update(ctx context.Context, id uuid.UUID, patch entity.ReceiptPatch) (*entity.Receipt, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(rec, patch)

	items, err := json.Marshal(rec.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE receipts SET
			merchant_name = ?, receipt_date = ?, receipt_number = ?,
			invoice_type = ?, items = ?, subtotal = ?, tax = ?, total = ?,
			currency = ?, payment_method = ?, error_message = ?
		WHERE id = ?`,
		nullStr(rec.MerchantName),
		nullStr(rec.ReceiptDate),
		nullStr(rec.ReceiptNumber),
		string(rec.InvoiceType),
		string(items),
		nullFloat(rec.Subtotal),
		nullFloat(rec.Tax),
		rec.Total,
		rec.Currency,
		nullStr(rec.PaymentMethod),
		nullStr(rec.ErrorMessage),
		id.String(),
	)
	if err != nil {
		r.logger.Error("failed to update receipt", "id", id, "error", err)
		return nil, common.WrapError(err, "update receipt")
	}
	return rec, nil
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id.String())
	if err != nil {
		r.logger.Error("failed to delete receipt", "id", id, "error", err)
		return false, common.WrapError(err, "delete receipt")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *receiptRepository) Stats(ctx context.Context) ([]entity.TypeStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT invoice_type, currency, COUNT(*), COALESCE(SUM(total), 0)
		FROM receipts
		GROUP BY invoice_type, currency
		ORDER BY invoice_type, currency`)
	if err != nil {
		r.logger.Error("failed to aggregate stats", "error", err)
		return nil, common.WrapError(err, "receipt stats")
	}
	defer func() { _ = rows.Close() }()

	var out []entity.TypeStat
	for rows.Next() {
		var s entity.TypeStat
		var typ string
		if err := rows.Scan(&typ, &s.Currency, &s.Count, &s.TotalAmount); err != nil {
			return nil, err
		}
		s.InvoiceType, _ = constants.ParseInvoiceType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

// applyPatch overwrites only the fields the patch names. ID and CreatedAt
// are never touched.
func applyPatch(rec *entity.Receipt, p entity.ReceiptPatch) {
	if p.MerchantName != nil {
		rec.MerchantName = p.MerchantName
	}
	if p.ReceiptDate != nil {
		rec.ReceiptDate = p.ReceiptDate
	}
	if p.ReceiptNumber != nil {
		rec.ReceiptNumber = p.ReceiptNumber
	}
	if p.InvoiceType != nil {
		rec.InvoiceType = *p.InvoiceType
	}
	if p.Items != nil {
		rec.Items = *p.Items
	}
	if p.Subtotal != nil {
		rec.Subtotal = p.Subtotal
	}
	if p.Tax != nil {
		rec.Tax = p.Tax
	}
	if p.Total != nil {
		rec.Total = *p.Total
	}
	if p.Currency != nil {
		rec.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.PaymentMethod != nil {
		rec.PaymentMethod = p.PaymentMethod
	}
	if p.ErrorMessage != nil {
		rec.ErrorMessage = p.ErrorMessage
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec       entity.Receipt
		idStr     string
		merchant  sql.NullString
		date      sql.NullString
		number    sql.NullString
		typ       string
		itemsJSON string
		subtotal  sql.NullFloat64
		tax       sql.NullFloat64
		payment   sql.NullString
		errMsg    sql.NullString
		rawText   sql.NullString
		createdAt string
	)

	err := row.Scan(&idStr, &merchant, &date, &number, &typ, &itemsJSON,
		&subtotal, &tax, &rec.Total, &rec.Currency, &payment,
		&rec.ConfidenceScore, &errMsg, &rec.ImageURI, &rawText, &createdAt)
	if err != nil {
		return nil, err
	}

	rec.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse receipt id: %w", err)
	}
	rec.InvoiceType, _ = constants.ParseInvoiceType(typ)
	if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if rec.Items == nil {
		rec.Items = []entity.LineItem{}
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rec.MerchantName = fromNullStr(merchant)
	rec.ReceiptDate = fromNullStr(date)
	rec.ReceiptNumber = fromNullStr(number)
	rec.Subtotal = fromNullFloat(subtotal)
	rec.Tax = fromNullFloat(tax)
	rec.PaymentMethod = fromNullStr(payment)
	rec.ErrorMessage = fromNullStr(errMsg)
	rec.RawText = fromNullStr(rawText)
	return &rec, nil
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func fromNullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
