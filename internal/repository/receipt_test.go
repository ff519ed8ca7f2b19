package repository

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
)

func newTestRepo(t *testing.T) (ReceiptRepository, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(ctx, filepath.Join(t.TempDir(), "receipts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, logger) })
	return NewReceiptRepository(db, logger), db
}

func sampleReceipt(merchant string, typ constants.InvoiceType, date string, total float64) *entity.Receipt {
	qty := 1.0
	return &entity.Receipt{
		ID:           uuid.New(),
		MerchantName: &merchant,
		ReceiptDate:  &date,
		InvoiceType:  typ,
		Items: []entity.LineItem{
			{Name: "Item", Quantity: &qty, Price: total},
		},
		Total:           total,
		Currency:        "BDT",
		ConfidenceScore: 0.9,
		ImageURI:        "/images/" + merchant + ".jpg",
		CreatedAt:       time.Now().UTC(),
	}
}

func TestReceiptRepository_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := sampleReceipt("Agora", constants.Retail, "2025-02-01", 450)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Agora", *got.MerchantName)
	assert.Equal(t, constants.Retail, got.InvoiceType)
	assert.Equal(t, 450.0, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Item", got.Items[0].Name)
	require.NotNil(t, got.Items[0].Quantity)
	assert.Equal(t, 1.0, *got.Items[0].Quantity)
	assert.Nil(t, got.Subtotal)
	assert.Nil(t, got.ErrorMessage)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Second)
}

func TestReceiptRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestReceiptRepository_ListFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleReceipt("Agora", constants.Retail, "2025-01-10", 100)))
	require.NoError(t, repo.Create(ctx, sampleReceipt("Kacchi Bhai", constants.Restaurant, "2025-01-20", 850)))
	require.NoError(t, repo.Create(ctx, sampleReceipt("DESCO", constants.Utility, "2025-02-05", 1200)))

	t.Run("no filter returns all", func(t *testing.T) {
		recs, err := repo.List(ctx, entity.ReceiptFilter{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("by invoice type", func(t *testing.T) {
		typ := constants.Restaurant
		recs, err := repo.List(ctx, entity.ReceiptFilter{InvoiceType: &typ})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Kacchi Bhai", *recs[0].MerchantName)
	})

	t.Run("by date range", func(t *testing.T) {
		from, to := "2025-01-15", "2025-01-31"
		recs, err := repo.List(ctx, entity.ReceiptFilter{FromDate: &from, ToDate: &to})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Kacchi Bhai", *recs[0].MerchantName)
	})

	t.Run("by merchant substring case-insensitive", func(t *testing.T) {
		recs, err := repo.List(ctx, entity.ReceiptFilter{Merchant: "desco"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "DESCO", *recs[0].MerchantName)
	})

	t.Run("by total range", func(t *testing.T) {
		min, max := 500.0, 1000.0
		recs, err := repo.List(ctx, entity.ReceiptFilter{MinTotal: &min, MaxTotal: &max})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 850.0, recs[0].Total)
	})
}

func TestReceiptRepository_Update(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := sampleReceipt("Agora", constants.Retail, "2025-02-01", 450)
	require.NoError(t, repo.Create(ctx, rec))

	merchant := "Agora Super Shop"
	total := 475.0
	typ := constants.Restaurant
	got, err := repo.Update(ctx, rec.ID, entity.ReceiptPatch{
		MerchantName: &merchant,
		Total:        &total,
		InvoiceType:  &typ,
	})
	require.NoError(t, err)

	// Patched fields replaced, identity preserved, the rest untouched.
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Agora Super Shop", *got.MerchantName)
	assert.Equal(t, 475.0, got.Total)
	assert.Equal(t, constants.Restaurant, got.InvoiceType)
	assert.Equal(t, "2025-02-01", *got.ReceiptDate)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Second)

	reloaded, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agora Super Shop", *reloaded.MerchantName)
}

func TestReceiptRepository_UpdateMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Update(context.Background(), uuid.New(), entity.ReceiptPatch{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestReceiptRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := sampleReceipt("Agora", constants.Retail, "2025-02-01", 450)
	require.NoError(t, repo.Create(ctx, rec))

	ok, err := repo.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByID(ctx, rec.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestReceiptRepository_Stats(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleReceipt("Agora", constants.Retail, "2025-01-10", 100)))
	require.NoError(t, repo.Create(ctx, sampleReceipt("Shwapno", constants.Retail, "2025-01-12", 200)))
	require.NoError(t, repo.Create(ctx, sampleReceipt("DESCO", constants.Utility, "2025-02-05", 1200)))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byType := map[constants.InvoiceType]entity.TypeStat{}
	for _, s := range stats {
		byType[s.InvoiceType] = s
	}
	assert.Equal(t, 2, byType[constants.Retail].Count)
	assert.Equal(t, 300.0, byType[constants.Retail].TotalAmount)
	assert.Equal(t, "BDT", byType[constants.Retail].Currency)
	assert.Equal(t, 1, byType[constants.Utility].Count)
	assert.Equal(t, 1200.0, byType[constants.Utility].TotalAmount)
}

func TestReceiptRepository_FailedScanRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	// A failed scan is still persisted: nullable fields empty, total zero.
	msg := "extraction failed after 3 attempt(s): connection refused"
	rec := &entity.Receipt{
		ID:           uuid.New(),
		InvoiceType:  constants.Unknown,
		Items:        []entity.LineItem{},
		Total:        0,
		Currency:     "BDT",
		ErrorMessage: &msg,
		ImageURI:     "/images/blurry.jpg",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MerchantName)
	assert.Equal(t, 0.0, got.Total)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "3 attempt(s)")
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}
