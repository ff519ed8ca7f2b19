package receipts

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
	"github.com/arifhossain/receiptscan/internal/pipeline"
)

// fakeRepo records created receipts in memory.
type fakeRepo struct {
	created   []*entity.Receipt
	createErr error
}

func (f *fakeRepo) Create(_ context.Context, rec *entity.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Receipt, error) {
	for _, rec := range f.created {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, common.NewAppError("RECEIPT_NOT_FOUND", id.String(), common.ErrNotFound)
}

func (f *fakeRepo) List(_ context.Context, _ entity.ReceiptFilter) ([]*entity.Receipt, error) {
	return f.created, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, _ entity.ReceiptPatch) (*entity.Receipt, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID) (bool, error) { return false, nil }

func (f *fakeRepo) Stats(_ context.Context) ([]entity.TypeStat, error) { return nil, nil }

type stubExtractor struct {
	res entity.ExtractionResult
	raw []byte
	err error
}

func (s *stubExtractor) ExtractReceipt(_ context.Context, _ string) (entity.ExtractionResult, []byte, error) {
	return s.res, s.raw, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "receipt.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 20, 20))))
	return path
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestService(repo *fakeRepo, ext *stubExtractor) *Service {
	p := pipeline.NewProcessor(quietLogger(), pipeline.Config{MaxAttempts: 2, Sleep: noSleep}, ext)
	return NewService(repo, p, quietLogger())
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	merchant := "Agora"
	total := 450.0
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	rec := Assemble(entity.ExtractionResult{
		MerchantName:    &merchant,
		InvoiceType:     constants.Retail,
		Items:           []entity.LineItem{{Name: "Rice", Price: 450}},
		Total:           &total,
		Currency:        "BDT",
		ConfidenceScore: 0.9,
	}, "/images/r.png", now)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, "/images/r.png", rec.ImageURI)
	assert.Equal(t, "Agora", *rec.MerchantName)
	assert.Equal(t, 450.0, rec.Total)
	require.Len(t, rec.Items, 1)
}

func TestAssemble_NilTotalBecomesZero(t *testing.T) {
	t.Parallel()

	rec := Assemble(entity.ExtractionResult{InvoiceType: constants.Unknown, Currency: "BDT"}, "x", time.Now())
	assert.Equal(t, 0.0, rec.Total)
	assert.NotNil(t, rec.Items)
	assert.Empty(t, rec.Items)
}

func TestAssemble_MintsDistinctIDs(t *testing.T) {
	t.Parallel()

	a := Assemble(entity.ExtractionResult{}, "x", time.Now())
	b := Assemble(entity.ExtractionResult{}, "x", time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestService_Scan(t *testing.T) {
	t.Parallel()

	path := writePNG(t, t.TempDir())
	total := 99.5
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubExtractor{
		res: entity.ExtractionResult{
			InvoiceType: constants.Retail,
			Items:       []entity.LineItem{},
			Total:       &total,
			Currency:    "BDT",
		},
		raw: []byte(`{"total": 99.5}`),
	})

	rec, err := svc.Scan(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, rec, repo.created[0])
	assert.Equal(t, 99.5, rec.Total)
	assert.Equal(t, path, rec.ImageURI)
	require.NotNil(t, rec.RawText)
	assert.Equal(t, `{"total": 99.5}`, *rec.RawText)
	assert.Nil(t, rec.ErrorMessage)
}

func TestService_ScanRejectsMissingImage(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &stubExtractor{})

	_, err := svc.Scan(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	// Rejected before extraction: nothing persisted.
	assert.Empty(t, repo.created)
}

func TestService_ScanPersistsFailure(t *testing.T) {
	t.Parallel()

	path := writePNG(t, t.TempDir())
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubExtractor{err: errors.New("status 500")})

	rec, err := svc.Scan(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "status 500")
	assert.Equal(t, 0.0, rec.Total)
}

func TestService_ScanSaveError(t *testing.T) {
	t.Parallel()

	path := writePNG(t, t.TempDir())
	total := 10.0
	repo := &fakeRepo{createErr: errors.New("disk full")}
	svc := newTestService(repo, &stubExtractor{res: entity.ExtractionResult{Total: &total, Currency: "BDT", Items: []entity.LineItem{}}})

	_, err := svc.Scan(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_EditValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeRepo{}, &stubExtractor{})

	t.Run("bad currency", func(t *testing.T) {
		t.Parallel()
		bad := "taka"
		_, err := svc.Edit(context.Background(), uuid.New(), entity.ReceiptPatch{Currency: &bad})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("bad invoice type", func(t *testing.T) {
		t.Parallel()
		bad := constants.InvoiceType("grocery")
		_, err := svc.Edit(context.Background(), uuid.New(), entity.ReceiptPatch{InvoiceType: &bad})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("valid patch reaches repo", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{}
		rec := Assemble(entity.ExtractionResult{Currency: "BDT"}, "x", time.Now())
		repo.created = append(repo.created, &rec)
		svc := newTestService(repo, &stubExtractor{})

		cur := "USD"
		got, err := svc.Edit(context.Background(), rec.ID, entity.ReceiptPatch{Currency: &cur})
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
	})
}
