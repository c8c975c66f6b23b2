package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type stubRasterizer struct {
	mu     sync.Mutex
	inputs [][]byte
	err    error
}

func (s *stubRasterizer) FirstPagePNG(pdf []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, pdf)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("\x89PNG preview"), nil
}

type mockBankDirectory struct {
	bankDetailsFunc func(ctx context.Context, companyName string) (*entity.BankDetails, error)
	calls           int
}

func (m *mockBankDirectory) BankDetails(ctx context.Context, companyName string) (*entity.BankDetails, error) {
	m.calls++
	if m.bankDetailsFunc != nil {
		return m.bankDetailsFunc(ctx, companyName)
	}
	return &entity.BankDetails{UPIID: "wonderful@okhdfc"}, nil
}

func newTestComposer(t *testing.T, cfg Config, banks port.BankDirectory, raster Rasterizer) (*Composer, string) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	c := NewComposer(cfg,
		NewLogoLoader(dir, logger),
		banks,
		raster,
		storage.NewLocalFileStorage(dir, logger),
		storage.NewFolderManager(dir, logger),
		logger,
	)
	return c, dir
}

func TestComposer_Compose(t *testing.T) {
	c, _ := newTestComposer(t, Config{}, nil, nil)
	bill := sampleBill(false)

	doc, err := c.Compose(context.Background(), bill)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	assert.Equal(t, "CashBill_WNF_8.pdf", doc.FileName)
	assert.Equal(t, "Wonderful Foods", doc.Company)
	assert.False(t, doc.Cancelled)
	assert.Equal(t, PaymentSourceAccount, doc.PaymentSource)
	assert.False(t, bytes.Contains(doc.Content, []byte(CancelledMarker)))
}

func TestComposer_CancelledMarkerInEverySink(t *testing.T) {
	raster := &stubRasterizer{}
	c, dir := newTestComposer(t, Config{}, nil, raster)
	bill := sampleBill(false)
	bill.IsCancelled = true

	doc, err := c.Compose(context.Background(), bill)
	require.NoError(t, err)
	assert.True(t, doc.Cancelled)
	assert.True(t, bytes.Contains(doc.Content, []byte(CancelledMarker)))

	preview, err := c.Preview(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, preview)
	require.Len(t, raster.inputs, 1)
	assert.True(t, bytes.Contains(raster.inputs[0], []byte(CancelledMarker)))

	path, err := c.Download(doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Wonderful_Foods", "2026-03", "CashBill_WNF_8.pdf"), path)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(onDisk, []byte(CancelledMarker)))

	attachment, err := base64.StdEncoding.DecodeString(c.Attachment(doc))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(attachment, []byte(CancelledMarker)))

	assert.Equal(t, doc.Content, onDisk, "download writes the rendered bytes")
	assert.Equal(t, doc.Content, attachment, "attachment carries the rendered bytes")
}

func TestComposer_DoesNotMutateBill(t *testing.T) {
	banks := &mockBankDirectory{}
	c, _ := newTestComposer(t, Config{}, banks, nil)
	bill := sampleBill(false)
	bill.Company.Bank = entity.BankDetails{}

	doc, err := c.Compose(context.Background(), bill)

	require.NoError(t, err)
	assert.Equal(t, 1, banks.calls)
	assert.Equal(t, PaymentSourceUPI, doc.PaymentSource, "bank details looked up for the document")
	assert.True(t, bill.Company.Bank.IsEmpty(), "caller's bill is untouched")
}

func TestComposer_BankLookupFailureDegrades(t *testing.T) {
	banks := &mockBankDirectory{
		bankDetailsFunc: func(ctx context.Context, companyName string) (*entity.BankDetails, error) {
			return nil, &port.NetworkError{Op: "bank details", Err: errors.New("refused")}
		},
	}
	c, _ := newTestComposer(t, Config{}, banks, nil)
	bill := sampleBill(false)
	bill.Company.Bank = entity.BankDetails{}

	doc, err := c.Compose(context.Background(), bill)

	require.NoError(t, err)
	assert.Equal(t, PaymentSourceName, doc.PaymentSource)
}

func TestComposer_Timeout(t *testing.T) {
	banks := &mockBankDirectory{
		bankDetailsFunc: func(ctx context.Context, companyName string) (*entity.BankDetails, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c, _ := newTestComposer(t, Config{Timeout: 20 * time.Millisecond}, banks, nil)
	bill := sampleBill(false)
	bill.Company.Bank = entity.BankDetails{}

	_, err := c.Compose(context.Background(), bill)

	var terr *port.TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.NotErrorIs(t, err, port.ErrNetwork)
}

func TestComposer_WithLogo(t *testing.T) {
	c, dir := newTestComposer(t, Config{}, nil, nil)

	img := image.NewNRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		img.Set(x, 200, color.NRGBA{R: 200, A: 255})
	}
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	bill := sampleBill(false)
	bill.Company.LogoRef = "logo.png"

	doc, err := c.Compose(context.Background(), bill)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Content)

	scaled, err := c.logos.Load(context.Background(), "logo.png")
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(scaled))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), logoMaxWidth)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), logoMaxHeight)
}

func TestComposer_MissingLogoDegrades(t *testing.T) {
	c, _ := newTestComposer(t, Config{}, nil, nil)
	bill := sampleBill(false)
	bill.Company.LogoRef = "does-not-exist.png"

	_, err := c.Compose(context.Background(), bill)

	assert.NoError(t, err)
}

func TestComposer_SinksWithoutBackends(t *testing.T) {
	c := NewComposer(Config{}, nil, nil, nil, nil, nil, zap.NewNop())

	doc, err := c.Compose(context.Background(), sampleBill(false))
	require.NoError(t, err)

	_, err = c.Preview(doc)
	assert.ErrorIs(t, err, ErrNoRasterizer)
	_, err = c.Download(doc)
	assert.ErrorIs(t, err, ErrNoStorage)
	assert.NotEmpty(t, c.Attachment(doc))

	_, err = c.Compose(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoBill)
}

func TestExportWorkbook(t *testing.T) {
	bill := sampleBill(false)
	bill.IsCancelled = true

	wb, err := ExportWorkbook(bill)
	require.NoError(t, err)
	assert.Equal(t, "CashBill_WNF_8.xlsx", wb.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(wb.Content))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Cash Bill"
	get := func(axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Wonderful Foods", get("A1"))
	assert.Equal(t, CancelledMarker, get("D1"))
	assert.Equal(t, "WNF-8", get("B3"))
	assert.Equal(t, "Acme Traders", get("B5"))
	assert.Equal(t, "S.No", get("A7"))
	assert.Equal(t, "Basmati Rice 5kg", get("C8"))
	assert.Equal(t, "Sugar 1kg", get("C9"))
	assert.Equal(t, "Taxable Amount", get("F11"))
	assert.Equal(t, "CGST", get("F12"))
	assert.Equal(t, "Grand Total", get("F15"))
	assert.Equal(t, "290", get("G15"))
}

func TestComposer_SaveWorkbook(t *testing.T) {
	c, dir := newTestComposer(t, Config{}, nil, nil)

	path, err := c.SaveWorkbook(sampleBill(true))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Wonderful_Foods", "2026-03", "CashBill_WNF_8.xlsx"), path)
	assert.FileExists(t, path)
}
