// Package document composes bills into printable documents and delivers the
// rendered bytes to preview, download and email attachment sinks.
package document

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one composition
const DefaultTimeout = 20 * time.Second

// Document is one rendering of a bill. Every sink reads the same bytes.
type Document struct {
	Kind          entity.DocumentKind `json:"kind"`
	InvoiceNumber string              `json:"invoiceNumber"`
	FileName      string              `json:"fileName"`
	Company       string              `json:"company"`
	Date          time.Time           `json:"date"`
	Cancelled     bool                `json:"cancelled"`
	QRPayload     string              `json:"qrPayload,omitempty"`
	PaymentSource PaymentSource       `json:"paymentSource,omitempty"`
	Content       []byte              `json:"-"`
}

// Attachment returns the base64 payload used as email attachment
func (d *Document) Attachment() string {
	return base64.StdEncoding.EncodeToString(d.Content)
}

// FolderResolver picks the folder a company's documents are downloaded to
type FolderResolver interface {
	EnsureCompanyFolder(companyName string, date time.Time) (string, error)
}

// Config tunes the composer
type Config struct {
	Timeout   time.Duration
	Terms     []string
	Signatory string
	Creator   string
}

// Composer renders bills to PDF
type Composer struct {
	cfg        Config
	renderer   *Renderer
	logos      *LogoLoader
	banks      port.BankDirectory
	rasterizer Rasterizer
	storage    port.FileStorage
	folders    FolderResolver
	logger     *zap.Logger
}

// NewComposer creates a document composer. logos, banks, rasterizer, storage
// and folders may be nil; the matching feature is then unavailable.
func NewComposer(
	cfg Config,
	logos *LogoLoader,
	banks port.BankDirectory,
	rasterizer Rasterizer,
	storage port.FileStorage,
	folders FolderResolver,
	logger *zap.Logger,
) *Composer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Composer{
		cfg:        cfg,
		renderer:   NewRenderer(cfg.Creator),
		logos:      logos,
		banks:      banks,
		rasterizer: rasterizer,
		storage:    storage,
		folders:    folders,
		logger:     logger,
	}
}

// Compose renders bill once. It never mutates bill; a missing logo or bank
// lookup failure degrades the document instead of failing it.
func (c *Composer) Compose(ctx context.Context, bill *entity.Bill) (*Document, error) {
	if bill == nil {
		return nil, ErrNoBill
	}
	snapshot := bill.Clone()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.fillBankDetails(ctx, snapshot)

	var logo []byte
	if c.logos != nil && snapshot.Company.LogoRef != "" {
		var err error
		if logo, err = c.logos.Load(ctx, snapshot.Company.LogoRef); err != nil {
			c.logger.Warn("Composing without logo",
				zap.String("logo_ref", snapshot.Company.LogoRef),
				zap.Error(err))
		}
	}

	layout := BuildLayout(snapshot, LayoutOptions{
		Terms:     c.cfg.Terms,
		Logo:      logo,
		Signatory: c.cfg.Signatory,
	})

	date := snapshot.Date
	if date.IsZero() {
		date = time.Now()
	}

	type result struct {
		content []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		content, err := c.renderer.Render(layout, date)
		done <- result{content, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &port.TimeoutError{Op: "compose document"}
		}
		return nil, ctx.Err()
	}
	if res.err != nil {
		c.logger.Error("Failed to render document",
			zap.String("invoice_number", snapshot.InvoiceNumber),
			zap.Error(res.err))
		return nil, fmt.Errorf("failed to render document: %w", res.err)
	}

	payload, source := QRPayload(snapshot.Company, snapshot.Tax.RoundedTotal, paymentNote(snapshot))
	doc := &Document{
		Kind:          snapshot.Kind,
		InvoiceNumber: snapshot.InvoiceNumber,
		FileName:      FileName(snapshot.Kind, snapshot.InvoiceNumber),
		Company:       snapshot.Company.Name,
		Date:          date,
		Cancelled:     snapshot.IsCancelled,
		QRPayload:     payload,
		PaymentSource: source,
		Content:       res.content,
	}

	c.logger.Info("Document composed",
		zap.String("kind", string(doc.Kind)),
		zap.String("invoice_number", doc.InvoiceNumber),
		zap.Bool("cancelled", doc.Cancelled),
		zap.Int("size", len(doc.Content)))
	return doc, nil
}

func (c *Composer) fillBankDetails(ctx context.Context, bill *entity.Bill) {
	if c.banks == nil || !bill.Company.Bank.IsEmpty() || bill.Company.Name == "" {
		return
	}
	bank, err := c.banks.BankDetails(ctx, bill.Company.Name)
	if err != nil {
		c.logger.Warn("Bank details unavailable",
			zap.String("company", bill.Company.Name),
			zap.Error(err))
		return
	}
	if bank != nil {
		bill.Company.Bank = *bank
	}
}

// Preview rasterizes the first page for on-screen display
func (c *Composer) Preview(doc *Document) ([]byte, error) {
	if c.rasterizer == nil {
		return nil, ErrNoRasterizer
	}
	png, err := c.rasterizer.FirstPagePNG(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize preview: %w", err)
	}
	return png, nil
}

// Download writes the document under the storage root and returns its path
func (c *Composer) Download(doc *Document) (string, error) {
	return c.save(doc, doc.FileName, doc.Content)
}

// Attachment returns the base64 payload for the email pipeline
func (c *Composer) Attachment(doc *Document) string {
	return doc.Attachment()
}

func (c *Composer) save(doc *Document, fileName string, content []byte) (string, error) {
	if c.storage == nil {
		return "", ErrNoStorage
	}

	dir := c.storage.BaseDir()
	if c.folders != nil {
		folder, err := c.folders.EnsureCompanyFolder(doc.Company, doc.Date)
		if err != nil {
			return "", err
		}
		dir = folder
	}

	fullPath := filepath.Join(dir, fileName)
	if err := c.storage.SaveFile(fullPath, content); err != nil {
		c.logger.Error("Failed to save document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to save document: %w", err)
	}

	c.logger.Info("Document saved",
		zap.String("path", fullPath),
		zap.String("invoice_number", doc.InvoiceNumber))
	return fullPath, nil
}
