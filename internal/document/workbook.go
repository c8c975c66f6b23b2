package document

import (
	"fmt"
	"time"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type totalRow struct {
	label string
	value decimal.Decimal
}

// Workbook is a spreadsheet rendering of a bill
type Workbook struct {
	FileName string
	Content  []byte
}

// ExportWorkbook writes the bill to a single-sheet workbook: header, item
// table and totals, with the cancelled marker in red when applicable
func ExportWorkbook(bill *entity.Bill) (*Workbook, error) {
	if bill == nil {
		return nil, ErrNoBill
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := bill.Kind.Title()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	red, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "C81414", Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet}

	date := bill.Date
	if date.IsZero() {
		date = time.Now()
	}

	w.set("A1", bill.Company.Name)
	w.set("A2", bill.Company.Address)
	w.set("A3", bill.Kind.Title())
	w.set("B3", bill.InvoiceNumber)
	w.set("A4", "Date")
	w.set("B4", date.Format("2006-01-02"))
	w.set("A5", "Bill To")
	w.set("B5", bill.CustomerName)
	w.style("A1", "A1", bold)
	w.style("A3", "A3", bold)
	if bill.IsCancelled {
		w.set("D1", CancelledMarker)
		w.style("D1", "D1", red)
	}

	const tableStart = 7
	for i, h := range ItemColumns {
		w.set(cell(i+1, tableStart), h)
	}
	w.style(cell(1, tableStart), cell(len(ItemColumns), tableStart), bold)

	r := tableStart + 1
	for i, it := range bill.Items {
		w.set(cell(1, r), i+1)
		w.set(cell(2, r), it.Code)
		w.set(cell(3, r), it.Name)
		w.set(cell(4, r), it.HSNCode)
		w.set(cell(5, r), it.Quantity)
		w.set(cell(6, r), it.UnitRate.InexactFloat64())
		w.set(cell(7, r), it.LineTotal().InexactFloat64())
		w.set(cell(8, r), it.EffectiveTaxRate().InexactFloat64())
		r++
	}

	r++
	totals := []totalRow{{"Taxable Amount", bill.Tax.TaxableAmount}}
	if bill.IsOtherState {
		totals = append(totals, totalRow{"IGST", bill.Tax.IGSTTotal})
	} else {
		totals = append(totals, totalRow{"CGST", bill.Tax.CGSTTotal}, totalRow{"SGST", bill.Tax.SGSTTotal})
	}
	totals = append(totals,
		totalRow{"Round Off", bill.Tax.RoundOff},
		totalRow{"Grand Total", bill.Tax.RoundedTotal},
	)
	for _, t := range totals {
		w.set(cell(6, r), t.label)
		w.set(cell(7, r), t.value.InexactFloat64())
		r++
	}
	w.style(cell(6, r-1), cell(7, r-1), bold)

	if w.err != nil {
		return nil, w.err
	}
	if err := f.SetColWidth(sheet, "C", "C", 32); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &Workbook{
		FileName: WorkbookFileName(bill.Kind, bill.InvoiceNumber),
		Content:  buf.Bytes(),
	}, nil
}

// SaveWorkbook exports bill and writes it next to its PDF
func (c *Composer) SaveWorkbook(bill *entity.Bill) (string, error) {
	wb, err := ExportWorkbook(bill)
	if err != nil {
		return "", err
	}
	doc := &Document{
		Kind:          bill.Kind,
		InvoiceNumber: bill.InvoiceNumber,
		Company:       bill.Company.Name,
		Date:          bill.Date,
	}
	if doc.Date.IsZero() {
		doc.Date = time.Now()
	}
	path, err := c.save(doc, wb.FileName, wb.Content)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Workbook exported", zap.String("path", path))
	return path, nil
}

// sheetWriter keeps the first error of a run of cell writes
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(axis string, value interface{}) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(w.sheet, axis, value); err != nil {
		w.err = fmt.Errorf("failed to set cell %s: %w", axis, err)
	}
}

func (w *sheetWriter) style(from, to string, style int) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellStyle(w.sheet, from, to, style); err != nil {
		w.err = fmt.Errorf("failed to style %s: %w", from, err)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
