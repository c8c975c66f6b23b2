package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/tax"
	"github.com/shopspring/decimal"
)

// CancelledMarker is printed on and embedded in every cancelled document
const CancelledMarker = "CANCELLED"

// BlockKind names a section of the printed document
type BlockKind string

const (
	BlockWatermark  BlockKind = "watermark"
	BlockHeader     BlockKind = "header"
	BlockTitle      BlockKind = "title"
	BlockCustomer   BlockKind = "customer"
	BlockItems      BlockKind = "items"
	BlockTotals     BlockKind = "totals"
	BlockTaxSummary BlockKind = "tax_summary"
	BlockRemarks    BlockKind = "remarks"
	BlockTerms      BlockKind = "terms"
	BlockPayment    BlockKind = "payment"
	BlockSignature  BlockKind = "signature"
)

// ItemColumns are the headings of the item table
var ItemColumns = []string{"S.No", "Code", "Name", "HSN/SAC", "Qty", "Rate", "Total", "Tax%"}

// itemColumnSizes spread the item table over a 12 column grid
var itemColumnSizes = []int{1, 1, 3, 2, 1, 1, 2, 1}

// DefaultTerms are printed when no terms are configured
var DefaultTerms = []string{
	"Goods once sold will not be taken back.",
	"Interest @18% p.a. will be charged on bills unpaid beyond the due date.",
	"Subject to local jurisdiction. E.&O.E.",
}

// Line is a label/value pair of a block
type Line struct {
	Label string
	Value string
	Bold  bool
}

// Block is one ordered section of a Layout
type Block struct {
	Kind  BlockKind
	Lines []Line
	Rows  [][]string
	QR    string
}

// Layout is the device-independent content of a document
type Layout struct {
	Title         string
	InvoiceNumber string
	Cancelled     bool
	Logo          []byte
	Blocks        []Block
}

// Block returns the first block of the kind
func (l Layout) Block(kind BlockKind) (Block, bool) {
	for _, b := range l.Blocks {
		if b.Kind == kind {
			return b, true
		}
	}
	return Block{}, false
}

// LayoutOptions carries presentation settings that are not part of a bill
type LayoutOptions struct {
	Terms      []string
	DateFormat string
	Logo       []byte
	Signatory  string
}

// BuildLayout lays a bill out in print order. It reads the bill only.
func BuildLayout(bill *entity.Bill, opts LayoutOptions) Layout {
	if opts.DateFormat == "" {
		opts.DateFormat = "02-01-2006"
	}
	terms := opts.Terms
	if len(terms) == 0 {
		terms = DefaultTerms
	}

	l := Layout{
		Title:         bill.Kind.Title(),
		InvoiceNumber: bill.InvoiceNumber,
		Cancelled:     bill.IsCancelled,
		Logo:          opts.Logo,
	}

	if bill.IsCancelled {
		l.Blocks = append(l.Blocks, Block{
			Kind:  BlockWatermark,
			Lines: []Line{{Value: CancelledMarker, Bold: true}},
		})
	}

	l.Blocks = append(l.Blocks,
		headerBlock(bill.Company),
		titleBlock(bill, opts.DateFormat),
		customerBlock(bill),
		itemsBlock(bill.Items),
		totalsBlock(bill),
		taxSummaryBlock(bill),
	)

	if r := strings.TrimSpace(bill.Remarks); r != "" {
		l.Blocks = append(l.Blocks, Block{Kind: BlockRemarks, Lines: []Line{{Label: "Remarks", Value: r}}})
	}

	termLines := make([]Line, 0, len(terms))
	for i, t := range terms {
		termLines = append(termLines, Line{Value: strconv.Itoa(i+1) + ". " + t})
	}
	l.Blocks = append(l.Blocks,
		Block{Kind: BlockTerms, Lines: termLines},
		paymentBlock(bill),
		signatureBlock(bill.Company, opts.Signatory),
	)

	return l
}

func headerBlock(c entity.CompanySnapshot) Block {
	lines := []Line{{Value: c.Name, Bold: true}}
	if c.Address != "" {
		lines = append(lines, Line{Value: c.Address})
	}
	if c.TaxID != "" {
		lines = append(lines, Line{Label: "GSTIN", Value: c.TaxID})
	}
	return Block{Kind: BlockHeader, Lines: lines}
}

func titleBlock(bill *entity.Bill, dateFormat string) Block {
	number := bill.InvoiceNumber
	if number == "" {
		number = "(not assigned)"
	}
	date := bill.Date
	if date.IsZero() {
		date = time.Now()
	}

	lines := []Line{
		{Value: bill.Kind.Title(), Bold: true},
		{Label: "No.", Value: number},
		{Label: "Date", Value: date.Format(dateFormat)},
	}
	if bill.PaymentMode != "" {
		lines = append(lines, Line{Label: "Payment", Value: bill.PaymentMode})
	}
	return Block{Kind: BlockTitle, Lines: lines}
}

func customerBlock(bill *entity.Bill) Block {
	lines := []Line{{Label: "Bill To", Value: bill.CustomerName, Bold: true}}
	c := bill.Contact
	if c.Address != "" {
		lines = append(lines, Line{Label: "Address", Value: c.Address})
	}
	if c.Phone != "" {
		lines = append(lines, Line{Label: "Phone", Value: c.Phone})
	}
	if c.Email != "" {
		lines = append(lines, Line{Label: "Email", Value: c.Email})
	}
	if c.TaxID != "" {
		lines = append(lines, Line{Label: "GSTIN", Value: c.TaxID})
	}
	return Block{Kind: BlockCustomer, Lines: lines}
}

func itemsBlock(items []entity.LineItem) Block {
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Code,
			it.Name,
			it.HSNCode,
			strconv.Itoa(it.Quantity),
			money(it.UnitRate),
			money(it.LineTotal()),
			it.EffectiveTaxRate().String() + "%",
		})
	}
	return Block{Kind: BlockItems, Rows: rows}
}

func totalsBlock(bill *entity.Bill) Block {
	t := bill.Tax
	lines := []Line{{Label: "Taxable Amount", Value: money(t.TaxableAmount)}}
	if bill.IsOtherState {
		lines = append(lines, Line{Label: "IGST", Value: money(t.IGSTTotal)})
	} else {
		lines = append(lines,
			Line{Label: "CGST", Value: money(t.CGSTTotal)},
			Line{Label: "SGST", Value: money(t.SGSTTotal)},
		)
	}
	lines = append(lines,
		Line{Label: "Round Off", Value: money(t.RoundOff)},
		Line{Label: "Grand Total", Value: money(t.RoundedTotal), Bold: true},
		Line{Label: "In Words", Value: AmountInWords(t.RoundedTotal)},
	)
	return Block{Kind: BlockTotals, Lines: lines}
}

func taxSummaryBlock(bill *entity.Bill) Block {
	var rows [][]string
	for _, s := range tax.SummarizeByRate(bill.Items) {
		rows = append(rows, []string{
			s.RatePercent.String() + "%",
			money(s.TaxableAmount),
			money(s.TaxAmount),
		})
	}
	return Block{Kind: BlockTaxSummary, Rows: rows}
}

func paymentBlock(bill *entity.Bill) Block {
	bank := bill.Company.Bank
	var lines []Line
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, Line{Label: label, Value: value})
		}
	}
	add("Bank", bank.BankName)
	add("Branch", bank.Branch)
	add("A/C No.", bank.AccountNumber)
	add("IFSC", bank.IFSC)
	add("SWIFT", bank.SwiftCode)
	add("UPI", bank.UPIID)

	payload, _ := QRPayload(bill.Company, bill.Tax.RoundedTotal, paymentNote(bill))
	return Block{Kind: BlockPayment, Lines: lines, QR: payload}
}

func signatureBlock(c entity.CompanySnapshot, signatory string) Block {
	if signatory == "" {
		signatory = "Authorised Signatory"
	}
	return Block{Kind: BlockSignature, Lines: []Line{
		{Value: fmt.Sprintf("For %s", c.Name), Bold: true},
		{Value: signatory},
	}}
}

func paymentNote(bill *entity.Bill) string {
	if bill.InvoiceNumber == "" {
		return bill.Kind.Title()
	}
	return bill.Kind.Title() + " " + bill.InvoiceNumber
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
