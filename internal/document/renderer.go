package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	watermarkRed  = &props.Color{Red: 200, Green: 20, Blue: 20}
	watermarkFill = &props.Color{Red: 255, Green: 228, Blue: 228}
	headingFill   = &props.Color{Red: 235, Green: 235, Blue: 235}
)

// Renderer turns a Layout into PDF bytes
type Renderer struct {
	creator string
}

// NewRenderer creates a PDF renderer; creator is written to the PDF metadata
func NewRenderer(creator string) *Renderer {
	if creator == "" {
		creator = "billing-workflow"
	}
	return &Renderer{creator: creator}
}

// Render produces the PDF. A cancelled layout carries the marker in a red
// band at the top and in the document title and subject.
func (r *Renderer) Render(l Layout, created time.Time) ([]byte, error) {
	title := fmt.Sprintf("%s %s", l.Title, l.InvoiceNumber)
	subject := l.Title
	if l.Cancelled {
		title = CancelledMarker + " " + title
		subject = CancelledMarker + " " + subject
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(12).
		WithRightMargin(10).
		WithTitle(strings.TrimSpace(title), false).
		WithSubject(subject, false).
		WithCreator(r.creator, false).
		WithCreationDate(created).
		Build()

	m := maroto.New(cfg)

	for _, b := range l.Blocks {
		switch b.Kind {
		case BlockWatermark:
			addWatermark(m, b)
		case BlockHeader:
			addHeader(m, b, l.Logo)
		case BlockTitle:
			addTitle(m, b)
		case BlockCustomer:
			addLines(m, b, 6)
			m.AddRow(3, line.NewCol(12))
		case BlockItems:
			addItemTable(m, b)
		case BlockTotals:
			addTotals(m, b)
		case BlockTaxSummary:
			addTaxSummary(m, b)
		case BlockRemarks, BlockTerms:
			addLines(m, b, 5)
		case BlockPayment:
			addPayment(m, b)
		case BlockSignature:
			addSignature(m, b)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addWatermark(m core.Maroto, b Block) {
	for _, ln := range b.Lines {
		m.AddRows(row.New(14).Add(
			text.NewCol(12, ln.Value, props.Text{
				Size:  22,
				Top:   2,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: watermarkRed,
			}),
		).WithStyle(&props.Cell{BackgroundColor: watermarkFill}))
	}
}

func addHeader(m core.Maroto, b Block, logo []byte) {
	infoSize := 12
	var cols []core.Col
	if len(logo) > 0 {
		cols = append(cols, image.NewFromBytesCol(3, logo, extension.Png, props.Rect{Center: true, Percent: 90}))
		infoSize = 9
	}

	info := col.New(infoSize)
	top := 0.0
	for i, ln := range b.Lines {
		p := props.Text{Size: 9, Top: top, Align: align.Left}
		if i == 0 {
			p.Size = 16
			p.Style = fontstyle.Bold
			top += 8
		} else {
			top += 5
		}
		info.Add(text.New(label(ln), p))
	}
	cols = append(cols, info)

	m.AddRow(top+6, cols...)
	m.AddRow(4, line.NewCol(12))
}

func addTitle(m core.Maroto, b Block) {
	if len(b.Lines) == 0 {
		return
	}
	m.AddRow(10, text.NewCol(12, b.Lines[0].Value, props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))

	left := col.New(6)
	right := col.New(6)
	for i, ln := range b.Lines[1:] {
		target := left
		a := align.Left
		if i%2 == 1 {
			target, a = right, align.Right
		}
		target.Add(text.New(label(ln), props.Text{Size: 10, Top: float64(i/2) * 5, Align: a}))
	}
	m.AddRow(float64((len(b.Lines)/2)*5+4), left, right)
}

func addLines(m core.Maroto, b Block, height float64) {
	for _, ln := range b.Lines {
		p := props.Text{Size: 9, Align: align.Left}
		if ln.Bold {
			p.Style = fontstyle.Bold
		}
		m.AddRow(height, text.NewCol(12, label(ln), p))
	}
}

func addItemTable(m core.Maroto, b Block) {
	heading := make([]core.Col, len(ItemColumns))
	for i, h := range ItemColumns {
		heading[i] = text.NewCol(itemColumnSizes[i], h, props.Text{
			Size:  9,
			Top:   1.5,
			Style: fontstyle.Bold,
			Align: columnAlign(i),
		})
	}
	m.AddRows(row.New(7).Add(heading...).WithStyle(&props.Cell{BackgroundColor: headingFill}))

	for _, r := range b.Rows {
		cols := make([]core.Col, len(r))
		for i, v := range r {
			cols[i] = text.NewCol(itemColumnSizes[i], v, props.Text{Size: 9, Top: 1, Align: columnAlign(i)})
		}
		m.AddRow(6, cols...)
	}
	m.AddRow(3, line.NewCol(12))
}

func columnAlign(i int) align.Type {
	switch {
	case i == 0 || i == 4:
		return align.Center
	case i >= 5:
		return align.Right
	default:
		return align.Left
	}
}

func addTotals(m core.Maroto, b Block) {
	for _, ln := range b.Lines {
		if ln.Label == "In Words" {
			m.AddRow(6, text.NewCol(12, ln.Value, props.Text{Size: 9, Style: fontstyle.Italic, Align: align.Left}))
			continue
		}
		p := props.Text{Size: 10, Align: align.Right}
		if ln.Bold {
			p.Style = fontstyle.Bold
			p.Size = 12
		}
		m.AddRow(6,
			col.New(6),
			text.NewCol(3, ln.Label+":", p),
			text.NewCol(3, ln.Value, p),
		)
	}
}

func addTaxSummary(m core.Maroto, b Block) {
	if len(b.Rows) == 0 {
		return
	}
	bold := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(5,
		col.New(6),
		text.NewCol(2, "Rate", bold),
		text.NewCol(2, "Taxable", bold),
		text.NewCol(2, "Tax", bold),
	)
	for _, r := range b.Rows {
		p := props.Text{Size: 8, Align: align.Right}
		m.AddRow(5,
			col.New(6),
			text.NewCol(2, r[0], p),
			text.NewCol(2, r[1], p),
			text.NewCol(2, r[2], p),
		)
	}
	m.AddRow(3, line.NewCol(12))
}

func addPayment(m core.Maroto, b Block) {
	if len(b.Lines) == 0 && b.QR == "" {
		return
	}

	details := col.New(8)
	details.Add(text.New("Payment Details", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Left}))
	for i, ln := range b.Lines {
		details.Add(text.New(label(ln), props.Text{Size: 9, Top: float64(i+1) * 5, Align: align.Left}))
	}

	height := float64(len(b.Lines)+1)*5 + 2
	if b.QR == "" {
		m.AddRow(height, details)
		return
	}
	if height < 32 {
		height = 32
	}
	m.AddRow(height, details, code.NewQrCol(4, b.QR, props.Rect{Center: true, Percent: 90}))
}

func addSignature(m core.Maroto, b Block) {
	m.AddRow(8)
	for _, ln := range b.Lines {
		p := props.Text{Size: 10, Align: align.Right}
		if ln.Bold {
			p.Style = fontstyle.Bold
		}
		m.AddRow(12, col.New(6), text.NewCol(6, ln.Value, p))
	}
}

func label(ln Line) string {
	if ln.Label == "" {
		return ln.Value
	}
	return ln.Label + ": " + ln.Value
}
