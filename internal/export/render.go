package export

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/angelmondragon/pricelist/internal/docx"
	"github.com/angelmondragon/pricelist/internal/quote"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// Document is what a Renderer writes: the snapshot and the resolved
// customer metadata.
type Document struct {
	Customer       string
	Date           string
	Lines          []quote.Line
	GrandTotal     decimal.Decimal
	CurrencyPrefix string
}

// Renderer turns a Document into file bytes.
type Renderer interface {
	Format() string
	Extension() string
	ContentType() string
	// NeedsTemplate reports whether Render expects template bytes.
	NeedsTemplate() bool
	Render(ctx context.Context, template []byte, doc Document) ([]byte, error)
}

// RoundWhole rounds half away from zero to whole units.
func RoundWhole(d decimal.Decimal) string {
	return d.Round(0).String()
}

// RowCells is the four-column row written for a line:
// total, quantity, unit price, name.
func RowCells(line quote.Line, prefix string) []docx.Cell {
	name := ""
	if line.Record != nil {
		name = line.Record.Name
	}
	return []docx.Cell{
		{Text: prefix + RoundWhole(line.Total()), Align: docx.AlignCenter},
		{Text: strconv.Itoa(line.Quantity), Align: docx.AlignCenter},
		{Text: RoundWhole(line.UnitPrice()), Align: docx.AlignCenter},
		{Text: name, Align: docx.AlignRight},
	}
}

// DOCXRenderer fills a word-processing template.
type DOCXRenderer struct{}

func (DOCXRenderer) Format() string      { return FormatDOCX }
func (DOCXRenderer) Extension() string   { return docx.Extension }
func (DOCXRenderer) ContentType() string { return docx.ContentType }
func (DOCXRenderer) NeedsTemplate() bool { return true }

func (DOCXRenderer) Render(ctx context.Context, template []byte, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	rows := make([][]docx.Cell, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		rows = append(rows, RowCells(line, doc.CurrencyPrefix))
	}
	res, err := docx.Render(template, docx.Fill{
		TableToken: docx.TokenProductsTable,
		Rows:       rows,
		Replacements: map[string]string{
			docx.TokenCustomerName: doc.Customer,
			docx.TokenDate:         doc.Date,
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// PDFRenderer lays the price list out on an A4 page without a template.
// FontPath, when set, points to a UTF-8 TrueType font; otherwise the core
// Helvetica font with cp1252 translation is used.
type PDFRenderer struct {
	FontPath string
	Title    string
}

func (PDFRenderer) Format() string      { return FormatPDF }
func (PDFRenderer) Extension() string   { return ".pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) NeedsTemplate() bool { return false }

func (r PDFRenderer) Render(ctx context.Context, _ []byte, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	title := r.Title
	if title == "" {
		title = "Price List"
	}
	pdf.SetTitle(title, true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		family = "Body"
		pdf.AddUTF8Font(family, "", r.FontPath)
		pdf.AddUTF8Font(family, "B", r.FontPath)
		tr = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pdf font")
	}
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 6, tr("Customer: "+doc.Customer), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Date: "+doc.Date), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{35, 20, 30, 105}
	headers := []string{"Total", "Qty", "Unit price", "Name"}
	aligns := []string{"C", "C", "C", "R"}
	pdf.SetFont(family, "B", 11)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	for _, line := range doc.Lines {
		for i, cell := range RowCells(line, doc.CurrencyPrefix) {
			pdf.CellFormat(widths[i], 6, tr(trim(cell.Text, 60)), "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Grand total: %s%s", doc.CurrencyPrefix, doc.GrandTotal.StringFixed(2))), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write pdf")
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
