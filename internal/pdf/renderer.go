package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/a3tai/orcamento/internal/quote"
)

// Company is the letterhead printed on every quote
type Company struct {
	Name      string
	Address   string
	LogoPath  string
	Signature string
}

// Page geometry in millimetres.
const (
	marginLeft   = 15.0
	marginTop    = 12.0
	marginBottom = 15.0
	pageHeight   = 297.0
	contentWidth = 180.0

	lineHeight  = 6.0
	cellLine    = 5.0
	cellPadding = 1.0
	boxPadding  = 3.0
	sectionGap  = 10.0

	materialMaxRunes = 15
	notSpecified     = "Não especificado"
	closingLine      = "Móveis conforme projetos com garantia de dois anos."
)

var (
	tableHeaders = []string{"Item", "Qtd", "Especificações", "Material", "Subtotal"}
	columnWidths = []float64{38, 12, 70, 32, 28}
)

// Renderer lays out quotes as A4 PDF documents with gofpdf
type Renderer struct {
	company Company
}

// NewRenderer creates a renderer for the given letterhead
func NewRenderer(company Company) *Renderer {
	return &Renderer{company: company}
}

// FileName returns the download name for a quote rendered at now
func FileName(clientName string, now time.Time) string {
	date := now.Format("02-01-2006")
	client := strings.TrimSpace(clientName)
	if client == "" {
		return fmt.Sprintf("orcamento_%s.pdf", date)
	}
	return fmt.Sprintf("orcamento_%s_%s.pdf", strings.ReplaceAll(client, " ", "_"), date)
}

// Render lays out the form's quote, totals and conditions
func (r *Renderer) Render(form quote.Form, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle("Orçamento", true)
	pdf.SetCreator("orcamento", true)

	w := &pageWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	q := form.Quote
	r.writeHeader(w, now)

	w.font("B", 13)
	w.line("Orçamento")
	w.font("", 10)
	w.line("Cliente: " + orNotSpecified(q.ClientName))
	w.line("Telefone: " + orNotSpecified(q.ClientPhone))
	w.paragraph("Endereço: " + orNotSpecified(q.ClientAddress))
	pdf.Ln(sectionGap)

	if len(q.LineItems) > 0 {
		w.itemTable(q.LineItems)
		pdf.Ln(sectionGap)
	}

	w.font("B", 12)
	if form.DiscountPercent > 0 {
		w.line("Total Geral: " + quote.FormatBRL(form.Total()))
	}
	w.line("Valor Final: " + quote.FormatBRL(form.FinalValue()))
	pdf.Ln(sectionGap)

	w.font("B", 12)
	w.line("Condições:")
	w.font("", 10)
	w.line("Prazo de entrega: " + q.DeliveryTerm)
	w.line("Forma de pagamento: " + q.PaymentTerms)
	w.line("Orçamento válido por: " + q.ValidityPeriod)

	for _, box := range []struct{ title, body string }{
		{"Observações:", q.Notes},
		{"Itens Inclusos:", q.IncludedItems},
		{"Itens Não Inclusos:", q.ExcludedItems},
	} {
		if strings.TrimSpace(box.body) == "" {
			continue
		}
		pdf.Ln(sectionGap)
		w.box(box.title, box.body)
	}

	pdf.Ln(sectionGap)
	w.font("", 10)
	if q.ProjectName != "" {
		w.line("Projetos: " + q.ProjectName)
	}
	w.line(closingLine)
	if r.company.Signature != "" {
		pdf.Ln(lineHeight)
		w.font("U", 10)
		w.line(r.company.Signature)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render quote PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeHeader(w *pageWriter, now time.Time) {
	if logo := r.company.LogoPath; logo != "" && isImage(logo) {
		if _, err := os.Stat(logo); err == nil {
			w.pdf.ImageOptions(logo, marginLeft+contentWidth-25, marginTop, 25, 0, false,
				gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	w.font("B", 16)
	w.pdf.CellFormat(contentWidth-30, 10, w.tr(r.company.Name), "", 1, "L", false, 0, "")
	w.font("", 10)
	if r.company.Address != "" {
		w.line(r.company.Address)
	}
	w.line("Data: " + now.Format("02/01/2006"))
	w.pdf.Ln(sectionGap)
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

// pageWriter wraps the gofpdf calls shared by the quote sections.
type pageWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (w *pageWriter) font(style string, size float64) {
	w.pdf.SetFont("Helvetica", style, size)
}

func (w *pageWriter) line(text string) {
	w.pdf.CellFormat(0, lineHeight, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pageWriter) paragraph(text string) {
	w.pdf.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

func (w *pageWriter) ensureSpace(h float64) bool {
	if w.pdf.GetY()+h > pageHeight-marginBottom {
		w.pdf.AddPage()
		return true
	}
	return false
}

func (w *pageWriter) tableHeader() {
	w.font("B", 10)
	w.pdf.SetFillColor(211, 211, 211)
	for i, h := range tableHeaders {
		ln := 0
		if i == len(tableHeaders)-1 {
			ln = 1
		}
		w.pdf.CellFormat(columnWidths[i], cellLine+2*cellPadding, w.tr(h), "1", ln, "L", true, 0, "")
	}
	w.font("", 10)
}

// itemTable draws the line items as a grid. Every cell starts on the
// row's first baseline; wrapped text continues on the lines below.
func (w *pageWriter) itemTable(items []quote.LineItem) {
	w.tableHeader()

	for _, item := range items {
		cells := []string{
			item.Name,
			strconv.Itoa(item.Quantity),
			item.Specifications,
			truncateRunes(item.Material, materialMaxRunes),
			quote.FormatBRL(item.Subtotal),
		}

		wrapped := make([][]string, len(cells))
		lines := 1
		for i, c := range cells {
			wrapped[i] = w.wrap(c, columnWidths[i]-2*cellPadding)
			if len(wrapped[i]) > lines {
				lines = len(wrapped[i])
			}
		}
		h := float64(lines)*cellLine + 2*cellPadding

		if w.ensureSpace(h) {
			w.tableHeader()
		}

		x0, y0 := w.pdf.GetXY()
		x := x0
		for i, textLines := range wrapped {
			w.pdf.Rect(x, y0, columnWidths[i], h, "D")
			for li, text := range textLines {
				w.pdf.SetXY(x, y0+cellPadding+float64(li)*cellLine)
				w.pdf.CellFormat(columnWidths[i], cellLine, text, "", 0, "L", false, 0, "")
			}
			x += columnWidths[i]
		}
		w.pdf.SetXY(x0, y0+h)
	}
}

// wrap translates text and splits it to fit width, keeping explicit
// line breaks.
func (w *pageWriter) wrap(text string, width float64) []string {
	var out []string
	for _, part := range strings.Split(text, "\n") {
		encoded := w.tr(strings.TrimRight(part, "\r"))
		if encoded == "" {
			continue
		}
		for _, l := range w.pdf.SplitLines([]byte(encoded), width) {
			out = append(out, string(l))
		}
	}
	return out
}

// box draws a shaded, bordered block with a bold title above the body.
func (w *pageWriter) box(title, body string) {
	w.font("", 10)
	bodyLines := w.wrap(body, contentWidth-2*boxPadding-2)
	h := float64(len(bodyLines)+1)*lineHeight + 2*boxPadding
	w.ensureSpace(h)

	x, y := w.pdf.GetXY()
	w.pdf.SetFillColor(240, 240, 240)
	w.pdf.Rect(x, y, contentWidth, h, "FD")

	w.pdf.SetXY(x+boxPadding, y+boxPadding)
	w.font("B", 10)
	w.pdf.CellFormat(contentWidth-2*boxPadding, lineHeight, w.tr(title), "", 2, "L", false, 0, "")
	w.font("", 10)
	for _, l := range bodyLines {
		w.pdf.CellFormat(contentWidth-2*boxPadding, lineHeight, l, "", 2, "L", false, 0, "")
	}
	w.pdf.SetXY(x, y+h)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
