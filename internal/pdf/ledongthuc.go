package pdf

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
)

// LedongthucDecoder decodes PDFs with github.com/ledongthuc/pdf
type LedongthucDecoder struct {
	validator *Validator
}

// NewLedongthucDecoder creates a decoder that validates with v
func NewLedongthucDecoder(v *Validator) *LedongthucDecoder {
	return &LedongthucDecoder{validator: v}
}

// Name returns the backend name
func (d *LedongthucDecoder) Name() string {
	return DecoderLedongthuc
}

// Decode validates data and extracts per-page text and table grids.
// Any panic raised by the parser is returned as a decode failure.
func (d *LedongthucDecoder) Decode(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = pdferrors.Recovered(pdferrors.ErrorTypeDecodeFailure, "PDF parser failed", r)
		}
	}()

	if d.validator != nil {
		if _, err := d.validator.ValidateBytes(data); err != nil {
			return nil, err
		}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeDecodeFailure, "failed to open PDF", err)
	}

	doc = &Document{}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		decoded, err := decodePage(page, pageNum)
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, decoded)
	}

	return doc, nil
}

func decodePage(page pdf.Page, pageNum int) (Page, error) {
	content := page.Content()

	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	lines := groupLines(mergeRuns(glyphs))

	return Page{
		Number: pageNum,
		Text:   layoutText(lines),
		Tables: detectTables(lines),
	}, nil
}
