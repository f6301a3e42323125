package pdf

import (
	"fmt"
	"strings"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
)

// Page is the decoded content of one PDF page
type Page struct {
	Number int          `json:"number"`
	Text   string       `json:"text"`
	Tables [][][]string `json:"tables,omitempty"`
}

// Document is the decoded content of a whole PDF, pages in order
type Document struct {
	Pages []Page `json:"pages"`
}

// Text joins the page texts with newlines
func (d *Document) Text() string {
	texts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// Tables returns the table grids of every page in page order
func (d *Document) Tables() [][][]string {
	var tables [][][]string
	for _, p := range d.Pages {
		tables = append(tables, p.Tables...)
	}
	return tables
}

// Decoder turns PDF bytes into text and table grids
type Decoder interface {
	Decode(data []byte) (*Document, error)
	Name() string
}

// Decoder backend names accepted by NewDecoder
const (
	DecoderLedongthuc = "ledongthuc"
	DecoderNone       = "none"
)

// NewDecoder returns the named decoding backend. Every backend runs the
// validator before touching the bytes. A name without a backend is a
// missing dependency.
func NewDecoder(name string, validator *Validator) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DecoderLedongthuc, "":
		return NewLedongthucDecoder(validator), nil
	default:
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeMissingDependency,
			"PDF decoding is not available", fmt.Sprintf("decoder %q", name))
	}
}
