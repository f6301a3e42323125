// Package extract rebuilds a quote from the text and table grids decoded
// out of a previously rendered quote PDF.
//
// Extraction runs in three phases: labeled fields are scraped from the
// full text, line items are read from table grids, and when no grid yields
// an item the flowed text is scanned line by line instead. Fields that are
// not found stay empty and rows that do not carry a name and a positive
// subtotal are dropped; neither is an error.
package extract

import (
	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
	"github.com/a3tai/orcamento/internal/quote"
)

// Extract builds a Quote from page text joined by newlines and the table
// grids of all pages in order. It keeps no state between calls. A panic
// while parsing is returned as an extraction failure with a zero Quote.
func Extract(pdfText string, tables []Table) (q quote.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			q = quote.Quote{}
			err = pdferrors.Recovered(pdferrors.ErrorTypeExtractionFailure, "failed to extract quote", r)
		}
	}()

	extractFields(pdfText, &q)

	q.LineItems = tableItems(tables)
	if len(q.LineItems) == 0 {
		q.LineItems = lineItems(pdfText)
	}
	if q.LineItems == nil {
		q.LineItems = []quote.LineItem{}
	}
	return q, nil
}
