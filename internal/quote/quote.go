// Package quote holds the quote ("orçamento") model shared by the extractor,
// the renderer, the backup stores and the editor reducer.
package quote

// Quote is a custom-furniture price proposal for one client.
type Quote struct {
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientAddress string `json:"client_address"`

	ProjectName    string `json:"project_name"`
	DeliveryTerm   string `json:"delivery_term"`
	PaymentTerms   string `json:"payment_terms"`
	ValidityPeriod string `json:"validity_period"`

	Notes         string `json:"notes"`
	IncludedItems string `json:"included_items"`
	ExcludedItems string `json:"excluded_items"`

	LineItems []LineItem `json:"line_items"`
}

// LineItem is one priced entry of a quote. Subtotal is the source of truth;
// UnitPrice is derived from it.
type LineItem struct {
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	Specifications string  `json:"specifications"`
	Material       string  `json:"material"`
	UnitPrice      float64 `json:"unit_price"`
	Subtotal       float64 `json:"subtotal"`
}

// NewLineItem builds an item from its subtotal, deriving the unit price.
func NewLineItem(name string, quantity int, specifications, material string, subtotal float64) LineItem {
	return LineItem{
		Name:           name,
		Quantity:       quantity,
		Specifications: specifications,
		Material:       material,
		UnitPrice:      UnitPriceOf(subtotal, quantity),
		Subtotal:       subtotal,
	}
}

// UnitPriceOf returns subtotal/quantity, or the subtotal itself when the
// quantity is not positive.
func UnitPriceOf(subtotal float64, quantity int) float64 {
	if quantity > 0 {
		return subtotal / float64(quantity)
	}
	return subtotal
}

// Acceptable reports whether the item may be kept in a quote.
func (li LineItem) Acceptable() bool {
	return li.Name != "" && li.Subtotal > 0
}

// Total is the sum of all line subtotals.
func (q Quote) Total() float64 {
	var total float64
	for _, item := range q.LineItems {
		total += item.Subtotal
	}
	return total
}

// Clone returns a copy that shares no line item storage with q.
func (q Quote) Clone() Quote {
	c := q
	if q.LineItems != nil {
		c.LineItems = make([]LineItem, len(q.LineItems))
		copy(c.LineItems, q.LineItems)
	}
	return c
}

// FinalValue applies a percentage discount to total.
func FinalValue(total, discountPercent float64) float64 {
	return total * (1 - discountPercent/100)
}
