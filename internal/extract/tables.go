package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/orcamento/internal/quote"
)

// Table is a decoded grid: rows of cells. A missing cell is "".
type Table = [][]string

// columnRole keywords, matched as substrings of the case-folded header.
var (
	nameHeaders     = []string{"item"}
	quantityHeaders = []string{"qtd", "quantidade"}
	specHeaders     = []string{"especifica"}
	materialHeaders = []string{"material"}
	subtotalHeaders = []string{"subtotal", "valor"}
)

// summaryMarkers flag trailing rows that are not items.
var summaryMarkers = []string{"total", "condições", "observações"}

var firstInt = regexp.MustCompile(`\d+`)

// columns holds the index of each role in a header, -1 when absent.
type columns struct {
	name, quantity, specs, material, subtotal int
}

func mapColumns(header []string) columns {
	c := columns{name: -1, quantity: -1, specs: -1, material: -1, subtotal: -1}
	for i, cell := range header {
		h := strings.ToLower(cell)
		switch {
		case containsAny(h, nameHeaders):
			c.name = i
		case containsAny(h, quantityHeaders):
			c.quantity = i
		case containsAny(h, specHeaders):
			c.specs = i
		case containsAny(h, materialHeaders):
			c.material = i
		case containsAny(h, subtotalHeaders):
			c.subtotal = i
		}
	}
	return c
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isSummaryRow(row []string) bool {
	return containsAny(strings.ToLower(strings.Join(row, "")), summaryMarkers)
}

// tableItems collects accepted line items from every grid, in table then
// row order.
func tableItems(tables []Table) []quote.LineItem {
	var items []quote.LineItem
	for _, t := range tables {
		if len(t) < 2 {
			continue
		}
		cols := mapColumns(t[0])
		for _, row := range t[1:] {
			if isSummaryRow(row) {
				continue
			}
			item := rowItem(row, cols)
			if item.Acceptable() {
				items = append(items, item)
			}
		}
	}
	return items
}

func rowItem(row []string, cols columns) quote.LineItem {
	qty := 1
	if m := firstInt.FindString(cell(row, cols.quantity)); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			qty = n
		}
	}
	subtotal, _ := quote.ParseBRL(cell(row, cols.subtotal))
	return quote.NewLineItem(
		cell(row, cols.name),
		qty,
		cell(row, cols.specs),
		cell(row, cols.material),
		subtotal,
	)
}
