package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/orcamento/internal/quote"
)

var (
	currencyStart = regexp.MustCompile(`R\$\s*\d`)
	currencyValue = regexp.MustCompile(`R\$\s*(\d[\d.]*(?:,\d+)?)`)
	wholeNumber   = regexp.MustCompile(`^\d+$`)
)

var captureEnd = []string{"total geral", "valor final", "condições"}

func isItemHeader(lower string) bool {
	return strings.Contains(lower, "item") && strings.Contains(lower, "subtotal")
}

// lineItems scans flowed text for item rows between the item header and
// the totals or conditions block.
func lineItems(text string) []quote.LineItem {
	var items []quote.LineItem
	capturing := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !capturing {
			capturing = isItemHeader(lower)
			continue
		}
		if containsAny(lower, captureEnd) {
			break
		}
		if !currencyStart.MatchString(line) {
			continue
		}
		if item, ok := lineItem(line); ok {
			items = append(items, item)
		}
	}
	return items
}

// lineItem reads one flowed row: the last currency amount is the subtotal,
// a whole number before the first currency token is the quantity and the
// remaining leading tokens are the name.
func lineItem(line string) (quote.LineItem, bool) {
	matches := currencyValue.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return quote.LineItem{}, false
	}
	subtotal, _ := quote.ParseBRL(matches[len(matches)-1][1])

	qty := 1
	var name []string
	for _, tok := range strings.Fields(line) {
		if strings.Contains(tok, "R$") {
			break
		}
		if wholeNumber.MatchString(tok) {
			if n, err := strconv.Atoi(tok); err == nil {
				qty = n
				continue
			}
		}
		name = append(name, tok)
	}

	item := quote.NewLineItem(strings.Join(name, " "), qty, "", "", subtotal)
	return item, item.Acceptable()
}
