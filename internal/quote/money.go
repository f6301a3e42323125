package quote

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numberRun matches the first currency-like numeric run, e.g. "1.234,56".
var numberRun = regexp.MustCompile(`\d[\d.]*(?:,\d+)?`)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// ParseBRL parses the first numeric run found in s using the Brazilian
// convention: "." groups thousands and "," separates decimals.
func ParseBRL(s string) (float64, bool) {
	run := numberRun.FindString(s)
	if run == "" {
		return 0, false
	}
	return parseBRLNumber(run)
}

func parseBRLNumber(run string) (float64, bool) {
	normalized := strings.ReplaceAll(run, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatBRL renders v as "R$ 1.234,56".
func FormatBRL(v float64) string {
	return "R$ " + brl.Sprintf("%.2f", v)
}
