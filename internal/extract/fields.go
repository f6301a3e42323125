package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/a3tai/orcamento/internal/quote"
)

const blankLine = `\n[ \t]*\n`

// fieldRule describes one labeled value in the quote text. Stops are
// alternatives; blankLine and endOfText are patterns, anything else is
// literal text.
type fieldRule struct {
	label  string
	stops  []string
	dotAll bool
	format func(string) string
	set    func(q *quote.Quote, v string)
}

const endOfText = ""

var fieldRules = []fieldRule{
	{label: "cliente", stops: []string{"telefone"}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.ClientName = v }},
	{label: "telefone", stops: []string{"endereço"}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.ClientPhone = v }},
	{label: "endereço", stops: []string{blankLine, "item"}, dotAll: true, format: titleCase,
		set: func(q *quote.Quote, v string) { q.ClientAddress = v }},
	{label: "prazo de entrega", stops: []string{"forma"}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.DeliveryTerm = v }},
	{label: "forma de pagamento", stops: []string{"orçamento"}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.PaymentTerms = v }},
	{label: "orçamento válido por", stops: []string{"observações"}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.ValidityPeriod = v }},
	{label: "observações", stops: []string{blankLine, "itens inclusos"}, dotAll: true, format: sentenceCase,
		set: func(q *quote.Quote, v string) { q.Notes = v }},
	{label: "itens inclusos", stops: []string{blankLine, "itens não inclusos"}, dotAll: true, format: sentenceCase,
		set: func(q *quote.Quote, v string) { q.IncludedItems = v }},
	{label: "itens não inclusos", stops: []string{blankLine, "móveis conforme", endOfText}, dotAll: true, format: sentenceCase,
		set: func(q *quote.Quote, v string) { q.ExcludedItems = v }},
	{label: "projetos", stops: []string{endOfText}, format: titleCase,
		set: func(q *quote.Quote, v string) { q.ProjectName = v }},
}

// compiledField pairs a rule with its pattern.
type compiledField struct {
	rule    fieldRule
	pattern *regexp.Regexp
}

var compiledFields = compileFields(fieldRules)

func compileFields(rules []fieldRule) []compiledField {
	out := make([]compiledField, 0, len(rules))
	for _, r := range rules {
		out = append(out, compiledField{rule: r, pattern: regexp.MustCompile(fieldPattern(r))})
	}
	return out
}

// fieldPattern builds the matcher for a rule. Values stay on the label's
// line unless the rule is dotAll, in which case they may span lines.
func fieldPattern(r fieldRule) string {
	stops := make([]string, 0, len(r.stops))
	for _, s := range r.stops {
		switch s {
		case endOfText:
			stops = append(stops, `$`)
		case blankLine:
			stops = append(stops, s)
		default:
			stops = append(stops, regexp.QuoteMeta(s))
		}
	}
	stop := "(?:" + strings.Join(stops, "|") + ")"
	label := regexp.QuoteMeta(r.label) + `[:\s]+`

	if r.dotAll {
		return `(?s)` + label + `(.*?)` + stop
	}
	if len(r.stops) == 1 && r.stops[0] == endOfText {
		return label + `([^\n]*)`
	}
	return label + `([^\n]*?)\s*` + stop
}

// titleCase builds a fresh Caser per call; Casers keep state.
func titleCase(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// sentenceCase upper-cases the first letter of s.
func sentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// extractFields runs every field rule over the lowercased text. A rule
// that does not match leaves its field empty.
func extractFields(text string, q *quote.Quote) {
	lower := strings.ToLower(text)
	for _, f := range compiledFields {
		m := f.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		f.rule.set(q, f.rule.format(v))
	}
}
