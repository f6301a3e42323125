package pdf

import (
	"math"
	"sort"
	"strings"
)

const (
	// wordGap is the horizontal distance, in points, that separates two
	// text runs into different words.
	wordGap = 1.0
	// cellGap separates header words into different columns.
	cellGap = 3.0
	// anchorTolerance lets cell text start slightly left of its header.
	anchorTolerance = 2.0
	// lineTolerance is the baseline difference, in points, within which
	// runs belong to the same line.
	lineTolerance = 1.0
	// paragraphFactor marks a vertical gap as a blank line when it exceeds
	// the page's median line spacing by this factor.
	paragraphFactor = 1.6
)

// glyph is a positioned run of text as reported by a decoding backend.
type glyph struct {
	X, Y, W float64
	S       string
}

type word struct {
	Text   string
	X0, X1 float64
}

type textLine struct {
	Y     float64
	Words []word
}

func (l textLine) String() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// mergeRuns joins glyphs, in content-stream order, into text runs. A glyph
// continues the current run when it sits on the same baseline and starts
// where the run ends. Core fonts report zero widths, so every glyph of one
// shown string has the run's start X and the whole string becomes one run.
func mergeRuns(glyphs []glyph) []glyph {
	var runs []glyph
	for _, g := range glyphs {
		if n := len(runs); n > 0 {
			r := &runs[n-1]
			end := r.X + r.W
			if math.Abs(g.Y-r.Y) <= lineTolerance && g.X >= r.X && g.X-end <= wordGap {
				r.S += g.S
				if g.X+g.W > end {
					r.W = g.X + g.W - r.X
				}
				continue
			}
		}
		runs = append(runs, g)
	}
	return runs
}

// groupLines collects runs sharing a baseline into lines, top to bottom;
// PDF y grows upwards.
func groupLines(runs []glyph) []textLine {
	sorted := make([]glyph, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines []textLine
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[i].Y-sorted[j].Y <= lineTolerance {
			j++
		}
		if line := buildLine(sorted[i].Y, sorted[i:j]); len(line.Words) > 0 {
			lines = append(lines, line)
		}
		i = j
	}
	return lines
}

// buildLine orders the runs of one baseline left to right and merges
// adjacent runs into words.
func buildLine(y float64, glyphs []glyph) textLine {
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		words []word
		cur   strings.Builder
		x0    float64
		x1    float64
		open  bool
	)
	flush := func() {
		if open {
			words = append(words, word{Text: cur.String(), X0: x0, X1: x1})
			cur.Reset()
			open = false
		}
	}
	add := func(s string, x, w float64) {
		if open && x-x1 > wordGap {
			flush()
		}
		if !open {
			x0 = x
			open = true
		}
		cur.WriteString(s)
		x1 = x + w
	}

	for _, g := range sorted {
		fields := strings.Fields(g.S)
		if len(fields) == 0 {
			flush()
			continue
		}
		if g.S[0] == ' ' || g.S[0] == '\t' {
			flush()
		}
		for i, f := range fields {
			if i > 0 {
				flush()
			}
			add(f, g.X, g.W)
		}
		if last := g.S[len(g.S)-1]; last == ' ' || last == '\t' {
			flush()
		}
	}
	flush()

	return textLine{Y: y, Words: words}
}

// layoutText renders lines as text, inserting a blank line wherever the
// vertical gap is much larger than the usual line spacing.
func layoutText(lines []textLine) string {
	var gaps []float64
	for i := 1; i < len(lines); i++ {
		if g := lines[i-1].Y - lines[i].Y; g > 0 {
			gaps = append(gaps, g)
		}
	}
	threshold := 0.0
	if len(gaps) > 0 {
		sort.Float64s(gaps)
		threshold = gaps[len(gaps)/2] * paragraphFactor
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
			if threshold > 0 && lines[i-1].Y-l.Y > threshold {
				b.WriteByte('\n')
			}
		}
		b.WriteString(l.String())
	}
	return b.String()
}

// Column keywords recognised in a table header, grouped by role.
var headerKeywords = [][]string{
	{"item"},
	{"qtd", "quantidade"},
	{"especifica"},
	{"material"},
	{"subtotal", "valor"},
}

var tableEndMarkers = []string{"total geral", "valor final", "condições"}

type headerCell struct {
	Text string
	X    float64
}

// tableHeader returns the header cells of l when it names at least two
// column roles in at least two separate cells.
func tableHeader(l textLine) []headerCell {
	lower := strings.ToLower(l.String())
	roles := 0
	for _, kws := range headerKeywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				roles++
				break
			}
		}
	}
	if roles < 2 {
		return nil
	}

	var cells []headerCell
	var prevEnd float64
	for i, w := range l.Words {
		if i == 0 || w.X0-prevEnd > cellGap {
			cells = append(cells, headerCell{Text: w.Text, X: w.X0})
		} else {
			last := &cells[len(cells)-1]
			last.Text += " " + w.Text
		}
		prevEnd = w.X1
	}
	if len(cells) < 2 {
		return nil
	}
	return cells
}

func roleColumn(header []headerCell, keywords []string) int {
	col := -1
	for i, c := range header {
		h := strings.ToLower(c.Text)
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				col = i
			}
		}
	}
	return col
}

// splitCells distributes the words of l over the header's columns by
// horizontal position.
func splitCells(l textLine, header []headerCell) []string {
	parts := make([][]string, len(header))
	for _, w := range l.Words {
		col := 0
		for i, c := range header {
			if w.X0 >= c.X-anchorTolerance {
				col = i
			}
		}
		parts[col] = append(parts[col], w.Text)
	}
	cells := make([]string, len(header))
	for i, p := range parts {
		cells[i] = strings.Join(p, " ")
	}
	return cells
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// detectTables finds item grids: a header line followed by data lines up
// to and including a totals or conditions line, or the end of the page.
// A line with neither quantity nor amount continues the wrapped cells of
// the row above it.
func detectTables(lines []textLine) [][][]string {
	var tables [][][]string
	for i := 0; i < len(lines); i++ {
		header := tableHeader(lines[i])
		if header == nil {
			continue
		}

		qtyCol := roleColumn(header, headerKeywords[1])
		amountCol := roleColumn(header, headerKeywords[4])

		headerRow := make([]string, len(header))
		for k, c := range header {
			headerRow[k] = c.Text
		}
		grid := [][]string{headerRow}

		j := i + 1
		for ; j < len(lines); j++ {
			row := splitCells(lines[j], header)
			if containsMarker(strings.ToLower(lines[j].String()), tableEndMarkers) {
				grid = append(grid, row)
				break
			}
			continuation := len(grid) > 1 && amountCol >= 0 &&
				cellAt(row, qtyCol) == "" && cellAt(row, amountCol) == ""
			if continuation {
				prev := grid[len(grid)-1]
				for k, v := range row {
					if v == "" {
						continue
					}
					if prev[k] == "" {
						prev[k] = v
					} else {
						prev[k] += " " + v
					}
				}
				continue
			}
			grid = append(grid, row)
		}

		tables = append(tables, grid)
		i = j
	}
	return tables
}

func containsMarker(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
