// Command orcamento-extract reads a quote PDF and prints the quote found in
// it, without starting a server.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/extract"
	"github.com/a3tai/orcamento/internal/pdf"
	"github.com/a3tai/orcamento/internal/quote"
)

const (
	formatText   = "text"
	formatJSON   = "json"
	formatBackup = "backup"
)

// extractionResult is the outcome of reading one PDF
type extractionResult struct {
	FilePath       string      `json:"file_path"`
	Success        bool        `json:"success"`
	Pages          int         `json:"pages"`
	Quote          quote.Quote `json:"quote"`
	Error          string      `json:"error,omitempty"`
	ExtractionTime string      `json:"extraction_time,omitempty"`
	Text           string      `json:"text,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("orcamento-extract", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", formatText, "Output format: text, json, backup")
	diagnostic := fs.Bool("diagnostic", false, "Include the decoded page text")
	decoder := fs.String("decoder", pdf.DecoderLedongthuc, "PDF decoding backend")
	maxSize := fs.Int64("max-file-size", 100*1024*1024, "Maximum PDF size in bytes")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "USAGE:")
		fmt.Fprintln(stderr, "  orcamento-extract [OPTIONS] <quote.pdf>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "OPTIONS:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	switch *format {
	case formatText, formatJSON, formatBackup:
	default:
		fmt.Fprintf(stderr, "Error: unsupported output format: %s\n", *format)
		return 2
	}

	result := extractFile(fs.Arg(0), *decoder, *maxSize, *diagnostic)

	var err error
	switch *format {
	case formatJSON:
		err = outputJSON(stdout, result)
	case formatBackup:
		if !result.Success {
			fmt.Fprintf(stderr, "Error: %s\n", result.Error)
			return 1
		}
		err = backup.Encode(stdout, backup.FromForm(quote.Form{Quote: result.Quote, Editing: quote.NoEdit}))
	default:
		outputText(stdout, result)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

func extractFile(path, decoderName string, maxSize int64, diagnostic bool) *extractionResult {
	result := &extractionResult{FilePath: path}
	if abs, err := filepath.Abs(path); err == nil {
		result.FilePath = abs
	}

	start := time.Now()
	validator := pdf.NewValidator(maxSize)
	if err := validator.ValidateFile(result.FilePath); err != nil {
		result.Error = err.Error()
		return result
	}

	decoder, err := pdf.NewDecoder(decoderName, validator)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	doc, err := decoder.Decode(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Pages = len(doc.Pages)
	if diagnostic {
		result.Text = doc.Text()
	}

	q, err := extract.Extract(doc.Text(), doc.Tables())
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Quote = q
	result.ExtractionTime = time.Since(start).String()
	return result
}

func outputJSON(w io.Writer, result *extractionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *extractionResult) {
	if !result.Success {
		fmt.Fprintf(w, "Extraction failed: %s\n", result.Error)
		return
	}

	q := result.Quote
	fmt.Fprintf(w, "File: %s (%d pages)\n", result.FilePath, result.Pages)
	fmt.Fprintf(w, "Cliente: %s\n", q.ClientName)
	if q.ClientPhone != "" {
		fmt.Fprintf(w, "Telefone: %s\n", q.ClientPhone)
	}
	if q.ClientAddress != "" {
		fmt.Fprintf(w, "Endereço: %s\n", q.ClientAddress)
	}
	if q.ProjectName != "" {
		fmt.Fprintf(w, "Projetos: %s\n", q.ProjectName)
	}
	fmt.Fprintln(w)

	if len(q.LineItems) == 0 {
		fmt.Fprintln(w, "No line items detected")
	}
	for i, item := range q.LineItems {
		fmt.Fprintf(w, "[%d] %s\n", i+1, item.Name)
		fmt.Fprintf(w, "    Qtd: %d  Preço Unit: %s  Subtotal: %s\n",
			item.Quantity, quote.FormatBRL(item.UnitPrice), quote.FormatBRL(item.Subtotal))
		if item.Specifications != "" {
			fmt.Fprintf(w, "    Especificações: %s\n", item.Specifications)
		}
		if item.Material != "" {
			fmt.Fprintf(w, "    Material: %s\n", item.Material)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %s\n", quote.FormatBRL(q.Total()))

	if result.Text != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DECODED TEXT")
		fmt.Fprintln(w, "============")
		fmt.Fprintln(w, result.Text)
	}
}
