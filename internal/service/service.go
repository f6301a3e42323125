// Package service orchestrates quote import, rendering, editing and backups
// on behalf of the MCP and HTTP transports.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/extract"
	"github.com/a3tai/orcamento/internal/logging"
	"github.com/a3tai/orcamento/internal/pdf"
	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
	"github.com/a3tai/orcamento/internal/pdf/security"
	"github.com/a3tai/orcamento/internal/quote"
)

// Options configures a Service.
type Options struct {
	WorkDirectory   string
	BackupDirectory string
	Decoder         string
	MaxFileSize     int64
	DumpText        bool
	Company         pdf.Company
	Store           backup.Store
	Logger          *log.Logger
	Now             func() time.Time
}

// Service handles quote operations by orchestrating the PDF, extraction and
// backup components
type Service struct {
	pathValidator *security.PathValidator
	validator     *pdf.Validator
	decoder       pdf.Decoder
	decoderName   string
	decoderErr    error
	renderer      *pdf.Renderer
	store         backup.Store
	backupDir     string
	dumpText      bool
	logger        *log.Logger
	now           func() time.Time
}

// ImportResult is a quote read back from a PDF.
type ImportResult struct {
	Quote    quote.Quote `json:"quote"`
	Pages    int         `json:"pages"`
	Decoder  string      `json:"decoder"`
	Source   string      `json:"source,omitempty"`
	TextDump string      `json:"text_dump,omitempty"`
}

// RenderResult describes a quote PDF written to disk.
type RenderResult struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	Size     int    `json:"size"`
}

// New creates a service. A decoder that cannot be built does not fail
// construction: imports report it while rendering and backups keep working.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("backup store is required")
	}

	pathValidator, err := security.NewPathValidator(opts.WorkDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		pathValidator: pathValidator,
		validator:     pdf.NewValidator(opts.MaxFileSize),
		decoderName:   opts.Decoder,
		renderer:      pdf.NewRenderer(opts.Company),
		store:         opts.Store,
		backupDir:     opts.BackupDirectory,
		dumpText:      opts.DumpText,
		logger:        logger,
		now:           now,
	}

	s.decoder, s.decoderErr = pdf.NewDecoder(opts.Decoder, s.validator)
	if s.decoderErr != nil {
		logger.Warn().Str("decoder", opts.Decoder).Err(s.decoderErr).Msg("PDF import disabled")
	} else {
		s.decoderName = s.decoder.Name()
	}

	return s, nil
}

// WorkDirectory returns the directory quote files are confined to
func (s *Service) WorkDirectory() string {
	return s.pathValidator.WorkDirectory()
}

// ImportPDF reads a quote PDF from the work directory
func (s *Service) ImportPDF(ctx context.Context, path string) (*ImportResult, error) {
	abs, err := s.pathValidator.ResolveFile(path, ".pdf")
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateFile(abs); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeDecodeFailure, "failed to read file", err).WithFile(abs)
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	res, err := s.importBytes(ctx, data, name)
	if err != nil {
		return nil, err
	}
	res.Source = abs
	return res, nil
}

// ImportPDFBytes reads a quote from an uploaded PDF
func (s *Service) ImportPDFBytes(ctx context.Context, data []byte) (*ImportResult, error) {
	return s.importBytes(ctx, data, "import_"+s.now().Format("20060102_150405"))
}

func (s *Service) importBytes(ctx context.Context, data []byte, name string) (*ImportResult, error) {
	if s.decoderErr != nil {
		return nil, s.decoderErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	doc, err := s.decoder.Decode(data)
	if err != nil {
		s.logger.Warn().Str("source", name).Err(err).Msg("PDF decode failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := doc.Text()
	q, err := extract.Extract(text, doc.Tables())
	if err != nil {
		s.logger.Error().Str("source", name).Err(err).Msg("quote extraction failed")
		return nil, err
	}

	res := &ImportResult{Quote: q, Pages: len(doc.Pages), Decoder: s.decoderName}
	if s.dumpText {
		dump, err := s.writeTextDump(name, text)
		if err != nil {
			s.logger.Warn().Str("source", name).Err(err).Msg("text dump failed")
		} else {
			res.TextDump = dump
		}
	}

	s.logger.Info().
		Str("source", name).
		Int("pages", res.Pages).
		Int("items", len(q.LineItems)).
		Str("client", q.ClientName).
		Dur("elapsed", s.now().Sub(start)).
		Msg("quote imported")
	return res, nil
}

func (s *Service) writeTextDump(name, text string) (string, error) {
	if s.backupDir == "" {
		return "", fmt.Errorf("no backup directory configured")
	}
	path := filepath.Join(s.backupDir, name+"_text.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("failed to write text dump: %w", err)
	}
	return path, nil
}

// RenderPDFBytes lays out the form as a PDF document
func (s *Service) RenderPDFBytes(form quote.Form) ([]byte, string, error) {
	now := s.now()
	data, err := s.renderer.Render(form, now)
	if err != nil {
		return nil, "", err
	}
	return data, pdf.FileName(form.Quote.ClientName, now), nil
}

// RenderPDF writes the form's PDF inside the work directory. An empty
// outPath uses the standard quote file name.
func (s *Service) RenderPDF(form quote.Form, outPath string) (*RenderResult, error) {
	data, name, err := s.RenderPDFBytes(form)
	if err != nil {
		return nil, err
	}
	if outPath == "" {
		outPath = name
	}

	abs, err := s.pathValidator.ResolveFile(outPath, ".pdf")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write quote PDF: %w", err)
	}

	s.logger.Info().Str("path", abs).Int("bytes", len(data)).Msg("quote rendered")
	return &RenderResult{Path: abs, FileName: filepath.Base(abs), Size: len(data)}, nil
}

// Apply runs one editor action against form
func (s *Service) Apply(form quote.Form, action quote.Action) (quote.Form, error) {
	return quote.Reduce(form, action)
}

// SaveBackup stores a snapshot of form and returns its key
func (s *Service) SaveBackup(ctx context.Context, form quote.Form) (string, error) {
	key, rec, err := backup.Snapshot(form, s.now())
	if err != nil {
		return "", err
	}
	if err := s.store.Save(ctx, key, rec); err != nil {
		return "", err
	}
	s.logger.Info().Str("key", key).Int("items", len(rec.Itens)).Msg("backup saved")
	return key, nil
}

// ListBackups lists the backups of client, or all backups when empty
func (s *Service) ListBackups(ctx context.Context, client string) ([]backup.Entry, error) {
	return s.store.List(ctx, strings.TrimSpace(client))
}

// RestoreBackup loads the form saved under key
func (s *Service) RestoreBackup(ctx context.Context, key string) (quote.Form, error) {
	rec, err := s.store.Load(ctx, key)
	if err != nil {
		return quote.Form{}, err
	}
	return rec.Form(), nil
}

// ImportBackupJSON reads an uploaded backup document into a form
func (s *Service) ImportBackupJSON(r io.Reader) (quote.Form, error) {
	rec, err := backup.Decode(r)
	if err != nil {
		return quote.Form{}, pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, "invalid backup file", err)
	}
	return rec.Form(), nil
}

// Close releases the backup store
func (s *Service) Close() error {
	return s.store.Close()
}
