package service

import (
	"context"
	"time"

	"github.com/a3tai/orcamento/internal/backup"
)

// Info summarises the running service for clients.
type Info struct {
	WorkDirectory   string      `json:"work_directory"`
	BackupDirectory string      `json:"backup_directory,omitempty"`
	Store           string      `json:"store"`
	Decoder         string      `json:"decoder"`
	ImportEnabled   bool        `json:"import_enabled"`
	ImportError     string      `json:"import_error,omitempty"`
	MaxFileSize     int64       `json:"max_file_size"`
	Backups         int         `json:"backups"`
	QuoteFiles      []QuoteFile `json:"quote_files"`
	Truncated       bool        `json:"truncated,omitempty"`
}

// Info reports configuration, the number of stored backups and the quote
// PDFs found in the work directory.
func (s *Service) Info(ctx context.Context) (*Info, error) {
	info := &Info{
		WorkDirectory:   s.pathValidator.WorkDirectory(),
		BackupDirectory: s.backupDir,
		Store:           storeName(s.store),
		Decoder:         s.decoderName,
		ImportEnabled:   s.decoderErr == nil,
		MaxFileSize:     s.validator.MaxFileSize(),
		QuoteFiles:      []QuoteFile{},
	}
	if s.decoderErr != nil {
		info.ImportError = s.decoderErr.Error()
	}

	entries, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	info.Backups = len(entries)

	res, err := newScanner(5, 100, 3*time.Second).scan(ctx, info.WorkDirectory)
	if err != nil {
		return nil, err
	}
	if res.Files != nil {
		info.QuoteFiles = res.Files
	}
	info.Truncated = res.Truncated
	return info, nil
}

func storeName(s backup.Store) string {
	switch s.(type) {
	case *backup.DirStore:
		return backup.StoreDir
	case *backup.SQLiteStore:
		return backup.StoreSQLite
	default:
		return "custom"
	}
}
