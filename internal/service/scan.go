package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// QuoteFile is a PDF found under the work directory.
type QuoteFile struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// scanner walks a directory tree for PDFs within depth, count and time
// limits. Hidden entries and symlinks are skipped.
type scanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

type scanResult struct {
	Files     []QuoteFile
	Truncated bool
}

func newScanner(maxDepth, fileLimit int, timeLimit time.Duration) *scanner {
	return &scanner{maxDepth: maxDepth, fileLimit: fileLimit, timeLimit: timeLimit}
}

func (s *scanner) scan(ctx context.Context, root string) (*scanResult, error) {
	res := &scanResult{}
	err := s.walk(ctx, root, 0, time.Now(), res)
	return res, err
}

func (s *scanner) walk(ctx context.Context, dir string, depth int, start time.Time, res *scanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}
	if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
		res.Truncated = true
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // unreadable directories are skipped
	}

	for _, entry := range entries {
		if s.fileLimit > 0 && len(res.Files) >= s.fileLimit {
			res.Truncated = true
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := s.walk(ctx, path, depth+1, start, res); err != nil {
				return err
			}
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		res.Files = append(res.Files, QuoteFile{
			Name:         entry.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	return nil
}
