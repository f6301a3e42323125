package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// DirStore keeps one <key>.json file per backup in a directory.
type DirStore struct {
	dir string
}

// NewDirStore opens a directory store, creating the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the backup directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Save writes rec atomically under key.
func (s *DirStore) Save(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".backup-*")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backup %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write backup %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed to store backup %s: %w", key, err)
	}
	return nil
}

// Load reads the backup stored under key.
func (s *DirStore) Load(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if !ValidKey(key) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	f, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to open backup %s: %w", key, err)
	}
	defer f.Close()

	return Decode(f)
}

// List scans the directory. Files that do not decode as backups are skipped.
func (s *DirStore) List(ctx context.Context, client string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)

		rec, err := s.Load(ctx, key)
		if err != nil {
			continue
		}
		if client != "" && rec.ClienteNome != client {
			continue
		}

		entry := Entry{Key: key, Client: rec.ClienteNome}
		if info, err := de.Info(); err == nil {
			entry.SavedAt = info.ModTime().UTC()
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Close is a no-op.
func (s *DirStore) Close() error { return nil }
