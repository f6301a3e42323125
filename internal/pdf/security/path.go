// Package security confines the files the service reads and writes to its
// work directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
)

// PathValidator keeps file access inside a work directory
type PathValidator struct {
	workDirectory string
}

// NewPathValidator creates a new path validator for the given directory.
// The directory does not have to exist yet.
func NewPathValidator(workDirectory string) (*PathValidator, error) {
	if workDirectory == "" {
		return nil, fmt.Errorf("work directory cannot be empty")
	}

	abs, err := filepath.Abs(workDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory: %w", err)
	}

	return &PathValidator{workDirectory: filepath.Clean(abs)}, nil
}

// WorkDirectory returns the absolute work directory
func (v *PathValidator) WorkDirectory() string {
	return v.workDirectory
}

// Resolve returns the absolute form of path, joined to the work directory
// when relative, after checking it stays inside the work directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.workDirectory, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !v.IsWithin(abs) {
		return "", pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeSecurityRestriction,
			"path is outside the work directory", path)
	}
	return abs, nil
}

// ResolveFile is Resolve plus a required file extension such as ".pdf".
func (v *PathValidator) ResolveFile(path, ext string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(abs), ext) {
		return "", pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidInput,
			fmt.Sprintf("file must have a %s extension", ext), path)
	}
	return abs, nil
}

// IsWithin reports whether path, after cleaning and following a symlink at
// its final element, lies inside the work directory.
func (v *PathValidator) IsWithin(path string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := v.workDirectory

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	within := func(p string) bool {
		for _, dir := range []string{cleanDir, realDir} {
			if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}

	return within(cleanPath) && within(realPath)
}
