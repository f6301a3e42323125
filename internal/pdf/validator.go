package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
)

var pdfMagic = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// MaxFileSize returns the largest accepted document in bytes
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// ValidateFile checks that filePath names a readable, non-empty PDF file
// within the size limit without parsing it.
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeResourceNotFound, "file does not exist").WithFile(filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "path is a directory, not a file").WithFile(filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "file is not a PDF").WithFile(filePath)
	}

	return v.checkSize(fileInfo.Size())
}

func (v *Validator) checkSize(size int64) error {
	if size == 0 {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "file is empty")
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidInput, "file too large",
			fmt.Sprintf("%d bytes (max: %d bytes)", size, v.maxFileSize))
	}
	return nil
}

// ValidateBytes checks size and header, then reads the document structure
// with pdfcpu in relaxed mode and returns its page count.
func (v *Validator) ValidateBytes(data []byte) (int, error) {
	if err := v.checkSize(int64(len(data))); err != nil {
		return 0, err
	}

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeDecodeFailure, "missing %PDF header")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeDecodeFailure, "failed to read PDF structure", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeDecodeFailure, "failed to count pages", err)
	}

	if ctx.PageCount == 0 {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeDecodeFailure, "document has no pages")
	}

	return ctx.PageCount, nil
}
