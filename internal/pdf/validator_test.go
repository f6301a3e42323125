package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024) // 1KB limit

	tempDir := t.TempDir()

	validPDFPath := filepath.Join(tempDir, "valid.pdf")
	largePDFPath := filepath.Join(tempDir, "large.pdf")
	emptyPDFPath := filepath.Join(tempDir, "empty.pdf")
	nonPDFPath := filepath.Join(tempDir, "document.txt")

	require.NoError(t, os.WriteFile(validPDFPath, []byte("%PDF-1.4\n"), 0o600))
	require.NoError(t, os.WriteFile(largePDFPath, make([]byte, 2048), 0o600))
	require.NoError(t, os.WriteFile(emptyPDFPath, nil, 0o600))
	require.NoError(t, os.WriteFile(nonPDFPath, []byte("text"), 0o600))

	tests := []struct {
		name     string
		path     string
		wantType pdferrors.ErrorType
	}{
		{name: "valid file", path: validPDFPath},
		{name: "empty path", path: "", wantType: pdferrors.ErrorTypeInvalidInput},
		{name: "missing file", path: filepath.Join(tempDir, "missing.pdf"), wantType: pdferrors.ErrorTypeResourceNotFound},
		{name: "directory", path: tempDir, wantType: pdferrors.ErrorTypeInvalidInput},
		{name: "wrong extension", path: nonPDFPath, wantType: pdferrors.ErrorTypeInvalidInput},
		{name: "empty file", path: emptyPDFPath, wantType: pdferrors.ErrorTypeInvalidInput},
		{name: "too large", path: largePDFPath, wantType: pdferrors.ErrorTypeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFile(tt.path)
			if tt.wantType == pdferrors.ErrorTypeUnknown {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, pdferrors.TypeOf(err))
		})
	}
}

func TestValidator_ValidateBytes(t *testing.T) {
	rendered, err := testRenderer().Render(sampleForm(), renderDate)
	require.NoError(t, err)

	validator := NewValidator(int64(len(rendered)) + 1)

	pages, err := validator.ValidateBytes(rendered)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 1)

	_, err = validator.ValidateBytes([]byte("GIF89a"))
	assert.True(t, pdferrors.IsDecodeFailure(err))

	_, err = NewValidator(10).ValidateBytes(rendered)
	assert.True(t, pdferrors.IsInvalidInput(err))
}
