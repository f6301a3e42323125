package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PDFError represents a failure while reading, decoding or extracting a quote PDF
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Cause      error     `json:"-"`
}

// ErrorType represents the categories surfaced to the user
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeMissingDependency means no PDF decoding backend is available.
	ErrorTypeMissingDependency
	// ErrorTypeDecodeFailure means the bytes could not be read as a PDF.
	ErrorTypeDecodeFailure
	// ErrorTypeExtractionFailure means the decoded content could not be turned into a quote.
	ErrorTypeExtractionFailure
	ErrorTypeInvalidInput
	ErrorTypeSecurityRestriction
	ErrorTypeResourceNotFound
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// Is matches PDFErrors by type so callers can compare against a template
func (e *PDFError) Is(target error) bool {
	var t *PDFError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeMissingDependency:
		return "MISSING_DEPENDENCY"
	case ErrorTypeDecodeFailure:
		return "DECODE_FAILURE"
	case ErrorTypeExtractionFailure:
		return "EXTRACTION_FAILURE"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	case ErrorTypeResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps err as a PDFError of the given type
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	e.Cause = err
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// TypeOf returns the ErrorType of the first PDFError in err's chain
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// IsMissingDependency reports whether err was caused by a missing decoder
func IsMissingDependency(err error) bool {
	return TypeOf(err) == ErrorTypeMissingDependency
}

// IsDecodeFailure reports whether err was caused by unreadable PDF content
func IsDecodeFailure(err error) bool {
	return TypeOf(err) == ErrorTypeDecodeFailure
}

// IsExtractionFailure reports whether err happened while building a quote
func IsExtractionFailure(err error) bool {
	return TypeOf(err) == ErrorTypeExtractionFailure
}

// IsInvalidInput reports whether err was caused by bad caller input
func IsInvalidInput(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeInvalidInput, ErrorTypeSecurityRestriction:
		return true
	}
	return false
}

// Recovered converts a recovered panic value into a PDFError of the given type
func Recovered(errorType ErrorType, message string, r any) *PDFError {
	if err, ok := r.(error); ok {
		return WrapError(errorType, message, err)
	}
	return WrapError(errorType, message, fmt.Errorf("panic: %v", r))
}
