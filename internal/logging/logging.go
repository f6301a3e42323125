// Package logging builds the phuslu/log logger shared by the service and
// its transports.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New returns a leveled console logger writing to w, or to stderr when w
// is nil. Stdout is never used: it carries the MCP protocol in stdio mode.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{Writer: w},
	}
}

// Discard returns a logger that drops everything, for tests and callers
// that do not care.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
