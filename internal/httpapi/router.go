// Package httpapi exposes the quote service over HTTP with chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phuslu/log"

	"github.com/a3tai/orcamento/internal/logging"
	"github.com/a3tai/orcamento/internal/service"
)

// Options configures the router.
type Options struct {
	// MaxBodySize caps request bodies; uploads above it are rejected.
	MaxBodySize int64
	// MCP, when set, is mounted at /mcp.
	MCP    http.Handler
	Logger *log.Logger
}

// NewRouter builds the HTTP API around svc
func NewRouter(svc *service.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handlers{svc: svc, logger: logger, maxBody: opts.MaxBodySize}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", h.Info)

		r.Post("/quotes/import", h.ImportPDF)
		r.Post("/quotes/pdf", h.RenderPDF)
		r.Post("/quotes/apply", h.Apply)

		r.Post("/backups", h.SaveBackup)
		r.Get("/backups", h.ListBackups)
		r.Post("/backups/import", h.ImportBackup)
		r.Get("/backups/{key}", h.RestoreBackup)
	})

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	return r
}

// requestLogger logs one line per request with phuslu/log.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}
