package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phuslu/log"

	"github.com/a3tai/orcamento/internal/backup"
	pdferrors "github.com/a3tai/orcamento/internal/pdf/errors"
	"github.com/a3tai/orcamento/internal/quote"
	"github.com/a3tai/orcamento/internal/service"
)

const multipartMemory = 8 << 20

// Handlers serves the HTTP API
type Handlers struct {
	svc     *service.Service
	logger  *log.Logger
	maxBody int64
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ImportPDF accepts a raw PDF body or a multipart form with a "file" part.
func (h *Handlers) ImportPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.svc.ImportPDFBytes(r.Context(), data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) RenderPDF(w http.ResponseWriter, r *http.Request) {
	form, err := h.decodeForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, name, err := h.svc.RenderPDFBytes(form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type applyRequest struct {
	Form   json.RawMessage `json:"form"`
	Action json.RawMessage `json:"action"`
}

func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(req.Action) == 0 {
		h.writeError(w, r, badRequest("action is required", nil))
		return
	}

	form := quote.NewForm()
	if len(req.Form) > 0 && string(req.Form) != "null" {
		if err := json.Unmarshal(req.Form, &form); err != nil {
			h.writeError(w, r, badRequest("invalid form", err))
			return
		}
	}
	action, err := quote.DecodeAction(req.Action)
	if err != nil {
		h.writeError(w, r, badRequest("invalid action", err))
		return
	}

	next, err := h.svc.Apply(form, action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (h *Handlers) SaveBackup(w http.ResponseWriter, r *http.Request) {
	form, err := h.decodeForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	key, err := h.svc.SaveBackup(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListBackups(r.Context(), r.URL.Query().Get("client"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []backup.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": entries})
}

func (h *Handlers) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.RestoreBackup(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handlers) ImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	form, err := h.svc.ImportBackupJSON(bytes.NewReader(data))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handlers) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
}

// readUpload returns the "file" part of a multipart request or the raw body.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	h.limitBody(w, r)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, badRequest("failed to read body", err)
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, badRequest("invalid multipart body", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest(`missing "file" part`, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read upload", err)
	}
	return data, nil
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	h.limitBody(w, r)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body", err)
	}
	return nil
}

// decodeForm reads a Form body. Omitted fields keep the empty form's values.
func (h *Handlers) decodeForm(w http.ResponseWriter, r *http.Request) (quote.Form, error) {
	form := quote.NewForm()
	if err := h.decodeJSON(w, r, &form); err != nil {
		return quote.Form{}, err
	}
	return form, nil
}

func badRequest(msg string, err error) error {
	if err == nil {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, msg)
	}
	return pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, msg, err)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case pdferrors.IsMissingDependency(err):
		return http.StatusServiceUnavailable
	case pdferrors.IsDecodeFailure(err), pdferrors.IsExtractionFailure(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backup.ErrNotFound),
		pdferrors.TypeOf(err) == pdferrors.ErrorTypeResourceNotFound:
		return http.StatusNotFound
	case pdferrors.IsInvalidInput(err),
		errors.Is(err, backup.ErrIncomplete),
		errors.Is(err, backup.ErrInvalidKey),
		errors.Is(err, quote.ErrInvalidItem),
		errors.Is(err, quote.ErrIndexOutOfRange),
		errors.Is(err, quote.ErrInvalidDiscount),
		errors.Is(err, quote.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		entry = h.logger.Error()
	}
	entry.Str("path", r.URL.Path).Int("status", status).Err(err).Msg("request failed")

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
