package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/dejobratic/confirmdialog/internal/confirmation/i18n"
)

const (
	confirmationsPath = "/v1/confirmations"
	confirmSuffix     = "confirm"
	cancelSuffix      = "cancel"
	formParamPrefix   = "param."
	maxBodyBytes      = 1 << 20
)

var errNoSession = errors.New("request has no session")

// Handler exposes HTTP endpoints for the confirmation dialog.
type Handler struct {
	factory  *app.DialogFactory
	renderer *Renderer
	sessions *Sessions
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(factory *app.DialogFactory, renderer *Renderer, sessions *Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		factory:  factory,
		renderer: renderer,
		sessions: sessions,
		logger:   logger,
	}
}

// Register binds the confirmation handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(confirmationsPath, h.sessions.Middleware(http.HandlerFunc(h.handleConfirmations)))
	mux.Handle(confirmationsPath+"/", h.sessions.Middleware(http.HandlerFunc(h.handleConfirmationByKey)))
}

type requestPayload struct {
	Action string        `json:"action"`
	Params domain.Params `json:"params"`
}

func (h *Handler) handleConfirmations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.requestConfirmation(w, r)
	case http.MethodDelete:
		h.clearAll(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleConfirmationByKey(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, confirmationsPath+"/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		h.handleConfirmations(w, r)
		return
	}

	key, signal, hasSignal := strings.Cut(trimmed, "/")
	if key == "" || strings.Contains(signal, "/") {
		writeError(w, http.StatusNotFound, "confirmation not found")
		return
	}

	if !hasSignal {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.show(w, r, key)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch signal {
	case confirmSuffix:
		h.confirm(w, r, key)
	case cancelSuffix:
		h.cancel(w, r, key)
	default:
		writeError(w, http.StatusNotFound, "confirmation not found")
	}
}

func (h *Handler) requestConfirmation(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dialog, err := h.dialog(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	view, err := dialog.RequestConfirmation(r.Context(), payload.Action, payload.Params)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	if !wantsJSON(r) {
		// Post/Redirect/Get so that reloading the prompt does not re-register it.
		http.Redirect(w, r, confirmationsPath+"/"+view.Key, http.StatusSeeOther)
		return
	}
	h.respond(w, r, view)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request, key string) {
	dialog, err := h.dialog(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	view, err := dialog.Show(r.Context(), key)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.respond(w, r, view)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, key string) {
	dialog, err := h.dialog(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	view, err := dialog.Confirm(r.Context(), key)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.respond(w, r, view)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, key string) {
	dialog, err := h.dialog(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	view, err := dialog.Cancel(r.Context(), key)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.respond(w, r, view)
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	dialog, err := h.dialog(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	if err := dialog.ClearAll(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dialog(r *http.Request) (*app.Dialog, error) {
	sessionID, ok := SessionID(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return h.factory.Create(sessionID)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, view app.View) {
	tag := i18n.ResolveTag(r)
	status := view.State.HTTPStatus()

	if wantsJSON(r) {
		msg := Message(i18n.Printer(tag), view)
		response := map[string]any{
			"confirmation": view,
			"message":      msg,
		}
		if view.Err != nil {
			response["error"] = msg
		}
		writeJSON(w, status, response)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, view, tag); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dialog",
			"error", err,
			"state", view.State,
		)
		writeError(w, http.StatusInternalServerError, "failed to render dialog")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", tag.String())
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidState) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.ErrorContext(r.Context(), "confirmation request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (requestPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var payload requestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return requestPayload{}, errors.New("invalid JSON payload")
		}
		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return requestPayload{}, errors.New("invalid form payload")
	}

	payload := requestPayload{
		Action: strings.TrimSpace(r.PostForm.Get("action")),
		Params: domain.Params{},
	}
	for name, values := range r.PostForm {
		param, ok := strings.CutPrefix(name, formParamPrefix)
		if !ok || param == "" || len(values) == 0 {
			continue
		}
		payload.Params[param] = formValue(values[0])
	}
	return payload, nil
}

// formValue reads canonical numbers the way the JSON decoder does, so form and
// JSON callers derive the same key for the same logical action.
func formValue(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil && strconv.FormatInt(n, 10) == value {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		strconv.FormatFloat(f, 'g', -1, 64) == value {
		return f
	}
	return value
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
