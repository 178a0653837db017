package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"Playdeck/core/metadata"
	"Playdeck/core/nowplaying"
	"Playdeck/core/playlist"
	"Playdeck/logger"
	"Playdeck/storage"

	"github.com/gorilla/mux"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest     = "bad_request"
	codeMissingFile    = "missing_file"
	codeDisallowedType = "disallowed_type"
	codeInvalidName    = "invalid_name"
	codeTooLarge       = "too_large"
	codeNotFound       = "not_found"
	codeEmpty          = "empty"
	codeBoundary       = "boundary"
	codeInternal       = "internal"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// invalidator is implemented by extractors that cache results.
type invalidator interface {
	Invalidate(ctx context.Context, fileID string)
}

// APIHandler serves the JSON API.
type APIHandler struct {
	session        *playlist.Session
	store          storage.TrackStore
	extractor      metadata.Extractor
	hub            *nowplaying.Hub
	maxUploadBytes int64
}

// NewAPIHandler creates a handler. hub may be nil, in which case the
// websocket feed is unavailable.
func NewAPIHandler(session *playlist.Session, store storage.TrackStore, extractor metadata.Extractor, hub *nowplaying.Hub, maxUploadBytes int64) *APIHandler {
	return &APIHandler{
		session:        session,
		store:          store,
		extractor:      extractor,
		hub:            hub,
		maxUploadBytes: maxUploadBytes,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// pathVar returns the decoded route variable name. The router matches on the
// escaped path, so "%2F" inside a variable stays part of it. On a malformed
// escape it writes a 400 and returns false.
func pathVar(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "malformed "+name+" in path")
		return "", false
	}
	return value, true
}

// writeStoreError maps track store and request body errors to a response.
// Unexpected errors are logged and reported as 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrDisallowedType):
		writeError(w, http.StatusBadRequest, codeDisallowedType, err.Error())
	case errors.Is(err, storage.ErrInvalidName):
		writeError(w, http.StatusBadRequest, codeInvalidName, err.Error())
	case errors.Is(err, storage.ErrTooLarge), errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "file too large")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "file not found")
	default:
		writeInternalError(w, r, err)
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("request failed",
		logger.String("request_id", RequestIDFrom(r.Context())),
		logger.String("path", r.URL.Path),
		logger.ErrorField(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}

// HealthHandler reports liveness together with a few counters.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	length := h.session.Len()
	listeners := 0
	if h.hub != nil {
		listeners = h.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"length":    length,
		"listeners": listeners,
	})
}
