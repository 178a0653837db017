package server

import (
	"net/http"

	"Playdeck/logger"
)

// MusicFileHandler serves a stored audio file. Range and conditional
// requests are handled by http.ServeContent.
func (h *APIHandler) MusicFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathVar(w, r, "filename")
	if !ok {
		return
	}
	obj, err := h.store.Open(r.Context(), fileID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	defer func() {
		if err := obj.Close(); err != nil {
			logger.Warn("failed to close audio file", logger.String("file", fileID), logger.ErrorField(err))
		}
	}()

	w.Header().Set("Content-Type", obj.Info.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, fileID, obj.Info.ModTime, obj)
}
