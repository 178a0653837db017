package server

import (
	"errors"
	"net/http"
	"strings"

	"Playdeck/core/metadata"
	"Playdeck/core/playlist"
	"Playdeck/logger"
	"Playdeck/model"
)

// Step outcomes reported by the next and previous endpoints.
const (
	outcomeMoved    = "moved"
	outcomeEmpty    = "empty"
	outcomeBoundary = "boundary"
)

type playlistResponse struct {
	Songs        []model.Track `json:"songs"`
	Length       int           `json:"length"`
	CurrentIndex int           `json:"currentIndex"`
}

type stepResponse struct {
	Outcome string       `json:"outcome"`
	Current *model.Track `json:"current,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
}

// AddSongHandler stores an uploaded file and appends the resulting track.
// Multipart fields:
//   - file: the audio file (required)
//   - title, artist, album, genre: override values read from tags
//   - position: "end" (default) or "start"
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeStoreError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	position := strings.ToLower(strings.TrimSpace(r.FormValue("position")))
	if position == "" {
		position = "end"
	}
	if position != "start" && position != "end" {
		writeError(w, http.StatusBadRequest, codeBadRequest, `position must be "start" or "end"`)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeMissingFile, "missing 'file' in form")
		return
	}
	defer file.Close()

	fileID, err := h.store.Store(r.Context(), header.Filename, file)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	meta, _ := h.extractor.Extract(r.Context(), fileID)
	track := metadata.Resolve(fileID, metadata.Fields{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Album:  r.FormValue("album"),
		Genre:  r.FormValue("genre"),
	}, meta)

	if position == "start" {
		err = h.session.AppendStart(track)
	} else {
		err = h.session.AppendEnd(track)
	}
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	logger.Info("song added to playlist",
		logger.String("title", track.Title),
		logger.String("file", track.File),
		logger.String("position", position))
	writeJSON(w, http.StatusCreated, track)
}

// ListSongsHandler returns the playlist in order.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	tracks, length, current := h.session.Snapshot()
	writeJSON(w, http.StatusOK, playlistResponse{Songs: tracks, Length: length, CurrentIndex: current})
}

// CurrentSongHandler returns the track under the cursor.
func (h *APIHandler) CurrentSongHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.session.Current()
	if err != nil {
		if errors.Is(err, playlist.ErrEmptyPlaylist) {
			writeError(w, http.StatusNotFound, codeEmpty, "playlist is empty")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": track})
}

// NextSongHandler advances the cursor.
func (h *APIHandler) NextSongHandler(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.session.StepForward, "no next song")
}

// PreviousSongHandler moves the cursor back.
func (h *APIHandler) PreviousSongHandler(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.session.StepBackward, "no previous song")
}

func (h *APIHandler) step(w http.ResponseWriter, r *http.Request, move func() (model.Track, error), boundaryMsg string) {
	track, err := move()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, stepResponse{Outcome: outcomeMoved, Current: &track})
	case errors.Is(err, playlist.ErrEmptyPlaylist):
		writeJSON(w, http.StatusConflict, stepResponse{Outcome: outcomeEmpty, Error: "playlist is empty", Code: codeEmpty})
	case errors.Is(err, playlist.ErrBoundaryReached):
		writeJSON(w, http.StatusConflict, stepResponse{Outcome: outcomeBoundary, Current: &track, Error: boundaryMsg, Code: codeBoundary})
	default:
		writeInternalError(w, r, err)
	}
}

// RemoveSongHandler removes the first song with the given title.
func (h *APIHandler) RemoveSongHandler(w http.ResponseWriter, r *http.Request) {
	title, ok := pathVar(w, r, "title")
	if !ok {
		return
	}
	err := h.session.RemoveByTitle(title)
	switch {
	case err == nil:
		logger.Info("song removed from playlist", logger.String("title", title))
		writeJSON(w, http.StatusOK, map[string]any{"removed": title})
	case errors.Is(err, playlist.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "no song titled "+title)
	default:
		writeInternalError(w, r, err)
	}
}
