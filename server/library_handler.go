package server

import (
	"errors"
	"fmt"
	"net/http"

	"Playdeck/core/metadata"
	"Playdeck/logger"
	"Playdeck/model"
	"Playdeck/storage"
)

// maxFilesPerUpload bounds the request size of a library upload as a
// multiple of the per-file limit.
const maxFilesPerUpload = 20

type librarySong struct {
	ID int `json:"id"`
	model.Track
	Size int64 `json:"size"`
}

type uploadResponse struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
}

// LibraryHandler lists every stored audio file with its metadata.
func (h *APIHandler) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	songs := make([]librarySong, 0, len(files))
	for i, f := range files {
		meta, _ := h.extractor.Extract(r.Context(), f.ID)
		songs = append(songs, librarySong{
			ID:    i + 1,
			Track: metadata.Resolve(f.ID, metadata.Fields{}, meta),
			Size:  f.Size,
		})
	}
	writeJSON(w, http.StatusOK, songs)
}

// UploadHandler stores every file in the "files" field. Files that are not
// accepted by the store are skipped rather than failing the request.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*maxFilesPerUpload+multipartMemory)
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

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, codeMissingFile, "no files provided")
		return
	}

	resp := uploadResponse{Files: []string{}}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeInternalError(w, r, fmt.Errorf("failed to open part %s: %w", header.Filename, err))
			return
		}
		fileID, err := h.store.Store(r.Context(), header.Filename, file)
		file.Close()
		switch {
		case err == nil:
			resp.Files = append(resp.Files, fileID)
		case errors.Is(err, storage.ErrDisallowedType), errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrTooLarge):
			logger.Info("skipping upload", logger.String("filename", header.Filename), logger.ErrorField(err))
			resp.Skipped = append(resp.Skipped, header.Filename)
		default:
			writeInternalError(w, r, err)
			return
		}
	}

	resp.Message = fmt.Sprintf("Successfully uploaded %d files", len(resp.Files))
	writeJSON(w, http.StatusOK, resp)
}

// DeleteFileHandler removes a stored file. Playlist entries that refer to
// it are left alone.
func (h *APIHandler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathVar(w, r, "filename")
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), fileID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if inv, ok := h.extractor.(invalidator); ok {
		inv.Invalidate(r.Context(), fileID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted " + fileID})
}
