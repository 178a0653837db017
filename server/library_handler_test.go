package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"Playdeck/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_ListsStoredFiles(t *testing.T) {
	api := newTestAPI(t, stubExtractor{"b.mp3": {Title: "Bee", Artist: "Band"}}, 0)
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "b.mp3"), []byte("12345"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "a.ogg"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "cover.jpg"), []byte("1"), 0644))

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/songs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	songs := decode[[]librarySong](t, rec)
	require.Len(t, songs, 2)
	assert.Equal(t, 1, songs[0].ID)
	assert.Equal(t, "a.ogg", songs[0].File)
	assert.Equal(t, "a", songs[0].Title)
	assert.Equal(t, "Unknown Artist", songs[0].Artist)
	assert.Equal(t, "Bee", songs[1].Title)
	assert.Equal(t, "Band", songs[1].Artist)
	assert.Equal(t, int64(5), songs[1].Size)
}

func TestLibrary_UploadSkipsDisallowedFiles(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	req := multipartRequest(t, http.MethodPost, "/api/upload", "files", map[string][]byte{
		"one.mp3":   []byte("1"),
		"two.wav":   []byte("2"),
		"readme.md": []byte("3"),
	}, nil)

	rec := api.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[uploadResponse](t, rec)
	assert.ElementsMatch(t, []string{"one.mp3", "two.wav"}, resp.Files)
	assert.Equal(t, []string{"readme.md"}, resp.Skipped)
	assert.Equal(t, "Successfully uploaded 2 files", resp.Message)
	assert.FileExists(t, filepath.Join(api.dir, "one.mp3"))
	assert.NoFileExists(t, filepath.Join(api.dir, "readme.md"))
	assert.Empty(t, titles(api.session), "library uploads do not touch the playlist")
}

func TestLibrary_UploadRequiresFiles(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	req := multipartRequest(t, http.MethodPost, "/api/upload", "files", nil, map[string]string{"x": "y"})

	rec := api.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeMissingFile, decode[errorResponse](t, rec).Code)
}

type invalidatingExtractor struct {
	stubExtractor
	invalidated []string
}

func (e *invalidatingExtractor) Invalidate(_ context.Context, fileID string) {
	e.invalidated = append(e.invalidated, fileID)
}

func TestLibrary_Delete(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	ext := &invalidatingExtractor{stubExtractor: stubExtractor{}}
	api.router = NewRouter(NewAPIHandler(api.session, mustLocalStore(t, api.dir), ext, nil, 0), "")
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "gone.mp3"), []byte("1"), 0644))
	require.NoError(t, api.session.AppendEnd(model.Track{Title: "gone", File: "gone.mp3"}))

	rec := api.do(t, httptest.NewRequest(http.MethodDelete, "/api/delete/gone.mp3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, filepath.Join(api.dir, "gone.mp3"))
	assert.Equal(t, []string{"gone.mp3"}, ext.invalidated)
	assert.Equal(t, []string{"gone"}, titles(api.session))

	rec = api.do(t, httptest.NewRequest(http.MethodDelete, "/api/delete/gone.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decode[errorResponse](t, rec).Code)

	rec = api.do(t, httptest.NewRequest(http.MethodDelete, "/api/delete/..%2Fgone.mp3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidName, decode[errorResponse](t, rec).Code)
}
