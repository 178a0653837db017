package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"Playdeck/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocalStore(t *testing.T, dir string) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(dir, storage.Policy{AllowedExtensions: []string{"mp3", "wav", "ogg"}})
	require.NoError(t, err)
	return s
}

func TestMusicFile_ServesContent(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "song.mp3"), []byte("0123456789"), 0644))

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/static/music/song.mp3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0123456789", rec.Body.String())
}

func TestMusicFile_RangeRequest(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	require.NoError(t, os.WriteFile(filepath.Join(api.dir, "song.mp3"), []byte("0123456789"), 0644))

	req := httptest.NewRequest(http.MethodGet, "/static/music/song.mp3", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := api.do(t, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(body))
	assert.Equal(t, "bytes 2-5/10", rec.Header().Get("Content-Range"))
}

func TestMusicFile_NotFound(t *testing.T) {
	api := newTestAPI(t, nil, 0)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/static/music/missing.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decode[errorResponse](t, rec).Code)
}
