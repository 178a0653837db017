package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Song.mp3", "My_Song.mp3"},
		{"../../etc/passwd.mp3", "etc_passwd.mp3"},
		{`C:\music\track.wav`, "C_music_track.wav"},
		{"Café Olé.flac", "Cafe_Ole.flac"},
		{"a<b>c?.ogg", "abc.ogg"},
		{"  spaced   out  .m4a", "spaced_out_.m4a"},
		{"", ""},
		{"../", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestSecureFilename_TruncatesStem(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	got := SecureFilename(string(long) + ".mp3")
	assert.Len(t, got, maxNameLength+len(".mp3"))
	assert.Equal(t, "mp3", Extension(got))
}

func TestExtensionAndStem(t *testing.T) {
	assert.Equal(t, "mp3", Extension("Track.MP3"))
	assert.Equal(t, "", Extension("README"))
	assert.Equal(t, "Track", Stem("Track.MP3"))
	assert.Equal(t, "song", Stem(`dir\sub\song.flac`))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
}

func TestNumbered(t *testing.T) {
	assert.Equal(t, "song.mp3", numbered("song.mp3", 0))
	assert.Equal(t, "song_2.mp3", numbered("song.mp3", 2))
	assert.Equal(t, "noext_1", numbered("noext", 1))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentTypeFor("a.mp3"))
	assert.Equal(t, "audio/flac", ContentTypeFor("a.FLAC"))
	assert.Equal(t, "audio/mp4", ContentTypeFor("a.m4a"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("a.bin"))
}

func TestPolicy_Prepare(t *testing.T) {
	p := Policy{AllowedExtensions: []string{"mp3", "wav"}}

	name, err := p.prepare("My Song.MP3")
	require.NoError(t, err)
	assert.Equal(t, "My_Song.MP3", name)

	_, err = p.prepare("notes.txt")
	assert.ErrorIs(t, err, ErrDisallowedType)

	_, err = p.prepare("noextension")
	assert.ErrorIs(t, err, ErrDisallowedType)

	_, err = p.prepare("///")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, checkID("song_1.mp3"))
	assert.ErrorIs(t, checkID(""), ErrInvalidName)
	assert.ErrorIs(t, checkID("../song.mp3"), ErrInvalidName)
	assert.ErrorIs(t, checkID("sub/song.mp3"), ErrInvalidName)
}
