package metadata

import (
	"strings"

	"Playdeck/model"
	"Playdeck/storage"
)

// UnknownArtist is used when neither the request nor the tags name one.
const UnknownArtist = "Unknown Artist"

// Fields are the optional values a client sends alongside an upload.
type Fields struct {
	Title  string
	Artist string
	Album  string
	Genre  string
}

// Resolve builds the track for fileID. Non-blank fields win over tags,
// and tags win over the fallbacks (file stem, UnknownArtist).
func Resolve(fileID string, fields Fields, meta model.Metadata) model.Track {
	return model.Track{
		Title:    firstNonBlank(fields.Title, meta.Title, storage.Stem(fileID), fileID),
		Artist:   firstNonBlank(fields.Artist, meta.Artist, UnknownArtist),
		File:     fileID,
		Album:    firstNonBlank(fields.Album, meta.Album),
		Genre:    firstNonBlank(fields.Genre, meta.Genre),
		Duration: meta.Duration,
		Artwork:  meta.Artwork,
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
