package model

// Metadata is what could be read from an audio file's tags and frames.
// Empty strings and a nil Duration mean the value was not present.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Duration *int   `json:"duration,omitempty"`
	Artwork  string `json:"artwork,omitempty"`
}

// IsZero reports whether no field was found.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Artist == "" && m.Album == "" && m.Genre == "" && m.Duration == nil && m.Artwork == ""
}
