package model

// Track represents one audio item in the library or the playlist.
// Use Clone for a copy that shares nothing with the original.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist,omitempty"`
	File     string `json:"file"`               // Identifier returned by the track store
	Album    string `json:"album,omitempty"`
	Duration *int   `json:"duration,omitempty"` // Duration in seconds, nil when unknown
	Genre    string `json:"genre,omitempty"`
	Artwork  string `json:"artwork,omitempty"` // data:image/...;base64,... when the file embeds cover art
}

// DurationSeconds returns a pointer suitable for Track.Duration.
// Negative values are treated as unknown.
func DurationSeconds(seconds int) *int {
	if seconds < 0 {
		return nil
	}
	return &seconds
}

// Clone returns a copy of t with its own Duration.
func (t Track) Clone() Track {
	if t.Duration != nil {
		d := *t.Duration
		t.Duration = &d
	}
	return t
}
