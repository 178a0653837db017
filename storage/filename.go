package storage

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonSafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// maxNameLength bounds the stem of a stored file name.
const maxNameLength = 150

// SecureFilename reduces an uploaded file name to a flat ASCII name that is
// safe to use as a path component. It returns "" when nothing usable is left.
func SecureFilename(name string) string {
	// Strip accents: é -> e.
	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if r < unicode.MaxASCII && !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = multipleSpaces.ReplaceAllString(strings.TrimSpace(name), "_")
	name = nonSafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if len(stem) > maxNameLength {
		stem = stem[:maxNameLength]
	}
	return stem + ext
}

// Extension returns the lower-case extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Stem returns name without directory or extension.
func Stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// numbered returns name with a _n counter inserted before the extension.
func numbered(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// ContentTypeFor guesses the MIME type of an audio file from its name.
func ContentTypeFor(name string) string {
	switch Extension(name) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg", "oga", "opus":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	case "m4a", "mp4", "aac":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// Policy holds the checks every backend applies to incoming files.
type Policy struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// Allowed reports whether the extension of name is accepted.
func (p Policy) Allowed(name string) bool {
	ext := Extension(name)
	return ext != "" && slices.Contains(p.AllowedExtensions, ext)
}

// prepare validates an incoming name and returns its sanitised form.
func (p Policy) prepare(filename string) (string, error) {
	safe := SecureFilename(filename)
	if safe == "" || Stem(safe) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	if !p.Allowed(safe) {
		return "", fmt.Errorf("%w: %q (allowed: %s)", ErrDisallowedType, filename, strings.Join(p.AllowedExtensions, ", "))
	}
	return safe, nil
}

// checkID rejects identifiers that are not already in sanitised form.
func checkID(fileID string) error {
	if fileID == "" || SecureFilename(fileID) != fileID {
		return fmt.Errorf("%w: %q", ErrInvalidName, fileID)
	}
	return nil
}
