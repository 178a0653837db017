// Package metadata reads titles, artists, durations and cover art from
// stored audio files.
package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"time"

	"Playdeck/logger"
	"Playdeck/model"
	"Playdeck/storage"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Extractor looks up metadata for a stored file. It never fails: ok is
// false when nothing could be read.
type Extractor interface {
	Extract(ctx context.Context, fileID string) (meta model.Metadata, ok bool)
}

// Opener is the part of storage.TrackStore the extractor needs.
type Opener interface {
	Open(ctx context.Context, fileID string) (*storage.Object, error)
}

// TagExtractor parses tags and frames directly from the track store.
type TagExtractor struct {
	store Opener
}

// NewTagExtractor returns an extractor reading from store.
func NewTagExtractor(store Opener) *TagExtractor {
	return &TagExtractor{store: store}
}

// Extract implements Extractor.
func (e *TagExtractor) Extract(ctx context.Context, fileID string) (model.Metadata, bool) {
	obj, err := e.store.Open(ctx, fileID)
	if err != nil {
		logger.Debug("metadata unavailable", logger.String("file", fileID), logger.ErrorField(err))
		return model.Metadata{}, false
	}
	defer obj.Close()

	meta, ok := read(obj, storage.Extension(fileID))
	if !ok || meta.IsZero() {
		logger.Debug("no readable metadata", logger.String("file", fileID))
		return model.Metadata{}, false
	}
	return meta, true
}

// read extracts what it can from r. ok reports whether any parser
// recognised the content.
func read(r io.ReadSeeker, ext string) (meta model.Metadata, ok bool) {
	m, err := tag.ReadFrom(r)
	switch {
	case err == nil:
		ok = true
		meta.Title = m.Title()
		meta.Artist = m.Artist()
		if meta.Artist == "" {
			meta.Artist = m.AlbumArtist()
		}
		meta.Album = m.Album()
		meta.Genre = m.Genre()
		if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
			meta.Artwork = dataURI(pic.MIMEType, pic.Data)
		}
	case ext == "mp3":
		// dhowden/tag rejects some ID3 frames id3v2 handles, and files
		// with no tags at all.
		if fallback, found := readID3(r); found {
			meta = fallback
			ok = true
		}
	}

	if ext == "mp3" {
		if _, err := r.Seek(0, io.SeekStart); err == nil {
			if d, err := mp3Duration(r); err == nil && d > 0 {
				meta.Duration = model.DurationSeconds(int(d / time.Second))
				ok = true
			}
		}
	}
	return meta, ok
}

func readID3(r io.ReadSeeker) (model.Metadata, bool) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return model.Metadata{}, false
	}
	id3tag, err := id3v2.ParseReader(r, id3v2.Options{Parse: true})
	if err != nil || id3tag.Count() == 0 {
		return model.Metadata{}, false
	}
	meta := model.Metadata{
		Title:  id3tag.Title(),
		Artist: id3tag.Artist(),
		Album:  id3tag.Album(),
		Genre:  id3tag.Genre(),
	}
	for _, frame := range id3tag.GetFrames(id3tag.CommonID("Attached picture")) {
		if pic, ok := frame.(id3v2.PictureFrame); ok && len(pic.Picture) > 0 {
			meta.Artwork = dataURI(pic.MimeType, pic.Picture)
			break
		}
	}
	return meta, true
}

// mp3Duration sums the duration of every MPEG frame in r.
func mp3Duration(r io.Reader) (time.Duration, error) {
	d := mp3.NewDecoder(r)
	var frame mp3.Frame
	var skipped int
	var duration time.Duration

	for {
		err := d.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			if duration > 0 {
				// Trailing garbage after valid audio.
				break
			}
			return 0, err
		}
		duration += frame.Duration()
	}
	return duration, nil
}

func dataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
