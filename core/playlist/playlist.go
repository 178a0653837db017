// Package playlist implements the ordered track list with a "now playing" cursor.
//
// The list is doubly linked. Forward links own the chain; back-references are
// only used to walk and relink. The cursor points at a node rather than an
// index, so inserting or removing elsewhere never has to recompute it.
package playlist

import (
	"fmt"
	"iter"

	"Playdeck/model"
)

// node links one track into the chain.
type node struct {
	track model.Track
	prev  *node
	next  *node
}

// Playlist is an ordered sequence of tracks plus a cursor.
// It is not safe for concurrent use; see Session.
type Playlist struct {
	head    *node
	tail    *node
	current *node
	length  int
}

// New returns an empty playlist with an unset cursor.
func New() *Playlist {
	return &Playlist{}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return p.length
}

// AppendEnd inserts a track after the tail.
// The cursor only moves when the playlist was empty.
func (p *Playlist) AppendEnd(track model.Track) {
	n := &node{track: track.Clone()}
	if p.head == nil {
		p.head, p.tail, p.current = n, n, n
	} else {
		n.prev = p.tail
		p.tail.next = n
		p.tail = n
	}
	p.length++
}

// AppendStart inserts a track before the head.
// The cursor only moves when the playlist was empty.
func (p *Playlist) AppendStart(track model.Track) {
	n := &node{track: track.Clone()}
	if p.head == nil {
		p.head, p.tail, p.current = n, n, n
	} else {
		n.next = p.head
		p.head.prev = n
		p.head = n
	}
	p.length++
}

// RemoveByTitle removes the first track, scanning from the head, whose title
// equals title exactly. It reports whether a track was removed.
//
// If the removed track was current, the cursor moves to its successor, or to
// its predecessor when it was the tail, or is unset when the list empties.
func (p *Playlist) RemoveByTitle(title string) bool {
	for n := p.head; n != nil; n = n.next {
		if n.track.Title != title {
			continue
		}
		p.unlink(n)
		return true
	}
	return false
}

func (p *Playlist) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if n == p.head {
		p.head = n.next
	}
	if n == p.tail {
		p.tail = n.prev
	}
	if n == p.current {
		if n.next != nil {
			p.current = n.next
		} else {
			p.current = n.prev
		}
	}
	n.prev, n.next = nil, nil
	p.length--
}

// Current returns the track under the cursor.
func (p *Playlist) Current() (model.Track, error) {
	if p.current == nil {
		return model.Track{}, ErrEmptyPlaylist
	}
	return p.current.track.Clone(), nil
}

// StepForward moves the cursor to the next track and returns it.
// At the tail the cursor stays put and ErrBoundaryReached is returned.
func (p *Playlist) StepForward() (model.Track, error) {
	if p.current == nil {
		return model.Track{}, ErrEmptyPlaylist
	}
	if p.current.next == nil {
		return p.current.track.Clone(), ErrBoundaryReached
	}
	p.current = p.current.next
	return p.current.track.Clone(), nil
}

// StepBackward moves the cursor to the previous track and returns it.
// At the head the cursor stays put and ErrBoundaryReached is returned.
func (p *Playlist) StepBackward() (model.Track, error) {
	if p.current == nil {
		return model.Track{}, ErrEmptyPlaylist
	}
	if p.current.prev == nil {
		return p.current.track.Clone(), ErrBoundaryReached
	}
	p.current = p.current.prev
	return p.current.track.Clone(), nil
}

// All yields the tracks from head to tail without touching the cursor.
// The sequence can be ranged over any number of times. It reads the live
// chain, so any mutation while ranging invalidates it.
func (p *Playlist) All() iter.Seq[model.Track] {
	return func(yield func(model.Track) bool) {
		for n := p.head; n != nil; n = n.next {
			if !yield(n.track.Clone()) {
				return
			}
		}
	}
}

// Tracks returns a copy of the tracks in order.
func (p *Playlist) Tracks() []model.Track {
	tracks := make([]model.Track, 0, p.length)
	for t := range p.All() {
		tracks = append(tracks, t)
	}
	return tracks
}

// CurrentIndex returns the zero-based position of the cursor, or -1 when unset.
func (p *Playlist) CurrentIndex() int {
	i := 0
	for n := p.head; n != nil; n = n.next {
		if n == p.current {
			return i
		}
		i++
	}
	return -1
}

// Validate walks the chain in both directions and checks the structural
// invariants. A non-nil result wraps ErrCorrupted and indicates a bug.
func (p *Playlist) Validate() error {
	if p.length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrCorrupted, p.length)
	}
	if p.length == 0 {
		if p.head != nil || p.tail != nil || p.current != nil {
			return fmt.Errorf("%w: empty playlist still references nodes", ErrCorrupted)
		}
		return nil
	}
	if p.head == nil || p.tail == nil {
		return fmt.Errorf("%w: length %d with missing head or tail", ErrCorrupted, p.length)
	}
	if p.head.prev != nil {
		return fmt.Errorf("%w: head has a predecessor", ErrCorrupted)
	}
	if p.tail.next != nil {
		return fmt.Errorf("%w: tail has a successor", ErrCorrupted)
	}

	count := 0
	sawCurrent := false
	var last *node
	for n := p.head; n != nil; n = n.next {
		count++
		if count > p.length {
			return fmt.Errorf("%w: forward walk exceeds length %d", ErrCorrupted, p.length)
		}
		if n.prev != last {
			return fmt.Errorf("%w: back-reference mismatch at position %d", ErrCorrupted, count-1)
		}
		if n == p.current {
			sawCurrent = true
		}
		last = n
	}
	if count != p.length {
		return fmt.Errorf("%w: forward walk visited %d nodes, length is %d", ErrCorrupted, count, p.length)
	}
	if last != p.tail {
		return fmt.Errorf("%w: forward walk does not end at tail", ErrCorrupted)
	}
	if !sawCurrent {
		return fmt.Errorf("%w: cursor is not reachable from head", ErrCorrupted)
	}

	back := 0
	n := p.tail
	for ; n.prev != nil; n = n.prev {
		back++
		if back > p.length {
			return fmt.Errorf("%w: backward walk exceeds length %d", ErrCorrupted, p.length)
		}
	}
	if n != p.head {
		return fmt.Errorf("%w: backward walk does not end at head", ErrCorrupted)
	}
	return nil
}
