package playlist

import (
	"sync"

	"Playdeck/logger"
	"Playdeck/model"
)

// EventType names a change that happened to a session's playlist.
type EventType string

const (
	EventAppended EventType = "appended"
	EventRemoved  EventType = "removed"
	EventMoved    EventType = "moved"
)

// Event describes one completed mutation.
type Event struct {
	Type    EventType    `json:"type"`
	Track   model.Track  `json:"track"`
	Current *model.Track `json:"current,omitempty"`
	Length  int          `json:"length"`
}

// Listener receives events in mutation order. It runs with the session
// lock held, so it must not block or call back into the session.
type Listener func(Event)

// Session serialises access to one Playlist. Each method holds the lock for
// exactly one playlist operation.
type Session struct {
	mu        sync.Mutex
	playlist  *Playlist
	listeners []Listener
	checks    bool
}

// NewSession wraps a fresh, empty playlist.
func NewSession() *Session {
	return &Session{playlist: New()}
}

// Subscribe registers fn for every subsequent event. It is meant to be called
// during startup, before the session is shared.
func (s *Session) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetChecks enables a full Validate walk after every mutation. The walk is
// O(n), so it is off unless requested.
func (s *Session) SetChecks(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = on
}

// AppendEnd adds a track at the tail.
func (s *Session) AppendEnd(track model.Track) error {
	return s.append(track, false)
}

// AppendStart adds a track at the head.
func (s *Session) AppendStart(track model.Track) error {
	return s.append(track, true)
}

func (s *Session) append(track model.Track, atStart bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if atStart {
		s.playlist.AppendStart(track)
	} else {
		s.playlist.AppendEnd(track)
	}
	return s.emitLocked(EventAppended, track)
}

// RemoveByTitle removes the first track with the given title.
// It returns ErrNotFound when nothing matched.
func (s *Session) RemoveByTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed model.Track
	found := false
	for t := range s.playlist.All() {
		if t.Title == title {
			removed, found = t, true
			break
		}
	}
	if !found || !s.playlist.RemoveByTitle(title) {
		return ErrNotFound
	}
	return s.emitLocked(EventRemoved, removed)
}

// StepForward advances the cursor. See Playlist.StepForward.
func (s *Session) StepForward() (model.Track, error) {
	return s.step(s.playlist.StepForward)
}

// StepBackward moves the cursor back. See Playlist.StepBackward.
func (s *Session) StepBackward() (model.Track, error) {
	return s.step(s.playlist.StepBackward)
}

func (s *Session) step(move func() (model.Track, error)) (model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track, err := move()
	if err != nil {
		return track, err
	}
	if err := s.emitLocked(EventMoved, track); err != nil {
		return model.Track{}, err
	}
	return track, nil
}

// Current returns the track under the cursor.
func (s *Session) Current() (model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.Current()
}

// Len returns the number of tracks.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.Len()
}

// Snapshot copies the tracks in order together with the playlist length and
// the cursor position (-1 when unset). The copy stays valid after later
// mutations.
func (s *Session) Snapshot() (tracks []model.Track, length int, currentIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.Tracks(), s.playlist.Len(), s.playlist.CurrentIndex()
}

// View calls fn with a snapshot while holding the lock. No event is emitted
// until fn returns, so a listener attached inside fn sees every later change
// and nothing earlier. fn must not call back into the session.
func (s *Session) View(fn func(tracks []model.Track, length int, currentIndex int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.playlist.Tracks(), s.playlist.Len(), s.playlist.CurrentIndex())
}

// emitLocked optionally validates the playlist, then hands the event for a
// completed mutation to every listener. Callers must hold s.mu.
func (s *Session) emitLocked(typ EventType, track model.Track) error {
	if s.checks {
		if err := s.playlist.Validate(); err != nil {
			logger.Error("playlist invariant violated",
				logger.String("event", string(typ)),
				logger.String("title", track.Title),
				logger.ErrorField(err))
			return err
		}
	}
	ev := Event{Type: typ, Track: track, Length: s.playlist.Len()}
	if cur, err := s.playlist.Current(); err == nil {
		ev.Current = &cur
	}
	for _, fn := range s.listeners {
		fn(ev)
	}
	return nil
}
