// Package press tracks which inputs are currently held down so that a key
// produces exactly one note-on and one note-off, whatever the host repeats.
package press

import "sort"

// State holds the physical keys that are down and the pointer gesture flag.
// It is not safe for concurrent use; the owner serialises access.
type State struct {
	held        map[string]struct{}
	pointerDown bool
	pointerOver string // note id under the pointer while it is down
}

// New returns an empty state
func New() *State {
	return &State{held: make(map[string]struct{})}
}

// Hold marks id as down. It returns false when id was already down, which is
// how OS key repeat is filtered out.
func (s *State) Hold(id string) bool {
	if _, ok := s.held[id]; ok {
		return false
	}
	s.held[id] = struct{}{}
	return true
}

// Release marks id as up and reports whether it had been down
func (s *State) Release(id string) bool {
	if _, ok := s.held[id]; !ok {
		return false
	}
	delete(s.held, id)
	return true
}

// Held reports whether id is down
func (s *State) Held(id string) bool {
	_, ok := s.held[id]
	return ok
}

// HeldKeys returns the held identifiers, sorted
func (s *State) HeldKeys() []string {
	out := make([]string, 0, len(s.held))
	for id := range s.held {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReleaseAll clears every held key and returns what was held, sorted
func (s *State) ReleaseAll() []string {
	out := s.HeldKeys()
	clear(s.held)
	return out
}

// SetPointerDown records the pointer button state
func (s *State) SetPointerDown(down bool) {
	s.pointerDown = down
	if !down {
		s.pointerOver = ""
	}
}

// PointerDown reports whether a drag gesture is in progress
func (s *State) PointerDown() bool {
	return s.pointerDown
}

// PointerOver returns the note id the pointer is sounding, if any
func (s *State) PointerOver() (string, bool) {
	return s.pointerOver, s.pointerOver != ""
}

// SetPointerOver records the note id the pointer is sounding
func (s *State) SetPointerOver(noteID string) {
	s.pointerOver = noteID
}

// Reset drops all state
func (s *State) Reset() {
	clear(s.held)
	s.pointerDown = false
	s.pointerOver = ""
}
