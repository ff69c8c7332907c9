package keyboard

import (
	"strings"

	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/sirupsen/logrus"
)

// KeyDown handles a physical key press. Repeats of a key that is already
// down and presses with a modifier held are ignored.
func (c *Controller) KeyDown(e KeyEvent) bool {
	c.mu.Lock()
	if !c.live() {
		c.mu.Unlock()
		return false
	}
	if c.state.Held(e.Key) {
		c.mu.Unlock()
		c.log.WithField("key", e.Key).Debug("ignoring repeat of held key")
		return false
	}
	if e.Modifier() {
		c.mu.Unlock()
		return false
	}

	c.state.Hold(e.Key)
	n, ok, err := c.keys.Note(e.Key, c.layout.StartOctave(), c.layout.KeyPressOffset)
	c.mu.Unlock()

	if !ok {
		return false
	}
	if err != nil {
		c.log.WithError(err).WithField("key", e.Key).Warn("key map entry does not resolve")
		return false
	}
	c.dispatch([]noteEvent{{id: n.String(), freq: notes.Frequency(n), down: true}})
	return true
}

// KeyUp handles a physical key release. The key is always released; a note-up
// is only sent for a key whose note-down was sent. A key held across Pause or
// a reconfigure was already sounded off there and gets no second note-up.
func (c *Controller) KeyUp(e KeyEvent) bool {
	c.mu.Lock()
	if !c.live() {
		c.mu.Unlock()
		return false
	}
	wasHeld := c.state.Release(e.Key)
	n, ok, err := c.keys.Note(e.Key, c.layout.StartOctave(), c.layout.KeyPressOffset)
	c.mu.Unlock()

	if !ok || err != nil {
		return false
	}
	if wasHeld {
		c.dispatch([]noteEvent{{id: n.String(), freq: notes.Frequency(n)}})
	}
	return true
}

// PointerDown starts a gesture when it lands on a key
func (c *Controller) PointerDown(t Target) bool {
	c.mu.Lock()
	n, ok := c.keyTarget(t)
	if !ok {
		c.mu.Unlock()
		return false
	}

	var events []noteEvent
	if prev, ok := c.state.PointerOver(); ok && prev != n.String() {
		events = append(events, c.pointerUp(prev))
	}
	c.state.SetPointerDown(true)
	if prev, _ := c.state.PointerOver(); prev != n.String() {
		c.state.SetPointerOver(n.String())
		events = append(events, noteEvent{id: n.String(), freq: notes.Frequency(n), down: true})
	}
	c.mu.Unlock()

	c.dispatch(events)
	return true
}

// PointerUp ends the gesture wherever it happens and stops the note the
// pointer was sounding. It reports true only when released over a key.
func (c *Controller) PointerUp(t Target) bool {
	c.mu.Lock()
	if !c.live() {
		c.mu.Unlock()
		return false
	}
	var events []noteEvent
	if prev, ok := c.state.PointerOver(); ok {
		events = append(events, c.pointerUp(prev))
	}
	c.state.SetPointerDown(false)
	_, onKey := c.keyTarget(t)
	c.mu.Unlock()

	c.dispatch(events)
	return onKey
}

// PointerEnter plays the key dragged onto while the pointer is down
func (c *Controller) PointerEnter(t Target) bool {
	c.mu.Lock()
	n, ok := c.keyTarget(t)
	if !ok || !c.state.PointerDown() {
		c.mu.Unlock()
		return false
	}
	var events []noteEvent
	prev, sounding := c.state.PointerOver()
	if sounding && prev == n.String() {
		c.mu.Unlock()
		return false
	}
	if sounding {
		events = append(events, c.pointerUp(prev))
	}
	c.state.SetPointerOver(n.String())
	events = append(events, noteEvent{id: n.String(), freq: notes.Frequency(n), down: true})
	c.mu.Unlock()

	c.dispatch(events)
	return true
}

// PointerLeave stops the key the pointer drags off
func (c *Controller) PointerLeave(t Target) bool {
	c.mu.Lock()
	n, ok := c.keyTarget(t)
	if !ok || !c.state.PointerDown() {
		c.mu.Unlock()
		return false
	}
	prev, sounding := c.state.PointerOver()
	if !sounding || prev != n.String() {
		c.mu.Unlock()
		return false
	}
	events := []noteEvent{c.pointerUp(prev)}
	c.state.SetPointerOver("")
	c.mu.Unlock()

	c.dispatch(events)
	return true
}

// NoteOn plays noteID on behalf of an external source such as a MIDI
// keyboard. A second NoteOn from the same source is ignored until NoteOff.
// The source must be named so its notes are not taken for physical keys.
func (c *Controller) NoteOn(source, noteID string) bool {
	if source == "" {
		c.log.WithField("note", noteID).Warn("ignoring note without a source")
		return false
	}
	n, err := notes.Parse(noteID)
	if err != nil {
		c.log.WithError(err).WithField("source", source).Warn("ignoring note from external source")
		return false
	}

	c.mu.Lock()
	if !c.live() || !c.state.Hold(externalID(source, n.String())) {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	c.dispatch([]noteEvent{{id: n.String(), freq: notes.Frequency(n), down: true}})
	return true
}

// NoteOff stops a note started by NoteOn
func (c *Controller) NoteOff(source, noteID string) bool {
	n, err := notes.Parse(noteID)
	if err != nil {
		return false
	}

	c.mu.Lock()
	if !c.live() || !c.state.Release(externalID(source, n.String())) {
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"source": source, "note": noteID}).Debug("note off for unpressed note")
		return false
	}
	c.mu.Unlock()

	c.dispatch([]noteEvent{{id: n.String(), freq: notes.Frequency(n)}})
	return true
}

// HeldKeys lists the identifiers currently held down
func (c *Controller) HeldKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HeldKeys()
}

// live reports whether the controller accepts input; mu must be held
func (c *Controller) live() bool {
	return !c.destroyed && !c.paused && c.layout != nil
}

// keyTarget resolves t to a key of the current layout; mu must be held
func (c *Controller) keyTarget(t Target) (notes.Note, bool) {
	if t == nil || !c.live() {
		return notes.Note{}, false
	}
	id, ok := t.NoteID()
	if !ok {
		return notes.Note{}, false
	}
	k, ok := c.layout.Find(id)
	if !ok {
		return notes.Note{}, false
	}
	return k.Note, true
}

func (c *Controller) pointerUp(noteID string) noteEvent {
	n, _ := notes.Parse(noteID)
	return noteEvent{id: noteID, freq: notes.Frequency(n)}
}

const externalSep = ":"

func externalID(source, noteID string) string {
	return source + externalSep + noteID
}

func splitExternal(id string) (source, noteID string, ok bool) {
	return strings.Cut(id, externalSep)
}
