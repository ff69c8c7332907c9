package keyboard

import "github.com/PixPMusic/gopher-keys/internal/layout"

// NoteFunc receives a note id such as "C#4" and its frequency in hertz
type NoteFunc func(noteID string, frequency float64)

// KeyEvent is a raw physical key transition
type KeyEvent struct {
	Key  string // identifier, matched against the key map
	Ctrl bool
	Meta bool
	Alt  bool
}

// Modifier reports whether a ctrl, meta or alt key was held
func (e KeyEvent) Modifier() bool {
	return e.Ctrl || e.Meta || e.Alt
}

// Target is whatever the pointer is over. Only key elements carry a note id;
// containers and other elements return false.
type Target interface {
	NoteID() (string, bool)
}

// KeyTarget is a Target for a rendered key
type KeyTarget string

// NoteID returns the key's note id
func (k KeyTarget) NoteID() (string, bool) {
	return string(k), k != ""
}

// NoTarget is a Target that is not a key, e.g. the container background
var NoTarget Target = KeyTarget("")

// Handler receives input from an InputSource. Each method reports whether the
// event was used so the source can suppress its default action.
type Handler interface {
	KeyDown(KeyEvent) bool
	KeyUp(KeyEvent) bool
	PointerDown(Target) bool
	PointerUp(Target) bool
	PointerEnter(Target) bool
	PointerLeave(Target) bool
}

// InputSource delivers raw input events to attached handlers. Detach is
// called with the same Handler value that was attached.
type InputSource interface {
	Attach(h Handler)
	Detach(h Handler)
}

// Renderer draws a layout into a container
type Renderer interface {
	// Measure returns the size of the container
	Measure(containerID string) (width, height float64)
	Render(containerID string, l *layout.Layout, c Colours) error
	Clear(containerID string)
	SetActive(noteID string, active bool)
}

// handler is the object registered with the input source. It forwards to
// the controller that created it, so attach and detach use one reference.
type handler struct {
	c *Controller
}

func (h *handler) KeyDown(e KeyEvent) bool { return h.c.KeyDown(e) }
func (h *handler) KeyUp(e KeyEvent) bool { return h.c.KeyUp(e) }
func (h *handler) PointerDown(t Target) bool { return h.c.PointerDown(t) }
func (h *handler) PointerUp(t Target) bool { return h.c.PointerUp(t) }
func (h *handler) PointerEnter(t Target) bool { return h.c.PointerEnter(t) }
func (h *handler) PointerLeave(t Target) bool { return h.c.PointerLeave(t) }
