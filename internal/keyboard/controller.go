package keyboard

import (
	"sync"

	"github.com/PixPMusic/gopher-keys/internal/keymap"
	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/PixPMusic/gopher-keys/internal/press"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version of the keyboard engine
const Version = "0.6.0"

// Config wires a controller to its collaborators. Everything but Options may
// be left nil.
type Config struct {
	Options  Options
	Renderer Renderer
	Input    InputSource
	Keys     keymap.Table // defaults to keymap.Default
	NoteDown NoteFunc
	NoteUp   NoteFunc
}

// Controller owns one keyboard: its options, the layout built from them and
// the press state. Handlers are expected to run on a single event goroutine;
// the mutex only keeps the state consistent if that rule is broken.
type Controller struct {
	mu sync.Mutex

	id       string
	opts     Options
	colours  Colours
	layout   *layout.Layout
	state    *press.State
	keys     keymap.Table
	renderer Renderer
	input    InputSource
	handler  *handler

	attached  bool
	paused    bool
	destroyed bool

	noteDown NoteFunc
	noteUp   NoteFunc

	log *logrus.Entry
}

type noteEvent struct {
	id   string
	freq float64
	down bool
}

// New builds a keyboard from cfg and attaches it to the input source
func New(cfg Config) (*Controller, error) {
	c := &Controller{
		id:       uuid.New().String(),
		opts:     cfg.Options,
		state:    press.New(),
		keys:     cfg.Keys,
		renderer: cfg.Renderer,
		input:    cfg.Input,
		noteDown: cfg.NoteDown,
		noteUp:   cfg.NoteUp,
	}
	c.handler = &handler{c: c}
	c.log = logrus.WithField("keyboard", c.id[:8])

	if c.keys == nil {
		c.keys = keymap.Default
	}
	if c.opts == (Options{}) {
		c.opts = DefaultOptions()
	}

	if err := c.build(c.opts); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"octaves":   c.opts.Octaves,
		"startNote": c.opts.StartNote,
	}).Info("keyboard created")
	return c, nil
}

// ID uniquely identifies this controller
func (c *Controller) ID() string {
	return c.id
}

// OnNoteDown replaces the note-down callback; nil restores the no-op
func (c *Controller) OnNoteDown(fn NoteFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noteDown = fn
}

// OnNoteUp replaces the note-up callback; nil restores the no-op
func (c *Controller) OnNoteUp(fn NoteFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noteUp = fn
}

// SetKeys replaces the physical key map. Keys held under the old map are
// released first; nil restores keymap.Default.
func (c *Controller) SetKeys(t keymap.Table) {
	if t == nil {
		t = keymap.Default
	}
	c.mu.Lock()
	var events []noteEvent
	for _, id := range c.state.HeldKeys() {
		if src, _, ok := splitExternal(id); ok && src != "" {
			continue
		}
		c.state.Release(id)
		if n, ok := c.resolveHeld(id); ok {
			events = append(events, noteEvent{id: n.String(), freq: notes.Frequency(n)})
		}
	}
	c.keys = t
	c.mu.Unlock()

	c.dispatch(events)
}

// Keys returns the physical key map in use
func (c *Controller) Keys() keymap.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys
}

// Layout returns the current layout, or nil after Destroy
func (c *Controller) Layout() *layout.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// Options returns a copy of the current configuration
func (c *Controller) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Colours returns the parsed colours of the current configuration
func (c *Controller) Colours() Colours {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colours
}

// Get returns the value of one option. Width and height report the measured
// size when they were left to the renderer.
func (c *Controller) Get(key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := optionFields[key]
	if !ok {
		return nil, unknownOption(key)
	}
	if c.destroyed {
		return nil, destroyed()
	}

	if c.layout != nil {
		switch key {
		case KeyWidth:
			return c.layout.Width, nil
		case KeyHeight:
			return c.layout.Height, nil
		}
	}
	return f.get(&c.opts), nil
}

// Set changes a single option and rebuilds the keyboard
func (c *Controller) Set(key string, value any) error {
	return c.SetOptions(map[string]any{key: value})
}

// SetOptions merges values into the current options and rebuilds the
// keyboard. Any unknown key fails the whole call and nothing is applied;
// options that are not mentioned keep their values.
func (c *Controller) SetOptions(values map[string]any) error {
	if len(values) == 0 {
		return invalidConfig(&InvalidOptionError{Key: "", Err: errNoOptions})
	}

	c.mu.Lock()
	next := c.opts
	for key, v := range values {
		f, ok := optionFields[key]
		if !ok {
			c.mu.Unlock()
			return unknownOption(key)
		}
		if err := f.set(&next, v); err != nil {
			c.mu.Unlock()
			return invalidConfig(&InvalidOptionError{Key: key, Value: v, Err: err})
		}
	}
	c.mu.Unlock()

	return c.Configure(next)
}

// Configure replaces the whole configuration: the old keyboard is torn down
// and a new one built. An invalid configuration leaves the old one in place;
// if the renderer fails the old keyboard is rebuilt, and only when that fails
// too is the controller left destroyed.
func (c *Controller) Configure(opts Options) error {
	if _, _, err := opts.validate(); err != nil {
		return invalidConfig(err)
	}

	c.mu.Lock()
	prev, hadLayout := c.opts, c.layout != nil
	events := c.teardown()
	err := c.build(opts)
	if err != nil && hadLayout {
		if restoreErr := c.build(prev); restoreErr != nil {
			c.log.WithError(restoreErr).Warn("failed to restore previous keyboard")
			hadLayout = false
		}
	}
	if err != nil && !hadLayout {
		c.layout = nil
		c.destroyed = true
	}
	c.mu.Unlock()

	c.dispatch(events)
	if err != nil {
		return err
	}
	c.log.WithField("options", opts).Info("keyboard reconfigured")
	return nil
}

// Pause detaches the keyboard from its input source. Keys still held are
// released so no note is left sounding while input is not watched.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.paused || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.detach()
	c.paused = true
	events := c.releaseAll()
	c.mu.Unlock()

	c.dispatch(events)
	c.log.Info("keyboard paused")
}

// Resume reattaches the keyboard to its input source
func (c *Controller) Resume() {
	c.mu.Lock()
	if !c.paused || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.paused = false
	c.attach()
	c.mu.Unlock()

	c.log.Info("keyboard resumed")
}

// Paused reports whether input is detached
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Destroy detaches input and discards the rendered keyboard. The controller
// ignores input until Configure or SetOptions builds a new one.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	events := c.teardown()
	c.layout = nil
	c.destroyed = true
	c.mu.Unlock()

	c.dispatch(events)
	c.log.Info("keyboard destroyed")
}

// build must be called with mu held and after teardown
func (c *Controller) build(opts Options) error {
	start, colours, err := opts.validate()
	if err != nil {
		return invalidConfig(err)
	}

	width, height := opts.Width, opts.Height
	if c.renderer != nil && (width == 0 || height == 0) {
		mw, mh := c.renderer.Measure(opts.ContainerID)
		if width == 0 {
			width = mw
		}
		if height == 0 {
			height = mh
		}
	}

	l, err := layout.Build(opts.Octaves, start, width, height)
	if err != nil {
		return invalidConfig(err)
	}

	if c.renderer != nil {
		if err := c.renderer.Render(opts.ContainerID, l, colours); err != nil {
			return err
		}
	}

	c.opts = opts
	c.colours = colours
	c.layout = l
	c.destroyed = false
	if !c.paused {
		c.attach()
	}
	return nil
}

// teardown must be called with mu held
func (c *Controller) teardown() []noteEvent {
	c.detach()
	events := c.releaseAll()
	if c.renderer != nil && c.layout != nil {
		c.renderer.Clear(c.opts.ContainerID)
	}
	return events
}

func (c *Controller) attach() {
	if c.attached || c.input == nil {
		return
	}
	c.input.Attach(c.handler)
	c.attached = true
}

func (c *Controller) detach() {
	if !c.attached {
		return
	}
	c.input.Detach(c.handler)
	c.attached = false
}

// releaseAll turns every held key and the pointer note into note-up events
func (c *Controller) releaseAll() []noteEvent {
	var events []noteEvent
	for _, id := range c.state.ReleaseAll() {
		if n, ok := c.resolveHeld(id); ok {
			events = append(events, noteEvent{id: n.String(), freq: notes.Frequency(n)})
		}
	}
	if id, ok := c.state.PointerOver(); ok {
		if n, err := notes.Parse(id); err == nil {
			events = append(events, noteEvent{id: id, freq: notes.Frequency(n)})
		}
	}
	c.state.SetPointerDown(false)
	return events
}

// resolveHeld maps a held identifier back to its note: either a physical key
// from the key map or an external "source:note" entry.
func (c *Controller) resolveHeld(id string) (notes.Note, bool) {
	if c.layout == nil {
		return notes.Note{}, false
	}
	if src, noteID, ok := splitExternal(id); ok && src != "" {
		n, err := notes.Parse(noteID)
		return n, err == nil
	}
	n, ok, err := c.keys.Note(id, c.layout.StartOctave(), c.layout.KeyPressOffset)
	return n, ok && err == nil
}

// dispatch runs callbacks and active-key feedback outside the lock, in order
func (c *Controller) dispatch(events []noteEvent) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	down, up, r := c.noteDown, c.noteUp, c.renderer
	c.mu.Unlock()

	for _, e := range events {
		if r != nil {
			r.SetActive(e.id, e.down)
		}
		if e.down {
			if down != nil {
				down(e.id, e.freq)
			}
		} else if up != nil {
			up(e.id, e.freq)
		}
	}
}
