package window

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/label"
	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
)

// defaultKeyboardSize is reported before the widget has been laid out
var defaultKeyboardSize = fyne.NewSize(760, 160)

// Keyboard is a fyne widget that draws a keyboard layout and delivers mouse
// and key events. It is both the Renderer and the InputSource of a
// keyboard.Controller. Its methods must run on the fyne event goroutine.
type Keyboard struct {
	widget.BaseWidget

	// ShowLabels prints note ids on the keys
	ShowLabels bool

	mu          sync.Mutex
	containerID string
	content     *fyne.Container
	background  *canvas.Rectangle
	keys        map[string]*key
	colours     keyboard.Colours
	handlers    []keyboard.Handler
	modifiers   map[fyne.KeyName]bool
	font        *truetype.Font
	size        fyne.Size
	onResize    func(fyne.Size)
}

// NewKeyboard creates an empty keyboard widget
func NewKeyboard() *Keyboard {
	k := &Keyboard{
		keys:       make(map[string]*key),
		modifiers:  make(map[fyne.KeyName]bool),
		background: canvas.NewRectangle(color.Transparent),
	}
	k.content = container.NewWithoutLayout(k.background)
	k.ExtendBaseWidget(k)
	return k
}

func (k *Keyboard) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(k.content)
}

// MinSize lets the window shrink below the rendered width
func (k *Keyboard) MinSize() fyne.Size {
	return fyne.NewSize(200, 80)
}

// Resize reports size changes to the function set with OnResize
func (k *Keyboard) Resize(s fyne.Size) {
	k.BaseWidget.Resize(s)

	k.mu.Lock()
	changed := s != k.size
	k.size = s
	fn := k.onResize
	k.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

// OnResize sets a function called after the widget changes size
func (k *Keyboard) OnResize(fn func(fyne.Size)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onResize = fn
}

// ContainerID is the id of the keyboard currently drawn
func (k *Keyboard) ContainerID() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.containerID
}

// --- keyboard.Renderer ---

// Measure returns the widget size, or a default before the first layout
func (k *Keyboard) Measure(string) (float64, float64) {
	k.mu.Lock()
	s := k.size
	k.mu.Unlock()

	if s.Width <= 0 || s.Height <= 0 {
		s = defaultKeyboardSize
	}
	return float64(s.Width), float64(s.Height)
}

// Render replaces the drawn keys with l. The widget hosts a single
// container and takes on whatever id it is given.
func (k *Keyboard) Render(containerID string, l *layout.Layout, c keyboard.Colours) error {
	k.mu.Lock()
	k.containerID = containerID
	k.colours = c
	k.keys = make(map[string]*key, len(l.Keys))
	showLabels := k.ShowLabels
	k.mu.Unlock()

	k.background.FillColor = c.Border
	k.background.Move(fyne.NewPos(0, 0))
	k.background.Resize(fyne.NewSize(float32(l.Width), float32(l.Height)))

	objects := []fyne.CanvasObject{k.background}
	place := func(lk layout.Key, height float64, labelColour color.Color, rotate bool) {
		var img *canvas.Image
		if showLabels {
			img = k.keyLabel(lk, labelColour, rotate)
		}
		w := newKey(k, lk.NoteID, c.Resting(lk.Colour), c.Border, img)
		w.Move(fyne.NewPos(float32(lk.Left), 0))
		w.Resize(fyne.NewSize(float32(lk.Width), float32(height)))
		objects = append(objects, w)

		k.mu.Lock()
		k.keys[lk.NoteID] = w
		k.mu.Unlock()
	}

	// black keys are added last so they sit on top
	for _, lk := range l.WhiteKeys() {
		place(lk, l.Height, c.BlackKey, false)
	}
	for _, lk := range l.BlackKeys() {
		place(lk, l.BlackKeyHeight, c.WhiteKey, true)
	}

	k.content.Objects = objects
	k.content.Refresh()
	return nil
}

// Clear removes the drawn keys
func (k *Keyboard) Clear(containerID string) {
	k.mu.Lock()
	if containerID != k.containerID {
		k.mu.Unlock()
		return
	}
	k.keys = make(map[string]*key)
	k.mu.Unlock()

	k.content.Objects = []fyne.CanvasObject{k.background}
	k.background.FillColor = color.Transparent
	k.content.Refresh()
}

// SetActive draws noteID in the active colour, or restores its resting colour
func (k *Keyboard) SetActive(noteID string, active bool) {
	k.mu.Lock()
	w, ok := k.keys[noteID]
	c := k.colours
	k.mu.Unlock()
	if !ok {
		return
	}

	if active {
		w.setFill(c.Active)
	} else {
		w.setFill(w.resting)
	}
}

// keyLabel renders the note id so that it fits the key, or returns nil
func (k *Keyboard) keyLabel(lk layout.Key, ink color.Color, rotate bool) *canvas.Image {
	f, err := k.labelFont()
	if err != nil {
		logrus.WithError(err).Warn("cannot load label font")
		return nil
	}
	s := label.DefaultStyle()
	s.Colour = ink
	s.Rotate = rotate
	s.Size = 10

	img, err := label.Render(f, lk.NoteID, s)
	if err != nil {
		logrus.WithError(err).WithField("note", lk.NoteID).Warn("failed to draw key label")
		return nil
	}
	b := img.Bounds()
	if float64(b.Dx()) > lk.Width {
		return nil
	}
	ci := canvas.NewImageFromImage(img)
	ci.FillMode = canvas.ImageFillOriginal
	ci.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	return ci
}

// labelFont uses the theme's text font, falling back to Go Regular
func (k *Keyboard) labelFont() (*truetype.Font, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.font != nil {
		return k.font, nil
	}
	f, err := label.Parse(theme.DefaultTextFont().Content())
	if err != nil {
		if f, err = label.Regular(); err != nil {
			return nil, err
		}
	}
	k.font = f
	return f, nil
}

// --- keyboard.InputSource ---

// Attach adds h to the handlers that receive input
func (k *Keyboard) Attach(h keyboard.Handler) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.handlers = append(k.handlers, h)
}

// Detach removes h
func (k *Keyboard) Detach(h keyboard.Handler) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, x := range k.handlers {
		if x == h {
			k.handlers = append(k.handlers[:i], k.handlers[i+1:]...)
			return
		}
	}
}

func (k *Keyboard) attached() []keyboard.Handler {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]keyboard.Handler(nil), k.handlers...)
}

func (k *Keyboard) pointer(fn func(keyboard.Handler) bool) {
	for _, h := range k.attached() {
		fn(h)
	}
}

// MouseDown on the background between keys
func (k *Keyboard) MouseDown(_ *desktop.MouseEvent) {
	k.pointer(func(h keyboard.Handler) bool { return h.PointerDown(keyboard.NoTarget) })
}

// MouseUp on the background still ends a drag
func (k *Keyboard) MouseUp(_ *desktop.MouseEvent) {
	k.pointer(func(h keyboard.Handler) bool { return h.PointerUp(keyboard.NoTarget) })
}

// Bind routes the physical key events of c to the keyboard
func (k *Keyboard) Bind(c fyne.Canvas) {
	dc, ok := c.(desktop.Canvas)
	if !ok {
		logrus.Warn("canvas does not report key up and down; physical keys disabled")
		return
	}
	dc.SetOnKeyDown(k.KeyDown)
	dc.SetOnKeyUp(k.KeyUp)
}

var modifierKeys = map[fyne.KeyName]bool{
	desktop.KeyControlLeft:  true,
	desktop.KeyControlRight: true,
	desktop.KeySuperLeft:    true,
	desktop.KeySuperRight:   true,
	desktop.KeyAltLeft:      true,
	desktop.KeyAltRight:     true,
}

// KeyDown forwards a key press. fyne key events carry no modifier state, so
// modifier keys are tracked here.
func (k *Keyboard) KeyDown(ev *fyne.KeyEvent) {
	if modifierKeys[ev.Name] {
		k.mu.Lock()
		k.modifiers[ev.Name] = true
		k.mu.Unlock()
		return
	}
	e := k.event(ev)
	for _, h := range k.attached() {
		h.KeyDown(e)
	}
}

// KeyUp forwards a key release
func (k *Keyboard) KeyUp(ev *fyne.KeyEvent) {
	if modifierKeys[ev.Name] {
		k.mu.Lock()
		delete(k.modifiers, ev.Name)
		k.mu.Unlock()
		return
	}
	e := k.event(ev)
	for _, h := range k.attached() {
		h.KeyUp(e)
	}
}

func (k *Keyboard) event(ev *fyne.KeyEvent) keyboard.KeyEvent {
	k.mu.Lock()
	defer k.mu.Unlock()
	return keyboard.KeyEvent{
		Key:  string(ev.Name),
		Ctrl: k.modifiers[desktop.KeyControlLeft] || k.modifiers[desktop.KeyControlRight],
		Meta: k.modifiers[desktop.KeySuperLeft] || k.modifiers[desktop.KeySuperRight],
		Alt:  k.modifiers[desktop.KeyAltLeft] || k.modifiers[desktop.KeyAltRight],
	}
}
