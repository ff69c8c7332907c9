package window

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
)

// ============ KEY WIDGET ============

// key is one rendered piano key. Pointer events are reported to the owning
// Keyboard with the key's note id as target.
type key struct {
	widget.BaseWidget
	owner   *Keyboard
	noteID  string
	resting color.Color
	rect    *canvas.Rectangle
	label   *canvas.Image // nil when the label does not fit
}

func newKey(owner *Keyboard, noteID string, fill, border color.Color, label *canvas.Image) *key {
	rect := canvas.NewRectangle(fill)
	rect.StrokeColor = border
	rect.StrokeWidth = 1

	k := &key{owner: owner, noteID: noteID, resting: fill, rect: rect, label: label}
	k.ExtendBaseWidget(k)
	return k
}

func (k *key) CreateRenderer() fyne.WidgetRenderer {
	if k.label == nil {
		return widget.NewSimpleRenderer(k.rect)
	}
	bottom := container.NewCenter(k.label)
	return widget.NewSimpleRenderer(container.NewStack(k.rect, container.NewBorder(nil, bottom, nil, nil)))
}

func (k *key) setFill(c color.Color) {
	k.rect.FillColor = c
	k.rect.Refresh()
}

func (k *key) target() keyboard.Target {
	return keyboard.KeyTarget(k.noteID)
}

func (k *key) MouseDown(_ *desktop.MouseEvent) {
	k.owner.pointer(func(h keyboard.Handler) bool { return h.PointerDown(k.target()) })
}

func (k *key) MouseUp(_ *desktop.MouseEvent) {
	k.owner.pointer(func(h keyboard.Handler) bool { return h.PointerUp(k.target()) })
}

func (k *key) MouseIn(_ *desktop.MouseEvent) {
	k.owner.pointer(func(h keyboard.Handler) bool { return h.PointerEnter(k.target()) })
}

func (k *key) MouseMoved(_ *desktop.MouseEvent) {}

func (k *key) MouseOut() {
	k.owner.pointer(func(h keyboard.Handler) bool { return h.PointerLeave(k.target()) })
}
