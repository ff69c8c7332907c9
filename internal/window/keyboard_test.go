package window

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type played struct {
	events []string
}

func (p *played) down(id string, _ float64) { p.events = append(p.events, "down "+id) }
func (p *played) up(id string, _ float64)   { p.events = append(p.events, "up "+id) }

func newTestKeyboard(t *testing.T) (*Keyboard, *keyboard.Controller, *played) {
	t.Helper()
	test.NewTempApp(t)

	kb := NewKeyboard()
	kb.Resize(fyne.NewSize(700, 140))

	opts := keyboard.DefaultOptions()
	opts.Octaves = 1
	opts.StartNote = "C4"

	p := &played{}
	c, err := keyboard.New(keyboard.Config{
		Options:  opts,
		Renderer: kb,
		Input:    kb,
		NoteDown: p.down,
		NoteUp:   p.up,
	})
	require.NoError(t, err)
	return kb, c, p
}

func TestKeyboardRendersLayout(t *testing.T) {
	kb, c, _ := newTestKeyboard(t)

	assert.Len(t, kb.keys, 12)
	assert.Equal(t, "keyboard", kb.ContainerID())

	w, h := kb.Measure("keyboard")
	assert.Equal(t, 700.0, w)
	assert.Equal(t, 140.0, h)
	assert.Equal(t, 700.0, c.Layout().Width)

	cs4 := kb.keys["C#4"]
	require.NotNil(t, cs4)
	assert.Equal(t, float32(c.Layout().BlackKeyHeight), cs4.Size().Height)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, cs4.rect.FillColor)
}

func TestKeyboardMeasureBeforeLayout(t *testing.T) {
	test.NewTempApp(t)
	w, h := NewKeyboard().Measure("keyboard")
	assert.Equal(t, float64(defaultKeyboardSize.Width), w)
	assert.Equal(t, float64(defaultKeyboardSize.Height), h)
}

func TestKeyboardMouse(t *testing.T) {
	kb, c, p := newTestKeyboard(t)
	active := c.Colours().Active

	e4 := kb.keys["E4"]
	e4.MouseDown(&desktop.MouseEvent{})
	assert.Equal(t, active, e4.rect.FillColor)

	// drag onto F4
	e4.MouseOut()
	kb.keys["F4"].MouseIn(&desktop.MouseEvent{})
	kb.keys["F4"].MouseUp(&desktop.MouseEvent{})

	assert.Equal(t, []string{"down E4", "up E4", "down F4", "up F4"}, p.events)
	assert.Equal(t, c.Colours().WhiteKey, e4.rect.FillColor)

	// releasing over the background ends a drag too
	kb.keys["G4"].MouseDown(&desktop.MouseEvent{})
	kb.MouseUp(&desktop.MouseEvent{})
	assert.Equal(t, "up G4", p.events[len(p.events)-1])
}

func TestKeyboardKeys(t *testing.T) {
	kb, _, p := newTestKeyboard(t)

	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyA})
	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyA})
	kb.KeyUp(&fyne.KeyEvent{Name: fyne.KeyA})
	assert.Equal(t, []string{"down C4", "up C4"}, p.events)

	// shortcuts do not play
	kb.KeyDown(&fyne.KeyEvent{Name: desktop.KeySuperLeft})
	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyS})
	kb.KeyUp(&fyne.KeyEvent{Name: fyne.KeyS})
	kb.KeyUp(&fyne.KeyEvent{Name: desktop.KeySuperLeft})
	assert.Len(t, p.events, 2)

	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyS})
	assert.Equal(t, "down D4", p.events[2])
}

func TestKeyboardPausedIgnoresInput(t *testing.T) {
	kb, c, p := newTestKeyboard(t)
	c.Pause()
	assert.Empty(t, kb.attached())

	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyA})
	kb.keys["C4"].MouseDown(&desktop.MouseEvent{})
	assert.Empty(t, p.events)

	c.Resume()
	kb.KeyDown(&fyne.KeyEvent{Name: fyne.KeyA})
	assert.Equal(t, []string{"down C4"}, p.events)
}

func TestKeyboardReconfigure(t *testing.T) {
	kb, c, _ := newTestKeyboard(t)
	require.NoError(t, c.Set(keyboard.KeyOctaves, 2))
	assert.Len(t, kb.keys, 24)

	require.NoError(t, c.Set(keyboard.KeyContainerID, "lead"))
	assert.Equal(t, "lead", kb.ContainerID())

	c.Destroy()
	assert.Empty(t, kb.keys)
	assert.Len(t, kb.content.Objects, 1)
}

func TestKeyboardLabels(t *testing.T) {
	test.NewTempApp(t)
	kb := NewKeyboard()
	kb.ShowLabels = true
	kb.Resize(fyne.NewSize(700, 140))

	opts := keyboard.DefaultOptions()
	opts.Octaves = 1
	opts.StartNote = "C4"
	_, err := keyboard.New(keyboard.Config{Options: opts, Renderer: kb, Input: kb})
	require.NoError(t, err)

	assert.NotNil(t, kb.keys["C4"].label)
}
