package keyboard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeInput struct {
	handlers []Handler
	attaches int
	detaches int
}

func (f *fakeInput) Attach(h Handler) {
	f.handlers = append(f.handlers, h)
	f.attaches++
}

func (f *fakeInput) Detach(h Handler) {
	f.detaches++
	for i, x := range f.handlers {
		if x == h {
			f.handlers = append(f.handlers[:i], f.handlers[i+1:]...)
			return
		}
	}
}

func (f *fakeInput) keyDown(key string) bool {
	used := false
	for _, h := range f.handlers {
		used = h.KeyDown(KeyEvent{Key: key}) || used
	}
	return used
}

type fakeRenderer struct {
	width, height float64
	rendered      map[string]*layout.Layout
	active        map[string]bool
	cleared       []string
	failOn        string // container id Render refuses
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		width:    700,
		height:   120,
		rendered: map[string]*layout.Layout{},
		active:   map[string]bool{},
	}
}

func (r *fakeRenderer) Measure(string) (float64, float64) { return r.width, r.height }

func (r *fakeRenderer) Render(id string, l *layout.Layout, _ Colours) error {
	if id == r.failOn {
		return fmt.Errorf("no container %q", id)
	}
	r.rendered[id] = l
	return nil
}

func (r *fakeRenderer) Clear(id string) {
	delete(r.rendered, id)
	r.cleared = append(r.cleared, id)
}

func (r *fakeRenderer) SetActive(noteID string, active bool) {
	if active {
		r.active[noteID] = true
	} else {
		delete(r.active, noteID)
	}
}

type recorder struct {
	events []string
}

func (r *recorder) down(id string, f float64) { r.events = append(r.events, fmt.Sprintf("down %s", id)) }
func (r *recorder) up(id string, f float64)   { r.events = append(r.events, fmt.Sprintf("up %s", id)) }

func newTestController(t *testing.T, opts Options) (*Controller, *recorder, *fakeInput, *fakeRenderer) {
	t.Helper()
	rec := &recorder{}
	in := &fakeInput{}
	r := newFakeRenderer()
	c, err := New(Config{
		Options:  opts,
		Renderer: r,
		Input:    in,
		NoteDown: rec.down,
		NoteUp:   rec.up,
	})
	require.NoError(t, err)
	return c, rec, in, r
}

func withStart(start string, octaves int) Options {
	o := DefaultOptions()
	o.StartNote = start
	o.Octaves = octaves
	return o
}

// --- construction and options ---

func TestNewUsesDefaults(t *testing.T) {
	c, _, in, r := newTestController(t, Options{})

	assert.Equal(t, DefaultOptions(), c.Options())
	l := c.Layout()
	require.NotNil(t, l)
	assert.Len(t, l.WhiteKeys(), 21)
	assert.Equal(t, "A3", l.WhiteKeys()[0].NoteID)
	assert.Same(t, l, r.rendered["keyboard"])
	assert.Len(t, in.handlers, 1)

	w, err := c.Get(KeyWidth)
	require.NoError(t, err)
	assert.Equal(t, 700.0, w)
}

func TestNewWithoutCollaborators(t *testing.T) {
	c, err := New(Config{Options: withStart("C4", 1)})
	require.NoError(t, err)

	l := c.Layout()
	assert.Len(t, l.WhiteKeys(), 7)
	assert.Len(t, l.BlackKeys(), 5)
	assert.Equal(t, "C4", l.WhiteKeys()[0].NoteID)
	assert.Equal(t, "B4", l.WhiteKeys()[6].NoteID)

	// callbacks default to no-ops
	assert.True(t, c.KeyDown(KeyEvent{Key: "A"}))
	assert.True(t, c.KeyUp(KeyEvent{Key: "A"}))
}

func TestNewRejectsInvalidLayout(t *testing.T) {
	_, err := New(Config{Options: withStart("C4", 0)})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = New(Config{Options: withStart("Q4", 2)})
	var layoutErr *InvalidLayoutError
	assert.ErrorAs(t, err, &layoutErr)
}

func TestGetUnknownOption(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})

	_, err := c.Get("colour")
	assert.ErrorIs(t, err, ErrUnknownOption)

	var unknown *UnknownOptionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "colour", unknown.Key)

	v, err := c.Get(KeyContainerID)
	require.NoError(t, err)
	assert.Equal(t, "keyboard", v)
}

func TestSetSingleOptionKeepsTheRest(t *testing.T) {
	c, _, _, r := newTestController(t, Options{})
	require.NoError(t, c.Set(KeyActiveColour, "red"))
	require.NoError(t, c.Set(KeyContainerID, "new-keyboard"))

	v, err := c.Get(KeyContainerID)
	require.NoError(t, err)
	assert.Equal(t, "new-keyboard", v)

	v, err = c.Get(KeyActiveColour)
	require.NoError(t, err)
	assert.Equal(t, "red", v)

	assert.NotContains(t, r.rendered, "keyboard")
	assert.Contains(t, r.rendered, "new-keyboard")
	assert.Equal(t, []string{"keyboard", "keyboard"}, r.cleared)
}

func TestSetOptionsBulk(t *testing.T) {
	c, _, in, _ := newTestController(t, Options{})
	require.NoError(t, c.SetOptions(map[string]any{
		KeyOctaves:   float64(2),
		KeyStartNote: "C4",
		KeyWidth:     1400,
	}))

	l := c.Layout()
	assert.Len(t, l.WhiteKeys(), 14)
	assert.Equal(t, "C4", l.Keys[0].NoteID)
	assert.Equal(t, 1400.0, l.Width)
	assert.Equal(t, 0, l.KeyPressOffset)

	v, err := c.Get(KeyOctaves)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// every rebuild detaches the old handler before attaching again
	assert.Len(t, in.handlers, 1)
	assert.Equal(t, in.attaches-1, in.detaches)
}

func TestSetUnknownOptionIsFatal(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})
	before := c.Layout()

	err := c.SetOptions(map[string]any{KeyOctaves: 1, "volume": 11})
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Same(t, before, c.Layout())
	assert.Equal(t, 3, c.Options().Octaves)

	assert.Error(t, c.SetOptions(map[string]any{}))
}

func TestSetInvalidValues(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})
	before := c.Layout()

	assert.ErrorIs(t, c.Set(KeyOctaves, 0), ErrInvalidLayout)
	assert.ErrorIs(t, c.Set(KeyOctaves, layout.MaxOctaves+1), ErrInvalidLayout)
	assert.ErrorIs(t, c.Set(KeyOctaves, 1<<40), ErrInvalidLayout)
	assert.ErrorIs(t, c.Set(KeyOctaves, "three"), ErrInvalidOption)
	assert.ErrorIs(t, c.Set(KeyOctaves, 2.5), ErrInvalidOption)
	assert.ErrorIs(t, c.Set(KeyStartNote, "C#4"), ErrInvalidLayout)
	assert.ErrorIs(t, c.Set(KeyStartNote, "nope"), ErrInvalidLayout)
	assert.ErrorIs(t, c.Set(KeyActiveColour, "not-a-colour"), ErrInvalidOption)
	assert.ErrorIs(t, c.Set(KeyWidth, -10), ErrInvalidOption)

	var optErr *InvalidOptionError
	require.ErrorAs(t, c.Set(KeyBorderColour, 7), &optErr)
	assert.Equal(t, KeyBorderColour, optErr.Key)

	assert.Same(t, before, c.Layout())
}

// --- physical keys ---

func TestKeyDownDefaultStartNote(t *testing.T) {
	c, rec, in, r := newTestController(t, Options{})

	// A3 start puts the first C on screen in octave 4
	assert.True(t, in.keyDown("A"))
	assert.Equal(t, []string{"down C4"}, rec.events)
	assert.True(t, r.active["C4"])

	assert.True(t, c.KeyUp(KeyEvent{Key: "A"}))
	assert.Equal(t, []string{"down C4", "up C4"}, rec.events)
	assert.False(t, r.active["C4"])
}

func TestKeyDownStartingOnC(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C3", 2))

	c.KeyDown(KeyEvent{Key: "A"})
	c.KeyDown(KeyEvent{Key: "K"})
	c.KeyDown(KeyEvent{Key: "W"})
	assert.Equal(t, []string{"down C3", "down C4", "down C#3"}, rec.events)
}

func TestKeyRepeatFiresOnce(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))

	assert.True(t, c.KeyDown(KeyEvent{Key: "S"}))
	assert.False(t, c.KeyDown(KeyEvent{Key: "S"}))
	assert.False(t, c.KeyDown(KeyEvent{Key: "S"}))
	assert.True(t, c.KeyUp(KeyEvent{Key: "S"}))
	assert.True(t, c.KeyDown(KeyEvent{Key: "S"}))

	assert.Equal(t, []string{"down D4", "up D4", "down D4"}, rec.events)
}

func TestModifierKeyDownIsIgnored(t *testing.T) {
	c, rec, _, r := newTestController(t, Options{})

	assert.False(t, c.KeyDown(KeyEvent{Key: "S", Meta: true}))
	assert.False(t, c.KeyDown(KeyEvent{Key: "S", Ctrl: true}))
	assert.False(t, c.KeyDown(KeyEvent{Key: "S", Alt: true}))
	assert.Empty(t, rec.events)
	assert.Empty(t, c.HeldKeys())
	assert.False(t, r.active["D4"])

	// releasing a key whose press was ignored sends nothing
	assert.True(t, c.KeyUp(KeyEvent{Key: "S"}))
	assert.Empty(t, rec.events)
}

func TestUnmappedKeysDoNotLeak(t *testing.T) {
	c, rec, _, _ := newTestController(t, Options{})

	assert.False(t, c.KeyDown(KeyEvent{Key: "Z"}))
	assert.Equal(t, []string{"Z"}, c.HeldKeys())
	assert.False(t, c.KeyUp(KeyEvent{Key: "Z"}))
	assert.Empty(t, c.HeldKeys())
	assert.Empty(t, rec.events)

	// idempotent release
	assert.False(t, c.KeyUp(KeyEvent{Key: "Z"}))
}

func TestConcurrentKeysKeepArrivalOrder(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 2))

	c.KeyDown(KeyEvent{Key: "A"})
	c.KeyDown(KeyEvent{Key: "D"})
	c.KeyDown(KeyEvent{Key: "G"})
	c.KeyUp(KeyEvent{Key: "D"})
	c.KeyUp(KeyEvent{Key: "A"})
	c.KeyUp(KeyEvent{Key: "G"})

	assert.Equal(t, []string{
		"down C4", "down E4", "down G4", "up E4", "up C4", "up G4",
	}, rec.events)
}

// --- pointer ---

func TestPointerPressAndRelease(t *testing.T) {
	c, rec, _, r := newTestController(t, withStart("C4", 1))

	assert.True(t, c.PointerDown(KeyTarget("E4")))
	assert.True(t, r.active["E4"])
	assert.True(t, c.PointerUp(KeyTarget("E4")))
	assert.Equal(t, []string{"down E4", "up E4"}, rec.events)
	assert.Empty(t, r.active)
}

func TestPointerDragGlissando(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))

	// hovering without a press plays nothing
	assert.False(t, c.PointerEnter(KeyTarget("C4")))
	assert.False(t, c.PointerLeave(KeyTarget("C4")))

	c.PointerDown(KeyTarget("C4"))
	c.PointerLeave(KeyTarget("C4"))
	c.PointerEnter(KeyTarget("C#4"))
	c.PointerLeave(KeyTarget("C#4"))
	c.PointerEnter(KeyTarget("D4"))
	c.PointerUp(KeyTarget("D4"))

	assert.Equal(t, []string{
		"down C4", "up C4", "down C#4", "up C#4", "down D4", "up D4",
	}, rec.events)

	// after release, entering keys is silent again
	assert.False(t, c.PointerEnter(KeyTarget("E4")))
	assert.Len(t, rec.events, 6)
}

func TestPointerIgnoresNonKeyTargets(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))

	assert.False(t, c.PointerDown(NoTarget))
	assert.False(t, c.PointerDown(KeyTarget("C7"))) // not on this keyboard
	assert.False(t, c.PointerDown(nil))
	assert.Empty(t, rec.events)

	c.PointerDown(KeyTarget("F4"))
	// released over the container: the gesture still ends
	assert.False(t, c.PointerUp(NoTarget))
	assert.Equal(t, []string{"down F4", "up F4"}, rec.events)
	assert.False(t, c.PointerEnter(KeyTarget("G4")))
}

func TestPointerReenterSameKeyDoesNotRetrigger(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))

	c.PointerDown(KeyTarget("A4"))
	assert.False(t, c.PointerEnter(KeyTarget("A4")))
	assert.Equal(t, []string{"down A4"}, rec.events)
}

// --- external sources ---

func TestExternalNotes(t *testing.T) {
	c, rec, _, _ := newTestController(t, Options{})

	assert.True(t, c.NoteOn("midi", "C5"))
	assert.False(t, c.NoteOn("midi", "C5"))
	assert.True(t, c.NoteOn("other", "C5"))
	assert.True(t, c.NoteOff("midi", "C5"))
	assert.False(t, c.NoteOff("midi", "C5"))
	assert.False(t, c.NoteOn("midi", "H5"))
	assert.False(t, c.NoteOn("", "D5"))
	assert.False(t, c.NoteOff("", "D5"))

	assert.Equal(t, []string{"down C5", "down C5", "up C5"}, rec.events)

	// the remaining external note is sounded off on teardown
	require.NoError(t, c.Set(KeyOctaves, 2))
	assert.Equal(t, []string{"down C5", "down C5", "up C5", "up C5"}, rec.events)
}

// --- lifecycle ---

func TestPauseReleasesHeldKeysAndDetaches(t *testing.T) {
	c, rec, in, _ := newTestController(t, withStart("C4", 1))

	in.keyDown("A")
	c.NoteOn("midi", "G4")
	c.PointerDown(KeyTarget("E4"))
	c.Pause()

	assert.True(t, c.Paused())
	assert.Empty(t, in.handlers)
	sounded := len(rec.events)
	assert.Empty(t, c.HeldKeys())
	assert.ElementsMatch(t, []string{"down C4", "down G4", "down E4", "up C4", "up G4", "up E4"}, rec.events)

	// input reaching a paused controller is ignored
	assert.False(t, c.KeyDown(KeyEvent{Key: "A"}))

	c.Resume()
	assert.False(t, c.Paused())
	assert.Len(t, in.handlers, 1)

	// releasing the key held through the pause does not sound it off again
	assert.True(t, c.KeyUp(KeyEvent{Key: "A"}))
	assert.Len(t, rec.events, sounded)

	// the key released by pause can be played again
	assert.True(t, in.keyDown("A"))
	assert.Equal(t, "down C4", rec.events[len(rec.events)-1])
}

func TestPauseResumeKeepLayout(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})
	l := c.Layout()
	c.Pause()
	c.Pause()
	c.Resume()
	c.Resume()
	assert.Same(t, l, c.Layout())
}

func TestReconfigureWhilePausedStaysPaused(t *testing.T) {
	c, _, in, _ := newTestController(t, Options{})
	c.Pause()
	require.NoError(t, c.Set(KeyOctaves, 1))
	assert.True(t, c.Paused())
	assert.Empty(t, in.handlers)
}

func TestReconfigureReleasesHeldNotes(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))
	c.KeyDown(KeyEvent{Key: "A"})
	require.NoError(t, c.Set(KeyStartNote, "C5"))

	assert.Equal(t, []string{"down C4", "up C4"}, rec.events)
	c.KeyDown(KeyEvent{Key: "A"})
	assert.Equal(t, "down C5", rec.events[2])
}

func TestRenderFailureKeepsPreviousKeyboard(t *testing.T) {
	c, rec, in, r := newTestController(t, withStart("C4", 1))
	r.failOn = "lead"

	assert.Error(t, c.Set(KeyContainerID, "lead"))
	require.NotNil(t, c.Layout())
	assert.Equal(t, "keyboard", c.Options().ContainerID)
	assert.NotNil(t, r.rendered["keyboard"])
	assert.Len(t, in.handlers, 1)

	assert.True(t, in.keyDown("A"))
	assert.Equal(t, []string{"down C4"}, rec.events)
}

func TestRenderFailureWithoutFallbackDestroys(t *testing.T) {
	c, _, in, r := newTestController(t, withStart("C4", 1))
	r.failOn = "keyboard"

	assert.Error(t, c.Set(KeyOctaves, 2))
	assert.Nil(t, c.Layout())
	assert.Empty(t, in.handlers)
	_, err := c.Get(KeyOctaves)
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestDestroy(t *testing.T) {
	c, rec, in, r := newTestController(t, Options{})
	c.Destroy()
	c.Destroy()

	assert.Nil(t, c.Layout())
	assert.Empty(t, in.handlers)
	assert.Empty(t, r.rendered)
	assert.False(t, c.KeyDown(KeyEvent{Key: "A"}))
	assert.False(t, c.PointerDown(KeyTarget("A3")))
	assert.Empty(t, rec.events)

	_, err := c.Get(KeyOctaves)
	assert.True(t, errors.Is(err, ErrDestroyed))

	// reconfiguring brings it back
	require.NoError(t, c.Set(KeyOctaves, 1))
	require.NotNil(t, c.Layout())
	assert.Len(t, in.handlers, 1)
	assert.True(t, c.KeyDown(KeyEvent{Key: "A"}))
}

func TestControllersDoNotShareState(t *testing.T) {
	a, recA, _, _ := newTestController(t, withStart("C4", 1))
	b, recB, _, _ := newTestController(t, withStart("C2", 1))

	a.KeyDown(KeyEvent{Key: "A"})
	assert.True(t, b.KeyDown(KeyEvent{Key: "A"}))

	assert.Equal(t, []string{"down C4"}, recA.events)
	assert.Equal(t, []string{"down C2"}, recB.events)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestCallbackMayCallBack(t *testing.T) {
	c, _, _, _ := newTestController(t, withStart("C4", 1))
	var got any
	c.OnNoteDown(func(string, float64) {
		got, _ = c.Get(KeyStartNote)
	})
	c.KeyDown(KeyEvent{Key: "A"})
	assert.Equal(t, "C4", got)
}

func TestCallbackFrequency(t *testing.T) {
	c, _, _, _ := newTestController(t, withStart("A3", 1))
	var freq float64
	c.OnNoteDown(func(_ string, f float64) { freq = f })
	c.PointerDown(KeyTarget("A3"))
	assert.Equal(t, 220.0, freq)
}

func TestSetKeysReleasesPhysicalKeysOnly(t *testing.T) {
	c, rec, _, _ := newTestController(t, withStart("C4", 1))
	c.KeyDown(KeyEvent{Key: "A"})
	c.NoteOn("midi", "G4")

	c.SetKeys(map[string]string{"Z": "Cl"})
	assert.Equal(t, []string{"down C4", "down G4", "up C4"}, rec.events)
	assert.Equal(t, []string{"midi:G4"}, c.HeldKeys())

	assert.False(t, c.KeyDown(KeyEvent{Key: "A"}))
	assert.True(t, c.KeyDown(KeyEvent{Key: "Z"}))
	assert.Equal(t, "down C4", rec.events[3])

	c.SetKeys(nil)
	assert.Equal(t, "Cl", c.Keys()["A"])
}
