// Package tui plays the keyboard from a terminal. The model is both the
// Renderer and the InputSource of a keyboard.Controller.
package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/keymap"
	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

const (
	// ReleaseAfter is how long a key counts as held after the terminal last
	// reported it. Terminals send no key-up, only auto-repeat.
	ReleaseAfter = 600 * time.Millisecond

	defaultWidth = 80
	keyRows      = 6
	headerRows   = 2
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Quit       key.Binding
	Pause      key.Binding
	OctaveDown key.Binding
	OctaveUp   key.Binding
	Labels     key.Binding
	Help       key.Binding
}

var keys = keyMap{
	Quit:       Key("quit", "esc", "ctrl+c"),
	Pause:      Key("pause", "tab"),
	OctaveDown: Key("octave down", "left"),
	OctaveUp:   Key("octave up", "right"),
	Labels:     Key("labels", "ctrl+l"),
	Help:       Key("help", "?"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.OctaveDown, k.OctaveUp, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Labels},
		{k.OctaveDown, k.OctaveUp},
		{k.Help, k.Quit},
	}
}

type releaseMsg struct {
	key string
	seq int
}

type externalMsg struct {
	source string
	noteID string
	on     bool
}

// Model is the bubbletea model for the terminal keyboard
type Model struct {
	containerID string
	width       int

	layout  *layout.Layout
	colours keyboard.Colours
	active  map[string]bool

	handlers []keyboard.Handler
	ctrl     *keyboard.Controller

	// last auto-repeat seen per physical key
	pending map[string]int
	seq     int

	pointerKey  string
	pointerDown bool

	ReleaseAfter time.Duration
	ShowLabels   bool

	help   help.Model
	status string
	err    error
}

// New builds a controller that renders into the returned model. Width and
// height always follow the terminal.
func New(opts keyboard.Options, table keymap.Table, noteDown, noteUp keyboard.NoteFunc) (*Model, error) {
	m := &Model{
		width:        defaultWidth,
		active:       make(map[string]bool),
		pending:      make(map[string]int),
		ReleaseAfter: ReleaseAfter,
		ShowLabels:   true,
		help:         help.New(),
	}

	opts.Width, opts.Height = 0, 0
	ctrl, err := keyboard.New(keyboard.Config{
		Options:  opts,
		Renderer: m,
		Input:    m,
		Keys:     table,
		NoteDown: func(id string, freq float64) {
			m.status = fmt.Sprintf("%s  %.2f Hz", id, freq)
			if noteDown != nil {
				noteDown(id, freq)
			}
		},
		NoteUp: noteUp,
	})
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	return m, nil
}

// Controller returns the keyboard the model drives
func (m *Model) Controller() *keyboard.Controller {
	return m.ctrl
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 && msg.Width != m.width {
			m.width = msg.Width
			m.err = m.ctrl.Configure(m.ctrl.Options())
		}
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.releasePending()
			m.ctrl.Destroy()
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.togglePause()
			return m, nil
		case key.Matches(msg, keys.OctaveDown):
			m.shiftOctave(-1)
			return m, nil
		case key.Matches(msg, keys.OctaveUp):
			m.shiftOctave(1)
			return m, nil
		case key.Matches(msg, keys.Labels):
			m.ShowLabels = !m.ShowLabels
			return m, nil
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, m.keyPressed(msg)

	case releaseMsg:
		if m.pending[msg.key] != msg.seq {
			return m, nil
		}
		delete(m.pending, msg.key)
		m.each(func(h keyboard.Handler) { h.KeyUp(keyboard.KeyEvent{Key: msg.key}) })

	case tea.MouseMsg:
		m.mouse(msg)

	case externalMsg:
		if msg.on {
			m.ctrl.NoteOn(msg.source, msg.noteID)
		} else {
			m.ctrl.NoteOff(msg.source, msg.noteID)
		}
	}
	return m, nil
}

// keyPressed presses a physical key and schedules its release. A repeat
// only pushes the release back.
func (m *Model) keyPressed(msg tea.KeyMsg) tea.Cmd {
	ev, ok := keyEvent(msg)
	if !ok {
		return nil
	}
	if ev.Modifier() {
		m.each(func(h keyboard.Handler) { h.KeyDown(ev) })
		return nil
	}

	if _, held := m.pending[ev.Key]; !held {
		m.each(func(h keyboard.Handler) { h.KeyDown(ev) })
	}
	m.seq++
	m.pending[ev.Key] = m.seq

	if len(m.handlers) == 0 {
		delete(m.pending, ev.Key)
		return nil
	}
	k, seq := ev.Key, m.seq
	return tea.Tick(m.ReleaseAfter, func(time.Time) tea.Msg {
		return releaseMsg{key: k, seq: seq}
	})
}

// keyEvent names a terminal key the way the key map does: single printable
// characters upper-cased.
func keyEvent(msg tea.KeyMsg) (keyboard.KeyEvent, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return keyboard.KeyEvent{}, false
	}
	r := msg.Runes[0]
	if !unicode.IsPrint(r) {
		return keyboard.KeyEvent{}, false
	}
	return keyboard.KeyEvent{
		Key: strings.ToUpper(string(r)),
		Alt: msg.Alt,
	}, true
}

func (m *Model) releasePending() {
	for k := range m.pending {
		delete(m.pending, k)
		m.each(func(h keyboard.Handler) { h.KeyUp(keyboard.KeyEvent{Key: k}) })
	}
}

func (m *Model) togglePause() {
	if m.ctrl.Paused() {
		m.ctrl.Resume()
		return
	}
	m.pending = make(map[string]int)
	m.ctrl.Pause()
}

func (m *Model) shiftOctave(delta int) {
	start, err := notes.Parse(m.ctrl.Options().StartNote)
	if err != nil {
		return
	}
	start.Octave += delta
	if start.Octave < 0 || start.Octave > 7 {
		return
	}
	m.releasePending()
	m.err = m.ctrl.Set(keyboard.KeyStartNote, start.String())
}

func (m *Model) mouse(msg tea.MouseMsg) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionMotion && msg.Action != tea.MouseActionRelease {
		return
	}
	target := m.targetAt(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		m.pointerDown = true
		m.pointerKey = noteOf(target)
		m.each(func(h keyboard.Handler) { h.PointerDown(target) })
	case tea.MouseActionRelease:
		m.pointerDown = false
		m.pointerKey = ""
		m.each(func(h keyboard.Handler) { h.PointerUp(target) })
	case tea.MouseActionMotion:
		id := noteOf(target)
		if !m.pointerDown || id == m.pointerKey {
			return
		}
		if m.pointerKey != "" {
			prev := keyboard.KeyTarget(m.pointerKey)
			m.each(func(h keyboard.Handler) { h.PointerLeave(prev) })
		}
		m.pointerKey = id
		if id != "" {
			m.each(func(h keyboard.Handler) { h.PointerEnter(target) })
		}
	}
}

func noteOf(t keyboard.Target) string {
	id, _ := t.NoteID()
	return id
}

// targetAt maps a terminal cell to the key drawn there
func (m *Model) targetAt(x, y int) keyboard.Target {
	row := y - headerRows
	if m.layout == nil || row < 0 || row >= keyRows {
		return keyboard.NoTarget
	}
	if k, ok := m.layout.KeyAt(float64(x)+0.5, float64(row)+0.5); ok {
		return keyboard.KeyTarget(k.NoteID)
	}
	return keyboard.NoTarget
}

// each calls fn for every attached handler
func (m *Model) each(fn func(h keyboard.Handler)) {
	for _, h := range append([]keyboard.Handler(nil), m.handlers...) {
		fn(h)
	}
}

// Attach implements keyboard.InputSource
func (m *Model) Attach(h keyboard.Handler) {
	m.handlers = append(m.handlers, h)
}

// Detach implements keyboard.InputSource
func (m *Model) Detach(h keyboard.Handler) {
	for i, x := range m.handlers {
		if x == h {
			m.handlers = append(m.handlers[:i], m.handlers[i+1:]...)
			return
		}
	}
}

// Measure implements keyboard.Renderer; one cell is one unit
func (m *Model) Measure(string) (float64, float64) {
	return float64(m.width), keyRows
}

// Render implements keyboard.Renderer
func (m *Model) Render(containerID string, l *layout.Layout, c keyboard.Colours) error {
	m.containerID = containerID
	m.layout = l
	m.colours = c
	m.active = make(map[string]bool)
	logrus.WithFields(logrus.Fields{
		"keys":  len(l.Keys),
		"width": l.Width,
	}).Debug("terminal keyboard rendered")
	return nil
}

// Clear implements keyboard.Renderer
func (m *Model) Clear(containerID string) {
	if containerID != m.containerID {
		return
	}
	m.layout = nil
	m.active = make(map[string]bool)
}

// SetActive implements keyboard.Renderer
func (m *Model) SetActive(noteID string, active bool) {
	if active {
		m.active[noteID] = true
	} else {
		delete(m.active, noteID)
	}
}

// Remote delivers notes from another goroutine, such as a MIDI listener,
// through the program's event loop.
type Remote struct {
	send func(tea.Msg)
}

// NewRemote returns a Remote that sends to p
func NewRemote(p *tea.Program) Remote {
	return Remote{send: p.Send}
}

func (r Remote) NoteOn(source, noteID string) bool {
	r.send(externalMsg{source: source, noteID: noteID, on: true})
	return true
}

func (r Remote) NoteOff(source, noteID string) bool {
	r.send(externalMsg{source: source, noteID: noteID})
	return true
}

// Run starts the terminal keyboard and blocks until it quits. listen, if
// set, is started with a Remote once the program exists and stopped on exit.
func Run(m *Model, listen func(Remote) (func(), error)) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if listen != nil {
		stop, err := listen(NewRemote(p))
		if err != nil {
			logrus.WithError(err).Warn("midi input unavailable")
		} else {
			defer stop()
		}
	}
	_, err := p.Run()
	return err
}
