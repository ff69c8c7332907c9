package window

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-keys/internal/config"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/keymap"
	"github.com/PixPMusic/gopher-keys/internal/midi"
	"github.com/PixPMusic/gopher-keys/internal/startup"
	"github.com/sirupsen/logrus"
)

// MainWindow manages the main application window
type MainWindow struct {
	window      fyne.Window
	app         fyne.App
	cfg         *config.Config
	midiManager *midi.Manager // nil disables the MIDI bridge
	startup     startup.Entry

	keyboard   *Keyboard
	controller *keyboard.Controller
	status     *widget.Label
	pauseCheck *widget.Check
	bindings   *widget.List
	bindingSrc []keymap.Binding

	settings *settingsForm

	// MIDI bridge
	sink          *midi.Sink
	midiStopFuncs []func()

	onPauseChanged func(paused bool)
}

// NewMainWindow creates the main window and the keyboard it hosts, using
// the config's current profile
func NewMainWindow(app fyne.App, cfg *config.Config, midiManager *midi.Manager, entry startup.Entry) (*MainWindow, error) {
	win := app.NewWindow("Gopher Keys")

	mw := &MainWindow{
		window:      win,
		app:         app,
		cfg:         cfg,
		midiManager: midiManager,
		startup:     entry,
		keyboard:    NewKeyboard(),
		status:      widget.NewLabel("Play with the mouse or the A-\\ keys"),
	}
	mw.keyboard.ShowLabels = true

	profile := cfg.CurrentProfile()
	if profile == nil {
		return nil, fmt.Errorf("config has no current profile")
	}

	c, err := keyboard.New(keyboard.Config{
		Options:  profile.Keyboard,
		Renderer: mw.keyboard,
		Input:    mw.keyboard,
		Keys:     profile.KeyTable(),
		NoteDown: mw.noteDown,
		NoteUp:   mw.noteUp,
	})
	if err != nil {
		return nil, err
	}
	mw.controller = c
	if cfg.StartPaused {
		c.Pause()
	}

	mw.setupUI()
	mw.keyboard.Bind(win.Canvas())
	mw.keyboard.OnResize(mw.remeasure)

	win.Resize(fyne.NewSize(900, 320))
	win.CenterOnScreen()

	win.SetCloseIntercept(func() {
		win.Hide()
	})

	return mw, nil
}

// Show shows the window
func (mw *MainWindow) Show() {
	mw.window.Show()
}

// Window returns the fyne window
func (mw *MainWindow) Window() fyne.Window {
	return mw.window
}

// Controller returns the keyboard controller
func (mw *MainWindow) Controller() *keyboard.Controller {
	return mw.controller
}

// Keyboard returns the keyboard widget
func (mw *MainWindow) Keyboard() *Keyboard {
	return mw.keyboard
}

// OnPauseChanged sets a function called whenever input is paused or resumed
func (mw *MainWindow) OnPauseChanged(fn func(paused bool)) {
	mw.onPauseChanged = fn
}

func (mw *MainWindow) setupUI() {
	mw.pauseCheck = widget.NewCheck("Paused", func(paused bool) {
		mw.SetPaused(paused)
	})
	mw.pauseCheck.SetChecked(mw.controller.Paused())

	toolbar := container.NewBorder(nil, nil, nil, mw.pauseCheck, mw.status)
	keyboardTab := container.NewTabItem("Keyboard", container.NewBorder(toolbar, nil, nil, nil, mw.keyboard))

	mw.settings = mw.newSettingsForm()
	settingsTab := container.NewTabItem("Settings", mw.settings.content)
	keysTab := container.NewTabItem("Keys", mw.createKeysTab())

	tabs := container.NewAppTabs(keyboardTab, settingsTab, keysTab)
	tabs.SetTabLocation(container.TabLocationTop)

	mw.window.SetContent(tabs)
	mw.updateTitle()
}

// ============ KEYS TAB ============

func (mw *MainWindow) createKeysTab() fyne.CanvasObject {
	mw.bindingSrc = keymap.Bindings(mw.controller.Keys())

	mw.bindings = widget.NewList(
		func() int { return len(mw.bindingSrc) },
		func() fyne.CanvasObject {
			return container.NewGridWithColumns(2, widget.NewLabel(""), widget.NewLabel(""))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(mw.bindingSrc) {
				return
			}
			b := mw.bindingSrc[id]
			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(b.Key)
			row.Objects[1].(*widget.Label).SetText(mw.describeBinding(b))
		},
	)
	return mw.bindings
}

// describeBinding shows the note a binding plays on the current layout
func (mw *MainWindow) describeBinding(b keymap.Binding) string {
	l := mw.controller.Layout()
	if l == nil {
		return b.Template
	}
	n, err := keymap.Resolve(b.Template, l.StartOctave(), l.KeyPressOffset)
	if err != nil {
		return b.Template
	}
	return n.String()
}

func (mw *MainWindow) refreshBindings() {
	mw.bindingSrc = keymap.Bindings(mw.controller.Keys())
	if mw.bindings != nil {
		mw.bindings.Refresh()
	}
}

// ============ NOTES ============

func (mw *MainWindow) noteDown(noteID string, frequency float64) {
	logrus.WithFields(logrus.Fields{"note": noteID, "hz": frequency}).Debug("note down")
	mw.status.SetText(fmt.Sprintf("%s  %.2f Hz", noteID, frequency))
	if mw.sink != nil {
		mw.sink.NoteDown(noteID, frequency)
	}
}

func (mw *MainWindow) noteUp(noteID string, frequency float64) {
	logrus.WithField("note", noteID).Debug("note up")
	if mw.sink != nil {
		mw.sink.NoteUp(noteID, frequency)
	}
}

// remeasure rebuilds the keyboard for a new widget size when the profile
// leaves width or height to the window
func (mw *MainWindow) remeasure(fyne.Size) {
	p := mw.cfg.CurrentProfile()
	if p == nil || (p.Keyboard.Width != 0 && p.Keyboard.Height != 0) {
		return
	}
	if err := mw.controller.Configure(p.Keyboard); err != nil {
		logrus.WithError(err).Warn("failed to resize keyboard")
	}
}

// ============ PROFILES ============

// ApplyProfile switches the keyboard to p
func (mw *MainWindow) ApplyProfile(p config.Profile) error {
	if err := mw.controller.Configure(p.Keyboard); err != nil {
		return err
	}
	mw.controller.SetKeys(p.KeyTable())
	mw.refreshBindings()
	mw.updateTitle()
	return nil
}

// Reload takes over a config read from disk and applies its current profile.
// It must run on the fyne event goroutine.
func (mw *MainWindow) Reload(cfg *config.Config) {
	portsChanged := cfg.MIDI != mw.cfg.MIDI
	*mw.cfg = *cfg

	if p := mw.cfg.CurrentProfile(); p != nil {
		if err := mw.ApplyProfile(*p); err != nil {
			logrus.WithError(err).Warn("reloaded profile is invalid, keeping the current keyboard")
		}
	}
	if mw.settings != nil {
		mw.settings.load()
	}
	if portsChanged {
		mw.StartMIDI()
	}
}

func (mw *MainWindow) updateTitle() {
	title := "Gopher Keys"
	if p := mw.cfg.CurrentProfile(); p != nil {
		title += " - " + p.Name
	}
	mw.window.SetTitle(title)
}

// ============ PAUSE ============

// SetPaused pauses or resumes keyboard input
func (mw *MainWindow) SetPaused(paused bool) {
	if paused == mw.controller.Paused() {
		return
	}
	if paused {
		mw.controller.Pause()
	} else {
		mw.controller.Resume()
	}
	if mw.pauseCheck != nil && mw.pauseCheck.Checked != paused {
		mw.pauseCheck.SetChecked(paused)
	}
	if mw.onPauseChanged != nil {
		mw.onPauseChanged(paused)
	}
}

// TogglePause flips between paused and playing
func (mw *MainWindow) TogglePause() {
	mw.SetPaused(!mw.controller.Paused())
}

// ============ MIDI ============

// uiNotes hands notes from the MIDI goroutine to the fyne event goroutine
type uiNotes struct {
	c *keyboard.Controller
}

func (u uiNotes) NoteOn(source, noteID string) bool {
	fyne.Do(func() { u.c.NoteOn(source, noteID) })
	return true
}

func (u uiNotes) NoteOff(source, noteID string) bool {
	fyne.Do(func() { u.c.NoteOff(source, noteID) })
	return true
}

// StartMIDI opens the configured output and input ports
func (mw *MainWindow) StartMIDI() {
	mw.StopMIDI()
	if mw.midiManager == nil {
		return
	}

	if port := mw.cfg.MIDI.OutPort; port != "" {
		sink, err := mw.midiManager.OpenSink(port, mw.cfg.MIDI.Channel, mw.cfg.MIDI.Velocity)
		if err != nil {
			logrus.WithError(err).WithField("port", port).Warn("failed to open midi output")
		} else {
			mw.sink = sink
		}
	}

	if port := mw.cfg.MIDI.InPort; port != "" {
		stop, err := mw.midiManager.StartListening(port, uiNotes{mw.controller})
		if err != nil {
			logrus.WithError(err).WithField("port", port).Warn("failed to start midi listener")
		} else {
			mw.midiStopFuncs = append(mw.midiStopFuncs, stop)
		}
	}
}

// StopMIDI closes the MIDI bridge
func (mw *MainWindow) StopMIDI() {
	for _, stop := range mw.midiStopFuncs {
		if stop != nil {
			stop()
		}
	}
	mw.midiStopFuncs = nil

	if mw.sink != nil {
		if err := mw.sink.Close(); err != nil {
			logrus.WithError(err).Warn("failed to silence midi output")
		}
		mw.sink = nil
	}
}
