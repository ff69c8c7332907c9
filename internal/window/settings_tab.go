package window

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-keys/internal/config"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/sirupsen/logrus"
)

// ============ SETTINGS TAB ============

const nonePort = "(None)"

// settingsForm edits the current profile and the MIDI ports
type settingsForm struct {
	mw      *MainWindow
	content fyne.CanvasObject

	profileSelect *widget.Select
	octaves       *widget.Select
	startNote     *widget.Select
	width         *widget.Entry
	height        *widget.Entry
	whiteColour   *widget.Entry
	blackColour   *widget.Entry
	activeColour  *widget.Entry
	borderColour  *widget.Entry

	inPort      *widget.Select
	outPort     *widget.Select
	channel     *widget.Select
	startPaused *widget.Check
	openAtLogin *widget.Check
}

// startNotes lists every white key a keyboard can start on
func startNotes() []string {
	var out []string
	for octave := 0; octave <= 7; octave++ {
		for _, l := range notes.WhiteLetters {
			out = append(out, notes.Note{Letter: l, Octave: octave}.String())
		}
	}
	return out
}

func numbers(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func (mw *MainWindow) newSettingsForm() *settingsForm {
	f := &settingsForm{mw: mw}

	f.profileSelect = widget.NewSelect(nil, nil)
	newBtn := widget.NewButtonWithIcon("", theme.ContentAddIcon(), f.createProfile)
	renameBtn := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), f.renameProfile)
	deleteBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), f.deleteProfile)
	profileBar := container.NewBorder(nil, nil, nil, container.NewHBox(newBtn, renameBtn, deleteBtn), f.profileSelect)

	f.octaves = widget.NewSelect(numbers(1, 7), nil)
	f.startNote = widget.NewSelect(startNotes(), nil)
	f.width = widget.NewEntry()
	f.width.SetPlaceHolder("fit window")
	f.height = widget.NewEntry()
	f.height.SetPlaceHolder("fit window")
	f.whiteColour = widget.NewEntry()
	f.blackColour = widget.NewEntry()
	f.activeColour = widget.NewEntry()
	f.borderColour = widget.NewEntry()

	f.inPort = widget.NewSelect(nil, nil)
	f.inPort.PlaceHolder = "Select..."
	f.outPort = widget.NewSelect(nil, nil)
	f.outPort.PlaceHolder = "Select..."
	f.channel = widget.NewSelect(numbers(1, 16), nil)
	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), f.refreshPorts)

	f.startPaused = widget.NewCheck("Start paused", nil)
	f.openAtLogin = widget.NewCheck("Open at login", nil)

	form := widget.NewForm(
		widget.NewFormItem("Profile", profileBar),
		widget.NewFormItem("Octaves", f.octaves),
		widget.NewFormItem("Start note", f.startNote),
		widget.NewFormItem("Width", f.width),
		widget.NewFormItem("Height", f.height),
		widget.NewFormItem("White keys", f.whiteColour),
		widget.NewFormItem("Black keys", f.blackColour),
		widget.NewFormItem("Pressed keys", f.activeColour),
		widget.NewFormItem("Borders", f.borderColour),
		widget.NewFormItem("MIDI in", container.NewBorder(nil, nil, nil, refreshBtn, f.inPort)),
		widget.NewFormItem("MIDI out", f.outPort),
		widget.NewFormItem("MIDI channel", f.channel),
		widget.NewFormItem("", container.NewHBox(f.startPaused, f.openAtLogin)),
	)

	saveBtn := widget.NewButtonWithIcon("Save & Apply", theme.DocumentSaveIcon(), func() {
		if err := f.apply(); err != nil {
			dialog.ShowError(err, mw.window)
		}
	})
	saveBtn.Importance = widget.HighImportance

	f.content = container.NewBorder(nil, container.NewHBox(saveBtn), nil, nil, container.NewVScroll(form))

	f.refreshPorts()
	f.load()
	f.profileSelect.OnChanged = f.selectProfile
	return f
}

// load copies the config into the form
func (f *settingsForm) load() {
	cfg := f.mw.cfg
	p := cfg.CurrentProfile()
	if p == nil {
		return
	}

	f.profileSelect.OnChanged = nil
	f.profileSelect.Options = profileNames(cfg)
	f.profileSelect.SetSelected(p.Name)
	f.profileSelect.OnChanged = f.selectProfile

	o := p.Keyboard
	f.octaves.SetSelected(strconv.Itoa(o.Octaves))
	f.startNote.SetSelected(o.StartNote)
	f.width.SetText(formatSize(o.Width))
	f.height.SetText(formatSize(o.Height))
	f.whiteColour.SetText(o.WhiteKeyColour)
	f.blackColour.SetText(o.BlackKeyColour)
	f.activeColour.SetText(o.ActiveColour)
	f.borderColour.SetText(o.BorderColour)

	f.inPort.SetSelected(portOrNone(cfg.MIDI.InPort))
	f.outPort.SetSelected(portOrNone(cfg.MIDI.OutPort))
	f.channel.SetSelected(strconv.Itoa(int(cfg.MIDI.Channel) + 1))
	f.startPaused.SetChecked(cfg.StartPaused)
	f.openAtLogin.SetChecked(cfg.OpenAtStartup)
}

func profileNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		names[i] = p.Name
	}
	return names
}

func formatSize(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseSize(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a positive number or empty", name)
	}
	return v, nil
}

func portOrNone(port string) string {
	if port == "" {
		return nonePort
	}
	return port
}

func portFromSelect(s string) string {
	if s == nonePort {
		return ""
	}
	return s
}

func (f *settingsForm) refreshPorts() {
	var ins, outs []string
	if m := f.mw.midiManager; m != nil {
		ins = m.ListInPorts()
		outs = m.ListOutPorts()
	}
	f.inPort.Options = append([]string{nonePort}, ins...)
	f.outPort.Options = append([]string{nonePort}, outs...)
	f.inPort.Refresh()
	f.outPort.Refresh()
}

// options reads the keyboard options from the form
func (f *settingsForm) options() (keyboard.Options, error) {
	p := f.mw.cfg.CurrentProfile()
	o := p.Keyboard

	octaves, err := strconv.Atoi(f.octaves.Selected)
	if err != nil {
		return o, fmt.Errorf("choose the number of octaves")
	}
	o.Octaves = octaves
	o.StartNote = f.startNote.Selected
	if o.Width, err = parseSize("width", f.width.Text); err != nil {
		return o, err
	}
	if o.Height, err = parseSize("height", f.height.Text); err != nil {
		return o, err
	}
	o.WhiteKeyColour = strings.TrimSpace(f.whiteColour.Text)
	o.BlackKeyColour = strings.TrimSpace(f.blackColour.Text)
	o.ActiveColour = strings.TrimSpace(f.activeColour.Text)
	o.BorderColour = strings.TrimSpace(f.borderColour.Text)
	return o, nil
}

// apply validates the form, rebuilds the keyboard and saves the config
func (f *settingsForm) apply() error {
	mw := f.mw
	o, err := f.options()
	if err != nil {
		return err
	}

	p := *mw.cfg.CurrentProfile()
	p.Keyboard = o
	if err := mw.ApplyProfile(p); err != nil {
		return err
	}
	mw.cfg.UpdateProfile(p)

	midiCfg := mw.cfg.MIDI
	midiCfg.InPort = portFromSelect(f.inPort.Selected)
	midiCfg.OutPort = portFromSelect(f.outPort.Selected)
	if ch, err := strconv.Atoi(f.channel.Selected); err == nil {
		midiCfg.Channel = uint8(ch - 1)
	}
	portsChanged := midiCfg != mw.cfg.MIDI
	mw.cfg.MIDI = midiCfg
	mw.cfg.StartPaused = f.startPaused.Checked

	if f.openAtLogin.Checked != mw.cfg.OpenAtStartup {
		mw.SetOpenAtStartup(f.openAtLogin.Checked)
	}

	if portsChanged {
		mw.StartMIDI()
	}
	return mw.cfg.Save()
}

// SetOpenAtStartup registers or removes the login item and records the choice
func (mw *MainWindow) SetOpenAtStartup(enabled bool) {
	var err error
	if enabled {
		err = mw.startup.Enable()
	} else {
		err = mw.startup.Disable()
	}
	if err != nil {
		logrus.WithError(err).Warn("failed to change login item")
		return
	}
	mw.cfg.OpenAtStartup = enabled
}

func (f *settingsForm) selectProfile(name string) {
	mw := f.mw
	if p := mw.cfg.CurrentProfile(); p != nil && p.Name == name {
		return
	}
	if err := mw.cfg.SelectProfile(name); err != nil {
		return
	}
	if err := mw.ApplyProfile(*mw.cfg.CurrentProfile()); err != nil {
		dialog.ShowError(err, mw.window)
	}
	f.load()
	if err := mw.cfg.Save(); err != nil {
		logrus.WithError(err).Warn("failed to save config")
	}
}

func (f *settingsForm) createProfile() {
	mw := f.mw
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Profile Name")
	entry.SetText("New Profile")

	dialog.ShowCustomConfirm("Create New Profile", "Create", "Cancel",
		container.NewVBox(widget.NewLabel("Enter a name for the new profile:"), entry),
		func(confirm bool) {
			if !confirm || entry.Text == "" {
				return
			}
			p := config.NewProfile(entry.Text)
			mw.cfg.AddProfile(p)
			f.selectProfile(p.ID)
		}, mw.window)
}

func (f *settingsForm) renameProfile() {
	mw := f.mw
	p := mw.cfg.CurrentProfile()
	if p == nil {
		return
	}

	entry := widget.NewEntry()
	entry.SetText(p.Name)

	dialog.ShowCustomConfirm("Rename Profile", "Rename", "Cancel",
		container.NewVBox(widget.NewLabel("Enter a new name:"), entry),
		func(confirm bool) {
			if confirm && entry.Text != "" {
				p.Name = entry.Text
				f.load()
				mw.updateTitle()
				if err := mw.cfg.Save(); err != nil {
					logrus.WithError(err).Warn("failed to save config")
				}
			}
		}, mw.window)
}

func (f *settingsForm) deleteProfile() {
	mw := f.mw
	if len(mw.cfg.Profiles) <= 1 {
		dialog.ShowInformation("Cannot Delete", "You must have at least one profile.", mw.window)
		return
	}
	p := mw.cfg.CurrentProfile()
	if p == nil {
		return
	}

	dialog.ShowConfirm("Delete Profile", "Are you sure you want to delete '"+p.Name+"'?",
		func(confirm bool) {
			if !confirm {
				return
			}
			mw.cfg.RemoveProfile(p.ID)
			if err := mw.ApplyProfile(*mw.cfg.CurrentProfile()); err != nil {
				dialog.ShowError(err, mw.window)
			}
			f.load()
			if err := mw.cfg.Save(); err != nil {
				logrus.WithError(err).Warn("failed to save config")
			}
		}, mw.window)
}
