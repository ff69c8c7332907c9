package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

// Callbacks for tray menu actions
type Callbacks struct {
	OnOpen        func()
	OnTogglePause func()
	OnToggleLogin func(enabled bool)
	OnQuit        func()
}

// Tray is the system tray menu
type Tray struct {
	menu      *fyne.Menu
	pauseItem *fyne.MenuItem
	loginItem *fyne.MenuItem
}

// Setup installs the system tray menu when the app runs on a desktop.
// It returns nil elsewhere.
func Setup(app fyne.App, paused, openAtLogin bool, callbacks Callbacks) *Tray {
	desk, ok := app.(desktop.App)
	if !ok {
		return nil
	}

	t := &Tray{}

	openItem := fyne.NewMenuItem("Open Gopher Keys", func() {
		if callbacks.OnOpen != nil {
			callbacks.OnOpen()
		}
	})

	t.pauseItem = fyne.NewMenuItem("", func() {
		if callbacks.OnTogglePause != nil {
			callbacks.OnTogglePause()
		}
	})

	t.loginItem = fyne.NewMenuItem("Open at Login", nil)
	t.loginItem.Checked = openAtLogin

	quitItem := fyne.NewMenuItem("Quit", func() {
		if callbacks.OnQuit != nil {
			callbacks.OnQuit()
		}
	})

	t.menu = fyne.NewMenu("Gopher Keys",
		openItem,
		t.pauseItem,
		fyne.NewMenuItemSeparator(),
		t.loginItem,
		fyne.NewMenuItemSeparator(),
		quitItem,
	)

	// Set the action after menu is created so we can refresh it
	t.loginItem.Action = func() {
		t.loginItem.Checked = !t.loginItem.Checked
		if callbacks.OnToggleLogin != nil {
			callbacks.OnToggleLogin(t.loginItem.Checked)
		}
		t.menu.Refresh()
	}

	t.setPauseLabel(paused)

	desk.SetSystemTrayMenu(t.menu)
	desk.SetSystemTrayIcon(theme.MediaMusicIcon())
	return t
}

// SetPaused updates the pause item after input was paused or resumed
func (t *Tray) SetPaused(paused bool) {
	if t == nil {
		return
	}
	t.setPauseLabel(paused)
	t.menu.Refresh()
}

func (t *Tray) setPauseLabel(paused bool) {
	if paused {
		t.pauseItem.Label = "Resume Keyboard"
		t.pauseItem.Icon = theme.MediaPlayIcon()
	} else {
		t.pauseItem.Label = "Pause Keyboard"
		t.pauseItem.Icon = theme.MediaPauseIcon()
	}
}
