package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/PixPMusic/gopher-keys/internal/config"
	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/midi"
	"github.com/PixPMusic/gopher-keys/internal/snapshot"
	"github.com/PixPMusic/gopher-keys/internal/startup"
	"github.com/PixPMusic/gopher-keys/internal/tray"
	"github.com/PixPMusic/gopher-keys/internal/tui"
	"github.com/PixPMusic/gopher-keys/internal/window"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/sirupsen/logrus"
)

const appID = "com.pixpmusic.gopherkeys"

func main() {
	var (
		configPath = flag.String("config", "", "config file (.json, .yaml or .toml)")
		profile    = flag.String("profile", "", "profile id or name to play")
		terminal   = flag.Bool("tui", false, "play in the terminal")
		snapOut    = flag.String("snapshot", "", "write the keyboard to a PNG file and exit")
		active     = flag.String("active", "", "comma separated notes drawn pressed in -snapshot")
		listPorts  = flag.Bool("ports", false, "list MIDI ports and exit")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Load configuration
	cfg, err := loadConfig(*configPath, *profile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	switch {
	case *snapOut != "":
		if err := writeSnapshot(cfg, *snapOut, *active); err != nil {
			logrus.WithError(err).Fatal("failed to write snapshot")
		}
		return
	case *listPorts:
		m := midi.NewManager()
		defer m.Close()
		fmt.Println("in: ", strings.Join(m.ListInPorts(), ", "))
		fmt.Println("out:", strings.Join(m.ListOutPorts(), ", "))
		return
	}

	// Initialize MIDI manager
	midiManager := midi.NewManager()
	defer midiManager.Close()

	if *terminal {
		if err := runTerminal(cfg, midiManager); err != nil {
			logrus.WithError(err).Fatal("terminal keyboard failed")
		}
		return
	}

	runDesktop(cfg, midiManager, *profile)
}

func loadConfig(path, profile string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if profile != "" {
		if err := cfg.SelectProfile(profile); err != nil {
			return nil, fault.Wrap(err, fmsg.With("select profile"))
		}
	}
	return cfg, nil
}

func writeSnapshot(cfg *config.Config, path, active string) error {
	p := cfg.CurrentProfile()
	opts := p.Keyboard
	if opts.Width == 0 {
		opts.Width = 760
	}
	if opts.Height == 0 {
		opts.Height = 160
	}

	c, err := keyboard.New(keyboard.Config{Options: opts, Keys: p.KeyTable()})
	if err != nil {
		return err
	}
	defer c.Destroy()

	pressed := make(map[string]bool)
	for _, id := range strings.Split(active, ",") {
		if id = strings.TrimSpace(id); id != "" {
			pressed[id] = true
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("create snapshot file"))
	}
	defer f.Close()

	return snapshot.WritePNG(f, c.Layout(), c.Colours(), snapshot.Options{Active: pressed, Labels: true})
}

func runTerminal(cfg *config.Config, midiManager *midi.Manager) error {
	var down, up keyboard.NoteFunc
	if port := cfg.MIDI.OutPort; port != "" {
		sink, err := midiManager.OpenSink(port, cfg.MIDI.Channel, cfg.MIDI.Velocity)
		if err != nil {
			logrus.WithError(err).WithField("port", port).Warn("failed to open midi output")
		} else {
			defer sink.Close()
			down, up = sink.NoteDown, sink.NoteUp
		}
	}

	p := cfg.CurrentProfile()
	m, err := tui.New(p.Keyboard, p.KeyTable(), down, up)
	if err != nil {
		return err
	}
	if cfg.StartPaused {
		m.Controller().Pause()
	}

	var listen func(tui.Remote) (func(), error)
	if port := cfg.MIDI.InPort; port != "" {
		listen = func(r tui.Remote) (func(), error) {
			return midiManager.StartListening(port, r)
		}
	}
	return tui.Run(m, listen)
}

func runDesktop(cfg *config.Config, midiManager *midi.Manager, profile string) {
	// Create Fyne app
	fyneApp := app.NewWithID(appID)

	entry := startup.Entry{ID: appID, Name: "Gopher Keys"}
	if profile != "" {
		entry.Args = []string{"-profile", profile}
	}

	mainWindow, err := window.NewMainWindow(fyneApp, cfg, midiManager, entry)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create keyboard")
	}
	mainWindow.StartMIDI()
	defer mainWindow.StopMIDI()

	// Setup system tray
	t := tray.Setup(fyneApp, cfg.StartPaused, entry.IsEnabled(), tray.Callbacks{
		OnOpen: func() {
			mainWindow.Show()
		},
		OnTogglePause: mainWindow.TogglePause,
		OnToggleLogin: func(enabled bool) {
			mainWindow.SetOpenAtStartup(enabled)
			if err := cfg.Save(); err != nil {
				logrus.WithError(err).Warn("failed to save config")
			}
		},
		OnQuit: func() {
			fyneApp.Quit()
		},
	})
	mainWindow.OnPauseChanged(t.SetPaused)

	// Show window if first launch, otherwise run in background
	if !cfg.FirstLaunchCompleted {
		cfg.FirstLaunchCompleted = true
		if err := cfg.Save(); err != nil {
			logrus.WithError(err).Warn("failed to save config")
		}
		mainWindow.Show()
	} else if t == nil {
		// nowhere to reopen it from
		mainWindow.Show()
	}

	stopWatch, err := config.Watch(cfg.Path(), func(next *config.Config) {
		fyne.Do(func() { mainWindow.Reload(next) })
	})
	if err != nil {
		logrus.WithError(err).Warn("config changes will not be picked up")
	} else {
		defer stopWatch()
	}

	// Run the Fyne app (this blocks until app.Quit is called)
	fyneApp.Run()
}
