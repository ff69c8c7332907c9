package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/keymap"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/google/uuid"
)

// Profile is a named keyboard setup the user can switch between
type Profile struct {
	ID       string           `json:"id" yaml:"id" toml:"id"`
	Name     string           `json:"name" yaml:"name" toml:"name"`
	Keyboard keyboard.Options `json:"keyboard" yaml:"keyboard" toml:"keyboard"`

	// Keys overrides the QWERTY key map when set
	Keys keymap.Table `json:"keys,omitempty" yaml:"keys,omitempty" toml:"keys,omitempty"`
}

// NewProfile creates a profile with default options and a generated ID
func NewProfile(name string) Profile {
	return Profile{
		ID:       uuid.New().String(),
		Name:     name,
		Keyboard: keyboard.DefaultOptions(),
	}
}

// KeyTable returns the profile's key map, or the default one
func (p Profile) KeyTable() keymap.Table {
	if len(p.Keys) == 0 {
		return keymap.Default
	}
	return p.Keys
}

// MIDIConfig names the ports the MIDI bridge opens. Empty names disable
// that direction.
type MIDIConfig struct {
	OutPort  string `json:"out_port,omitempty" yaml:"out_port,omitempty" toml:"out_port,omitempty"`
	InPort   string `json:"in_port,omitempty" yaml:"in_port,omitempty" toml:"in_port,omitempty"`
	Channel  uint8  `json:"channel" yaml:"channel" toml:"channel"`   // 0-15
	Velocity uint8  `json:"velocity" yaml:"velocity" toml:"velocity"` // 1-127, 0 means 100
}

// Config holds application configuration
type Config struct {
	FirstLaunchCompleted bool       `json:"first_launch_completed" yaml:"first_launch_completed" toml:"first_launch_completed"`
	OpenAtStartup        bool       `json:"open_at_startup" yaml:"open_at_startup" toml:"open_at_startup"`
	StartPaused          bool       `json:"start_paused" yaml:"start_paused" toml:"start_paused"`
	CurrentProfileID     string     `json:"current_profile_id" yaml:"current_profile_id" toml:"current_profile_id"`
	MIDI                 MIDIConfig `json:"midi" yaml:"midi" toml:"midi"`
	Profiles             []Profile  `json:"profiles" yaml:"profiles" toml:"profiles"`

	path string
}

// Default returns the configuration used when no file exists yet
func Default() *Config {
	p := NewProfile("Default")
	return &Config{
		Profiles:         []Profile{p},
		CurrentProfileID: p.ID,
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "gopher-keys"), nil
}

// ConfigPath returns the full path to the default config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, returning defaults if
// it does not exist
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a config in JSON, YAML or TOML, chosen by extension. A
// missing file yields the defaults, bound to path for a later Save.
func LoadFile(path string) (*Config, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.path = path
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := f.unmarshal(data, &cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", fmt.Sprintf("%s is not a valid %s file", path, f.name)))
	}
	cfg.path = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("invalid config", fmt.Sprintf("%s: %v", path, err)))
	}
	return &cfg, nil
}

// Path is the file the config was loaded from and is saved to
func (c *Config) Path() string {
	return c.path
}

// Save writes the config back to the file it was loaded from
func (c *Config) Save() error {
	if c.path == "" {
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		c.path = path
	}
	return c.SaveFile(c.path)
}

// SaveFile writes the config to path in the format its extension names
func (c *Config) SaveFile(path string) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := f.marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// normalize fills what older or hand-written files leave out
func (c *Config) normalize() {
	if len(c.Profiles) == 0 {
		p := NewProfile("Default")
		c.Profiles = []Profile{p}
		c.CurrentProfileID = p.ID
	}
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("Profile %d", i+1)
		}
		fillDefaults(&p.Keyboard)
	}
	if c.CurrentProfile() == nil || c.CurrentProfileID == "" {
		c.CurrentProfileID = c.Profiles[0].ID
	}
	if c.MIDI.Velocity == 0 {
		c.MIDI.Velocity = 100
	}
}

func fillDefaults(o *keyboard.Options) {
	d := keyboard.DefaultOptions()
	if o.Octaves == 0 {
		o.Octaves = d.Octaves
	}
	if o.StartNote == "" {
		o.StartNote = d.StartNote
	}
	if o.WhiteKeyColour == "" {
		o.WhiteKeyColour = d.WhiteKeyColour
	}
	if o.BlackKeyColour == "" {
		o.BlackKeyColour = d.BlackKeyColour
	}
	if o.ActiveColour == "" {
		o.ActiveColour = d.ActiveColour
	}
	if o.BorderColour == "" {
		o.BorderColour = d.BorderColour
	}
	if o.ContainerID == "" {
		o.ContainerID = d.ContainerID
	}
}

// Validate checks the parts of the config the keyboard does not check itself
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if seen[p.ID] {
			return fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = true
		if err := p.Keys.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	if c.MIDI.Channel > 15 {
		return fmt.Errorf("midi channel %d out of range 0-15", c.MIDI.Channel)
	}
	if c.MIDI.Velocity > 127 {
		return fmt.Errorf("midi velocity %d out of range 1-127", c.MIDI.Velocity)
	}
	return nil
}

// CurrentProfile returns the selected profile
func (c *Config) CurrentProfile() *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].ID == c.CurrentProfileID {
			return &c.Profiles[i]
		}
	}
	return nil
}

// FindProfile looks a profile up by ID or, failing that, by name
func (c *Config) FindProfile(idOrName string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].ID == idOrName {
			return &c.Profiles[i]
		}
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == idOrName {
			return &c.Profiles[i]
		}
	}
	return nil
}

// SelectProfile makes the profile named by idOrName current
func (c *Config) SelectProfile(idOrName string) error {
	p := c.FindProfile(idOrName)
	if p == nil {
		return fmt.Errorf("no profile %q", idOrName)
	}
	c.CurrentProfileID = p.ID
	return nil
}

// AddProfile adds a new profile to the config
func (c *Config) AddProfile(p Profile) {
	c.Profiles = append(c.Profiles, p)
}

// RemoveProfile removes a profile by ID. The last profile cannot be removed.
func (c *Config) RemoveProfile(id string) {
	if len(c.Profiles) <= 1 {
		return
	}
	for i, p := range c.Profiles {
		if p.ID == id {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			break
		}
	}
	if c.CurrentProfile() == nil {
		c.CurrentProfileID = c.Profiles[0].ID
	}
}

// UpdateProfile replaces an existing profile by ID
func (c *Config) UpdateProfile(p Profile) {
	for i := range c.Profiles {
		if c.Profiles[i].ID == p.ID {
			c.Profiles[i] = p
			return
		}
	}
}
