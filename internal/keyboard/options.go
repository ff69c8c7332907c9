package keyboard

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/PixPMusic/gopher-keys/internal/palette"
)

// Option keys accepted by Get, Set and SetOptions
const (
	KeyOctaves        = "octaves"
	KeyStartNote      = "startNote"
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeyWhiteKeyColour = "whiteKeyColour"
	KeyBlackKeyColour = "blackKeyColour"
	KeyActiveColour   = "activeColour"
	KeyBorderColour   = "borderColour"
	KeyContainerID    = "containerId"
)

// Options is the full keyboard configuration. Zero Width or Height means
// "use the size the renderer measures for the container".
type Options struct {
	Octaves        int     `json:"octaves" yaml:"octaves" toml:"octaves"`
	StartNote      string  `json:"startNote" yaml:"startNote" toml:"startNote"`
	Width          float64 `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height         float64 `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	WhiteKeyColour string  `json:"whiteKeyColour" yaml:"whiteKeyColour" toml:"whiteKeyColour"`
	BlackKeyColour string  `json:"blackKeyColour" yaml:"blackKeyColour" toml:"blackKeyColour"`
	ActiveColour   string  `json:"activeColour" yaml:"activeColour" toml:"activeColour"`
	BorderColour   string  `json:"borderColour" yaml:"borderColour" toml:"borderColour"`
	ContainerID    string  `json:"containerId" yaml:"containerId" toml:"containerId"`
}

// DefaultOptions returns the configuration a keyboard starts with
func DefaultOptions() Options {
	return Options{
		Octaves:        3,
		StartNote:      "A3",
		WhiteKeyColour: "#fff",
		BlackKeyColour: "#000",
		ActiveColour:   "yellow",
		BorderColour:   "#000",
		ContainerID:    "keyboard",
	}
}

// OptionKeys lists every recognised option key, sorted
func OptionKeys() []string {
	keys := make([]string, 0, len(optionFields))
	for k := range optionFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type optionField struct {
	get func(o *Options) any
	set func(o *Options, v any) error
}

var optionFields = map[string]optionField{
	KeyOctaves: {
		get: func(o *Options) any { return o.Octaves },
		set: func(o *Options, v any) error {
			n, err := toInt(v)
			o.Octaves = n
			return err
		},
	},
	KeyStartNote: {
		get: func(o *Options) any { return o.StartNote },
		set: stringSetter(func(o *Options) *string { return &o.StartNote }),
	},
	KeyWidth: {
		get: func(o *Options) any { return o.Width },
		set: func(o *Options, v any) error {
			f, err := toFloat(v)
			o.Width = f
			return err
		},
	},
	KeyHeight: {
		get: func(o *Options) any { return o.Height },
		set: func(o *Options, v any) error {
			f, err := toFloat(v)
			o.Height = f
			return err
		},
	},
	KeyWhiteKeyColour: {
		get: func(o *Options) any { return o.WhiteKeyColour },
		set: stringSetter(func(o *Options) *string { return &o.WhiteKeyColour }),
	},
	KeyBlackKeyColour: {
		get: func(o *Options) any { return o.BlackKeyColour },
		set: stringSetter(func(o *Options) *string { return &o.BlackKeyColour }),
	},
	KeyActiveColour: {
		get: func(o *Options) any { return o.ActiveColour },
		set: stringSetter(func(o *Options) *string { return &o.ActiveColour }),
	},
	KeyBorderColour: {
		get: func(o *Options) any { return o.BorderColour },
		set: stringSetter(func(o *Options) *string { return &o.BorderColour }),
	},
	KeyContainerID: {
		get: func(o *Options) any { return o.ContainerID },
		set: stringSetter(func(o *Options) *string { return &o.ContainerID }),
	},
}

func stringSetter(field func(o *Options) *string) func(o *Options, v any) error {
	return func(o *Options, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want a string, got %T", v)
		}
		*field(o) = s
		return nil
	}
}

// toInt accepts any integer type and integral floats, which is what JSON,
// YAML and TOML decoders hand over.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float32:
		return toInt(float64(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("want a whole number, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		i, err := toInt(v)
		return float64(i), err
	}
}

// Colours are the parsed colour options handed to a Renderer
type Colours struct {
	WhiteKey color.RGBA
	BlackKey color.RGBA
	Active   color.RGBA
	Border   color.RGBA
}

// Resting returns the colour of an idle key of class k
func (c Colours) Resting(k layout.Colour) color.RGBA {
	if k == layout.Black {
		return c.BlackKey
	}
	return c.WhiteKey
}

// validate checks o and returns the note the layout starts on and the parsed
// colours. Errors name the offending option key.
func (o Options) validate() (notes.Note, Colours, error) {
	var c Colours

	if o.Octaves < 1 {
		return notes.Note{}, c, &layout.InvalidLayoutError{Reason: fmt.Sprintf("octaves must be at least 1, got %d", o.Octaves)}
	}
	if o.Octaves > layout.MaxOctaves {
		return notes.Note{}, c, &layout.InvalidLayoutError{Reason: fmt.Sprintf("octaves must be at most %d, got %d", layout.MaxOctaves, o.Octaves)}
	}
	start, err := notes.Parse(o.StartNote)
	if err != nil {
		return notes.Note{}, c, &layout.InvalidLayoutError{Reason: fmt.Sprintf("startNote: %v", err)}
	}
	if start.IsSharp() {
		return notes.Note{}, c, &layout.InvalidLayoutError{Reason: fmt.Sprintf("startNote %s is not a white key", start)}
	}
	if o.Width < 0 || o.Height < 0 {
		key := KeyWidth
		if o.Height < 0 {
			key = KeyHeight
		}
		return notes.Note{}, c, &InvalidOptionError{Key: key, Err: fmt.Errorf("must not be negative")}
	}
	if o.ContainerID == "" {
		return notes.Note{}, c, &InvalidOptionError{Key: KeyContainerID, Err: fmt.Errorf("must not be empty")}
	}

	for _, f := range []struct {
		key string
		src string
		dst *color.RGBA
	}{
		{KeyWhiteKeyColour, o.WhiteKeyColour, &c.WhiteKey},
		{KeyBlackKeyColour, o.BlackKeyColour, &c.BlackKey},
		{KeyActiveColour, o.ActiveColour, &c.Active},
		{KeyBorderColour, o.BorderColour, &c.Border},
	} {
		parsed, err := palette.Parse(f.src)
		if err != nil {
			return notes.Note{}, c, &InvalidOptionError{Key: f.key, Value: f.src, Err: err}
		}
		*f.dst = parsed
	}

	return start, c, nil
}
