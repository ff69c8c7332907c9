package keymap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/PixPMusic/gopher-keys/internal/notes"
)

const (
	// Lower is replaced by the start octave (plus offset)
	Lower = "l"
	// Upper is replaced by the octave above Lower
	Upper = "u"
)

// Table maps a physical key identifier to a template note such as "C#l"
type Table map[string]string

// Default is the QWERTY piano layout: the home row plays the naturals of the
// lower octave, the row above plays the sharps, and K onwards continues into
// the upper octave.
var Default = Table{
	string(fyne.KeyA):            "Cl",
	string(fyne.KeyW):            "C#l",
	string(fyne.KeyS):            "Dl",
	string(fyne.KeyE):            "D#l",
	string(fyne.KeyD):            "El",
	string(fyne.KeyF):            "Fl",
	string(fyne.KeyT):            "F#l",
	string(fyne.KeyG):            "Gl",
	string(fyne.KeyY):            "G#l",
	string(fyne.KeyH):            "Al",
	string(fyne.KeyU):            "A#l",
	string(fyne.KeyJ):            "Bl",
	string(fyne.KeyK):            "Cu",
	string(fyne.KeyO):            "C#u",
	string(fyne.KeyL):            "Du",
	string(fyne.KeyP):            "D#u",
	string(fyne.KeySemicolon):    "Eu",
	string(fyne.KeyApostrophe):   "Fu",
	string(fyne.KeyRightBracket): "F#u",
	string(fyne.KeyBackslash):    "Gu",
}

// Lookup returns the template bound to id
func (t Table) Lookup(id string) (string, bool) {
	tmpl, ok := t[id]
	return tmpl, ok
}

// Note resolves the template bound to id
func (t Table) Note(id string, startOctave, offset int) (notes.Note, bool, error) {
	tmpl, ok := t[id]
	if !ok {
		return notes.Note{}, false, nil
	}
	n, err := Resolve(tmpl, startOctave, offset)
	return n, true, err
}

// Resolve replaces the octave placeholder of template
func Resolve(template string, startOctave, offset int) (notes.Note, error) {
	lower := startOctave + offset

	var id string
	switch {
	case strings.HasSuffix(template, Lower):
		id = strings.TrimSuffix(template, Lower) + strconv.Itoa(lower)
	case strings.HasSuffix(template, Upper):
		id = strings.TrimSuffix(template, Upper) + strconv.Itoa(lower+1)
	default:
		return notes.Note{}, fmt.Errorf("template %q has no octave placeholder", template)
	}

	n, err := notes.Parse(id)
	if err != nil {
		return notes.Note{}, fmt.Errorf("resolve template %q: %w", template, err)
	}
	return n, nil
}

// Binding is one entry of a table, for help screens
type Binding struct {
	Key      string
	Template string
}

// Bindings lists the table ordered by the pitch each key plays
func Bindings(t Table) []Binding {
	out := make([]Binding, 0, len(t))
	for k, v := range t {
		out = append(out, Binding{Key: k, Template: v})
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := rank(out[i].Template), rank(out[j].Template)
		if pi != pj {
			return pi < pj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func rank(template string) int {
	n, err := Resolve(template, 4, 0)
	if err != nil {
		return 1 << 30
	}
	return int(n.MIDI())
}

// Validate checks that every template in t resolves
func (t Table) Validate() error {
	for k, v := range t {
		if _, err := Resolve(v, 4, 0); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}
