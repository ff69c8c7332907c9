package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/PixPMusic/gopher-keys/internal/notes"
)

// ErrInvalidLayout is matched by every error Build returns
var ErrInvalidLayout = errors.New("invalid layout")

// Colour is the class of a key
type Colour string

const (
	White Colour = "white"
	Black Colour = "black"
)

// Key describes a single key of a built keyboard
type Key struct {
	NoteID string // e.g. "C#4", also used as the element id
	Note   notes.Note
	Colour Colour

	Octave   int     // octave number the key belongs to
	Position int     // 0-based white-key slot; a black key shares the slot of the white key to its left
	Left     float64 // x offset in pixels
	Width    float64
}

// Layout is the complete, immutable geometry of a keyboard
type Layout struct {
	Keys           []Key
	StartNote      notes.Note
	Octaves        int
	Width          float64
	Height         float64
	WhiteKeyWidth  float64
	BlackKeyWidth  float64
	BlackKeyHeight float64
	KeyPressOffset int
	WhiteLetters   []notes.Letter // white letters rotated to the start note
	SharpLetters   []notes.Letter // sharp-bearing letters rotated to the start note
}

// InvalidLayoutError explains why a layout could not be built
type InvalidLayoutError struct {
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout: %s", e.Reason)
}

func (e *InvalidLayoutError) Is(target error) bool {
	return target == ErrInvalidLayout
}

// MaxOctaves is the widest keyboard Build accepts
const MaxOctaves = 10

// TotalWhiteKeys returns the number of white keys in octaves octaves
func TotalWhiteKeys(octaves int) int {
	return octaves * len(notes.WhiteLetters)
}

// WhiteKeyWidth reserves one pixel of border per key and splits the rest
func WhiteKeyWidth(width float64, totalWhiteKeys int) float64 {
	if totalWhiteKeys <= 0 {
		return 0
	}
	n := float64(totalWhiteKeys)
	return math.Max(0, math.Floor((width-n)/n))
}

// KeyPressOffset is 0 when the rotated white letters start at C, 1 otherwise.
// Physical-key notes add it to the start octave so they agree with the
// octave numbers drawn on screen.
func KeyPressOffset(rotatedWhite []notes.Letter) int {
	if len(rotatedWhite) > 0 && rotatedWhite[0] == notes.C {
		return 0
	}
	return 1
}

// Build computes the ordered keys for octaves octaves starting at start.
// Width is the total pixel width available; height only scales black keys.
func Build(octaves int, start notes.Note, width, height float64) (*Layout, error) {
	if octaves <= 0 {
		return nil, &InvalidLayoutError{Reason: fmt.Sprintf("octaves must be at least 1, got %d", octaves)}
	}
	if octaves > MaxOctaves {
		return nil, &InvalidLayoutError{Reason: fmt.Sprintf("octaves must be at most %d, got %d", MaxOctaves, octaves)}
	}
	if !start.Letter.Valid() {
		return nil, &InvalidLayoutError{Reason: fmt.Sprintf("unknown start letter %q", start.Letter)}
	}
	if start.IsSharp() {
		return nil, &InvalidLayoutError{Reason: fmt.Sprintf("start note %s is not a white key", start)}
	}

	white := notes.Rotate(notes.WhiteLetters, start.Letter)
	sharps := notes.Rotate(notes.SharpBearing, start.Letter)

	total := TotalWhiteKeys(octaves)
	whiteW := WhiteKeyWidth(width, total)
	blackW := math.Floor(whiteW / 2)

	l := &Layout{
		Keys:           make([]Key, 0, total+countSharps(total, white, sharps)),
		StartNote:      start,
		Octaves:        octaves,
		Width:          width,
		Height:         height,
		WhiteKeyWidth:  whiteW,
		BlackKeyWidth:  blackW,
		BlackKeyHeight: height / 1.5,
		KeyPressOffset: KeyPressOffset(white),
		WhiteLetters:   white,
		SharpLetters:   sharps,
	}

	octave := start.Octave
	for i := 0; i < total; i++ {
		letter := white[i%len(white)]
		if letter == notes.C && i != 0 {
			octave++
		}

		n := notes.Note{Letter: letter, Octave: octave}
		l.Keys = append(l.Keys, Key{
			NoteID:   n.String(),
			Note:     n,
			Colour:   White,
			Octave:   octave,
			Position: i,
			Left:     float64(i) * (whiteW + 1),
			Width:    whiteW,
		})

		if i == total-1 || !hasSharp(sharps, letter) {
			continue
		}
		sn := notes.Note{Letter: letter.Sharp(), Octave: octave}
		l.Keys = append(l.Keys, Key{
			NoteID:   sn.String(),
			Note:     sn,
			Colour:   Black,
			Octave:   octave,
			Position: i,
			Left:     math.Floor((whiteW+1)*float64(i+1) - blackW/2),
			Width:    blackW,
		})
	}

	return l, nil
}

// CountSharpSlots returns how many black keys Build emits for the given range
func CountSharpSlots(octaves int, startLetter notes.Letter) int {
	if octaves <= 0 {
		return 0
	}
	white := notes.Rotate(notes.WhiteLetters, startLetter)
	sharps := notes.Rotate(notes.SharpBearing, startLetter)
	return countSharps(TotalWhiteKeys(octaves), white, sharps)
}

func countSharps(total int, white, sharps []notes.Letter) int {
	count := 0
	for i := 0; i < total-1; i++ {
		if hasSharp(sharps, white[i%len(white)]) {
			count++
		}
	}
	return count
}

func hasSharp(sharps []notes.Letter, l notes.Letter) bool {
	for _, s := range sharps {
		if s == l {
			return true
		}
	}
	return false
}

// WhiteKeys returns the white keys in left-to-right order
func (l *Layout) WhiteKeys() []Key {
	return l.filter(White)
}

// BlackKeys returns the black keys in left-to-right order
func (l *Layout) BlackKeys() []Key {
	return l.filter(Black)
}

func (l *Layout) filter(c Colour) []Key {
	var out []Key
	for _, k := range l.Keys {
		if k.Colour == c {
			out = append(out, k)
		}
	}
	return out
}

// Find returns the key with the given note id
func (l *Layout) Find(noteID string) (Key, bool) {
	for _, k := range l.Keys {
		if k.NoteID == noteID {
			return k, true
		}
	}
	return Key{}, false
}

// StartOctave is the octave of the leftmost key
func (l *Layout) StartOctave() int {
	return l.StartNote.Octave
}

// KeyAt returns the key under the point (x, y), preferring black keys since
// they are drawn on top.
func (l *Layout) KeyAt(x, y float64) (Key, bool) {
	if y < l.BlackKeyHeight {
		for _, k := range l.Keys {
			if k.Colour == Black && x >= k.Left && x < k.Left+k.Width {
				return k, true
			}
		}
	}
	for _, k := range l.Keys {
		if k.Colour == White && x >= k.Left && x < k.Left+k.Width+1 {
			return k, true
		}
	}
	return Key{}, false
}
