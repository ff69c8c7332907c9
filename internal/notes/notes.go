package notes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Letter is one of the twelve pitch classes, spelled with sharps
type Letter string

const (
	A      Letter = "A"
	ASharp Letter = "A#"
	B      Letter = "B"
	C      Letter = "C"
	CSharp Letter = "C#"
	D      Letter = "D"
	DSharp Letter = "D#"
	E      Letter = "E"
	F      Letter = "F"
	FSharp Letter = "F#"
	G      Letter = "G"
	GSharp Letter = "G#"
)

// Chromatic lists the letters anchored at A, the order used for key numbers
var Chromatic = []Letter{A, ASharp, B, C, CSharp, D, DSharp, E, F, FSharp, G, GSharp}

// WhiteLetters is the natural-note sequence of one octave starting at C
var WhiteLetters = []Letter{C, D, E, F, G, A, B}

// SharpBearing lists the white letters that have a black key to their right
var SharpBearing = []Letter{C, D, F, G, A}

// Index returns the position of l in Chromatic, or -1
func (l Letter) Index() int {
	for i, c := range Chromatic {
		if c == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the twelve defined tokens
func (l Letter) Valid() bool {
	return l.Index() >= 0
}

// IsSharp reports whether l is a black-key letter
func (l Letter) IsSharp() bool {
	return strings.HasSuffix(string(l), "#")
}

// Natural strips the sharp from l
func (l Letter) Natural() Letter {
	return Letter(strings.TrimSuffix(string(l), "#"))
}

// Sharp returns the black-key letter right above a natural letter
func (l Letter) Sharp() Letter {
	return Letter(string(l.Natural()) + "#")
}

// Note is a pitch in scientific pitch notation, e.g. C#4
type Note struct {
	Letter Letter
	Octave int
}

// New builds a note and validates the letter
func New(letter Letter, octave int) (Note, error) {
	if !letter.Valid() {
		return Note{}, fmt.Errorf("unknown note letter %q", letter)
	}
	if octave < 0 {
		return Note{}, fmt.Errorf("octave must not be negative: %d", octave)
	}
	return Note{Letter: letter, Octave: octave}, nil
}

// Parse reads a canonical note id such as "A3" or "F#4"
func Parse(id string) (Note, error) {
	if id == "" {
		return Note{}, fmt.Errorf("empty note")
	}

	split := 1
	if len(id) > 1 && id[1] == '#' {
		split = 2
	}
	if len(id) <= split {
		return Note{}, fmt.Errorf("note %q has no octave", id)
	}

	letter := Letter(strings.ToUpper(id[:split]))
	octave, err := strconv.Atoi(id[split:])
	if err != nil {
		return Note{}, fmt.Errorf("note %q has invalid octave: %w", id, err)
	}
	if id[split] == '+' || id[split] == '-' {
		return Note{}, fmt.Errorf("note %q has a signed octave", id)
	}
	return New(letter, octave)
}

// MustParse is Parse for package-level tables and tests
func MustParse(id string) Note {
	n, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the canonical "<letter><octave>" form
func (n Note) String() string {
	return string(n.Letter) + strconv.Itoa(n.Octave)
}

// IsSharp reports whether n sits on a black key
func (n Note) IsSharp() bool {
	return n.Letter.IsSharp()
}

// KeyNumber is the position of n on an 88-key piano, A0 = 1 and A4 = 49.
// A, A# and B belong to the octave that started at the previous C.
func (n Note) KeyNumber() int {
	idx := n.Letter.Index()
	if idx < 3 {
		return idx + 12 + (n.Octave-1)*12 + 1
	}
	return idx + (n.Octave-1)*12 + 1
}

// Frequency returns the equal-tempered frequency of n in hertz, A4 = 440Hz
func Frequency(n Note) float64 {
	return 440 * math.Pow(2, float64(n.KeyNumber()-49)/12)
}

// FrequencyOf parses id and returns its frequency
func FrequencyOf(id string) (float64, error) {
	n, err := Parse(id)
	if err != nil {
		return 0, err
	}
	return Frequency(n), nil
}

// MIDI returns the MIDI note number of n (A4 = 69, C4 = 60)
func (n Note) MIDI() uint8 {
	v := n.KeyNumber() + 20
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// FromMIDI converts a MIDI note number back to a note
func FromMIDI(key uint8) Note {
	// C-1 is MIDI 0; Chromatic is anchored at A so shift by 3
	pc := int(key) % 12
	return Note{
		Letter: Chromatic[(pc+3)%12],
		Octave: int(key)/12 - 1,
	}
}

// Rotate returns a copy of seq that starts at pivot and wraps around.
// When pivot is not in seq the copy is returned unrotated.
func Rotate(seq []Letter, pivot Letter) []Letter {
	out := make([]Letter, len(seq))
	offset := 0
	for i, l := range seq {
		if l == pivot {
			offset = i
			break
		}
	}
	for i := range seq {
		out[i] = seq[(i+offset)%len(seq)]
	}
	return out
}
