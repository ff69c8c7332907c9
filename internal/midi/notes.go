package midi

import (
	"sync"

	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// allNotesOff is the channel mode controller that silences a channel
const allNotesOff = 123

// NoteHandler receives notes played on an external MIDI device.
// *keyboard.Controller implements it.
type NoteHandler interface {
	NoteOn(source, noteID string) bool
	NoteOff(source, noteID string) bool
}

// HandleMessage decodes a note message. A NoteOn with velocity 0 is a
// note-off. Returns handled=false for anything that is not a note and for
// notes below C0, which have no note id.
func HandleMessage(msg midi.Message) (n notes.Note, isNoteOn bool, handled bool) {
	var channel, key, velocity uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		isNoteOn = velocity > 0
	case msg.GetNoteOff(&channel, &key, &velocity):
		isNoteOn = false
	default:
		return notes.Note{}, false, false
	}
	if key < 12 {
		return notes.Note{}, false, false
	}
	return notes.FromMIDI(key), isNoteOn, true
}

// Forward hands a decoded note message to h
func Forward(msg midi.Message, source string, h NoteHandler) {
	n, on, ok := HandleMessage(msg)
	if !ok {
		return
	}
	if on {
		h.NoteOn(source, n.String())
	} else {
		h.NoteOff(source, n.String())
	}
}

// Sink turns keyboard note callbacks into MIDI messages. NoteDown and NoteUp
// have the keyboard's callback signature.
type Sink struct {
	mu       sync.Mutex
	send     func(midi.Message) error
	channel  uint8
	velocity uint8
	sounding map[uint8]int
	log      *logrus.Entry
}

// NewSink creates a sink writing to send
func NewSink(send func(midi.Message) error, channel, velocity uint8) *Sink {
	if velocity == 0 || velocity > 127 {
		velocity = 100
	}
	return &Sink{
		send:     send,
		channel:  channel & 0x0F,
		velocity: velocity,
		sounding: make(map[uint8]int),
		log:      logrus.WithField("channel", channel&0x0F),
	}
}

// NoteDown sends a NoteOn for noteID
func (s *Sink) NoteDown(noteID string, frequency float64) {
	key, ok := s.key(noteID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sounding[key]++
	if err := s.send(midi.NoteOn(s.channel, key, s.velocity)); err != nil {
		s.log.WithError(err).WithField("note", noteID).Warn("failed to send note on")
	}
}

// NoteUp sends a NoteOff for noteID once the last NoteDown for it is
// released. Notes that are not sounding are ignored.
func (s *Sink) NoteUp(noteID string, frequency float64) {
	key, ok := s.key(noteID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch n := s.sounding[key]; {
	case n == 0:
		s.log.WithField("note", noteID).Debug("note off for note that is not sounding")
		return
	case n > 1:
		s.sounding[key]--
		return
	}
	delete(s.sounding, key)
	if err := s.send(midi.NoteOff(s.channel, key)); err != nil {
		s.log.WithError(err).WithField("note", noteID).Warn("failed to send note off")
	}
}

// Sounding returns how many notes are on and not yet released
func (s *Sink) Sounding() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.sounding {
		total += n
	}
	return total
}

// Close silences the channel
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.sounding)
	return s.send(midi.ControlChange(s.channel, allNotesOff, 0))
}

func (s *Sink) key(noteID string) (uint8, bool) {
	n, err := notes.Parse(noteID)
	if err != nil {
		s.log.WithError(err).Warn("not sending unknown note")
		return 0, false
	}
	return n.MIDI(), true
}
