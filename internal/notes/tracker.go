// Package notes maps tracker channel note events onto MIDI channel messages,
// tracking active notes and cached program changes.
package notes

import (
	"sync"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

const (
	numMIDIChannels  = 16
	maxTrackerVolume = 64

	statusNoteOff       byte = 0x80
	statusNoteOn        byte = 0x90
	statusProgramChange byte = 0xC0
)

// programUnset marks a MIDI channel whose program has not been sent yet.
const programUnset = -1

// Sender delivers raw MIDI bytes to the output port.
type Sender func(b []byte) error

type channelState struct {
	midiChannel int
	midiNote    int
	active      bool
}

// Tracker converts tracker note events to MIDI. Tracker channels are
// monophonic by the playback engine's contract: a new note implicitly
// releases the previous note on the same channel. Program changes are cached
// per MIDI channel and suppressed while unchanged.
type Tracker struct {
	mu       sync.Mutex
	send     Sender
	log      contracts.Logger
	mapping  map[int]int
	channels map[int]*channelState
	programs [numMIDIChannels]int
}

// NewTracker creates a tracker using the given instrument-to-channel map.
// Instruments without an entry resolve to channel instrument mod 16; an entry
// of contracts.ChannelOff disables output for that instrument.
func NewTracker(send Sender, mapping map[int]int, log contracts.Logger) *Tracker {
	t := &Tracker{
		send:     send,
		log:      log,
		mapping:  mapping,
		channels: make(map[int]*channelState),
	}
	for i := range t.programs {
		t.programs[i] = programUnset
	}
	return t
}

// resolveChannel maps an instrument to a MIDI channel, or reports false when
// output is disabled for it.
func (t *Tracker) resolveChannel(instrument int) (int, bool) {
	if ch, ok := t.mapping[instrument]; ok {
		if ch == contracts.ChannelOff {
			return 0, false
		}
		if ch < 0 {
			ch = 0
		}
		return ch % numMIDIChannels, true
	}
	if instrument < 0 {
		return 0, false
	}
	return instrument % numMIDIChannels, true
}

// HandleNote processes one tracker note event. Volume 0 is a release: the
// active note is turned off and nothing new is tracked.
func (t *Tracker) HandleNote(trackerChannel, note, instrument, volume int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	midiChannel, ok := t.resolveChannel(instrument)
	if !ok {
		return
	}

	state := t.channels[trackerChannel]
	if state == nil {
		state = &channelState{}
		t.channels[trackerChannel] = state
	}

	if volume <= 0 {
		t.releaseLocked(state)
		return
	}

	// External synths may have been re-routed since the last note on this
	// instrument, so programs follow the instrument number.
	program := clampData(instrument)
	if t.programs[midiChannel] != program {
		t.emit([]byte{statusProgramChange | byte(midiChannel), byte(program)})
		t.programs[midiChannel] = program
	}

	t.releaseLocked(state)

	velocity := volume * 127 / maxTrackerVolume
	if velocity > 127 {
		velocity = 127
	}
	key := clampData(note)
	t.emit([]byte{statusNoteOn | byte(midiChannel), byte(key), byte(velocity)})
	state.midiChannel = midiChannel
	state.midiNote = key
	state.active = true
}

// StopChannel force-releases the active note on one tracker channel.
func (t *Tracker) StopChannel(trackerChannel int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state := t.channels[trackerChannel]; state != nil {
		t.releaseLocked(state)
	}
}

// StopAll force-releases every active note.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, state := range t.channels {
		t.releaseLocked(state)
	}
}

// ResetPrograms clears the program cache so the next note on each channel
// resends its program even if numerically unchanged. Called on pattern
// boundaries and loop retriggers, when external synths may have been reset.
func (t *Tracker) ResetPrograms() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.programs {
		t.programs[i] = programUnset
	}
}

func (t *Tracker) releaseLocked(state *channelState) {
	if !state.active {
		return
	}
	t.emit([]byte{statusNoteOff | byte(state.midiChannel), byte(state.midiNote), 0})
	state.active = false
}

func (t *Tracker) emit(b []byte) {
	if t.send == nil {
		return
	}
	if err := t.send(b); err != nil {
		t.log.Debug("midi send failed", t.log.Field().Error("error", err))
	}
}

func clampData(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
