package contracts

// MaxChannels is the largest tracker channel count representable in a
// player-state response.
const MaxChannels = 127

// MuteMask is a fixed-width bitset of per-channel mute flags. A fixed array
// keeps the wire size of a state response deterministic for a given channel
// count (one bit per channel, LSB first within each byte).
type MuteMask [16]byte

// Set sets or clears the mute bit for the given channel.
func (m *MuteMask) Set(channel int, muted bool) {
	if channel < 0 || channel >= MaxChannels {
		return
	}
	if muted {
		m[channel/8] |= 1 << (channel % 8)
	} else {
		m[channel/8] &^= 1 << (channel % 8)
	}
}

// Muted reports whether the mute bit for the given channel is set.
func (m *MuteMask) Muted(channel int) bool {
	if channel < 0 || channel >= MaxChannels {
		return false
	}
	return m[channel/8]&(1<<(channel%8)) != 0
}

// Position identifies a location in the song in the tracker's native units.
type Position struct {
	Order     int // Song-order index.
	Row       int // Row within the referenced pattern.
	Pattern   int // Pattern number referenced by the order entry.
	TotalRows int // Row count of that pattern.
}

// NoteEvent is a single tracker channel event as reported by the playback
// engine's row callback.
type NoteEvent struct {
	Channel     int // Tracker channel index.
	Note        int // Note number, 0-127.
	Instrument  int // Instrument number.
	Volume      int // Tracker volume, 0-64.
	EffectCmd   int
	EffectParam int
}

// PlayerState is a snapshot of the playback engine used to answer remote
// state queries.
type PlayerState struct {
	Playing     bool
	Paused      bool
	PatternLoop bool
	Order       int
	Row         int
	Pattern     int
	TotalRows   int
	NumChannels int
	Mutes       MuteMask
}

// Player is the playback-engine collaborator. All methods are synchronous
// and must not block on MIDI I/O; the synchronizer calls them from whichever
// goroutine received the triggering message.
type Player interface {
	Play()
	Stop()
	Pause()
	// Retrigger restarts the current position from its first row.
	Retrigger()

	LoadFile(name string) error

	// JumpOrder moves playback to the given order and row. When queued is
	// true the jump takes effect at the next pattern boundary.
	JumpOrder(order, row int, queued bool)
	// JumpPattern moves playback to the given pattern and row, independent
	// of the order list.
	JumpPattern(pattern, row int, queued bool)

	SetLoopRange(startOrder, startRow, endOrder, endRow int)
	LoopCurrent()
	LoopOrder()
	LoopPattern()

	SetTempo(bpm float64)
	// SetTempoFactor scales the engine's tick period relative to the
	// module's own tempo; 1.0 is nominal and values below 1.0 speed
	// playback up. Used when following an external MIDI clock.
	SetTempoFactor(ratio float64)

	Mute(channel int, on bool)
	Solo(channel int, on bool)
	SetChannelVolume(channel, volume int)

	TriggerPhrase(index int)
	TriggerLoop(index int)
	TriggerPad(index int)

	State() PlayerState
}
