// Package wire implements the byte-level MIDI protocols used for
// synchronization: realtime transport bytes, Song Position Pointer, the MMC
// transport subset and the vendor control protocol.
package wire

// System realtime and system common status bytes.
const (
	StatusClock    byte = 0xF8
	StatusStart    byte = 0xFA
	StatusContinue byte = 0xFB
	StatusStop     byte = 0xFC

	StatusSongPosition byte = 0xF2

	SysExStart byte = 0xF0
	SysExEnd   byte = 0xF7

	// IDUniversalRealtime is the universal realtime SysEx ID used by MMC.
	IDUniversalRealtime byte = 0x7F
	// IDVendor is the non-commercial manufacturer ID carrying the control
	// protocol.
	IDVendor byte = 0x7D
)

// MaxSongPosition is the largest position representable in a Song Position
// Pointer message, in MIDI beats.
const MaxSongPosition = 0x3FFF

// SongPosition encodes a position in MIDI beats as a 3-byte Song Position
// Pointer message. Positions outside 0-16383 are clamped.
func SongPosition(beats int) []byte {
	if beats < 0 {
		beats = 0
	}
	if beats > MaxSongPosition {
		beats = MaxSongPosition
	}
	return []byte{StatusSongPosition, byte(beats & 0x7F), byte(beats >> 7)}
}

// ParseSongPosition decodes a Song Position Pointer message. It reports false
// when the bytes are not a well-formed SPP message.
func ParseSongPosition(b []byte) (int, bool) {
	if len(b) != 3 || b[0] != StatusSongPosition || b[1] > 0x7F || b[2] > 0x7F {
		return 0, false
	}
	return int(b[1]) | int(b[2])<<7, true
}
