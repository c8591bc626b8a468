package wire

// MMC frames are universal realtime SysEx:
//
//	F0 7F <device> 06 <command> [<info field>] F7
//
// The Locate information field reuses the standard timecode layout, with the
// order index in the hours slot and the row in the minutes slot.

// mmcSubID is the universal realtime sub-ID for machine-control commands.
const mmcSubID byte = 0x06

// MMCCommand is a MIDI Machine Control command byte.
type MMCCommand byte

const (
	MMCStop         MMCCommand = 0x01
	MMCPlay         MMCCommand = 0x02
	MMCRecordStrobe MMCCommand = 0x06
	MMCRecordExit   MMCCommand = 0x07
	MMCPause        MMCCommand = 0x09
	MMCLocate       MMCCommand = 0x44
)

// LocateKind distinguishes what a Locate target position means.
type LocateKind byte

const (
	// LocateTarget is a plain jump destination.
	LocateTarget LocateKind = 0x01
	// LocateLoopStart marks the start of a loop range.
	LocateLoopStart LocateKind = 0x02
	// LocateLoopEnd marks the end of a loop range.
	LocateLoopEnd LocateKind = 0x03
)

// MMCMessage is a decoded machine-control frame.
type MMCMessage struct {
	Device  byte
	Command MMCCommand

	// Locate fields, meaningful only when Command is MMCLocate.
	Kind  LocateKind
	Order int
	Row   int
}

// BuildMMC encodes a parameterless machine-control command addressed to the
// given device.
func BuildMMC(device byte, cmd MMCCommand) []byte {
	return []byte{SysExStart, IDUniversalRealtime, device & 0x7F, mmcSubID, byte(cmd), SysExEnd}
}

// BuildMMCLocate encodes a Locate command carrying an order/row target. Order
// and row are clamped to the 7-bit data range.
func BuildMMCLocate(device byte, kind LocateKind, order, row int) []byte {
	return []byte{
		SysExStart, IDUniversalRealtime, device & 0x7F, mmcSubID, byte(MMCLocate),
		0x06, byte(kind), clamp7(order), clamp7(row), 0x00, 0x00, 0x00,
		SysExEnd,
	}
}

// ParseMMC decodes a machine-control frame. It reports false for malformed
// frames, for frames that are valid MMC but addressed to another device, and
// for unknown commands. receiver matches its own ID and the broadcast ID.
func ParseMMC(b []byte, receiver byte) (MMCMessage, bool) {
	if len(b) < 6 || b[0] != SysExStart || b[len(b)-1] != SysExEnd {
		return MMCMessage{}, false
	}
	if b[1] != IDUniversalRealtime || b[3] != mmcSubID {
		return MMCMessage{}, false
	}
	device := b[2]
	if device != receiver && device != DeviceBroadcast {
		return MMCMessage{}, false
	}

	msg := MMCMessage{Device: device, Command: MMCCommand(b[4])}
	switch msg.Command {
	case MMCStop, MMCPlay, MMCRecordStrobe, MMCRecordExit, MMCPause:
		if len(b) != 6 {
			return MMCMessage{}, false
		}
		return msg, true
	case MMCLocate:
		// Byte count, then the six-byte information field.
		if len(b) != 13 || b[5] != 0x06 {
			return MMCMessage{}, false
		}
		msg.Kind = LocateKind(b[6])
		msg.Order = int(b[7])
		msg.Row = int(b[8])
		return msg, true
	}
	return MMCMessage{}, false
}

// DeviceBroadcast addresses every device on the bus. This value and
// DeviceAcceptAny are mirrored in sdk/contracts and must stay in lockstep.
const DeviceBroadcast byte = 0x7F

// DeviceAcceptAny, when configured as the receiver ID, matches control frames
// from any sender. Receive side only; never valid as a destination.
const DeviceAcceptAny byte = 0x7E

func clamp7(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 0x7F {
		return 0x7F
	}
	return byte(v)
}
