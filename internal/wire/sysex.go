package wire

import (
	"github.com/leandrodaf/midisync/sdk/contracts"
)

// Control frames are vendor SysEx:
//
//	F0 7D <device> <command> [<payload>] F7
//
// Every payload byte is 7-bit clean; 16-bit values are split LSB first.

// Command is a control-protocol command byte.
type Command byte

const (
	CmdPing     Command = 0x01
	CmdFileLoad Command = 0x02

	CmdPlay      Command = 0x10
	CmdStop      Command = 0x11
	CmdPause     Command = 0x12
	CmdRetrigger Command = 0x13

	CmdMute          Command = 0x20
	CmdSolo          Command = 0x21
	CmdChannelVolume Command = 0x22

	CmdJumpOrder    Command = 0x30
	CmdJumpPattern  Command = 0x31
	CmdQueueOrder   Command = 0x32
	CmdQueuePattern Command = 0x33
	CmdSetLoopRange Command = 0x34
	CmdLoopCurrent  Command = 0x35
	CmdLoopOrder    Command = 0x36
	CmdLoopPattern  Command = 0x37

	CmdSetTempo Command = 0x40

	CmdTriggerPhrase Command = 0x50
	CmdTriggerLoop   Command = 0x51
	CmdTriggerPad    Command = 0x52

	CmdGetState      Command = 0x60
	CmdStateResponse Command = 0x61
)

// Player-state flag bits in the first byte of a state response.
const (
	stateFlagPlaying     byte = 1 << 0
	stateFlagPaused      byte = 1 << 1
	stateFlagPatternLoop byte = 1 << 2
)

// stateHeaderLen is the fixed part of a state-response payload: flags, order,
// row, pattern, total rows and channel count. Mute bits follow, one bit per
// channel.
const stateHeaderLen = 6

// MaxFilenameLen bounds a file-load name so its length fits in one data byte.
const MaxFilenameLen = 0x7F

// Message is a decoded control frame.
type Message struct {
	Device  byte
	Command Command
	Payload []byte
}

func build(device byte, cmd Command, payload ...byte) []byte {
	frame := make([]byte, 0, 5+len(payload))
	frame = append(frame, SysExStart, IDVendor, device&0x7F, byte(cmd))
	frame = append(frame, payload...)
	return append(frame, SysExEnd)
}

// BuildPing encodes a liveness probe.
func BuildPing(device byte) []byte { return build(device, CmdPing) }

// BuildFileLoad encodes a request to load the named module file. Names longer
// than MaxFilenameLen are truncated; name bytes are masked to 7 bits. An empty
// name has no valid encoding and yields nil.
func BuildFileLoad(device byte, name string) []byte {
	if name == "" {
		return nil
	}
	if len(name) > MaxFilenameLen {
		name = name[:MaxFilenameLen]
	}
	payload := make([]byte, 0, 1+len(name))
	payload = append(payload, byte(len(name)))
	for i := 0; i < len(name); i++ {
		payload = append(payload, name[i]&0x7F)
	}
	return build(device, CmdFileLoad, payload...)
}

// BuildTransport encodes one of the parameterless transport or loop-shortcut
// commands (Play, Stop, Pause, Retrigger, LoopCurrent, LoopOrder, LoopPattern,
// GetState).
func BuildTransport(device byte, cmd Command) []byte { return build(device, cmd) }

// BuildChannelSet encodes a per-channel Mute, Solo or ChannelVolume command.
func BuildChannelSet(device byte, cmd Command, channel, value int) []byte {
	return build(device, cmd, clamp7(channel), clamp7(value))
}

// BuildJump encodes an absolute or queued jump (CmdJumpOrder, CmdJumpPattern,
// CmdQueueOrder, CmdQueuePattern). target is the order or pattern index.
func BuildJump(device byte, cmd Command, target, row int) []byte {
	return build(device, cmd, clamp7(target), clamp7(row))
}

// BuildSetLoopRange encodes a loop range as four position bytes.
func BuildSetLoopRange(device byte, startOrder, startRow, endOrder, endRow int) []byte {
	return build(device, CmdSetLoopRange,
		clamp7(startOrder), clamp7(startRow), clamp7(endOrder), clamp7(endRow))
}

// BuildSetTempo encodes a tempo in whole BPM as a 14-bit value, LSB first.
func BuildSetTempo(device byte, bpm int) []byte {
	if bpm < 0 {
		bpm = 0
	}
	if bpm > MaxSongPosition {
		bpm = MaxSongPosition
	}
	return build(device, CmdSetTempo, byte(bpm&0x7F), byte(bpm>>7))
}

// BuildTrigger encodes a phrase, loop or pad trigger with its index.
func BuildTrigger(device byte, cmd Command, index int) []byte {
	return build(device, cmd, clamp7(index))
}

// BuildStateResponse encodes a player-state snapshot. The payload is six
// header bytes followed by ceil(channels/8) bytes of mute bits, so a full
// 127-channel state fits in 22 payload bytes.
func BuildStateResponse(device byte, s contracts.PlayerState) []byte {
	var flags byte
	if s.Playing {
		flags |= stateFlagPlaying
	}
	if s.Paused {
		flags |= stateFlagPaused
	}
	if s.PatternLoop {
		flags |= stateFlagPatternLoop
	}
	channels := s.NumChannels
	if channels < 0 {
		channels = 0
	}
	if channels > contracts.MaxChannels {
		channels = contracts.MaxChannels
	}
	payload := make([]byte, 0, stateHeaderLen+(channels+7)/8)
	payload = append(payload, flags,
		clamp7(s.Order), clamp7(s.Row), clamp7(s.Pattern), clamp7(s.TotalRows),
		byte(channels))
	// Mute bytes pack 8 channels each and may carry the high bit; that is
	// what keeps a full 127-channel state within 22 payload bytes.
	payload = append(payload, s.Mutes[:(channels+7)/8]...)
	return build(device, CmdStateResponse, payload...)
}

// ParseStateResponse decodes a state-response payload.
func ParseStateResponse(payload []byte) (contracts.PlayerState, bool) {
	if len(payload) < stateHeaderLen {
		return contracts.PlayerState{}, false
	}
	channels := int(payload[5])
	if channels > contracts.MaxChannels || len(payload) != stateHeaderLen+(channels+7)/8 {
		return contracts.PlayerState{}, false
	}
	s := contracts.PlayerState{
		Playing:     payload[0]&stateFlagPlaying != 0,
		Paused:      payload[0]&stateFlagPaused != 0,
		PatternLoop: payload[0]&stateFlagPatternLoop != 0,
		Order:       int(payload[1]),
		Row:         int(payload[2]),
		Pattern:     int(payload[3]),
		TotalRows:   int(payload[4]),
		NumChannels: channels,
	}
	copy(s.Mutes[:], payload[stateHeaderLen:])
	return s, true
}

// Tempo decodes a set-tempo payload into whole BPM.
func (m Message) Tempo() int {
	if len(m.Payload) != 2 {
		return 0
	}
	return int(m.Payload[0]) | int(m.Payload[1])<<7
}

// Filename decodes a file-load payload.
func (m Message) Filename() string {
	if len(m.Payload) < 1 {
		return ""
	}
	return string(m.Payload[1:])
}

// payloadLen returns the expected payload length for fixed-size commands.
// Variable-length commands return -1.
func payloadLen(cmd Command) int {
	switch cmd {
	case CmdPing, CmdPlay, CmdStop, CmdPause, CmdRetrigger,
		CmdLoopCurrent, CmdLoopOrder, CmdLoopPattern, CmdGetState:
		return 0
	case CmdTriggerPhrase, CmdTriggerLoop, CmdTriggerPad:
		return 1
	case CmdMute, CmdSolo, CmdChannelVolume,
		CmdJumpOrder, CmdJumpPattern, CmdQueueOrder, CmdQueuePattern,
		CmdSetTempo:
		return 2
	case CmdSetLoopRange:
		return 4
	case CmdFileLoad, CmdStateResponse:
		return -1
	}
	return -2 // unknown command
}

// Parse decodes a control frame. It reports false for malformed frames,
// unknown commands, wrong payload lengths and frames addressed elsewhere.
// receiver matches its own ID and the broadcast ID; a receiver of
// DeviceAcceptAny matches any destination.
func Parse(b []byte, receiver byte) (Message, bool) {
	if len(b) < 5 || b[0] != SysExStart || b[len(b)-1] != SysExEnd || b[1] != IDVendor {
		return Message{}, false
	}
	device := b[2]
	if device != receiver && device != DeviceBroadcast && receiver != DeviceAcceptAny {
		return Message{}, false
	}

	cmd := Command(b[3])
	payload := b[4 : len(b)-1]
	// Data bytes are 7-bit clean, except state-response mute bytes which
	// pack 8 channels each.
	check := payload
	if cmd == CmdStateResponse && len(check) > stateHeaderLen {
		check = check[:stateHeaderLen]
	}
	for _, d := range check {
		if d > 0x7F {
			return Message{}, false
		}
	}

	switch want := payloadLen(cmd); {
	case want == -2:
		return Message{}, false
	case want >= 0:
		if len(payload) != want {
			return Message{}, false
		}
	case cmd == CmdFileLoad:
		if len(payload) < 2 || int(payload[0]) != len(payload)-1 {
			return Message{}, false
		}
	case cmd == CmdStateResponse:
		if _, ok := ParseStateResponse(payload); !ok {
			return Message{}, false
		}
	}

	msg := Message{Device: device, Command: cmd}
	if len(payload) > 0 {
		msg.Payload = append([]byte(nil), payload...)
	}
	return msg, true
}
