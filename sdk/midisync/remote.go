package midisync

import (
	"errors"

	"github.com/leandrodaf/midisync/internal/wire"
)

// ErrEmptyFilename is returned when a remote load is requested without a
// name; the protocol has no encoding for it.
var ErrEmptyFilename = errors.New("empty filename")

// Remote-control senders. Each builds one control frame addressed to the
// given device (contracts.DeviceBroadcast reaches every instance) and writes
// it to the output port. With no output open they are no-ops.

// PingRemote probes a remote instance.
func (s *Synchronizer) PingRemote(device byte) error {
	return s.send(wire.BuildPing(device))
}

// LoadRemote asks a remote instance to load the named module file.
func (s *Synchronizer) LoadRemote(device byte, name string) error {
	frame := wire.BuildFileLoad(device, name)
	if frame == nil {
		return ErrEmptyFilename
	}
	return s.send(frame)
}

// PlayRemote starts playback on a remote instance.
func (s *Synchronizer) PlayRemote(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdPlay))
}

// StopRemote stops playback on a remote instance.
func (s *Synchronizer) StopRemote(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdStop))
}

// PauseRemote pauses playback on a remote instance.
func (s *Synchronizer) PauseRemote(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdPause))
}

// RetriggerRemote restarts the current position on a remote instance.
func (s *Synchronizer) RetriggerRemote(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdRetrigger))
}

// MuteRemote sets a channel's mute state on a remote instance.
func (s *Synchronizer) MuteRemote(device byte, channel int, on bool) error {
	return s.send(wire.BuildChannelSet(device, wire.CmdMute, channel, boolByte(on)))
}

// SoloRemote sets a channel's solo state on a remote instance.
func (s *Synchronizer) SoloRemote(device byte, channel int, on bool) error {
	return s.send(wire.BuildChannelSet(device, wire.CmdSolo, channel, boolByte(on)))
}

// VolumeRemote sets a channel's volume on a remote instance.
func (s *Synchronizer) VolumeRemote(device byte, channel, volume int) error {
	return s.send(wire.BuildChannelSet(device, wire.CmdChannelVolume, channel, volume))
}

// JumpRemoteOrder moves a remote instance to an order/row, immediately or at
// the next pattern boundary.
func (s *Synchronizer) JumpRemoteOrder(device byte, order, row int, queued bool) error {
	cmd := wire.CmdJumpOrder
	if queued {
		cmd = wire.CmdQueueOrder
	}
	return s.send(wire.BuildJump(device, cmd, order, row))
}

// JumpRemotePattern moves a remote instance to a pattern/row, immediately or
// at the next pattern boundary.
func (s *Synchronizer) JumpRemotePattern(device byte, pattern, row int, queued bool) error {
	cmd := wire.CmdJumpPattern
	if queued {
		cmd = wire.CmdQueuePattern
	}
	return s.send(wire.BuildJump(device, cmd, pattern, row))
}

// LoopRemoteRange sets a remote instance's loop range.
func (s *Synchronizer) LoopRemoteRange(device byte, startOrder, startRow, endOrder, endRow int) error {
	return s.send(wire.BuildSetLoopRange(device, startOrder, startRow, endOrder, endRow))
}

// LoopRemoteCurrent loops a remote instance at its current position.
func (s *Synchronizer) LoopRemoteCurrent(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdLoopCurrent))
}

// LoopRemoteOrder loops the current order on a remote instance.
func (s *Synchronizer) LoopRemoteOrder(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdLoopOrder))
}

// LoopRemotePattern loops the current pattern on a remote instance.
func (s *Synchronizer) LoopRemotePattern(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdLoopPattern))
}

// SetRemoteTempo sets the tempo of a remote instance in whole BPM.
func (s *Synchronizer) SetRemoteTempo(device byte, bpm int) error {
	return s.send(wire.BuildSetTempo(device, bpm))
}

// TriggerRemotePhrase fires a phrase slot on a remote instance.
func (s *Synchronizer) TriggerRemotePhrase(device byte, index int) error {
	return s.send(wire.BuildTrigger(device, wire.CmdTriggerPhrase, index))
}

// TriggerRemoteLoop fires a loop slot on a remote instance.
func (s *Synchronizer) TriggerRemoteLoop(device byte, index int) error {
	return s.send(wire.BuildTrigger(device, wire.CmdTriggerLoop, index))
}

// TriggerRemotePad fires a pad slot on a remote instance.
func (s *Synchronizer) TriggerRemotePad(device byte, index int) error {
	return s.send(wire.BuildTrigger(device, wire.CmdTriggerPad, index))
}

// RequestRemoteState asks a remote instance for a player-state snapshot. The
// response arrives through the configured state handler.
func (s *Synchronizer) RequestRemoteState(device byte) error {
	return s.send(wire.BuildTransport(device, wire.CmdGetState))
}

// LocateRemote sends an MMC Locate with an order/row target.
func (s *Synchronizer) LocateRemote(device byte, order, row int) error {
	return s.send(wire.BuildMMCLocate(device, wire.LocateTarget, order, row))
}

// MMCPlayRemote sends an MMC Play, so plain MMC equipment can be driven too.
func (s *Synchronizer) MMCPlayRemote(device byte) error {
	return s.send(wire.BuildMMC(device, wire.MMCPlay))
}

// MMCStopRemote sends an MMC Stop.
func (s *Synchronizer) MMCStopRemote(device byte) error {
	return s.send(wire.BuildMMC(device, wire.MMCStop))
}

// MMCPauseRemote sends an MMC Pause.
func (s *Synchronizer) MMCPauseRemote(device byte) error {
	return s.send(wire.BuildMMC(device, wire.MMCPause))
}

func boolByte(on bool) int {
	if on {
		return 1
	}
	return 0
}
