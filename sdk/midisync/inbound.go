package midisync

import (
	"time"

	"github.com/leandrodaf/midisync/internal/clock"
	"github.com/leandrodaf/midisync/internal/wire"
)

// Handlers below run synchronously on whichever input device's driver
// callback received the message. They call into the Player collaborator
// directly and never block on the generator thread.

func (s *Synchronizer) onClock(device int, at time.Time) {
	if device < 0 || device >= len(s.detectors) {
		return
	}
	det := s.detectors[device]
	det.OnClockPulse(at)
	if ratio, apply := det.PitchRatio(s.gen.TargetBPM()); apply {
		s.player.SetTempoFactor(ratio)
	}
}

func (s *Synchronizer) onStart(device int) {
	s.log.Debug("inbound start", s.log.Field().Int("device", device))
	s.player.Play()
}

func (s *Synchronizer) onContinue(device int) {
	s.log.Debug("inbound continue", s.log.Field().Int("device", device))
	s.player.Play()
}

func (s *Synchronizer) onStop(device int) {
	s.log.Debug("inbound stop", s.log.Field().Int("device", device))
	s.player.Stop()
}

func (s *Synchronizer) onSongPosition(device int, beats int) {
	totalRows := s.player.State().TotalRows
	order, row := clock.PositionFromBeats(beats, totalRows)
	s.player.JumpOrder(order, row, false)
}

func (s *Synchronizer) onMMC(device int, msg wire.MMCMessage) {
	switch msg.Command {
	case wire.MMCPlay:
		s.player.Play()
	case wire.MMCStop:
		s.player.Stop()
	case wire.MMCPause:
		s.player.Pause()
	case wire.MMCRecordStrobe, wire.MMCRecordExit:
		// Recording is owned by the UI layer, which is not reachable from
		// here.
		s.log.Debug("ignoring mmc record command",
			s.log.Field().Int("device", device),
			s.log.Field().Uint8("command", uint8(msg.Command)))
	case wire.MMCLocate:
		s.onLocate(msg)
	}
}

func (s *Synchronizer) onLocate(msg wire.MMCMessage) {
	switch msg.Kind {
	case wire.LocateTarget:
		s.player.JumpOrder(msg.Order, msg.Row, false)
	case wire.LocateLoopStart:
		s.pendingLoop.Store(int64(msg.Order)<<8 | int64(msg.Row))
		s.hasLoopStart.Store(true)
	case wire.LocateLoopEnd:
		if !s.hasLoopStart.CompareAndSwap(true, false) {
			return
		}
		packed := s.pendingLoop.Load()
		s.player.SetLoopRange(int(packed>>8), int(packed&0xFF), msg.Order, msg.Row)
	}
}

func (s *Synchronizer) onControl(device int, msg wire.Message) {
	p := msg.Payload
	switch msg.Command {
	case wire.CmdPing:
		s.log.Debug("pinged", s.log.Field().Int("device", device))

	case wire.CmdFileLoad:
		if err := s.player.LoadFile(msg.Filename()); err != nil {
			s.log.Warn("remote file load failed",
				s.log.Field().String("name", msg.Filename()),
				s.log.Field().Error("error", err))
		}

	case wire.CmdPlay:
		s.player.Play()
	case wire.CmdStop:
		s.player.Stop()
	case wire.CmdPause:
		s.player.Pause()
	case wire.CmdRetrigger:
		s.player.Retrigger()

	case wire.CmdMute:
		s.player.Mute(int(p[0]), p[1] != 0)
	case wire.CmdSolo:
		s.player.Solo(int(p[0]), p[1] != 0)
	case wire.CmdChannelVolume:
		s.player.SetChannelVolume(int(p[0]), int(p[1]))

	case wire.CmdJumpOrder:
		s.player.JumpOrder(int(p[0]), int(p[1]), false)
	case wire.CmdQueueOrder:
		s.player.JumpOrder(int(p[0]), int(p[1]), true)
	case wire.CmdJumpPattern:
		s.player.JumpPattern(int(p[0]), int(p[1]), false)
	case wire.CmdQueuePattern:
		s.player.JumpPattern(int(p[0]), int(p[1]), true)

	case wire.CmdSetLoopRange:
		s.player.SetLoopRange(int(p[0]), int(p[1]), int(p[2]), int(p[3]))
	case wire.CmdLoopCurrent:
		s.player.LoopCurrent()
	case wire.CmdLoopOrder:
		s.player.LoopOrder()
	case wire.CmdLoopPattern:
		s.player.LoopPattern()

	case wire.CmdSetTempo:
		s.player.SetTempo(float64(msg.Tempo()))

	case wire.CmdTriggerPhrase:
		s.player.TriggerPhrase(int(p[0]))
	case wire.CmdTriggerLoop:
		s.player.TriggerLoop(int(p[0]))
	case wire.CmdTriggerPad:
		s.player.TriggerPad(int(p[0]))

	case wire.CmdGetState:
		if err := s.send(wire.BuildStateResponse(s.replyID(), s.player.State())); err != nil {
			s.log.Debug("state response send failed", s.log.Field().Error("error", err))
		}

	case wire.CmdStateResponse:
		if s.opts.StateHandler == nil {
			return
		}
		if state, ok := wire.ParseStateResponse(p); ok {
			s.opts.StateHandler(device, state)
		}
	}
}

// replyID is the device ID stamped on frames this instance originates.
// An accept-any receive ID has no valid sender form, so it broadcasts.
func (s *Synchronizer) replyID() byte {
	if s.opts.DeviceID == wire.DeviceAcceptAny {
		return wire.DeviceBroadcast
	}
	return s.opts.DeviceID
}
