package wire

import (
	"time"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

// Handlers receives classified inbound messages. Nil handlers are skipped.
// Every handler is called synchronously on the feeding goroutine, which for a
// physical port is the MIDI driver's input callback.
type Handlers struct {
	Clock        func(device int, at time.Time)
	Start        func(device int)
	Continue     func(device int)
	Stop         func(device int)
	SongPosition func(device int, beats int)
	MMC          func(device int, msg MMCMessage)
	Control      func(device int, msg Message)
	// Channel receives 3-byte channel messages (notes, controllers) that are
	// not part of the sync protocols, together with the originating device.
	Channel func(device int, raw []byte)
}

// Dispatcher classifies raw MIDI bytes from tagged input devices and routes
// each message to its consumer. Unrecognized SysEx is the only traffic that
// is dropped without a handler call.
type Dispatcher struct {
	receiver byte
	handlers Handlers
	log      contracts.Logger
}

// NewDispatcher creates a dispatcher matching control frames against the
// given receiver device ID.
func NewDispatcher(receiver byte, handlers Handlers, log contracts.Logger) *Dispatcher {
	return &Dispatcher{receiver: receiver, handlers: handlers, log: log}
}

// Feed classifies one complete MIDI message from the given device. at is the
// arrival time used for clock-interval measurement.
func (d *Dispatcher) Feed(device int, b []byte, at time.Time) {
	if len(b) == 0 {
		return
	}

	switch b[0] {
	case StatusClock:
		if d.handlers.Clock != nil {
			d.handlers.Clock(device, at)
		}
		return
	case StatusStart:
		if d.handlers.Start != nil {
			d.handlers.Start(device)
		}
		return
	case StatusContinue:
		if d.handlers.Continue != nil {
			d.handlers.Continue(device)
		}
		return
	case StatusStop:
		if d.handlers.Stop != nil {
			d.handlers.Stop(device)
		}
		return
	case StatusSongPosition:
		if beats, ok := ParseSongPosition(b); ok && d.handlers.SongPosition != nil {
			d.handlers.SongPosition(device, beats)
		}
		return
	case SysExStart:
		d.feedSysEx(device, b)
		return
	}

	// Anything else is a plain channel message for the caller.
	if d.handlers.Channel != nil {
		d.handlers.Channel(device, b)
	}
}

func (d *Dispatcher) feedSysEx(device int, b []byte) {
	if mmc, ok := ParseMMC(b, d.receiver); ok {
		if d.handlers.MMC != nil {
			d.handlers.MMC(device, mmc)
		}
		return
	}
	if msg, ok := Parse(b, d.receiver); ok {
		if d.handlers.Control != nil {
			d.handlers.Control(device, msg)
		}
		return
	}
	// Third-party or malformed SysEx shares the stream; drop it quietly.
	d.log.Debug("ignoring unrecognized sysex",
		d.log.Field().Int("device", device),
		d.log.Field().Int("bytes", len(b)))
}
