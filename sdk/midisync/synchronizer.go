// Package midisync synchronizes musical timing and transport state between a
// tracker playback engine and external MIDI equipment, and speaks the
// machine-control and vendor control protocols for inter-instance
// coordination.
package midisync

import (
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midisync/internal/clock"
	"github.com/leandrodaf/midisync/internal/midiport"
	"github.com/leandrodaf/midisync/internal/notes"
	"github.com/leandrodaf/midisync/internal/wire"
	"github.com/leandrodaf/midisync/sdk/contracts"
)

// minSPPUpdateInterval is the producer-side rate limit on song-position
// updates handed to the generator thread.
const minSPPUpdateInterval = 100 * time.Millisecond

// Synchronizer is the public facade. The playback engine reports tempo,
// position and note events into it; inbound MIDI is dispatched back into the
// engine through the contracts.Player interface. All methods are safe to call
// from the engine's audio and row callbacks: nothing here blocks on the
// generator thread.
type Synchronizer struct {
	opts   contracts.Options
	log    contracts.Logger
	player contracts.Player

	ports *midiport.Manager
	gen   *clock.Generator
	notes *notes.Tracker
	disp  *wire.Dispatcher

	detectors [midiport.MaxInputs]*clock.Detector

	ticksPerRow   atomic.Int32
	lastSPPNanos  atomic.Int64
	pendingLoop   atomic.Int64 // packed loop-start order/row from MMC Locate
	hasLoopStart  atomic.Bool
	portInitError error

	send func(b []byte) error
}

// newSynchronizer wires all components. Driver initialization failure is
// reported once and degrades to "no clock output"; it never blocks the
// playback engine.
func newSynchronizer(player contracts.Player, options contracts.Options) *Synchronizer {
	s := &Synchronizer{
		opts:   options,
		log:    options.Logger,
		player: player,
	}
	s.ticksPerRow.Store(6)

	ports, err := midiport.NewManager(s.log)
	if err != nil {
		s.portInitError = err
		s.log.Error("midi driver unavailable, sync disabled",
			s.log.Field().Error("error", err))
	} else {
		s.ports = ports
	}
	s.send = s.portSend

	s.gen = clock.NewGenerator(s.send, s.log)
	s.gen.SetSPPMode(options.SPPMode)
	s.notes = notes.NewTracker(s.send, options.InstrumentChannels, s.log)
	for i := range s.detectors {
		d := clock.NewDetector(options.SyncThreshold)
		d.SetApply(options.ApplySync)
		s.detectors[i] = d
	}
	s.disp = wire.NewDispatcher(options.DeviceID, wire.Handlers{
		Clock:        s.onClock,
		Start:        s.onStart,
		Continue:     s.onContinue,
		Stop:         s.onStop,
		SongPosition: s.onSongPosition,
		MMC:          s.onMMC,
		Control:      s.onControl,
		Channel:      options.ChannelHandler,
	}, s.log)

	if err := s.gen.Start(); err != nil {
		s.log.Error("clock generator unavailable",
			s.log.Field().Error("error", err))
	}
	return s
}

// portSend delivers raw bytes to the output port; a no-op when none is open.
func (s *Synchronizer) portSend(b []byte) error {
	if s.ports == nil {
		return nil
	}
	return s.ports.Send(b)
}

// Close stops the generator thread and closes all ports.
func (s *Synchronizer) Close() error {
	s.gen.Close()
	if s.ports == nil {
		return nil
	}
	return s.ports.Close()
}

// Inputs lists the available MIDI input ports.
func (s *Synchronizer) Inputs() ([]contracts.DeviceInfo, error) {
	if s.ports == nil {
		return nil, s.portInitError
	}
	return s.ports.Inputs()
}

// Outputs lists the available MIDI output ports.
func (s *Synchronizer) Outputs() ([]contracts.DeviceInfo, error) {
	if s.ports == nil {
		return nil, s.portInitError
	}
	return s.ports.Outputs()
}

// OpenInput opens an input port and routes its byte stream through the
// dispatcher. Up to midiport.MaxInputs ports may be open at once.
func (s *Synchronizer) OpenInput(port int) error {
	if s.ports == nil {
		return s.portInitError
	}
	return s.ports.OpenInput(port, s.disp.Feed)
}

// OpenOutput opens the output port used for clock, transport, notes and
// control frames.
func (s *Synchronizer) OpenOutput(port int) error {
	if s.ports == nil {
		return s.portInitError
	}
	return s.ports.OpenOutput(port)
}

// OpenVirtualInput creates a virtual input port named after the client, so
// other applications can connect and drive this instance.
func (s *Synchronizer) OpenVirtualInput() error {
	if s.ports == nil {
		return s.portInitError
	}
	return s.ports.OpenVirtualInput(s.opts.ClientName, s.disp.Feed)
}

// OpenVirtualOutput creates a virtual output port named after the client.
func (s *Synchronizer) OpenVirtualOutput() error {
	if s.ports == nil {
		return s.portInitError
	}
	return s.ports.OpenVirtualOutput(s.opts.ClientName)
}

// ReportTempo publishes the engine's current tempo to the clock generator.
// Called from the audio render callback; a single atomic store.
func (s *Synchronizer) ReportTempo(bpm float64) {
	s.gen.SetTargetBPM(bpm)
}

// ReportTicksPerRow records the engine's current tick rate for speed
// compensation of outgoing positions.
func (s *Synchronizer) ReportTicksPerRow(ticks int) {
	if ticks > 0 {
		s.ticksPerRow.Store(int32(ticks))
	}
}

// ReportPosition publishes the current song position. Updates are gated to
// the configured row interval and rate-limited to one per 100ms; the
// generator thread decides when the resulting SPP actually goes out.
func (s *Synchronizer) ReportPosition(pos contracts.Position) {
	if s.opts.SPPMode == contracts.SPPDisabled {
		return
	}
	if s.opts.SPPIntervalRows > 1 && pos.Row%s.opts.SPPIntervalRows != 0 {
		return
	}

	now := time.Now().UnixNano()
	last := s.lastSPPNanos.Load()
	if now-last < int64(minSPPUpdateInterval) {
		return
	}
	if !s.lastSPPNanos.CompareAndSwap(last, now) {
		return
	}

	beats := clock.BeatsFromPosition(pos.Order, pos.Row, pos.TotalRows)
	if s.opts.SpeedCompensation {
		beats = clock.CompensateSpeed(beats, int(s.ticksPerRow.Load()))
	}
	s.gen.UpdateSPP(beats)
}

// ReportNoteEvent converts a tracker note event into MIDI output.
func (s *Synchronizer) ReportNoteEvent(ev contracts.NoteEvent) {
	s.notes.HandleNote(ev.Channel, ev.Note, ev.Instrument, ev.Volume)
}

// ReportPatternBoundary invalidates the program cache. Call on pattern
// boundaries and loop retriggers so programs are resent when structure
// changes.
func (s *Synchronizer) ReportPatternBoundary() {
	s.notes.ResetPrograms()
}

// StopChannel force-releases the active MIDI note on one tracker channel.
func (s *Synchronizer) StopChannel(trackerChannel int) {
	s.notes.StopChannel(trackerChannel)
}

// Start emits a MIDI Start and begins clock generation.
func (s *Synchronizer) Start() {
	s.gen.SendStart()
}

// Continue emits a MIDI Continue and resumes clock generation.
func (s *Synchronizer) Continue() {
	s.gen.SendContinue()
}

// Stop emits a MIDI Stop, halts clock generation and releases all active
// notes.
func (s *Synchronizer) Stop() {
	s.gen.SendStop()
	s.notes.StopAll()
}

// InboundBPM returns the tempo detected on an input device, if any pulses
// have been measured.
func (s *Synchronizer) InboundBPM(device int) (float64, bool) {
	if device < 0 || device >= len(s.detectors) {
		return 0, false
	}
	return s.detectors[device].BPM()
}

// InboundPulseCount returns the clock pulses counted on an input device.
func (s *Synchronizer) InboundPulseCount(device int) uint64 {
	if device < 0 || device >= len(s.detectors) {
		return 0
	}
	return s.detectors[device].PulseCount()
}

// ResetDetector zeroes an input device's clock statistics.
func (s *Synchronizer) ResetDetector(device int) {
	if device >= 0 && device < len(s.detectors) {
		s.detectors[device].Reset()
	}
}
