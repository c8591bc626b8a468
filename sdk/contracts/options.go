package contracts

// SPPMode controls when Song Position Pointer messages are emitted by the
// clock generator.
type SPPMode int32

const (
	// SPPDisabled suppresses all Song Position Pointer output.
	SPPDisabled SPPMode = iota
	// SPPOnStopOnly emits position only while the transport is stopped.
	SPPOnStopOnly
	// SPPDuringPlayback emits position whenever it changes, at the
	// configured row interval.
	SPPDuringPlayback
)

// ChannelOff disables MIDI output for an instrument when used as the value
// in an instrument-to-channel map.
const ChannelOff = -1

// These values must stay in lockstep with their internal/wire twins; the
// duplication keeps this package free of internal imports.
const (
	// DeviceBroadcast addresses every device on the bus.
	DeviceBroadcast byte = 0x7F
	// DeviceAcceptAny, configured as the local device ID, accepts control
	// frames from any sender. Valid on the receive side only.
	DeviceAcceptAny byte = 0x7E
)

// Options defines the configuration for a Synchronizer.
type Options struct {
	Logger     Logger   // Logger for events and errors.
	LogLevel   LogLevel // Level of logging to use.
	ClientName string   // Name used for virtual MIDI ports.

	DeviceID byte // Local device ID for MMC and control-frame addressing.

	SPPMode         SPPMode // When to emit Song Position Pointer.
	SPPIntervalRows int     // Row granularity for position updates.

	ApplySync     bool    // Follow an inbound MIDI clock when true.
	SyncThreshold float64 // Relative tempo change required before applying.

	// InstrumentChannels maps instrument numbers to explicit MIDI channels
	// (0-15) or ChannelOff. Instruments without an entry use channel
	// instrument mod 16.
	InstrumentChannels map[int]int

	// SpeedCompensation scales outgoing positions by 6/ticks-per-row so
	// instances running at different tick rates stay aligned.
	SpeedCompensation bool

	// StateHandler receives decoded remote player-state responses.
	StateHandler func(device int, state PlayerState)

	// ChannelHandler receives plain channel messages (notes, controllers)
	// from input devices, tagged with the originating device.
	ChannelHandler func(device int, raw []byte)
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger for the synchronizer.
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the synchronizer.
func WithLogLevel(level LogLevel) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithClientName sets the name used when opening virtual MIDI ports.
func WithClientName(name string) Option {
	return func(opts *Options) {
		opts.ClientName = name
	}
}

// WithDeviceID sets the local device ID used for MMC and control-frame
// addressing. DeviceAcceptAny makes the receive side match any sender.
func WithDeviceID(id byte) Option {
	return func(opts *Options) {
		opts.DeviceID = id
	}
}

// WithSPPMode configures Song Position Pointer emission and the row interval
// at which position updates are produced.
func WithSPPMode(mode SPPMode, intervalRows int) Option {
	return func(opts *Options) {
		opts.SPPMode = mode
		opts.SPPIntervalRows = intervalRows
	}
}

// WithClockSync enables following an inbound MIDI clock. threshold is the
// relative tempo change (0.001-0.05) required before the playback engine is
// repitched.
func WithClockSync(apply bool, threshold float64) Option {
	return func(opts *Options) {
		opts.ApplySync = apply
		opts.SyncThreshold = threshold
	}
}

// WithInstrumentChannels sets the instrument-to-MIDI-channel map.
func WithInstrumentChannels(m map[int]int) Option {
	return func(opts *Options) {
		opts.InstrumentChannels = m
	}
}

// WithSpeedCompensation enables tick-rate compensation of outgoing song
// positions.
func WithSpeedCompensation() Option {
	return func(opts *Options) {
		opts.SpeedCompensation = true
	}
}

// WithStateHandler sets the callback for remote player-state responses.
func WithStateHandler(h func(device int, state PlayerState)) Option {
	return func(opts *Options) {
		opts.StateHandler = h
	}
}

// WithChannelHandler sets the callback for plain channel messages received
// on input devices.
func WithChannelHandler(h func(device int, raw []byte)) Option {
	return func(opts *Options) {
		opts.ChannelHandler = h
	}
}
