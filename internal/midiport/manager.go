// Package midiport manages physical MIDI ports through the rtmidi driver:
// enumeration, up to three concurrent raw-byte inputs feeding the dispatcher,
// and one output shared by the clock generator and note tracker.
package midiport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

// MaxInputs is the number of input devices that may feed the dispatcher
// concurrently.
const MaxInputs = 3

// ErrTooManyInputs is returned when opening a fourth input device.
var ErrTooManyInputs = errors.New("too many open input devices")

// sysExBufferSize is sized for the largest control frame plus headroom for
// unrelated third-party SysEx sharing the stream.
const sysExBufferSize = 1024

// Feed receives one complete raw MIDI message from an open input device.
type Feed func(device int, b []byte, at time.Time)

// Manager owns the rtmidi driver and the open ports.
type Manager struct {
	log contracts.Logger
	drv *rtmididrv.Driver

	mu    sync.Mutex
	ins   []drivers.In
	stops []func()
	out   drivers.Out
}

// NewManager initializes the rtmidi driver.
func NewManager(log contracts.Logger) (*Manager, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("initializing midi driver: %w", err)
	}
	return &Manager{log: log, drv: drv}, nil
}

// Inputs lists the available input ports.
func (m *Manager) Inputs() ([]contracts.DeviceInfo, error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing midi inputs: %w", err)
	}
	return toDeviceInfo(len(ins), func(i int) string { return ins[i].String() }), nil
}

// Outputs lists the available output ports.
func (m *Manager) Outputs() ([]contracts.DeviceInfo, error) {
	outs, err := m.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing midi outputs: %w", err)
	}
	return toDeviceInfo(len(outs), func(i int) string { return outs[i].String() }), nil
}

func toDeviceInfo(n int, name func(int) string) []contracts.DeviceInfo {
	devices := make([]contracts.DeviceInfo, n)
	for i := range devices {
		devices[i] = contracts.DeviceInfo{ID: i, Name: name(i)}
	}
	return devices
}

// OpenInput opens the input port with the given index and streams its raw
// messages into feed, tagged with a logical device number.
func (m *Manager) OpenInput(port int, feed Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ins) >= MaxInputs {
		return ErrTooManyInputs
	}

	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("listing midi inputs: %w", err)
	}
	if port < 0 || port >= len(ins) {
		return fmt.Errorf("no midi input port %d", port)
	}
	in := ins[port]
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening midi input %q: %w", in.String(), err)
	}

	device := len(m.ins)
	stop, err := in.Listen(func(msg []byte, _ int32) {
		feed(device, msg, time.Now())
	}, drivers.ListenConfig{
		TimeCode:        true,
		SysEx:           true,
		SysExBufferSize: sysExBufferSize,
		OnErr: func(err error) {
			m.log.Warn("midi input error", m.log.Field().Error("error", err))
		},
	})
	if err != nil {
		in.Close()
		return fmt.Errorf("listening on midi input %q: %w", in.String(), err)
	}

	m.ins = append(m.ins, in)
	m.stops = append(m.stops, stop)
	m.log.Info("midi input opened",
		m.log.Field().Int("device", device),
		m.log.Field().String("port", in.String()))
	return nil
}

// OpenVirtualInput creates a named virtual input port other applications can
// connect to, and streams its raw messages into feed like a physical input.
func (m *Manager) OpenVirtualInput(name string, feed Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ins) >= MaxInputs {
		return ErrTooManyInputs
	}

	in, err := m.drv.OpenVirtualIn(name)
	if err != nil {
		return fmt.Errorf("creating virtual midi input %q: %w", name, err)
	}

	device := len(m.ins)
	stop, err := in.Listen(func(msg []byte, _ int32) {
		feed(device, msg, time.Now())
	}, drivers.ListenConfig{
		TimeCode:        true,
		SysEx:           true,
		SysExBufferSize: sysExBufferSize,
		OnErr: func(err error) {
			m.log.Warn("midi input error", m.log.Field().Error("error", err))
		},
	})
	if err != nil {
		in.Close()
		return fmt.Errorf("listening on virtual midi input %q: %w", name, err)
	}

	m.ins = append(m.ins, in)
	m.stops = append(m.stops, stop)
	m.log.Info("virtual midi input opened",
		m.log.Field().Int("device", device),
		m.log.Field().String("name", name))
	return nil
}

// OpenOutput opens the output port with the given index, replacing any
// previously open output.
func (m *Manager) OpenOutput(port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outs, err := m.drv.Outs()
	if err != nil {
		return fmt.Errorf("listing midi outputs: %w", err)
	}
	if port < 0 || port >= len(outs) {
		return fmt.Errorf("no midi output port %d", port)
	}
	out := outs[port]
	if err := out.Open(); err != nil {
		return fmt.Errorf("opening midi output %q: %w", out.String(), err)
	}

	if m.out != nil {
		m.out.Close()
	}
	m.out = out
	m.log.Info("midi output opened", m.log.Field().String("port", out.String()))
	return nil
}

// OpenVirtualOutput creates a named virtual output port other applications
// can connect to, replacing any previously open output.
func (m *Manager) OpenVirtualOutput(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	out, err := m.drv.OpenVirtualOut(name)
	if err != nil {
		return fmt.Errorf("creating virtual midi output %q: %w", name, err)
	}

	if m.out != nil {
		m.out.Close()
	}
	m.out = out
	m.log.Info("virtual midi output opened", m.log.Field().String("name", name))
	return nil
}

// HasOutput reports whether an output port is open.
func (m *Manager) HasOutput() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out != nil
}

// Send writes raw bytes to the open output port. With no output open it is a
// no-op: sync is an optional enhancement, never a playback requirement.
func (m *Manager) Send(b []byte) error {
	m.mu.Lock()
	out := m.out
	m.mu.Unlock()
	if out == nil {
		return nil
	}
	return out.Send(b)
}

// Close stops all listeners and closes every open port and the driver,
// combining any errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, stop := range m.stops {
		stop()
	}
	m.stops = nil
	for _, in := range m.ins {
		err = multierr.Append(err, in.Close())
	}
	m.ins = nil
	if m.out != nil {
		err = multierr.Append(err, m.out.Close())
		m.out = nil
	}
	return multierr.Append(err, m.drv.Close())
}
