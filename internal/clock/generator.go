package clock

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midisync/internal/wire"
	"github.com/leandrodaf/midisync/sdk/contracts"
)

// Sender delivers raw MIDI bytes to the output port. A nil Sender turns the
// generator into a no-op, so a missing output device never blocks playback.
type Sender func(b []byte) error

const (
	// idleSleep is the loop period while the transport is stopped.
	idleSleep = 10 * time.Millisecond
	// resyncSlack is how far pulses may fall behind schedule before the
	// schedule is rebased instead of emitting a catch-up burst.
	resyncSlack = 10 * time.Millisecond
	// spinWindow is the tail of each pulse interval covered by fine-grained
	// waiting rather than a coarse sleep, to avoid oversleeping the tick.
	spinWindow = time.Millisecond
	spinStep   = 50 * time.Microsecond

	// Smoothing admits a new tempo sample only on a real change or after
	// this much staleness, damping producer jitter without delaying genuine
	// tempo moves.
	smoothLen      = 8
	smoothMinDelta = 0.05
	smoothMaxAge   = 100 * time.Millisecond
)

// atomicBPM holds a tempo as thousandths of a BPM in a single atomic word.
// Fixed point keeps the hand-off lock-free everywhere; atomic floats are not
// universally available.
type atomicBPM struct {
	milli atomic.Int64
}

func (a *atomicBPM) Store(bpm float64) {
	a.milli.Store(int64(math.Round(bpm * 1000)))
}

func (a *atomicBPM) Load() float64 {
	return float64(a.milli.Load()) / 1000
}

// Generator emits MIDI clock pulses at 24 PPQN tracking a continuously
// updated target tempo, and sends Start/Stop/Continue/SPP on behalf of the
// local transport. It owns one dedicated thread for the lifetime of the
// output device; producers communicate with it exclusively through
// single-word atomics.
type Generator struct {
	send Sender
	log  contracts.Logger

	target   atomicBPM
	running  atomic.Bool
	shutdown atomic.Bool
	rebase   atomic.Bool

	sppPosition atomic.Int32
	sppMode     atomic.Int32

	mu      sync.Mutex
	started bool
	done    chan struct{}

	// Thread-confined scheduling state. now and sleep are swappable for
	// deterministic tests.
	now          func() time.Time
	sleep        func(time.Duration)
	smooth       [smoothLen]float64
	smoothPos    int
	smoothedBPM  float64
	lastSmoothIn float64
	lastSmoothAt time.Time
	nextPulse    time.Time
	haveBaseline bool
	lastSPP      int32 // -1 until the first position goes out
}

// NewGenerator creates a generator writing through send. The generator does
// not emit anything until Start is called.
func NewGenerator(send Sender, log contracts.Logger) *Generator {
	g := &Generator{
		send:    send,
		log:     log,
		now:     time.Now,
		sleep:   time.Sleep,
		lastSPP: -1,
	}
	g.target.Store(125)
	g.sppPosition.Store(-1)
	return g
}

// Start spawns the generator thread. Calling Start on a generator that is
// already running is a no-op.
func (g *Generator) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return nil
	}
	g.started = true
	g.done = make(chan struct{})
	go g.run()
	return nil
}

// Close asks the generator thread to exit and joins it. The thread observes
// the flag within one loop iteration.
func (g *Generator) Close() {
	g.mu.Lock()
	started := g.started
	done := g.done
	g.mu.Unlock()

	g.shutdown.Store(true)
	if started {
		<-done
	}
}

// SetTargetBPM publishes a new target tempo. Safe to call from the audio
// render callback; it is a single atomic store.
func (g *Generator) SetTargetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	g.target.Store(bpm)
}

// TargetBPM returns the last published target tempo.
func (g *Generator) TargetBPM() float64 {
	return g.target.Load()
}

// Running reports whether the transport is running.
func (g *Generator) Running() bool {
	return g.running.Load()
}

// SetSPPMode selects when song position is emitted.
func (g *Generator) SetSPPMode(mode contracts.SPPMode) {
	g.sppMode.Store(int32(mode))
}

// UpdateSPP publishes the current song position in MIDI beats. The generator
// thread emits it according to the configured mode; callers are expected to
// rate-limit updates to at most one per 100ms.
func (g *Generator) UpdateSPP(beats int) {
	if beats < 0 {
		beats = 0
	}
	if beats > wire.MaxSongPosition {
		beats = wire.MaxSongPosition
	}
	g.sppPosition.Store(int32(beats))
}

// SendStart marks the transport running and emits a Start byte. The pulse
// schedule is rebased so the first post-start pulse lands on the downbeat
// rather than inheriting a stale fractional pulse.
func (g *Generator) SendStart() {
	g.rebase.Store(true)
	g.running.Store(true)
	g.emit([]byte{wire.StatusStart})
}

// SendContinue marks the transport running and emits a Continue byte.
func (g *Generator) SendContinue() {
	g.rebase.Store(true)
	g.running.Store(true)
	g.emit([]byte{wire.StatusContinue})
}

// SendStop marks the transport stopped and emits a Stop byte.
func (g *Generator) SendStop() {
	g.running.Store(false)
	g.emit([]byte{wire.StatusStop})
}

func (g *Generator) emit(b []byte) {
	if g.send == nil || b == nil {
		return
	}
	if err := g.send(b); err != nil {
		g.log.Debug("midi send failed", g.log.Field().Error("error", err))
	}
}

// run is the generator thread. Sub-millisecond pulse spacing needs a thread
// that is never preempted by unrelated cooperative tasks, so it pins itself
// to an OS thread.
func (g *Generator) run() {
	runtime.LockOSThread()
	defer close(g.done)

	for !g.shutdown.Load() {
		if !g.running.Load() {
			// Keep the scheduling baseline fresh so resume does not
			// trigger a catch-up burst.
			g.haveBaseline = false
			g.checkSPP(false)
			g.sleep(idleSleep)
			continue
		}

		if g.rebase.CompareAndSwap(true, false) {
			g.haveBaseline = false
		}

		now := g.now()
		g.updateSmoothing(g.target.Load(), now)
		period := pulsePeriod(g.smoothedBPM)

		if !g.haveBaseline {
			g.nextPulse = now
			g.haveBaseline = true
		}

		if !now.Before(g.nextPulse) {
			g.emit([]byte{wire.StatusClock})
			g.nextPulse = g.nextPulse.Add(period)
			if now.Sub(g.nextPulse) > resyncSlack {
				// Hard resync: never burst backlogged pulses.
				g.nextPulse = now.Add(period)
			}
		} else if wait := g.nextPulse.Sub(now); wait > spinWindow {
			g.sleep(wait - spinWindow)
		} else {
			g.sleep(spinStep)
		}

		g.checkSPP(true)
	}
}

// updateSmoothing feeds the target tempo into the moving-average buffer when
// it moved by more than smoothMinDelta or the last sample is older than
// smoothMaxAge.
func (g *Generator) updateSmoothing(bpm float64, now time.Time) {
	if g.smoothedBPM == 0 {
		for i := range g.smooth {
			g.smooth[i] = bpm
		}
		g.smoothedBPM = bpm
		g.lastSmoothIn = bpm
		g.lastSmoothAt = now
		return
	}

	delta := bpm - g.lastSmoothIn
	if delta < 0 {
		delta = -delta
	}
	if delta <= smoothMinDelta && now.Sub(g.lastSmoothAt) <= smoothMaxAge {
		return
	}

	g.smooth[g.smoothPos] = bpm
	g.smoothPos = (g.smoothPos + 1) % smoothLen
	var sum float64
	for _, v := range g.smooth {
		sum += v
	}
	g.smoothedBPM = sum / smoothLen
	g.lastSmoothIn = bpm
	g.lastSmoothAt = now
}

// checkSPP emits song position when it changed since the last send, gated by
// the configured mode.
func (g *Generator) checkSPP(running bool) {
	switch contracts.SPPMode(g.sppMode.Load()) {
	case contracts.SPPDisabled:
		return
	case contracts.SPPOnStopOnly:
		if running {
			return
		}
	}

	pos := g.sppPosition.Load()
	if pos < 0 || pos == g.lastSPP {
		return
	}
	g.emit(wire.SongPosition(int(pos)))
	g.lastSPP = pos
}

// pulsePeriod returns the spacing of clock pulses at the given tempo.
func pulsePeriod(bpm float64) time.Duration {
	if bpm <= 0 {
		bpm = 125
	}
	return time.Duration(60 / (bpm * PPQN) * float64(time.Second))
}
