package clock

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midisync/internal/logger"
	"github.com/leandrodaf/midisync/internal/wire"
	"github.com/leandrodaf/midisync/sdk/contracts"
)

// fakeClock drives the generator thread deterministically: sleeping advances
// simulated time instead of waiting.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Advance jumps simulated time without the generator sleeping, emulating a
// stall of the generator thread.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentEvent struct {
	status byte
	data   []byte
	at     time.Time
}

type recorder struct {
	mu     sync.Mutex
	clk    *fakeClock
	events []sentEvent
}

func (r *recorder) send(b []byte) error {
	r.mu.Lock()
	r.events = append(r.events, sentEvent{status: b[0], data: append([]byte(nil), b...), at: r.clk.Now()})
	r.mu.Unlock()
	return nil
}

func (r *recorder) pulseTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, e := range r.events {
		if e.status == wire.StatusClock {
			out = append(out, e.at)
		}
	}
	return out
}

func (r *recorder) count(status byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.status == status {
			n++
		}
	}
	return n
}

func (r *recorder) lastData(status byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].status == status {
			return r.events[i].data
		}
	}
	return nil
}

func startTestGenerator(t *testing.T) (*Generator, *recorder, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	g := NewGenerator(rec.send, logger.NewNopLogger())
	g.now = clk.Now
	g.sleep = clk.Sleep
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(g.Close)
	return g, rec, clk
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func TestGeneratorPulseSpacingConstantTempo(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.SetTargetBPM(125)
	g.SendStart()

	// 125 BPM at 24 PPQN is one pulse every 20ms.
	const wantPulses = 10_001
	period := pulsePeriod(125)
	waitFor(t, "pulses", func() bool { return len(rec.pulseTimes()) >= wantPulses })
	g.SendStop()

	pulses := rec.pulseTimes()[:wantPulses]
	for i := 1; i < len(pulses); i++ {
		iv := pulses[i].Sub(pulses[i-1])
		if iv < period-time.Millisecond || iv > period+time.Millisecond {
			t.Fatalf("pulse %d interval %v outside %v ± 1ms", i, iv, period)
		}
	}

	// The schedule is absolute, so error must not accumulate over the run.
	total := pulses[len(pulses)-1].Sub(pulses[0])
	want := time.Duration(wantPulses-1) * period
	if drift := total - want; drift < -resyncSlack || drift > resyncSlack {
		t.Fatalf("cumulative drift %v over %d pulses", total-want, wantPulses)
	}
}

func TestGeneratorTracksTempoChanges(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.SetTargetBPM(120)
	g.SendStart()

	waitFor(t, "initial pulses", func() bool { return len(rec.pulseTimes()) >= 100 })
	g.SetTargetBPM(150)
	changed := len(rec.pulseTimes())

	fast, slow := pulsePeriod(150), pulsePeriod(120)
	// The generator runs far ahead of this goroutine on the fake clock, so
	// absolute pulse counts say nothing about how much of the run happened
	// after the tempo change. Anchor on the snapshot taken at the change
	// and wait for the live interval to settle: the smoother admits one
	// stale sample per simulated 100ms, converging over eight admissions.
	waitFor(t, "interval settling on the new tempo", func() bool {
		pulses := rec.pulseTimes()
		if len(pulses) < changed+2 {
			return false
		}
		d := pulses[len(pulses)-1].Sub(pulses[len(pulses)-2]) - fast
		return d > -time.Millisecond && d < time.Millisecond
	})
	settled := len(rec.pulseTimes())
	waitFor(t, "settled pulses", func() bool { return len(rec.pulseTimes()) >= settled+100 })
	g.SendStop()

	pulses := rec.pulseTimes()
	for i := changed + 1; i < len(pulses); i++ {
		iv := pulses[i].Sub(pulses[i-1])
		// Spacing stays within the band spanned by old and new tempo.
		if iv < fast-time.Millisecond || iv > slow+resyncSlack {
			t.Fatalf("pulse %d interval %v outside [%v, %v]", i, iv, fast, slow)
		}
	}

	// The tail of the run must have held the new tempo.
	tail := pulses[len(pulses)-100:]
	for i := 1; i < len(tail); i++ {
		iv := tail[i].Sub(tail[i-1])
		if d := iv - fast; d < -time.Millisecond || d > time.Millisecond {
			t.Fatalf("settled interval %v, want %v ± 1ms", iv, fast)
		}
	}
}

func TestGeneratorResyncsInsteadOfBursting(t *testing.T) {
	g, rec, clk := startTestGenerator(t)
	g.SetTargetBPM(125)
	g.SendStart()

	waitFor(t, "pulses", func() bool { return len(rec.pulseTimes()) >= 50 })
	// Stall the generator half a second behind schedule.
	clk.Advance(500 * time.Millisecond)
	waitFor(t, "recovery pulses", func() bool { return len(rec.pulseTimes()) >= 150 })
	g.SendStop()

	pulses := rec.pulseTimes()
	for i := 1; i < len(pulses); i++ {
		if iv := pulses[i].Sub(pulses[i-1]); iv < 10*time.Millisecond {
			t.Fatalf("backlogged burst: pulses %d apart by %v", i, iv)
		}
	}
}

func TestGeneratorTransportBytes(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.SetTargetBPM(125)

	g.SendStart()
	if rec.count(wire.StatusStart) != 1 {
		t.Fatal("start byte not sent")
	}
	if !g.Running() {
		t.Fatal("not running after start")
	}
	waitFor(t, "pulses", func() bool { return len(rec.pulseTimes()) >= 10 })

	g.SendStop()
	if rec.count(wire.StatusStop) != 1 {
		t.Fatal("stop byte not sent")
	}
	// Pulse output halts within one loop iteration of the stop.
	time.Sleep(5 * time.Millisecond)
	n := len(rec.pulseTimes())
	time.Sleep(20 * time.Millisecond)
	if after := len(rec.pulseTimes()); after > n+1 {
		t.Fatalf("pulses continued after stop: %d -> %d", n, after)
	}

	g.SendContinue()
	if rec.count(wire.StatusContinue) != 1 {
		t.Fatal("continue byte not sent")
	}
	waitFor(t, "resumed pulses", func() bool { return len(rec.pulseTimes()) > n+5 })
}

func TestGeneratorSPPDisabled(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.UpdateSPP(64)
	time.Sleep(20 * time.Millisecond)
	if rec.count(wire.StatusSongPosition) != 0 {
		t.Fatal("SPP sent while disabled")
	}
}

func TestGeneratorSPPDuringPlayback(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.SetSPPMode(contracts.SPPDuringPlayback)
	g.SendStart()

	g.UpdateSPP(64)
	waitFor(t, "first SPP", func() bool { return rec.count(wire.StatusSongPosition) == 1 })
	if data := rec.lastData(wire.StatusSongPosition); data[1] != 64 || data[2] != 0 {
		t.Fatalf("SPP bytes % X, want position 64", data)
	}

	// The same value again is not re-sent.
	g.UpdateSPP(64)
	time.Sleep(10 * time.Millisecond)
	if rec.count(wire.StatusSongPosition) != 1 {
		t.Fatal("unchanged SPP was re-sent")
	}

	g.UpdateSPP(130)
	waitFor(t, "second SPP", func() bool { return rec.count(wire.StatusSongPosition) == 2 })
	if data := rec.lastData(wire.StatusSongPosition); data[1] != 0x02 || data[2] != 0x01 {
		t.Fatalf("SPP bytes % X, want position 130", data)
	}
}

func TestGeneratorSPPOnStopOnly(t *testing.T) {
	g, rec, _ := startTestGenerator(t)
	g.SetSPPMode(contracts.SPPOnStopOnly)
	g.SendStart()

	g.UpdateSPP(64)
	time.Sleep(20 * time.Millisecond)
	if rec.count(wire.StatusSongPosition) != 0 {
		t.Fatal("SPP sent while running in on-stop-only mode")
	}

	g.SendStop()
	waitFor(t, "SPP after stop", func() bool { return rec.count(wire.StatusSongPosition) == 1 })
}

func TestGeneratorCloseJoins(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	g := NewGenerator(rec.send, logger.NewNopLogger())
	g.now = clk.Now
	g.sleep = clk.Sleep
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		g.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not join the generator thread")
	}
}

func TestGeneratorNilSenderIsNoOp(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())
	// Must not panic with no output device.
	g.SendStart()
	g.SendStop()
}

func TestAtomicBPMFixedPoint(t *testing.T) {
	var a atomicBPM
	a.Store(125.1234)
	if got := a.Load(); math.Abs(got-125.123) > 1e-9 {
		t.Errorf("Load = %v, want 125.123 (three decimal places)", got)
	}
	a.Store(33.3335)
	if got := a.Load(); math.Abs(got-33.334) > 1e-9 {
		t.Errorf("Load = %v, want 33.334", got)
	}
}
