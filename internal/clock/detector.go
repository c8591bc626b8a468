// Package clock derives tempo from an inbound MIDI clock stream and generates
// an outbound stream with sample-accurate pulse spacing.
package clock

import (
	"sync"
	"time"
)

// PPQN is the MIDI clock rate in pulses per quarter note.
const PPQN = 24

// Pulse intervals outside this window are treated as noise (stuck messages,
// device wake-up bursts) and discarded.
const (
	minPulseInterval = time.Millisecond
	maxPulseInterval = time.Second
)

// Bounds for the relative tempo change required before a detected tempo is
// applied to playback.
const (
	MinSyncThreshold = 0.001
	MaxSyncThreshold = 0.05
)

// Detector estimates the tempo of an inbound MIDI clock stream by averaging
// pulse intervals over one beat. Create one Detector per input device; the
// internal mutex covers concurrent reads from a monitoring UI, and is only
// held for the ring-buffer update.
type Detector struct {
	mu           sync.Mutex
	pulseCount   uint64
	lastPulse    time.Time
	intervals    [PPQN]time.Duration
	intervalPos  int
	intervalN    int
	estimatedBPM float64

	applySync bool
	threshold float64
	lastRatio float64
}

// NewDetector creates a detector with sync application disabled and the given
// apply threshold, clamped to the supported range.
func NewDetector(threshold float64) *Detector {
	if threshold < MinSyncThreshold {
		threshold = MinSyncThreshold
	}
	if threshold > MaxSyncThreshold {
		threshold = MaxSyncThreshold
	}
	return &Detector{threshold: threshold, lastRatio: 1}
}

// OnClockPulse records one inbound clock pulse. The pulse count and timestamp
// are always updated, even when sync application is disabled, so monitoring
// can display the incoming tempo at any time.
func (d *Detector) OnClockPulse(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pulseCount > 0 {
		interval := now.Sub(d.lastPulse)
		if interval > minPulseInterval && interval < maxPulseInterval {
			d.intervals[d.intervalPos] = interval
			d.intervalPos = (d.intervalPos + 1) % PPQN
			if d.intervalN < PPQN {
				d.intervalN++
			}
			var sum time.Duration
			for i := 0; i < d.intervalN; i++ {
				sum += d.intervals[i]
			}
			mean := float64(sum.Microseconds()) / float64(d.intervalN)
			d.estimatedBPM = 60_000_000 / (mean * PPQN)
		}
	}
	d.pulseCount++
	d.lastPulse = now
}

// BPM returns the estimated tempo. ok is false until at least one interval
// has been recorded.
func (d *Detector) BPM() (bpm float64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.estimatedBPM, d.intervalN > 0
}

// PulseCount returns the number of pulses received since the last reset.
func (d *Detector) PulseCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulseCount
}

// SetApply enables or disables application of the detected tempo to playback.
func (d *Detector) SetApply(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applySync = on
	d.lastRatio = 1
}

// PitchRatio computes the tick-period scale localBPM/estimatedBPM (values
// below 1.0 shorten the engine's tick and speed playback up) and reports
// whether it should be applied now: application must be enabled, an estimate
// must exist, and the ratio must have moved by more than the threshold since
// the last applied value. This keeps pulse jitter from producing audible
// pitch chatter.
func (d *Detector) PitchRatio(localBPM float64) (ratio float64, apply bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.applySync || d.intervalN == 0 || d.estimatedBPM <= 0 || localBPM <= 0 {
		return 1, false
	}
	ratio = localBPM / d.estimatedBPM
	change := ratio/d.lastRatio - 1
	if change < 0 {
		change = -change
	}
	if change <= d.threshold {
		return d.lastRatio, false
	}
	d.lastRatio = ratio
	return ratio, true
}

// Reset zeroes all counters and the interval ring. Called on device re-init
// or an explicit resync.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pulseCount = 0
	d.lastPulse = time.Time{}
	d.intervalPos = 0
	d.intervalN = 0
	d.estimatedBPM = 0
	d.lastRatio = 1
}
