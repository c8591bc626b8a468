package clock

import (
	"github.com/leandrodaf/midisync/internal/wire"
)

// Song position translation assumes a fixed 64 MIDI beats per pattern
// regardless of the pattern's actual row count; the row is scaled into that
// 64-unit space. This keeps order boundaries at fixed SPP multiples, which is
// what hardware sequencers lock onto.
const beatsPerPattern = 64

// referenceTicksPerRow is the tick rate at which one row equals one MIDI
// beat (a 16th note, 6 clocks).
const referenceTicksPerRow = 6

// BeatsFromPosition converts a tracker order/row into MIDI beats, clamped to
// the SPP range.
func BeatsFromPosition(order, row, totalRows int) int {
	if order < 0 {
		order = 0
	}
	if row < 0 {
		row = 0
	}
	if totalRows <= 0 {
		totalRows = beatsPerPattern
	}
	beats := order*beatsPerPattern + row*beatsPerPattern/totalRows
	if beats > wire.MaxSongPosition {
		beats = wire.MaxSongPosition
	}
	return beats
}

// PositionFromBeats converts MIDI beats back into a tracker order/row, using
// the row count of the destination pattern.
func PositionFromBeats(beats, totalRows int) (order, row int) {
	if beats < 0 {
		beats = 0
	}
	if totalRows <= 0 {
		totalRows = beatsPerPattern
	}
	order = beats / beatsPerPattern
	row = (beats % beatsPerPattern) * totalRows / beatsPerPattern
	return order, row
}

// CompensateSpeed scales a beat position by 6/ticksPerRow so two instances
// running at different internal tick rates report aligned song positions.
func CompensateSpeed(beats, ticksPerRow int) int {
	if ticksPerRow <= 0 {
		return beats
	}
	beats = beats * referenceTicksPerRow / ticksPerRow
	if beats > wire.MaxSongPosition {
		beats = wire.MaxSongPosition
	}
	return beats
}
