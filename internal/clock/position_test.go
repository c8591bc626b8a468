package clock

import "testing"

func TestBeatsFromPosition(t *testing.T) {
	cases := []struct {
		order, row, totalRows int
		want                  int
	}{
		{0, 0, 64, 0},
		{0, 16, 64, 16},
		{1, 0, 64, 64},
		{2, 32, 64, 160},
		// Rows scale into the fixed 64-beat pattern space.
		{0, 16, 32, 32},
		{0, 64, 128, 32},
		{1, 0, 0, 64}, // unknown row count defaults to 64
		// Clamped to the SPP range.
		{300, 0, 64, 16383},
		{-1, -5, 64, 0},
	}
	for _, c := range cases {
		got := BeatsFromPosition(c.order, c.row, c.totalRows)
		if got != c.want {
			t.Errorf("BeatsFromPosition(%d,%d,%d) = %d, want %d",
				c.order, c.row, c.totalRows, got, c.want)
		}
	}
}

func TestPositionFromBeats(t *testing.T) {
	cases := []struct {
		beats, totalRows int
		wantOrder        int
		wantRow          int
	}{
		{0, 64, 0, 0},
		{16, 64, 0, 16},
		{64, 64, 1, 0},
		{160, 64, 2, 32},
		{32, 32, 0, 16},
		{-3, 64, 0, 0},
	}
	for _, c := range cases {
		order, row := PositionFromBeats(c.beats, c.totalRows)
		if order != c.wantOrder || row != c.wantRow {
			t.Errorf("PositionFromBeats(%d,%d) = (%d,%d), want (%d,%d)",
				c.beats, c.totalRows, order, row, c.wantOrder, c.wantRow)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	for order := 0; order < 8; order++ {
		for row := 0; row < 64; row += 4 {
			beats := BeatsFromPosition(order, row, 64)
			gotOrder, gotRow := PositionFromBeats(beats, 64)
			if gotOrder != order || gotRow != row {
				t.Fatalf("(%d,%d) round-tripped to (%d,%d)", order, row, gotOrder, gotRow)
			}
		}
	}
}

func TestCompensateSpeed(t *testing.T) {
	cases := []struct {
		beats, ticksPerRow int
		want               int
	}{
		{64, 6, 64},  // reference speed is a no-op
		{64, 3, 128}, // faster tick rate doubles the reported position
		{64, 12, 32},
		{64, 0, 64}, // invalid speed leaves the position alone
		{16000, 3, 16383},
	}
	for _, c := range cases {
		if got := CompensateSpeed(c.beats, c.ticksPerRow); got != c.want {
			t.Errorf("CompensateSpeed(%d,%d) = %d, want %d",
				c.beats, c.ticksPerRow, got, c.want)
		}
	}
}
