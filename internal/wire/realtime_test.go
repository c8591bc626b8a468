package wire

import (
	"bytes"
	"testing"
)

func TestSongPositionEncoding(t *testing.T) {
	cases := []struct {
		beats int
		want  []byte
	}{
		{0, []byte{0xF2, 0x00, 0x00}},
		{1, []byte{0xF2, 0x01, 0x00}},
		{130, []byte{0xF2, 0x02, 0x01}},
		{16383, []byte{0xF2, 0x7F, 0x7F}},
		{-5, []byte{0xF2, 0x00, 0x00}},
		{20000, []byte{0xF2, 0x7F, 0x7F}},
	}
	for _, c := range cases {
		got := SongPosition(c.beats)
		if !bytes.Equal(got, c.want) {
			t.Errorf("SongPosition(%d) = % X, want % X", c.beats, got, c.want)
		}
	}
}

func TestSongPositionRoundTrip(t *testing.T) {
	for _, beats := range []int{0, 1, 63, 64, 130, 8191, 16383} {
		got, ok := ParseSongPosition(SongPosition(beats))
		if !ok || got != beats {
			t.Errorf("round trip of %d gave %d, ok=%v", beats, got, ok)
		}
	}
}

func TestParseSongPositionRejectsMalformed(t *testing.T) {
	bad := [][]byte{
		nil,
		{0xF2},
		{0xF2, 0x02},
		{0xF2, 0x02, 0x01, 0x00},
		{0xF3, 0x02, 0x01},
		{0xF2, 0x80, 0x01},
		{0xF2, 0x02, 0x81},
	}
	for _, b := range bad {
		if _, ok := ParseSongPosition(b); ok {
			t.Errorf("ParseSongPosition(% X) accepted malformed input", b)
		}
	}
}
