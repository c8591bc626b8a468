package wire

import (
	"bytes"
	"testing"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

func TestDeviceIDsMatchContracts(t *testing.T) {
	if DeviceBroadcast != contracts.DeviceBroadcast {
		t.Fatalf("DeviceBroadcast = %#02x, contracts has %#02x", DeviceBroadcast, contracts.DeviceBroadcast)
	}
	if DeviceAcceptAny != contracts.DeviceAcceptAny {
		t.Fatalf("DeviceAcceptAny = %#02x, contracts has %#02x", DeviceAcceptAny, contracts.DeviceAcceptAny)
	}
}

func TestBuildMMCLocateExample(t *testing.T) {
	// Locate for order 12, row 40, plain target, device 0.
	want := []byte{0xF0, 0x7F, 0x00, 0x06, 0x44, 0x06, 0x01, 0x0C, 0x28, 0x00, 0x00, 0x00, 0xF7}
	got := BuildMMCLocate(0, LocateTarget, 12, 40)
	if !bytes.Equal(got, want) {
		t.Fatalf("BuildMMCLocate = % X, want % X", got, want)
	}

	msg, ok := ParseMMC(got, 0)
	if !ok {
		t.Fatal("ParseMMC rejected its own output")
	}
	if msg.Command != MMCLocate || msg.Kind != LocateTarget || msg.Order != 12 || msg.Row != 40 {
		t.Fatalf("decoded %+v, want locate target order=12 row=40", msg)
	}
}

func TestMMCRoundTrip(t *testing.T) {
	commands := []MMCCommand{MMCStop, MMCPlay, MMCPause, MMCRecordStrobe, MMCRecordExit}
	for _, cmd := range commands {
		frame := BuildMMC(5, cmd)
		msg, ok := ParseMMC(frame, 5)
		if !ok {
			t.Errorf("command %#02x: frame rejected", byte(cmd))
			continue
		}
		if msg.Command != cmd || msg.Device != 5 {
			t.Errorf("command %#02x: decoded %+v", byte(cmd), msg)
		}
	}
}

func TestMMCLocateKinds(t *testing.T) {
	for _, kind := range []LocateKind{LocateTarget, LocateLoopStart, LocateLoopEnd} {
		msg, ok := ParseMMC(BuildMMCLocate(3, kind, 7, 31), 3)
		if !ok || msg.Kind != kind {
			t.Errorf("kind %#02x: got %+v, ok=%v", byte(kind), msg, ok)
		}
	}
}

func TestMMCLocateClampsFields(t *testing.T) {
	msg, ok := ParseMMC(BuildMMCLocate(0, LocateTarget, 300, -4), 0)
	if !ok {
		t.Fatal("frame rejected")
	}
	if msg.Order != 127 || msg.Row != 0 {
		t.Fatalf("got order=%d row=%d, want clamped 127/0", msg.Order, msg.Row)
	}
}

func TestMMCAddressing(t *testing.T) {
	frame := BuildMMC(5, MMCPlay)

	if _, ok := ParseMMC(frame, 5); !ok {
		t.Error("frame addressed to own device was rejected")
	}
	// Valid MMC for another device is ignored, not an error.
	if _, ok := ParseMMC(frame, 6); ok {
		t.Error("frame addressed to another device was dispatched")
	}
	if _, ok := ParseMMC(BuildMMC(DeviceBroadcast, MMCPlay), 6); !ok {
		t.Error("broadcast frame was rejected")
	}
}

func TestParseMMCRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"too short", []byte{0xF0, 0x7F, 0x00, 0x06, 0xF7}},
		{"missing end byte", []byte{0xF0, 0x7F, 0x00, 0x06, 0x02, 0x00}},
		{"wrong universal id", []byte{0xF0, 0x7E, 0x00, 0x06, 0x02, 0xF7}},
		{"wrong sub id", []byte{0xF0, 0x7F, 0x00, 0x07, 0x02, 0xF7}},
		{"unknown command", []byte{0xF0, 0x7F, 0x00, 0x06, 0x55, 0xF7}},
		{"truncated locate", []byte{0xF0, 0x7F, 0x00, 0x06, 0x44, 0x06, 0x01, 0x0C, 0xF7}},
		{"locate wrong count", []byte{0xF0, 0x7F, 0x00, 0x06, 0x44, 0x05, 0x01, 0x0C, 0x28, 0x00, 0x00, 0x00, 0xF7}},
		{"transport with payload", []byte{0xF0, 0x7F, 0x00, 0x06, 0x02, 0x00, 0xF7}},
	}
	for _, c := range cases {
		if _, ok := ParseMMC(c.frame, 0); ok {
			t.Errorf("%s: accepted % X", c.name, c.frame)
		}
	}
}
