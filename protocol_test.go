package pima

import (
	"bytes"
	"testing"
)

func TestEncodeLoginCode(t *testing.T) {
	got := encodeLoginCode("1234")
	want := [6]byte{0x01, 0x02, 0x03, 0x04, 0xff, 0xff}
	if got != want {
		t.Errorf("encodeLoginCode(1234) = % X, want % X", got, want)
	}
}

func TestIsValidLoginCode(t *testing.T) {
	cases := map[string]bool{
		"1234":    true,
		"123456":  true,
		"123":     false,
		"1234567": false,
		"12a4":    false,
	}
	for code, want := range cases {
		if got := IsValidLoginCode(code); got != want {
			t.Errorf("IsValidLoginCode(%q) = %v, want %v", code, got, want)
		}
	}
}

// TestLoginEmitsExpectedFrame drives the Engine against a fake transport
// and checks the outbound WRITE/LOGIN frame shape (E2).
func TestLoginEmitsExpectedFrame(t *testing.T) {
	capacity := HP32
	idlePayload := []byte{capacity.ModuleID(), byte(MsgStatus), byte(ChanIdle), 0}
	idleFrame := wrapFrame(idlePayload)

	statusPayload := buildSystemStatusPayload(0, 0x01)
	statusFrame := wrapFrame(statusPayload)

	ft := newFakeTransport(append(append([]byte{}, idleFrame...), statusFrame...))
	e := NewEngine(ft, capacity)

	rec, err := e.Login("1234")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !rec.LoggedIn {
		t.Errorf("rec.LoggedIn = false, want true")
	}

	if len(ft.written) < 1 {
		t.Fatalf("expected at least one write, got %d", len(ft.written))
	}
	loginFrame := ft.written[0]
	payload := loginFrame[1 : len(loginFrame)-2]
	if payload[1] != byte(MsgWrite) || payload[2] != byte(ChanLogin) {
		t.Errorf("login frame message/channel = %02X/%02X, want %02X/%02X", payload[1], payload[2], byte(MsgWrite), byte(ChanLogin))
	}
	wantData := []byte{1, 2, 3, 4, 0xff, 0xff}
	data := payload[4:]
	if !bytes.Equal(data, wantData) {
		t.Errorf("login frame data = % X, want % X", data, wantData)
	}
}

// TestArmEmitsExpectedFrame checks the CLOSE/SYSTEM frame shape for a
// multi-partition full arm (E3).
func TestArmEmitsExpectedFrame(t *testing.T) {
	capacity := HP32
	idlePayload := []byte{capacity.ModuleID(), byte(MsgStatus), byte(ChanIdle), 0}
	idleFrame := wrapFrame(idlePayload)
	statusPayload := buildSystemStatusPayload(0, 0x01)
	statusFrame := wrapFrame(statusPayload)

	ft := newFakeTransport(append(append([]byte{}, idleFrame...), statusFrame...))
	e := NewEngine(ft, capacity)

	_, err := e.Arm(FullArm, []int{1, 3})
	if err != nil {
		t.Fatalf("Arm: %v", err)
	}

	armFrame := ft.written[0]
	payload := armFrame[1 : len(armFrame)-2]
	if payload[1] != byte(MsgClose) || payload[2] != byte(ChanSystem) {
		t.Errorf("arm frame message/channel = %02X/%02X, want %02X/%02X", payload[1], payload[2], byte(MsgClose), byte(ChanSystem))
	}
	addrLen := payload[3]
	addr := payload[4 : 4+addrLen]
	if !bytes.Equal(addr, []byte{0x05, 0x00}) {
		t.Errorf("arm frame addr = % X, want 05 00", addr)
	}
	data := payload[4+addrLen:]
	if !bytes.Equal(data, []byte{byte(FullArm)}) {
		t.Errorf("arm frame data = % X, want %02X", data, byte(FullArm))
	}
}

// wrapFrame prefixes a length byte and appends the CRC-16, producing a
// full wire frame from a raw payload.
func wrapFrame(payload []byte) []byte {
	frame := make([]byte, 0, 1+len(payload)+2)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, payload...)
	sum := crc16(frame, 0)
	frame = append(frame, byte(sum>>8), byte(sum))
	return frame
}
