package pima

import (
	"regexp"
	"time"
)

// loginCodePattern validates the caller-supplied login code: 4 to 6
// decimal digits, per the panel's documented keypad code length.
var loginCodePattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// IsValidLoginCode reports whether s is an acceptable panel login code.
func IsValidLoginCode(s string) bool {
	return loginCodePattern.MatchString(s)
}

// Engine is the stateless request builder and typed response parser for
// the protocol's WRITE/OPEN/CLOSE/STATUS operations; no Engine operation
// sends READ. It owns no
// transport lifecycle of its own; the Supervisor is responsible for
// opening, closing and rebuilding the Transport it is handed here.
type Engine struct {
	Transport Transport
	Capacity  ZoneCapacity
}

// NewEngine builds a protocol engine bound to an already-open transport.
func NewEngine(t Transport, capacity ZoneCapacity) *Engine {
	return &Engine{Transport: t, Capacity: capacity}
}

// settle sleeps the mandatory 1 second the panel needs after any command
// other than STATUS before it will accept the next one.
func (e *Engine) settle(message MessageKind) {
	if message != MsgStatus {
		time.Sleep(1 * time.Second)
	}
}

// send encodes and writes a single command frame, then applies the
// settle delay this message kind requires.
func (e *Engine) send(message MessageKind, channel ChannelKind, addr, data []byte) error {
	frame := encodeFrame(e.Capacity.ModuleID(), message, channel, addr, data)
	if err := e.Transport.Write(frame); err != nil {
		return err
	}
	e.settle(message)
	return nil
}

// encodeLoginCode renders a 4-6 digit decimal code as up to 6 BCD-like
// bytes (one byte per digit, value 0..9), right-padded with 0xFF to 6
// bytes total.
func encodeLoginCode(code string) [6]byte {
	var out [6]byte
	for i := range out {
		out[i] = 0xff
	}
	for i := 0; i < len(code) && i < 6; i++ {
		out[i] = code[i] - '0'
	}
	return out
}

// drainRead discards whatever unsolicited frame the panel currently has
// buffered, recovering from GarbageInput the same way GetStatus does.
func (e *Engine) drainRead() error {
	for {
		_, err := decodeFrame(e.Transport, e.Capacity.ModuleID())
		if err == nil {
			return nil
		}
		if _, ok := err.(*GarbageInput); ok {
			if derr := drainGarbage(e.Transport); derr != nil {
				return derr
			}
			continue
		}
		return err
	}
}

// Login sends the panel's configured access code and returns the status
// that follows. code must satisfy IsValidLoginCode.
func (e *Engine) Login(code string) (*StatusRecord, error) {
	if err := e.drainRead(); err != nil {
		return nil, err
	}
	data := encodeLoginCode(code)
	if err := e.send(MsgWrite, ChanLogin, nil, data[:]); err != nil {
		return nil, err
	}
	return e.GetStatus()
}

// GetStatus reads the frame currently buffered from the panel, interprets
// it, and requests the next status frame before returning.
func (e *Engine) GetStatus() (*StatusRecord, error) {
	var payload []byte
	for {
		p, err := decodeFrame(e.Transport, e.Capacity.ModuleID())
		if err != nil {
			if _, ok := err.(*GarbageInput); ok {
				if derr := drainGarbage(e.Transport); derr != nil {
					return nil, derr
				}
				continue
			}
			return nil, err
		}
		payload = p
		break
	}

	if err := e.send(MsgStatus, ChanIdle, nil, nil); err != nil {
		return nil, err
	}

	if len(payload) < 3 {
		return nil, &ShortFrame{Want: 3, Got: len(payload)}
	}
	msgKind := MessageKind(payload[1])
	channel := ChannelKind(payload[2])

	if msgKind != MsgStatus {
		return nil, &InvalidMessage{Got: byte(msgKind)}
	}

	switch channel {
	case ChanIdle:
		return &StatusRecord{LoggedIn: false}, nil
	case ChanSystem:
		if len(payload) < 6 || payload[3] != 0x02 || payload[4] != 0x00 || payload[5] != 0x00 {
			got := []byte{}
			if len(payload) >= 6 {
				got = payload[3:6]
			}
			return nil, &InvalidAddress{Got: got}
		}
		return parseStatusBody(e.Capacity, payload)
	default:
		return nil, &InvalidStatus{Channel: byte(channel)}
	}
}

// Arm sends an OPEN (disarm) or CLOSE (arm) command for mode against the
// given 1-based partition set, then returns the resulting status.
func (e *Engine) Arm(mode ArmMode, partitions []int) (*StatusRecord, error) {
	if mode != Disarm && mode != FullArm && mode != Home1 && mode != Home2 {
		return nil, &InvalidArmMode{Got: byte(mode)}
	}
	if err := e.drainRead(); err != nil {
		return nil, err
	}

	addrVal := PartitionsToAddr(partitions)
	addr := []byte{byte(addrVal), byte(addrVal >> 8)}

	message := MsgClose
	if mode == Disarm {
		message = MsgOpen
	}
	if err := e.send(message, ChanSystem, addr, []byte{byte(mode)}); err != nil {
		return nil, err
	}
	return e.GetStatus()
}
