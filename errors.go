package pima

import "fmt"

// TransportOpenError indicates the serial device or TCP endpoint could not
// be acquired at startup.
type TransportOpenError struct {
	Addr string
	Err  error
}

func (e *TransportOpenError) Error() string {
	return fmt.Sprintf("pima: open transport %s: %v", e.Addr, e.Err)
}

func (e *TransportOpenError) Unwrap() error { return e.Err }

// GarbageInput is raised when a read frame is a single repeated byte
// rather than a real panel reply.
type GarbageInput struct {
	Length int
}

func (e *GarbageInput) Error() string {
	return fmt.Sprintf("pima: garbage input, length=%d", e.Length)
}

// ShortFrame is raised when fewer than L+3 bytes were read for a frame
// whose length byte announced L.
type ShortFrame struct {
	Want, Got int
}

func (e *ShortFrame) Error() string {
	return fmt.Sprintf("pima: short frame, want %d bytes got %d", e.Want, e.Got)
}

// CrcError is raised when the trailing CRC-16 does not match the frame body.
type CrcError struct {
	Want, Got uint16
}

func (e *CrcError) Error() string {
	return fmt.Sprintf("pima: crc mismatch, want %04X got %04X", e.Want, e.Got)
}

// ModuleIdMismatch is raised when payload[0] is not the expected module ID
// for the configured zone capacity.
type ModuleIdMismatch struct {
	Want, Got byte
}

func (e *ModuleIdMismatch) Error() string {
	return fmt.Sprintf("pima: module id mismatch, want %02X got %02X", e.Want, e.Got)
}

// InvalidMessage is raised when a reply's message kind does not match what
// the caller expected (e.g. a non-STATUS reply to get_status).
type InvalidMessage struct {
	Got byte
}

func (e *InvalidMessage) Error() string {
	return fmt.Sprintf("pima: invalid message kind %02X", e.Got)
}

// InvalidStatus is raised when a STATUS reply arrives on a channel other
// than IDLE or SYSTEM.
type InvalidStatus struct {
	Channel byte
}

func (e *InvalidStatus) Error() string {
	return fmt.Sprintf("pima: invalid status channel %02X", e.Channel)
}

// InvalidAddress is raised when a SYSTEM/STATUS frame's address field is
// not the full-dump marker 0x02 0x00 0x00.
type InvalidAddress struct {
	Got []byte
}

func (e *InvalidAddress) Error() string {
	return fmt.Sprintf("pima: invalid status address % X", e.Got)
}

// InvalidArmMode is raised when a caller requests an ArmMode outside the
// enum. It carries no recovery action; the supervisor is not rebuilt.
type InvalidArmMode struct {
	Got byte
}

func (e *InvalidArmMode) Error() string {
	return fmt.Sprintf("pima: invalid arm mode %02X", e.Got)
}

// Unauthorized is a boundary-layer error: the caller's api_key did not
// match the configured secret.
type Unauthorized struct{}

func (e *Unauthorized) Error() string { return "pima: unauthorized" }

// BadRequest is a boundary-layer error: the caller's request body could not
// be parsed or was missing required fields.
type BadRequest struct {
	Reason string
}

func (e *BadRequest) Error() string { return "pima: bad request: " + e.Reason }
