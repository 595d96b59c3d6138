package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrShortHeader     = errors.New("protocol: short command header")
	ErrLengthMismatch  = errors.New("protocol: lc does not match data length")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
	ErrShortReply      = errors.New("protocol: short reply")
)

// StatusError is a non-success status word returned by the device.
type StatusError struct {
	Opcode Opcode
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%04X)", e.Opcode, e.Status, uint16(e.Status))
}

// IsStatus reports whether err is a StatusError carrying status.
func IsStatus(err error, status Status) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == status
}
