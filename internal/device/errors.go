package device

import (
	"errors"

	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/protocol"
)

var (
	ErrNothingReceived   = errors.New("device: nothing received")
	ErrProtocolViolation = errors.New("device: protocol violation")
	ErrBadClass          = errors.New("device: unsupported class")
	ErrBadInstruction    = errors.New("device: unsupported instruction")
	ErrBadLength         = errors.New("device: malformed command")
	ErrExit              = errors.New("device: exit requested")
)

// StatusFor maps a dispatch error onto the status word sent to the host.
// Details stay in the log; the wire only carries the status.
func StatusFor(err error) protocol.Status {
	switch {
	case err == nil:
		return protocol.StatusOK
	case errors.Is(err, ErrNothingReceived):
		return protocol.StatusNothingReceived
	case errors.Is(err, ErrBadClass):
		return protocol.StatusBadCla
	case errors.Is(err, ErrBadInstruction):
		return protocol.StatusBadIns
	case errors.Is(err, ErrBadLength):
		return protocol.StatusBadLen
	case errors.Is(err, ErrProtocolViolation):
		return protocol.StatusProtocolViolation
	case errors.Is(err, parser.ErrRejected):
		return protocol.StatusRejected
	default:
		return protocol.StatusUnknown
	}
}
