package protocol

import "fmt"

// Status is the two-byte status word appended to every reply.
type Status uint16

const (
	StatusOK                Status = 0x9000
	StatusMoreData          Status = 0x6100
	StatusNothingReceived   Status = 0x6982
	StatusProtocolViolation Status = 0x6985
	StatusRejected          Status = 0x6A80
	StatusBadCla            Status = 0x6E00
	StatusBadIns            Status = 0x6E01
	StatusBadLen            Status = 0x6E03
	StatusUnknown           Status = 0x6D00
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMoreData:
		return "more data"
	case StatusNothingReceived:
		return "nothing received"
	case StatusProtocolViolation:
		return "protocol violation"
	case StatusRejected:
		return "rejected"
	case StatusBadCla:
		return "bad class"
	case StatusBadIns:
		return "bad instruction"
	case StatusBadLen:
		return "bad length"
	case StatusUnknown:
		return "unknown error"
	default:
		return fmt.Sprintf("status 0x%04X", uint16(s))
	}
}

// Success reports whether s completes an exchange without error.
// MoreData is a success that asks the host to keep reading.
func (s Status) Success() bool {
	return s == StatusOK || s == StatusMoreData
}
