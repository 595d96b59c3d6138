package protocol

const (
	// HeaderLen is CLA INS P1 P2 Lc.
	HeaderLen = 5

	// MaxChunkLen is the largest data field one command can carry.
	MaxChunkLen = 255

	// DefaultClass is the CLA byte the device answers to.
	DefaultClass uint8 = 0x80
)

// P1 chunk flags.
const (
	P1First    uint8 = 0x00
	P1Continue uint8 = 0x80
)

// Header is the fixed command header.
type Header struct {
	Class  uint8
	Opcode Opcode
	P1     uint8
	P2     uint8
	Lc     uint8
}

// Command is one inbound chunk.
type Command struct {
	Header Header
	Data   []byte
}

// Continuation reports whether the host flagged this chunk as resuming a
// command already in flight.
func (c Command) Continuation() bool {
	return c.Header.P1&P1Continue != 0
}

// Reply is one outbound chunk: response bytes plus a status word.
type Reply struct {
	Data   []byte
	Status Status
}
