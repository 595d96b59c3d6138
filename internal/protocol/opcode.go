package protocol

import "fmt"

// Opcode selects the command carried by an APDU (the INS byte).
type Opcode uint8

const (
	OpGetPublicKey   Opcode = 0x02
	OpSign           Opcode = 0x03
	OpShowMenu       Opcode = 0x04
	OpShowPrivateKey Opcode = 0x05 // diagnostic, gated by configuration
	OpExit           Opcode = 0xFF
)

// OpcodeNames maps opcodes to names for logging and metrics labels.
var OpcodeNames = map[Opcode]string{
	OpGetPublicKey:   "get-public-key",
	OpSign:           "sign",
	OpShowMenu:       "show-menu",
	OpShowPrivateKey: "show-private-key",
	OpExit:           "exit",
}

func (o Opcode) String() string {
	if name, ok := OpcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%02X)", uint8(o))
}

// Known reports whether o is in the opcode table.
func (o Opcode) Known() bool {
	_, ok := OpcodeNames[o]
	return ok
}
