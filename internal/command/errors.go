package command

import (
	"errors"
	"fmt"
)

var (
	ErrDeclined      = errors.New("command: declined by user")
	ErrCellBusy      = errors.New("command: cell busy")
	ErrCellIdle      = errors.New("command: cell idle")
	ErrUnknownOpcode = errors.New("command: no task for opcode")
)

// FatalFault is a programming error inside the device. It is raised with
// panic and never returned.
type FatalFault struct {
	Reason string
}

func (f *FatalFault) Error() string {
	return fmt.Sprintf("command: fatal fault: %s", f.Reason)
}

func fault(format string, args ...any) {
	panic(&FatalFault{Reason: fmt.Sprintf(format, args...)})
}
