package command

import (
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/prompt"
)

// Env is what tasks may call out to.
type Env struct {
	Crypto  crypto.Service
	Confirm prompt.Confirmer
	Display prompt.Display
}

// Task advances one command by as many steps as the cursor allows.
//
// Advance returns nil once the result is in out, parser.ErrNeedMore when
// the next step is waiting on input, and a rejection otherwise.
// Reset returns the task to its first step and wipes everything it holds.
type Task interface {
	Advance(c *parser.Cursor, out *Response) error
	Reset()
	Step() string
}

func (e *Env) confirm(s prompt.Screen) error {
	if e.Confirm.Confirm(s) {
		return nil
	}
	return parser.AsReject(s.Title, ErrDeclined)
}
