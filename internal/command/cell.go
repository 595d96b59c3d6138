package command

import (
	"errors"
	"fmt"

	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/protocol"
)

// Cell is the one slot for the command in flight. It is Idle or Busy with a
// single opcode; every task variant has storage here so starting a command
// never allocates and a suspended task never moves.
type Cell struct {
	env Env
	g   *grammars

	getAddress GetAddress
	sign       Sign
	showKey    ShowPrivateKey

	active Task
	op     protocol.Opcode
	chunks int

	resp     Response
	emitting bool
	emitted  int
}

// NewCell builds the grammars and task storage once.
func NewCell(env Env) *Cell {
	c := &Cell{env: env, g: newGrammars(env.Crypto.NewHasher)}
	c.getAddress = GetAddress{env: &c.env, g: c.g}
	c.sign = Sign{env: &c.env, g: c.g}
	c.showKey = ShowPrivateKey{env: &c.env, g: c.g}
	c.getAddress.Reset()
	c.sign.Reset()
	c.showKey.Reset()
	return c
}

// Busy reports the opcode in flight, if any.
func (c *Cell) Busy() (protocol.Opcode, bool) {
	return c.op, c.active != nil
}

// Step names the active task's next step, or "idle".
func (c *Cell) Step() string {
	if c.active == nil {
		return "idle"
	}
	return c.active.Step()
}

// Chunks counts the chunks the active command has consumed.
func (c *Cell) Chunks() int {
	return c.chunks
}

// Supports reports whether op has a task.
func Supports(op protocol.Opcode) bool {
	switch op {
	case protocol.OpGetPublicKey, protocol.OpSign, protocol.OpShowPrivateKey:
		return true
	default:
		return false
	}
}

// Start moves an Idle cell to Busy(op).
func (c *Cell) Start(op protocol.Opcode) error {
	if c.active != nil {
		return fmt.Errorf("%w: %s in flight", ErrCellBusy, c.op)
	}
	var t Task
	switch op {
	case protocol.OpGetPublicKey:
		t = &c.getAddress
	case protocol.OpSign:
		t = &c.sign
	case protocol.OpShowPrivateKey:
		t = &c.showKey
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
	}
	t.Reset()
	c.resp.Reset()
	c.active, c.op, c.chunks = t, op, 0
	c.emitting, c.emitted = false, 0
	return nil
}

// Advance feeds one chunk to the active task.
//
// nil means the task finished and its response is ready for Emit.
// parser.ErrNeedMore means it is waiting for the next chunk. Any other
// error has already cleared the cell.
func (c *Cell) Advance(chunk []byte) error {
	if c.active == nil {
		return ErrCellIdle
	}
	if c.emitting {
		return nil
	}
	c.chunks++
	cur := parser.NewCursor(chunk)
	err := c.active.Advance(&cur, &c.resp)
	switch {
	case err == nil:
		c.emitting = true
		return nil
	case errors.Is(err, parser.ErrNeedMore):
		return err
	default:
		c.Clear()
		return err
	}
}

// Emitting reports whether the active task has finished and has output left.
func (c *Cell) Emitting() bool {
	return c.active != nil && c.emitting
}

// Emit returns up to max bytes of the finished response and whether more
// remain. The returned slice is a copy. After the last slice the cell is
// cleared.
func (c *Cell) Emit(max int) ([]byte, bool) {
	if !c.Emitting() {
		return nil, false
	}
	if max <= 0 {
		fault("emit with non-positive max %d", max)
	}
	all := c.resp.Bytes()
	end := min(c.emitted+max, len(all))
	out := append([]byte(nil), all[c.emitted:end]...)
	c.emitted = end
	more := end < len(all)
	if !more {
		c.Clear()
	}
	return out, more
}

// Clear wipes the active task and response and returns the cell to Idle.
func (c *Cell) Clear() {
	if c.active != nil {
		c.active.Reset()
	}
	c.resp.Reset()
	c.active, c.op, c.chunks = nil, 0, 0
	c.emitting, c.emitted = false, 0
}
