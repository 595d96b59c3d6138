// Package device owns the command cell and decides, for every inbound
// chunk, whether it starts a command, resumes the one in flight, or is a
// protocol violation. Every failure leaves the cell Idle.
package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/nanosign/internal/command"
	"github.com/danmuck/nanosign/internal/observability"
	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/prompt"
	"github.com/danmuck/nanosign/internal/protocol"
	"github.com/rs/zerolog"
)

// Config is the dispatch policy.
type Config struct {
	// Class is the CLA byte commands must carry.
	Class uint8
	// ChunkSize caps the data bytes in one reply; longer responses page
	// with StatusMoreData.
	ChunkSize int
	// DebugCommands enables diagnostic opcodes such as show-private-key.
	DebugCommands bool
}

func DefaultConfig() Config {
	return Config{Class: protocol.DefaultClass, ChunkSize: protocol.MaxChunkLen}
}

var menuScreen = prompt.Screen{Title: "nanosign", Body: "get-public-key\nsign"}

// Device is the context object threaded through dispatch: configuration,
// the one command cell, and the collaborators commands call out to.
// It is not safe for concurrent use; one goroutine runs every exchange.
type Device struct {
	cfg     Config
	cell    *command.Cell
	display prompt.Display
	log     zerolog.Logger
	exit    bool
}

// New allocates the command cell once. env.Display may be nil.
func New(cfg Config, env command.Env, logger zerolog.Logger) *Device {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > command.ResponseCap {
		cfg.ChunkSize = protocol.MaxChunkLen
	}
	return &Device{
		cfg:     cfg,
		cell:    command.NewCell(env),
		display: env.Display,
		log:     logger.With().Str("component", "device").Logger(),
	}
}

// Busy reports the opcode of the command in flight.
func (d *Device) Busy() (protocol.Opcode, bool) {
	return d.cell.Busy()
}

// ExitRequested reports whether the host sent the exit opcode.
func (d *Device) ExitRequested() bool {
	return d.exit
}

// Exchange handles one raw command and always returns a reply.
func (d *Device) Exchange(raw []byte) protocol.Reply {
	start := time.Now()
	reply, op, err := d.dispatch(raw)
	if err != nil {
		reply = protocol.Reply{Status: StatusFor(err)}
		d.log.Warn().Err(err).
			Str("opcode", op.String()).
			Str("status", reply.Status.String()).
			Msg("exchange failed")
	} else {
		d.log.Debug().
			Str("opcode", op.String()).
			Str("status", reply.Status.String()).
			Int("reply_len", len(reply.Data)).
			Str("step", d.cell.Step()).
			Msg("exchange")
	}
	_, busy := d.cell.Busy()
	observability.SetCellBusy(busy)
	observability.RecordExchange(op.String(), fmt.Sprintf("0x%04X", uint16(reply.Status)), time.Since(start))
	return reply
}

// Cancel abandons the command in flight without running its remaining steps.
func (d *Device) Cancel() {
	op, busy := d.cell.Busy()
	if !busy {
		return
	}
	d.abort(op, "cancelled")
	d.log.Info().Str("opcode", op.String()).Msg("command cancelled on device")
}

func (d *Device) dispatch(raw []byte) (protocol.Reply, protocol.Opcode, error) {
	active, busy := d.cell.Busy()
	if len(raw) == 0 {
		if busy {
			d.abort(active, "violation")
		}
		return protocol.Reply{}, active, ErrNothingReceived
	}
	cmd, err := protocol.ParseCommand(raw)
	if err != nil {
		if busy {
			d.abort(active, "violation")
		}
		return protocol.Reply{}, active, fmt.Errorf("%w: %v", ErrBadLength, err)
	}
	op := cmd.Header.Opcode
	if cmd.Header.Class != d.cfg.Class {
		if busy {
			d.abort(active, "violation")
		}
		return protocol.Reply{}, op, fmt.Errorf("%w: 0x%02X", ErrBadClass, cmd.Header.Class)
	}

	if busy {
		if op != active {
			d.abort(active, "violation")
			return protocol.Reply{}, op, fmt.Errorf("%w: %s chunk while %s in flight", ErrProtocolViolation, op, active)
		}
		if !cmd.Continuation() {
			d.abort(active, "violation")
			return protocol.Reply{}, op, fmt.Errorf("%w: first chunk for %s while one is in flight", ErrProtocolViolation, op)
		}
		if d.cell.Emitting() {
			return d.emit(), op, nil
		}
		reply, err := d.advance(op, cmd.Data)
		return reply, op, err
	}

	if cmd.Continuation() {
		return protocol.Reply{}, op, fmt.Errorf("%w: continuation for %s with no command in flight", ErrProtocolViolation, op)
	}
	switch op {
	case protocol.OpExit:
		d.exit = true
		d.log.Info().Msg("exit requested by host")
		return protocol.Reply{Status: protocol.StatusOK}, op, nil
	case protocol.OpShowMenu:
		if d.display != nil {
			d.display.Show(menuScreen)
		}
		return protocol.Reply{Status: protocol.StatusOK}, op, nil
	case protocol.OpShowPrivateKey:
		if !d.cfg.DebugCommands {
			return protocol.Reply{}, op, fmt.Errorf("%w: %s disabled", ErrBadInstruction, op)
		}
	}
	if !command.Supports(op) {
		return protocol.Reply{}, op, fmt.Errorf("%w: %s", ErrBadInstruction, op)
	}
	if len(cmd.Data) == 0 {
		return protocol.Reply{}, op, fmt.Errorf("%w: %s with empty payload", ErrNothingReceived, op)
	}
	if err := d.cell.Start(op); err != nil {
		return protocol.Reply{}, op, err
	}
	d.log.Debug().Str("opcode", op.String()).Msg("command started")
	reply, err := d.advance(op, cmd.Data)
	return reply, op, err
}

func (d *Device) advance(op protocol.Opcode, data []byte) (protocol.Reply, error) {
	chunks := d.cell.Chunks() + 1
	err := d.cell.Advance(data)
	switch {
	case err == nil:
		observability.RecordCommand(op.String(), "done", chunks)
		return d.emit(), nil
	case errors.Is(err, parser.ErrNeedMore):
		return protocol.Reply{Status: protocol.StatusOK}, nil
	case errors.Is(err, parser.ErrRejected):
		observability.RecordCommand(op.String(), "rejected", chunks)
		d.showIdle()
		return protocol.Reply{}, err
	default:
		d.abort(op, "failed")
		return protocol.Reply{}, err
	}
}

func (d *Device) emit() protocol.Reply {
	data, more := d.cell.Emit(d.cfg.ChunkSize)
	if more {
		return protocol.Reply{Data: data, Status: protocol.StatusMoreData}
	}
	return protocol.Reply{Data: data, Status: protocol.StatusOK}
}

func (d *Device) abort(op protocol.Opcode, outcome string) {
	observability.RecordCommand(op.String(), outcome, d.cell.Chunks())
	d.cell.Clear()
	d.showIdle()
}

func (d *Device) showIdle() {
	if d.display != nil {
		d.display.Show(prompt.Idle)
	}
}
