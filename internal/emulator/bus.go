package emulator

import (
	"context"
	"errors"

	"github.com/danmuck/nanosign/internal/device"
	"github.com/danmuck/nanosign/internal/prompt"
	"github.com/danmuck/nanosign/internal/protocol"
)

var (
	ErrBusClosed  = errors.New("emulator: bus closed")
	ErrButtonDrop = errors.New("emulator: button queue full")
)

// Bus is the single event channel between transports and the device loop.
type Bus struct {
	exchanges chan device.Event
	presses   chan prompt.Button
	done      chan struct{}
}

var _ device.Comm = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{
		exchanges: make(chan device.Event),
		presses:   make(chan prompt.Button, 16),
		done:      make(chan struct{}),
	}
}

// Next hands the device loop its next exchange or button press.
func (b *Bus) Next(ctx context.Context) (device.Event, error) {
	select {
	case <-ctx.Done():
		return device.Event{}, ctx.Err()
	case <-b.done:
		return device.Event{}, ErrBusClosed
	case ev := <-b.exchanges:
		return ev, nil
	case p := <-b.presses:
		return device.Event{Button: p}, nil
	}
}

// Presses feeds a prompt.Buttons confirmer. While a prompt is open the
// device loop is blocked inside it, so presses go to the prompt instead
// of Next.
func (b *Bus) Presses() <-chan prompt.Button {
	return b.presses
}

// Done is closed once the bus is closed.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Exchange submits one raw command and waits for its reply.
func (b *Bus) Exchange(ctx context.Context, raw []byte) (protocol.Reply, error) {
	replies := make(chan protocol.Reply, 1)
	ev := device.Event{APDU: raw, Reply: func(r protocol.Reply) { replies <- r }}
	select {
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	case <-b.done:
		return protocol.Reply{}, ErrBusClosed
	case b.exchanges <- ev:
	}
	select {
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	case <-b.done:
		return protocol.Reply{}, ErrBusClosed
	case r := <-replies:
		return r, nil
	}
}

// Press queues a button press without blocking.
func (b *Bus) Press(p prompt.Button) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.presses <- p:
		return nil
	default:
		return ErrButtonDrop
	}
}

// Close stops Next and fails pending exchanges. It is idempotent.
func (b *Bus) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}
