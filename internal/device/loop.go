package device

import (
	"context"

	"github.com/danmuck/nanosign/internal/prompt"
	"github.com/danmuck/nanosign/internal/protocol"
)

// Event is one input to the dispatch loop: either a raw command with a
// reply callback, or a button press.
type Event struct {
	APDU   []byte
	Reply  func(protocol.Reply)
	Button prompt.Button
}

// Comm delivers events to the loop one at a time.
type Comm interface {
	Next(ctx context.Context) (Event, error)
}

// Run is the device main loop. It returns ErrExit after the host asks to
// exit, or the context error on shutdown. Pressing both buttons while a
// command waits for its next chunk cancels it.
func (d *Device) Run(ctx context.Context, comm Comm) error {
	if d.display != nil {
		d.display.Show(prompt.Idle)
	}
	for {
		ev, err := comm.Next(ctx)
		if err != nil {
			d.Cancel()
			return err
		}
		if ev.Button != 0 {
			d.button(ev.Button)
			continue
		}
		reply := d.Exchange(ev.APDU)
		if ev.Reply != nil {
			ev.Reply(reply)
		}
		if d.exit {
			d.Cancel()
			return ErrExit
		}
	}
}

func (d *Device) button(b prompt.Button) {
	switch b {
	case prompt.ButtonBoth:
		d.Cancel()
	default:
		d.log.Debug().Str("button", b.String()).Msg("button ignored outside a prompt")
	}
}
