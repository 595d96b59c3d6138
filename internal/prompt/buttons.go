package prompt

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Button is a physical key on the device.
type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonBoth
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonBoth:
		return "both"
	default:
		return fmt.Sprintf("button(%d)", uint8(b))
	}
}

// ParseButton accepts left, right or both (case-insensitive).
func ParseButton(raw string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "left", "l":
		return ButtonLeft, nil
	case "right", "r":
		return ButtonRight, nil
	case "both", "b":
		return ButtonBoth, nil
	default:
		return 0, fmt.Errorf("prompt: unknown button %q", raw)
	}
}

// Buttons confirms from a stream of button presses: right or both accept,
// left declines. A closed stream or a closed Done declines.
type Buttons struct {
	Presses <-chan Button
	Done    <-chan struct{}
	Display Display
}

func (b Buttons) Confirm(s Screen) bool {
	if b.Display != nil {
		b.Display.Show(s)
	}
	defer func() {
		if b.Display != nil {
			b.Display.Show(Idle)
		}
	}()
	for {
		select {
		case <-b.Done:
			log.Debug().Str("screen", s.Title).Msg("prompt abandoned on shutdown")
			return false
		case press, ok := <-b.Presses:
			if !ok {
				return false
			}
			switch press {
			case ButtonRight, ButtonBoth:
				log.Debug().Str("screen", s.Title).Str("button", press.String()).Msg("prompt accepted")
				return true
			case ButtonLeft:
				log.Debug().Str("screen", s.Title).Msg("prompt declined")
				return false
			}
		}
	}
}
