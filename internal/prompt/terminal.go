package prompt

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Terminal asks on a TTY and reads a single y/n keypress in raw mode.
// When In is not a terminal it falls back to line input.
type Terminal struct {
	In  *os.File
	Out io.Writer
}

// NewTerminal prompts on the process's stdin and stderr.
func NewTerminal() Terminal {
	return Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t Terminal) Show(s Screen) {
	fmt.Fprintf(t.Out, "\n== %s ==\n", s.Title)
	for _, line := range Wrap(s.Body, 16) {
		fmt.Fprintf(t.Out, "   %s\n", line)
	}
}

func (t Terminal) Confirm(s Screen) bool {
	t.Show(s)
	fmt.Fprint(t.Out, "approve? [y/N] ")
	ok, err := t.readKey()
	if err != nil {
		log.Warn().Err(err).Str("screen", s.Title).Msg("prompt input failed; declining")
		return false
	}
	if ok {
		fmt.Fprintln(t.Out, "approved")
	} else {
		fmt.Fprintln(t.Out, "declined")
	}
	return ok
}

func (t Terminal) readKey() (bool, error) {
	fd := int(t.In.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return false, err
		}
		defer term.Restore(fd, state)
	}
	var buf [1]byte
	for {
		if _, err := t.In.Read(buf[:]); err != nil {
			return false, err
		}
		switch buf[0] {
		case 'y', 'Y':
			return true, nil
		case '\r', '\n', ' ':
			if !term.IsTerminal(fd) {
				continue
			}
			return false, nil
		default:
			return false, nil
		}
	}
}
