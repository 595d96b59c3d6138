// Package prompt provides the display and confirmation collaborators.
//
// A Confirmer blocks until the user accepts or declines what is on screen.
// Implementations here back the emulator (button events), an interactive
// terminal, and automation.
package prompt

import (
	"strings"
	"sync"
	"time"
)

// Screen is what the device shows while waiting on the user.
type Screen struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Since time.Time `json:"since"`
}

func (s Screen) String() string {
	if s.Body == "" {
		return s.Title
	}
	return s.Title + "\n" + s.Body
}

// Display shows a screen without waiting for input.
type Display interface {
	Show(s Screen)
}

// Confirmer shows a screen and blocks for the user's decision.
type Confirmer interface {
	Confirm(s Screen) bool
}

// Idle is shown whenever no command is waiting on the user.
var Idle = Screen{Title: "nanosign", Body: "ready"}

// Panel keeps the most recent screen for readers such as the HTTP API.
type Panel struct {
	mu      sync.RWMutex
	current Screen
	history []Screen
	keep    int
}

// NewPanel records up to keep past screens.
func NewPanel(keep int) *Panel {
	p := &Panel{keep: keep}
	p.Show(Idle)
	return p
}

func (p *Panel) Show(s Screen) {
	if s.Since.IsZero() {
		s.Since = time.Now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
	if p.keep <= 0 {
		return
	}
	p.history = append(p.history, s)
	if over := len(p.history) - p.keep; over > 0 {
		p.history = append(p.history[:0], p.history[over:]...)
	}
}

// Current returns the screen on display.
func (p *Panel) Current() Screen {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// History returns past screens, oldest first.
func (p *Panel) History() []Screen {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Screen(nil), p.history...)
}

// Fixed answers every prompt the same way.
type Fixed struct {
	Accept  bool
	Display Display
}

func (f Fixed) Confirm(s Screen) bool {
	if f.Display != nil {
		f.Display.Show(s)
	}
	return f.Accept
}

// Func adapts a function to Confirmer.
type Func func(Screen) bool

func (f Func) Confirm(s Screen) bool {
	return f(s)
}

// Wrap splits body into lines of at most width runes, as a small screen scrolls.
func Wrap(body string, width int) []string {
	if width <= 0 {
		return []string{body}
	}
	var lines []string
	for _, para := range strings.Split(body, "\n") {
		r := []rune(para)
		if len(r) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(r) > width {
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		lines = append(lines, string(r))
	}
	return lines
}
