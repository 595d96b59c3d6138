package command

import (
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/prompt"
)

const (
	showKeyParsePath = iota
	showKeyDerive
	showKeyDisplay
	showKeyDone
)

var showKeySteps = [...]string{"parse-path", "derive", "display", "done"}

// ShowPrivateKey displays the secret at a path on the device screen only.
// Nothing secret is ever written to the response.
type ShowPrivateKey struct {
	env  *Env
	g    *grammars
	step int
	path pathState
	key  *crypto.PrivateKey
}

func (t *ShowPrivateKey) Step() string {
	return showKeySteps[t.step]
}

func (t *ShowPrivateKey) Reset() {
	t.step = showKeyParsePath
	t.g.path.Init(&t.path)
	t.key.Zero()
	t.key = nil
}

func (t *ShowPrivateKey) Advance(c *parser.Cursor, out *Response) error {
	for {
		switch t.step {
		case showKeyParsePath:
			if err := parser.ParseStream(t.g.path, &t.path, c); err != nil {
				return err
			}
		case showKeyDerive:
			key, err := t.env.Crypto.PrivateKey(t.g.path.Output(&t.path))
			if err != nil {
				return parser.AsReject("derive", err)
			}
			t.key = key
		case showKeyDisplay:
			err := t.env.confirm(prompt.Screen{Title: "Private Key", Body: t.key.Hex()})
			t.key.Zero()
			t.key = nil
			if err != nil {
				return err
			}
		default:
			return nil
		}
		t.step++
	}
}
