package command

import (
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/prompt"
)

const (
	getAddressParsePath = iota
	getAddressDerive
	getAddressConfirm
	getAddressEmit
	getAddressDone
)

var getAddressSteps = [...]string{"parse-path", "derive", "confirm", "emit", "done"}

// GetAddress returns the public key at a path after the user approves its hash.
type GetAddress struct {
	env  *Env
	g    *grammars
	step int
	path pathState
	pub  crypto.PublicKey
	pkh  crypto.PKH
}

func (t *GetAddress) Step() string {
	return getAddressSteps[t.step]
}

func (t *GetAddress) Reset() {
	t.step = getAddressParsePath
	t.g.path.Init(&t.path)
	clear(t.pub[:])
	clear(t.pkh[:])
}

func (t *GetAddress) Advance(c *parser.Cursor, out *Response) error {
	for {
		switch t.step {
		case getAddressParsePath:
			if err := parser.ParseStream(t.g.path, &t.path, c); err != nil {
				return err
			}
		case getAddressDerive:
			path := t.g.path.Output(&t.path)
			pub, err := t.env.Crypto.PublicKey(path)
			if err != nil {
				return parser.AsReject("derive", err)
			}
			pkh, err := t.env.Crypto.PublicKeyHash(pub)
			if err != nil {
				return parser.AsReject("derive", err)
			}
			t.pub, t.pkh = pub, pkh
		case getAddressConfirm:
			if err := t.env.confirm(prompt.Screen{Title: "Provide Public Key", Body: t.pkh.String()}); err != nil {
				return err
			}
		case getAddressEmit:
			out.AppendByte(byte(len(t.pub)))
			out.Append(t.pub[1:])
		default:
			return nil
		}
		t.step++
	}
}
