package command

import (
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/parser"
	"github.com/danmuck/nanosign/internal/prompt"
)

const (
	signParseTx = iota
	signConfirmHash
	signParsePath
	signDerive
	signConfirmKey
	signSign
	signEmit
	signDone
)

var signSteps = [...]string{
	"parse-transaction", "confirm-hash", "parse-path", "derive", "confirm-key", "sign", "emit", "done",
}

// Sign hashes a streamed transaction, asks the user to approve the hash and
// the signing key, and returns a DER signature over the hash.
type Sign struct {
	env    *Env
	g      *grammars
	step   int
	tx     txState
	path   pathState
	digest crypto.Digest
	key    *crypto.PrivateKey
	pkh    crypto.PKH
	sig    crypto.Signature
}

func (t *Sign) Step() string {
	return signSteps[t.step]
}

func (t *Sign) Reset() {
	t.step = signParseTx
	t.g.tx.Init(&t.tx)
	t.g.path.Init(&t.path)
	clear(t.digest[:])
	t.key.Zero()
	t.key = nil
	clear(t.pkh[:])
	t.sig = crypto.Signature{}
}

func (t *Sign) Advance(c *parser.Cursor, out *Response) error {
	for {
		switch t.step {
		case signParseTx:
			if err := parser.ParseStream(t.g.tx, &t.tx, c); err != nil {
				return err
			}
			t.digest = t.g.tx.Output(&t.tx)
		case signConfirmHash:
			if err := t.env.confirm(prompt.Screen{Title: "Sign Hash?", Body: t.digest.String()}); err != nil {
				return err
			}
		case signParsePath:
			if err := parser.ParseStream(t.g.path, &t.path, c); err != nil {
				return err
			}
		case signDerive:
			key, err := t.env.Crypto.PrivateKey(t.g.path.Output(&t.path))
			if err != nil {
				return parser.AsReject("derive", err)
			}
			t.key = key
			pkh, err := t.env.Crypto.PublicKeyHash(key.PublicKey())
			if err != nil {
				return parser.AsReject("derive", err)
			}
			t.pkh = pkh
		case signConfirmKey:
			if err := t.env.confirm(prompt.Screen{Title: "With PKH", Body: t.pkh.String()}); err != nil {
				return err
			}
		case signSign:
			sig, err := t.env.Crypto.Sign(t.key, t.digest)
			t.key.Zero()
			t.key = nil
			if err != nil {
				return parser.AsReject("sign", err)
			}
			t.sig = sig
		case signEmit:
			out.Append(t.sig.Bytes())
		default:
			return nil
		}
		t.step++
	}
}
