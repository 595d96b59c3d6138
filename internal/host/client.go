package host

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/protocol"
	"github.com/rs/zerolog"
)

// maxPages bounds how many MoreData replies one command may return.
const maxPages = 64

// Client issues device commands over an Exchanger.
type Client struct {
	x         Exchanger
	class     uint8
	chunkSize int
	log       zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithClass(class uint8) Option {
	return func(c *Client) { c.class = class }
}

// WithChunkSize caps the data bytes per command, 1..255.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n >= 1 && n <= protocol.MaxChunkLen {
			c.chunkSize = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(x Exchanger, opts ...Option) *Client {
	c := &Client{
		x:         x,
		class:     protocol.DefaultClass,
		chunkSize: protocol.MaxChunkLen,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Close() error {
	return c.x.Close()
}

// EncodePath renders the path stream: u8 count then u32 LE segments.
func EncodePath(p crypto.Path) []byte {
	segs := p.Segments()
	out := make([]byte, 0, 1+4*len(segs))
	out = append(out, byte(len(segs)))
	for _, s := range segs {
		out = binary.LittleEndian.AppendUint32(out, s)
	}
	return out
}

// EncodeTransaction renders the transaction stream: u32 LE length then bytes.
func EncodeTransaction(tx []byte) []byte {
	out := make([]byte, 0, 4+len(tx))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(tx)))
	return append(out, tx...)
}

// GetAddress asks the device for the public key at p. The device shows the
// key hash and waits for the user.
func (c *Client) GetAddress(ctx context.Context, p crypto.Path) (crypto.PublicKey, error) {
	var pub crypto.PublicKey
	data, err := c.Run(ctx, protocol.OpGetPublicKey, EncodePath(p))
	if err != nil {
		return pub, err
	}
	if len(data) != crypto.PublicKeyLen || int(data[0]) != crypto.PublicKeyLen {
		return pub, fmt.Errorf("host: malformed public key reply (%d bytes)", len(data))
	}
	pub[0] = 0x04
	copy(pub[1:], data[1:])
	return pub, nil
}

// Sign streams tx and then the signing path and returns the DER signature.
func (c *Client) Sign(ctx context.Context, p crypto.Path, tx []byte) ([]byte, error) {
	if uint64(len(tx)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("host: transaction too large")
	}
	return c.Run(ctx, protocol.OpSign, EncodeTransaction(tx), EncodePath(p))
}

// ShowPrivateKey asks a debug-enabled device to display the key at p.
func (c *Client) ShowPrivateKey(ctx context.Context, p crypto.Path) error {
	_, err := c.Run(ctx, protocol.OpShowPrivateKey, EncodePath(p))
	return err
}

func (c *Client) ShowMenu(ctx context.Context) error {
	_, err := c.Run(ctx, protocol.OpShowMenu)
	return err
}

func (c *Client) Exit(ctx context.Context) error {
	_, err := c.Run(ctx, protocol.OpExit)
	return err
}

// Run sends each stream starting in a fresh chunk, flags every chunk after
// the first as a continuation, and reads paged replies to the end.
func (c *Client) Run(ctx context.Context, op protocol.Opcode, streams ...[]byte) ([]byte, error) {
	first := true
	var reply protocol.Reply
	var err error
	send := func(data []byte) error {
		p1 := protocol.P1Continue
		if first {
			p1 = protocol.P1First
			first = false
		}
		reply, err = c.exchange(ctx, op, p1, data)
		return err
	}

	if len(streams) == 0 {
		if err := send(nil); err != nil {
			return nil, err
		}
	}
	for _, stream := range streams {
		for off := 0; off < len(stream); off += c.chunkSize {
			end := min(off+c.chunkSize, len(stream))
			if err := send(stream[off:end]); err != nil {
				return nil, err
			}
		}
	}

	out := append([]byte(nil), reply.Data...)
	for pages := 0; reply.Status == protocol.StatusMoreData; pages++ {
		if pages == maxPages {
			return nil, fmt.Errorf("host: %s reply exceeds %d pages", op, maxPages)
		}
		if err := send(nil); err != nil {
			return nil, err
		}
		out = append(out, reply.Data...)
	}
	return out, nil
}

func (c *Client) exchange(ctx context.Context, op protocol.Opcode, p1 uint8, data []byte) (protocol.Reply, error) {
	raw, err := protocol.EncodeCommand(protocol.Command{
		Header: protocol.Header{Class: c.class, Opcode: op, P1: p1},
		Data:   data,
	})
	if err != nil {
		return protocol.Reply{}, err
	}
	reply, err := c.x.Exchange(ctx, raw)
	if err != nil {
		return protocol.Reply{}, err
	}
	c.log.Debug().
		Str("opcode", op.String()).
		Uint8("p1", p1).
		Int("len", len(data)).
		Str("status", reply.Status.String()).
		Msg("exchange")
	if !reply.Status.Success() {
		return protocol.Reply{}, &protocol.StatusError{Opcode: op, Status: reply.Status}
	}
	return reply, nil
}
