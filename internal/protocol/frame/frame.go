// Package frame carries APDUs over a byte stream using a 4-byte
// big-endian length prefix, the framing used by device emulators.
//
//	command: [LEN(4)][APDU...]
//	reply:   [LEN(4)][DATA...][SW1][SW2]   (LEN excludes the status word)
package frame

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/danmuck/nanosign/internal/protocol"
)

const LengthPrefixLen = 4

var (
	ErrShortPrefix     = errors.New("frame: short length prefix")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Limits constrains frame decode memory use.
type Limits struct {
	MaxCommandBytes uint32
	MaxReplyBytes   uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxCommandBytes: protocol.HeaderLen + protocol.MaxChunkLen,
		MaxReplyBytes:   protocol.MaxChunkLen + 1,
	}
}

// ReadCommand reads one framed APDU.
func ReadCommand(r io.Reader, limits Limits) ([]byte, error) {
	n, err := readPrefix(r)
	if err != nil {
		return nil, err
	}
	if n > limits.MaxCommandBytes {
		return nil, ErrPayloadTooLarge
	}
	apdu := make([]byte, n)
	if _, err := io.ReadFull(r, apdu); err != nil {
		return nil, err
	}
	return apdu, nil
}

// WriteCommand frames and writes one APDU.
func WriteCommand(w io.Writer, apdu []byte, limits Limits) error {
	if uint64(len(apdu)) > uint64(limits.MaxCommandBytes) {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, LengthPrefixLen+len(apdu))
	binary.BigEndian.PutUint32(buf[:LengthPrefixLen], uint32(len(apdu)))
	copy(buf[LengthPrefixLen:], apdu)
	_, err := w.Write(buf)
	return err
}

// ReadReply reads one framed reply including its status word.
func ReadReply(r io.Reader, limits Limits) (protocol.Reply, error) {
	n, err := readPrefix(r)
	if err != nil {
		return protocol.Reply{}, err
	}
	if n > limits.MaxReplyBytes {
		return protocol.Reply{}, ErrPayloadTooLarge
	}
	raw := make([]byte, int(n)+2)
	if _, err := io.ReadFull(r, raw); err != nil {
		return protocol.Reply{}, err
	}
	return protocol.ParseReply(raw)
}

// WriteReply frames and writes one reply.
func WriteReply(w io.Writer, reply protocol.Reply, limits Limits) error {
	if uint64(len(reply.Data)) > uint64(limits.MaxReplyBytes) {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, LengthPrefixLen, LengthPrefixLen+len(reply.Data)+2)
	binary.BigEndian.PutUint32(buf, uint32(len(reply.Data)))
	buf = append(buf, reply.Bytes()...)
	_, err := w.Write(buf)
	return err
}

func readPrefix(r io.Reader) (uint32, error) {
	var prefix [LengthPrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrShortPrefix
		}
		return 0, err
	}
	return binary.BigEndian.Uint32(prefix[:]), nil
}
