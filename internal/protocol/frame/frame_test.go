package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/nanosign/internal/protocol"
)

func TestCommandRoundTrip(t *testing.T) {
	apdu := []byte{0x80, 0x02, 0x00, 0x00, 0x01, 0x00}
	var buf bytes.Buffer
	if err := WriteCommand(&buf, apdu, DefaultLimits()); err != nil {
		t.Fatalf("write command: %v", err)
	}
	if got := buf.Bytes()[:LengthPrefixLen]; !bytes.Equal(got, []byte{0, 0, 0, 6}) {
		t.Fatalf("unexpected prefix: %x", got)
	}
	out, err := ReadCommand(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read command: %v", err)
	}
	if !bytes.Equal(out, apdu) {
		t.Fatalf("apdu mismatch: %x", out)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	in := protocol.Reply{Data: []byte{0xDE, 0xAD}, Status: protocol.StatusOK}
	var buf bytes.Buffer
	if err := WriteReply(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write reply: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0, 2, 0xDE, 0xAD, 0x90, 0x00}) {
		t.Fatalf("unexpected wire bytes: %x", buf.Bytes())
	}
	out, err := ReadReply(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if out.Status != protocol.StatusOK || !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("reply mismatch: %+v", out)
	}
}

func TestReadCommandShortPrefix(t *testing.T) {
	_, err := ReadCommand(bytes.NewReader([]byte{0, 0}), DefaultLimits())
	if !errors.Is(err, ErrShortPrefix) {
		t.Fatalf("expected ErrShortPrefix, got %v", err)
	}
	_, err = ReadCommand(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on clean close, got %v", err)
	}
}

func TestReadCommandEnforcesLimits(t *testing.T) {
	raw := []byte{0, 0, 0x10, 0x00}
	_, err := ReadCommand(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}
