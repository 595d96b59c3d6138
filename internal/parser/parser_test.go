package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash"
	"math"
	"testing"

	"github.com/danmuck/nanosign/internal/testutil/testlog"
	"golang.org/x/crypto/blake2b"
)

// feed runs n over chunks in order, as the dispatch loop would.
func feed[S any](t *testing.T, n Parser[S], s *S, chunks ...[]byte) error {
	t.Helper()
	var err error
	for i, chunk := range chunks {
		c := NewCursor(chunk)
		err = ParseStream(n, s, &c)
		if err == nil && i != len(chunks)-1 {
			t.Fatalf("completed early at chunk %d of %d", i+1, len(chunks))
		}
		if err != nil && !errors.Is(err, ErrNeedMore) {
			return err
		}
	}
	return err
}

func pathGrammar() DArray[uint8, UintState, uint32] {
	return DArray[uint8, UintState, uint32]{
		Len:  Uint[uint8]{},
		Elem: Uint[uint32]{Order: LittleEndian},
		Max:  10,
	}
}

func TestUintByteOrder(t *testing.T) {
	testlog.Start(t)
	raw := []byte{0x01, 0x02, 0x03, 0x04}

	le := Uint[uint32]{Order: LittleEndian}
	var s UintState
	le.Init(&s)
	c := NewCursor(raw)
	if err := le.Parse(&s, &c); err != nil {
		t.Fatalf("parse le: %v", err)
	}
	if got := le.Output(&s); got != 0x04030201 {
		t.Fatalf("le = %#x", got)
	}

	be := Uint[uint32]{Order: BigEndian}
	be.Init(&s)
	c = NewCursor(raw)
	if err := be.Parse(&s, &c); err != nil {
		t.Fatalf("parse be: %v", err)
	}
	if got := be.Output(&s); got != 0x01020304 {
		t.Fatalf("be = %#x", got)
	}
}

func TestUintWidths(t *testing.T) {
	testlog.Start(t)
	if widthOf[uint8]() != 1 || widthOf[uint16]() != 2 || widthOf[uint32]() != 4 || widthOf[uint64]() != 8 {
		t.Fatalf("unexpected widths")
	}
	type segment uint32
	if widthOf[segment]() != 4 {
		t.Fatalf("named type width = %d", widthOf[segment]())
	}
	u := Uint[uint64]{Order: BigEndian}
	var s UintState
	u.Init(&s)
	raw := []byte{0, 0, 0, 0, 0, 0, 1, 0}
	for i := range raw {
		c := NewCursor(raw[i : i+1])
		err := u.Parse(&s, &c)
		if i < len(raw)-1 && !errors.Is(err, ErrNeedMore) {
			t.Fatalf("byte %d: expected need more, got %v", i, err)
		}
		if i == len(raw)-1 && err != nil {
			t.Fatalf("final byte: %v", err)
		}
	}
	if got := u.Output(&s); got != 256 {
		t.Fatalf("u64 = %d", got)
	}
}

func TestChunkingTransparencyForEverySplit(t *testing.T) {
	testlog.Start(t)
	stream := []byte{
		0x03,
		0x2c, 0x00, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x80,
		0x07, 0x00, 0x00, 0x00,
	}
	want := []uint32{0x8000002c, 0x80000000, 7}
	g := pathGrammar()

	for a := 0; a <= len(stream); a++ {
		for b := a; b <= len(stream); b++ {
			var s ArrayState[UintState, uint32]
			g.Init(&s)
			chunks := [][]byte{stream[:a], stream[a:b], stream[b:]}
			var err error
			for _, chunk := range chunks {
				c := NewCursor(chunk)
				err = g.Parse(&s, &c)
				if err == nil && !c.AtEnd() {
					t.Fatalf("split %d/%d finished with %d bytes left", a, b, c.Remaining())
				}
				if err == nil {
					break
				}
				if !errors.Is(err, ErrNeedMore) {
					t.Fatalf("split %d/%d: %v", a, b, err)
				}
			}
			if err != nil {
				t.Fatalf("split %d/%d did not complete: %v", a, b, err)
			}
			got := g.Output(&s)
			if len(got) != len(want) {
				t.Fatalf("split %d/%d len = %d", a, b, len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("split %d/%d item %d = %#x", a, b, i, got[i])
				}
			}
		}
	}
}

func TestDArrayRejectsCountAboveMax(t *testing.T) {
	testlog.Start(t)
	g := pathGrammar()
	var s ArrayState[UintState, uint32]
	g.Init(&s)
	c := NewCursor([]byte{11, 0, 0, 0, 0})
	err := g.Parse(&s, &c)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected reject, got %v", err)
	}
	var rej *RejectError
	if !errors.As(err, &rej) || rej.Field != "array" {
		t.Fatalf("expected array RejectError, got %#v", err)
	}
	if c.Remaining() != 4 {
		t.Fatalf("elements parsed after reject: remaining=%d", c.Remaining())
	}
}

func TestDArrayInitWipesReusedStorage(t *testing.T) {
	testlog.Start(t)
	g := pathGrammar()
	var s ArrayState[UintState, uint32]
	g.Init(&s)
	c := NewCursor([]byte{2, 1, 0, 0, 0, 2, 0, 0, 0})
	if err := g.Parse(&s, &c); err != nil {
		t.Fatalf("parse: %v", err)
	}
	backing := g.Output(&s)[:1]
	g.Init(&s)
	if len(g.Output(&s)) != 0 {
		t.Fatalf("items survived init")
	}
	if backing[0] != 0 {
		t.Fatalf("backing storage not wiped: %#x", backing[0])
	}
	if cap(g.Output(&s)) != 10 {
		t.Fatalf("storage was reallocated: cap=%d", cap(g.Output(&s)))
	}
}

func TestDropModeHandlesMaxUint32Count(t *testing.T) {
	testlog.Start(t)
	g := DArray[uint32, UintState, uint8]{
		Len:  Uint[uint32]{Order: LittleEndian},
		Elem: Uint[uint8]{},
		Max:  math.MaxUint32,
		Drop: true,
	}
	var s ArrayState[UintState, uint8]
	g.Init(&s)
	c := NewCursor([]byte{0xff, 0xff, 0xff, 0xff})
	if err := g.Parse(&s, &c); !errors.Is(err, ErrNeedMore) {
		t.Fatalf("expected need more, got %v", err)
	}
	if s.Count() != math.MaxUint32 {
		t.Fatalf("count = %d", s.Count())
	}
	block := make([]byte, 4096)
	for i := 0; i < 64; i++ {
		c = NewCursor(block)
		if err := g.Parse(&s, &c); !errors.Is(err, ErrNeedMore) {
			t.Fatalf("block %d: %v", i, err)
		}
	}
	if s.Parsed() != 64*4096 {
		t.Fatalf("parsed = %d", s.Parsed())
	}
	if s.items != nil || len(g.Output(&s)) != 0 {
		t.Fatalf("drop mode retained elements")
	}
}

func observeTx() Observe[ArrayState[UintState, uint8], []uint8, hash.Hash] {
	return Observe[ArrayState[UintState, uint8], []uint8, hash.Hash]{
		Inner: DArray[uint32, UintState, uint8]{
			Len:  Uint[uint32]{Order: LittleEndian},
			Elem: Uint[uint8]{},
			Max:  math.MaxUint32,
			Drop: true,
		},
		Reset: func(h *hash.Hash) {
			if *h == nil {
				*h, _ = blake2b.New256(nil)
				return
			}
			(*h).Reset()
		},
		Update: func(h *hash.Hash, p []byte) {
			(*h).Write(p)
		},
	}
}

func TestObserveDigestMatchesOnePassForAnyChunking(t *testing.T) {
	testlog.Start(t)
	body := bytes.Repeat([]byte("nanosign"), 40)
	stream := binary.LittleEndian.AppendUint32(nil, uint32(len(body)))
	stream = append(stream, body...)
	want := blake2b.Sum256(stream)

	o := observeTx()
	var s ObserveState[ArrayState[UintState, uint8], hash.Hash]
	for _, size := range []int{1, 2, 3, 5, 64, 255, len(stream)} {
		o.Init(&s)
		var chunks [][]byte
		for off := 0; off < len(stream); off += size {
			end := min(off+size, len(stream))
			chunks = append(chunks, stream[off:end])
		}
		if err := feed(t, o, &s, chunks...); err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		out := o.Output(&s)
		if got := out.Acc.Sum(nil); !bytes.Equal(got, want[:]) {
			t.Fatalf("size %d digest mismatch", size)
		}
	}
}

func TestActionTransformsAndRejects(t *testing.T) {
	testlog.Start(t)
	calls := 0
	sum := Action[ArrayState[UintState, uint32], []uint32, uint64]{
		Name:  "sum",
		Inner: pathGrammar(),
		Fn: func(v []uint32) (uint64, error) {
			calls++
			var total uint64
			for _, x := range v {
				total += uint64(x)
			}
			if total == 0 {
				return 0, errors.New("empty total")
			}
			return total, nil
		},
	}
	var s ActionState[ArrayState[UintState, uint32], uint64]
	sum.Init(&s)
	if err := feed(t, sum, &s, []byte{2, 1, 0}, []byte{0, 0, 2, 0, 0, 0}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := sum.Output(&s); got != 3 {
		t.Fatalf("sum = %d", got)
	}
	c := NewCursor(nil)
	if err := sum.Parse(&s, &c); err != nil || calls != 1 {
		t.Fatalf("completed action re-ran: calls=%d err=%v", calls, err)
	}

	sum.Init(&s)
	c = NewCursor([]byte{0})
	err := sum.Parse(&s, &c)
	var rej *RejectError
	if !errors.As(err, &rej) || rej.Field != "sum" || !errors.Is(err, ErrRejected) {
		t.Fatalf("expected sum reject, got %v", err)
	}
}

func TestParseStreamRejectsTrailingData(t *testing.T) {
	testlog.Start(t)
	g := pathGrammar()
	var s ArrayState[UintState, uint32]
	g.Init(&s)
	c := NewCursor([]byte{1, 1, 0, 0, 0, 0xAA})
	if err := ParseStream(g, &s, &c); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected trailing data reject, got %v", err)
	}
}
