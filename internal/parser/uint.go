package parser

import "unsafe"

// Endianness selects the byte order of a Uint.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Unsigned lists the integer types a Uint can decode.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// UintState holds the bytes of a Uint collected so far.
type UintState struct {
	buf [8]byte
	n   uint8
}

// Uint is a fixed-width unsigned integer whose bytes may arrive split
// across any number of chunks.
type Uint[T Unsigned] struct {
	Order Endianness
}

func widthOf[T Unsigned]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (Uint[T]) Init(s *UintState) {
	*s = UintState{}
}

func (Uint[T]) Parse(s *UintState, c *Cursor) error {
	w := widthOf[T]()
	for int(s.n) < w {
		need := w - int(s.n)
		avail := c.Remaining()
		if avail == 0 {
			return ErrNeedMore
		}
		if avail < need {
			need = avail
		}
		b, err := c.Take(need)
		if err != nil {
			return err
		}
		s.n += uint8(copy(s.buf[s.n:], b))
	}
	return nil
}

func (u Uint[T]) Output(s *UintState) T {
	w := widthOf[T]()
	var v uint64
	if u.Order == BigEndian {
		for i := 0; i < w; i++ {
			v = v<<8 | uint64(s.buf[i])
		}
	} else {
		for i := w - 1; i >= 0; i-- {
			v = v<<8 | uint64(s.buf[i])
		}
	}
	return T(v)
}
