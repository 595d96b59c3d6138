package parser

// Cursor is a read position over one received chunk.
// Invariant: 0 <= off <= len(buf).
type Cursor struct {
	buf []byte
	off int
}

// NewCursor wraps chunk. The cursor does not copy it.
func NewCursor(chunk []byte) Cursor {
	return Cursor{buf: chunk}
}

// Remaining returns the count of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// AtEnd reports whether every byte has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.off == len(c.buf)
}

// Take consumes exactly n bytes. With fewer than n bytes left it returns
// ErrNeedMore and consumes nothing.
func (c *Cursor) Take(n int) ([]byte, error) {
	if n < 0 {
		panic("parser: negative take")
	}
	if c.Remaining() < n {
		return nil, ErrNeedMore
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// since returns the bytes consumed after mark.
func (c *Cursor) since(mark int) []byte {
	return c.buf[mark:c.off]
}
