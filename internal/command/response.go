package command

// ResponseCap is the size of the outgoing response buffer.
const ResponseCap = 256

// Response is the bounded buffer a task writes its result into.
// Writing past ResponseCap raises a FatalFault.
type Response struct {
	buf [ResponseCap]byte
	n   int
}

func (r *Response) Append(p []byte) {
	if r.n+len(p) > ResponseCap {
		fault("response overflow: %d + %d > %d", r.n, len(p), ResponseCap)
	}
	r.n += copy(r.buf[r.n:], p)
}

func (r *Response) AppendByte(b byte) {
	if r.n >= ResponseCap {
		fault("response overflow: %d + 1 > %d", r.n, ResponseCap)
	}
	r.buf[r.n] = b
	r.n++
}

func (r *Response) Len() int {
	return r.n
}

// Bytes aliases the buffer; copy before the next Reset.
func (r *Response) Bytes() []byte {
	return r.buf[:r.n]
}

func (r *Response) Reset() {
	clear(r.buf[:])
	r.n = 0
}
