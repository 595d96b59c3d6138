package protocol

import "encoding/binary"

// ParseCommand decodes one raw APDU. Data aliases raw.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) < HeaderLen {
		return Command{}, ErrShortHeader
	}
	h := Header{
		Class:  raw[0],
		Opcode: Opcode(raw[1]),
		P1:     raw[2],
		P2:     raw[3],
		Lc:     raw[4],
	}
	data := raw[HeaderLen:]
	if len(data) != int(h.Lc) {
		return Command{}, ErrLengthMismatch
	}
	return Command{Header: h, Data: data}, nil
}

// EncodeCommand builds the raw APDU for cmd. Lc is derived from Data.
func EncodeCommand(cmd Command) ([]byte, error) {
	if len(cmd.Data) > MaxChunkLen {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderLen+len(cmd.Data))
	buf[0] = cmd.Header.Class
	buf[1] = byte(cmd.Header.Opcode)
	buf[2] = cmd.Header.P1
	buf[3] = cmd.Header.P2
	buf[4] = byte(len(cmd.Data))
	copy(buf[HeaderLen:], cmd.Data)
	return buf, nil
}

// Bytes returns data || SW1 SW2.
func (r Reply) Bytes() []byte {
	buf := make([]byte, len(r.Data)+2)
	copy(buf, r.Data)
	binary.BigEndian.PutUint16(buf[len(r.Data):], uint16(r.Status))
	return buf
}

// ParseReply splits a raw reply into data and status word.
func ParseReply(raw []byte) (Reply, error) {
	if len(raw) < 2 {
		return Reply{}, ErrShortReply
	}
	n := len(raw) - 2
	data := make([]byte, n)
	copy(data, raw[:n])
	return Reply{
		Data:   data,
		Status: Status(binary.BigEndian.Uint16(raw[n:])),
	}, nil
}
