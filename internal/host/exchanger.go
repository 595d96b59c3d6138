package host

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/nanosign/internal/protocol"
	"github.com/danmuck/nanosign/internal/protocol/frame"
	"github.com/gorilla/websocket"
)

// Exchanger carries one raw command to the device and returns its reply.
type Exchanger interface {
	Exchange(ctx context.Context, apdu []byte) (protocol.Reply, error)
	Close() error
}

// TCP talks to the emulator's length-prefixed APDU port.
type TCP struct {
	conn   net.Conn
	limits frame.Limits
}

func DialTCP(ctx context.Context, addr string) (*TCP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("host: dial %s: %w", addr, err)
	}
	return &TCP{conn: conn, limits: frame.DefaultLimits()}, nil
}

func (t *TCP) Exchange(ctx context.Context, apdu []byte) (protocol.Reply, error) {
	deadline, _ := ctx.Deadline()
	_ = t.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = t.conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if err := frame.WriteCommand(t.conn, apdu, t.limits); err != nil {
		return protocol.Reply{}, ctxErr(ctx, err)
	}
	reply, err := frame.ReadReply(t.conn, t.limits)
	if err != nil {
		return protocol.Reply{}, ctxErr(ctx, err)
	}
	return reply, nil
}

func (t *TCP) Close() error {
	return t.conn.Close()
}

// WS talks to the emulator's /ws endpoint, one binary message per exchange.
type WS struct {
	conn *websocket.Conn
}

// DialWS connects to url (ws:// or wss://). A non-empty token is sent as
// a bearer token.
func DialWS(ctx context.Context, url, token string) (*WS, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("host: dial %s: %w (http %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("host: dial %s: %w", url, err)
	}
	return &WS{conn: conn}, nil
}

func (w *WS) Exchange(ctx context.Context, apdu []byte) (protocol.Reply, error) {
	deadline, _ := ctx.Deadline()
	_ = w.conn.SetWriteDeadline(deadline)
	_ = w.conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = w.conn.SetReadDeadline(time.Unix(1, 0)) })
	defer stop()

	if err := w.conn.WriteMessage(websocket.BinaryMessage, apdu); err != nil {
		return protocol.Reply{}, ctxErr(ctx, err)
	}
	for {
		messageType, message, err := w.conn.ReadMessage()
		if err != nil {
			return protocol.Reply{}, ctxErr(ctx, err)
		}
		if messageType != websocket.BinaryMessage || len(message) == 0 {
			continue
		}
		return protocol.ParseReply(message)
	}
}

func (w *WS) Close() error {
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
