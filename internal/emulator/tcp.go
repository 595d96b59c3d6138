package emulator

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/nanosign/internal/observability"
	"github.com/danmuck/nanosign/internal/protocol/frame"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// APDUServer speaks the length-prefixed APDU framing on TCP, one exchange
// per request frame.
type APDUServer struct {
	Bus         *Bus
	Limits      frame.Limits
	IdleTimeout time.Duration
	Log         zerolog.Logger

	wg sync.WaitGroup
}

// NewAPDUServer uses default frame limits and a five minute idle timeout.
func NewAPDUServer(bus *Bus, logger zerolog.Logger) *APDUServer {
	return &APDUServer{
		Bus:         bus,
		Limits:      frame.DefaultLimits(),
		IdleTimeout: 5 * time.Minute,
		Log:         logger.With().Str("component", "apdu-tcp").Logger(),
	}
}

// ListenAndServe listens on addr until ctx is done.
func (s *APDUServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts sessions on ln until ctx is done, then waits for open
// sessions to finish.
func (s *APDUServer) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	s.Log.Info().Str("addr", ln.Addr().String()).Msg("apdu listener ready")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *APDUServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	release := observability.TrackSession("tcp")
	defer release()

	logger := s.Log.With().
		Str("session", ulid.Make().String()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Info().Msg("session opened")
	defer logger.Info().Msg("session closed")

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		if s.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}
		raw, err := frame.ReadCommand(conn, s.Limits)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("read command")
			}
			return
		}
		reply, err := s.Bus.Exchange(ctx, raw)
		if err != nil {
			logger.Warn().Err(err).Msg("exchange aborted")
			return
		}
		if err := frame.WriteReply(conn, reply, s.Limits); err != nil {
			logger.Warn().Err(err).Msg("write reply")
			return
		}
		logger.Debug().
			Int("apdu_len", len(raw)).
			Str("status", reply.Status.String()).
			Msg("exchange")
	}
}
