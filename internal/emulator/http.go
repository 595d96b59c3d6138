package emulator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/nanosign/internal/auth"
	"github.com/danmuck/nanosign/internal/observability"
	"github.com/danmuck/nanosign/internal/prompt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Name        string
	CorsOrigins []string
	Validator   auth.Validator
	// ExchangeTimeout bounds one exchange, prompts included.
	ExchangeTimeout time.Duration
}

// Server is the emulator's HTTP API: APDU exchange, button presses, the
// current screen, and a WebSocket APDU stream.
type Server struct {
	cfg      ServerConfig
	bus      *Bus
	panel    *prompt.Panel
	router   *gin.Engine
	upgrader websocket.Upgrader
	appeared time.Time
	log      zerolog.Logger
}

type apduRequest struct {
	APDU string `json:"apdu" binding:"required"`
}

type apduResponse struct {
	Data       string `json:"data"`
	Status     string `json:"status"`
	StatusText string `json:"status_text"`
}

func NewServer(cfg ServerConfig, bus *Bus, panel *prompt.Panel, logger zerolog.Logger) *Server {
	if cfg.Name == "" {
		cfg.Name = "nanosignd"
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = 5 * time.Minute
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:      cfg,
		bus:      bus,
		panel:    panel,
		router:   r,
		appeared: time.Now(),
		log:      logger.With().Str("component", "http").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 512,
			CheckOrigin:     originChecker(cfg.CorsOrigins),
		},
	}
	s.routes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"device":  s.cfg.Name,
			"version": version,
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/", auth.Middleware(s.cfg.Validator))
	api.POST("/apdu", s.postAPDU)
	api.POST("/button/:button", s.postButton)
	api.GET("/screen", s.getScreen)
	api.GET("/ws", s.serveWS)
}

func (s *Server) postAPDU(c *gin.Context) {
	var req apduRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := hex.DecodeString(strings.TrimSpace(req.APDU))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "apdu must be hex"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ExchangeTimeout)
	defer cancel()
	reply, err := s.bus.Exchange(ctx, raw)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, apduResponse{
		Data:       hex.EncodeToString(reply.Data),
		Status:     fmt.Sprintf("0x%04X", uint16(reply.Status)),
		StatusText: reply.Status.String(),
	})
}

func (s *Server) postButton(c *gin.Context) {
	b, err := prompt.ParseButton(c.Param("button"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.bus.Press(b); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"button": b.String()})
}

func (s *Server) getScreen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current": s.panel.Current(),
		"history": s.panel.History(),
	})
}

// serveWS runs one exchange per binary message: request frames are raw
// APDUs and replies are data || SW. An empty message is a ping.
func (s *Server) serveWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	release := observability.TrackSession("ws")
	defer release()
	logger := s.log.With().Str("session", ulid.Make().String()).Str("remote", c.ClientIP()).Logger()
	logger.Info().Msg("websocket session opened")
	defer logger.Info().Msg("websocket session closed")

	ctx := c.Request.Context()
	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage {
			logger.Debug().Int("type", messageType).Msg("ignored non-binary message")
			continue
		}
		if len(message) == 0 {
			if err := ws.WriteMessage(websocket.BinaryMessage, nil); err != nil {
				return
			}
			continue
		}
		ectx, cancel := context.WithTimeout(ctx, s.cfg.ExchangeTimeout)
		reply, err := s.bus.Exchange(ectx, message)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("exchange aborted")
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "exchange aborted"))
			return
		}
		_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := ws.WriteMessage(websocket.BinaryMessage, reply.Bytes()); err != nil {
			return
		}
	}
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("http api ready")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := normalizeOrigins(origins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
