package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/nanosign/internal/logging"
	"github.com/danmuck/nanosign/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logging.New(logging.Config{Level: zerolog.InfoLevel, Bypass: true, Out: buf})
	r := gin.New()
	r.Use(RequestLogger(logger), RequestMetricsMiddleware("mw-test"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/button/:button", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.POST("/apdu", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	return r
}

func TestRequestLoggerLevels(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/button/left", nil),
		httptest.NewRequest(http.MethodPost, "/apdu", nil),
		httptest.NewRequest(http.MethodGet, "/missing", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	out := buf.String()
	if strings.Contains(out, `"path":"/health"`) {
		t.Fatalf("health poll logged at info: %s", out)
	}
	if !strings.Contains(out, `"path":"/button/:button"`) || !strings.Contains(out, `"url":"/button/left"`) {
		t.Fatalf("button route not logged: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("4xx not logged at warn: %s", out)
	}
	if !strings.Contains(out, `"path":"unmatched"`) {
		t.Fatalf("unrouted request not logged: %s", out)
	}
}

func TestRequestLoggerRequestID(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/button/right", nil))
	if id := rec.Header().Get(RequestIDHeader); len(id) != 26 {
		t.Fatalf("generated request id = %q", id)
	}

	req := httptest.NewRequest(http.MethodPost, "/button/right", nil)
	req.Header.Set(RequestIDHeader, "host-42")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "host-42" {
		t.Fatalf("request id = %q, want host-42", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"host-42"`) {
		t.Fatalf("request id not logged: %s", buf.String())
	}
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	counter := httpRequests.WithLabelValues("mw-test", http.MethodPost, "/button/:button", "202")
	before := testutil.ToFloat64(counter)
	for _, b := range []string{"left", "right", "both"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/button/"+b, nil))
	}
	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Fatalf("button requests grew by %v, want 3", got)
	}
}
