package observability

import (
	"testing"
	"time"

	"github.com/danmuck/nanosign/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("nanosignd", "GET", "/health", 200, 12*time.Millisecond)
	RecordExchange("sign", "0x9000", 3*time.Millisecond)
	RecordExchange("sign", "0x9000", 3*time.Millisecond)
	RecordCommand("sign", "done", 4)
	RecordCommand("sign", "violation", 0)

	if got := testutil.ToFloat64(exchanges.WithLabelValues("sign", "0x9000")); got < 2 {
		t.Fatalf("exchanges = %v", got)
	}
	if got := testutil.ToFloat64(commands.WithLabelValues("sign", "violation")); got < 1 {
		t.Fatalf("commands = %v", got)
	}
}

func TestCellBusyAndSessions(t *testing.T) {
	testlog.Start(t)
	SetCellBusy(true)
	if got := testutil.ToFloat64(cellBusy); got != 1 {
		t.Fatalf("busy = %v", got)
	}
	SetCellBusy(false)
	if got := testutil.ToFloat64(cellBusy); got != 0 {
		t.Fatalf("busy = %v", got)
	}

	before := testutil.ToFloat64(sessions.WithLabelValues("tcp"))
	release := TrackSession("tcp")
	if got := testutil.ToFloat64(sessions.WithLabelValues("tcp")); got != before+1 {
		t.Fatalf("sessions = %v", got)
	}
	release()
	release()
	if got := testutil.ToFloat64(sessions.WithLabelValues("tcp")); got != before {
		t.Fatalf("double release changed gauge: %v", got)
	}
}
