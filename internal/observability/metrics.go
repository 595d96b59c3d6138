package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nanosign",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nanosign",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nanosign",
			Subsystem: "device",
			Name:      "exchanges_total",
			Help:      "APDU exchanges by opcode and status word.",
		},
		[]string{"opcode", "status"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nanosign",
			Subsystem: "device",
			Name:      "exchange_duration_seconds",
			Help:      "Time spent handling one APDU, prompts included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"opcode"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nanosign",
			Subsystem: "device",
			Name:      "commands_total",
			Help:      "Finished commands by opcode and outcome.",
		},
		[]string{"opcode", "outcome"},
	)
	commandChunks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nanosign",
			Subsystem: "device",
			Name:      "command_chunks",
			Help:      "Inbound chunks consumed per finished command.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"opcode"},
	)
	cellBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nanosign",
			Subsystem: "device",
			Name:      "cell_busy",
			Help:      "1 while a command is in flight.",
		},
	)
	sessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nanosign",
			Subsystem: "transport",
			Name:      "sessions_open",
			Help:      "Open host sessions by transport.",
		},
		[]string{"transport"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			exchanges, exchangeDuration,
			commands, commandChunks, cellBusy,
			sessions,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordExchange counts one APDU round trip. status is the hex status word.
func RecordExchange(opcode, status string, duration time.Duration) {
	RegisterMetrics()
	exchanges.WithLabelValues(opcode, status).Inc()
	exchangeDuration.WithLabelValues(opcode).Observe(duration.Seconds())
}

// RecordCommand counts a command leaving the cell.
func RecordCommand(opcode, outcome string, chunks int) {
	RegisterMetrics()
	commands.WithLabelValues(opcode, outcome).Inc()
	if chunks > 0 {
		commandChunks.WithLabelValues(opcode).Observe(float64(chunks))
	}
}

func SetCellBusy(busy bool) {
	RegisterMetrics()
	if busy {
		cellBusy.Set(1)
		return
	}
	cellBusy.Set(0)
}

// TrackSession bumps the open session gauge and returns its release.
func TrackSession(transport string) func() {
	RegisterMetrics()
	g := sessions.WithLabelValues(transport)
	g.Inc()
	var once sync.Once
	return func() { once.Do(g.Dec) }
}
