package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	activeSessions prometheus.Gauge
	onlineUsers    prometheus.Gauge
	sessionsTotal  *prometheus.CounterVec
	messagesSent   *prometheus.CounterVec
	deliveries     prometheus.Counter
	dropped        prometheus.Counter
	sendErrors     *prometheus.CounterVec
	connRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Current number of authenticated websocket sessions.",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_online_users",
			Help: "Users with at least one open session.",
		}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ws_sessions_total",
			Help: "Websocket sessions by authentication result.",
		}, []string{"result"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages persisted, by entry channel.",
		}, []string{"channel"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ws_frames_delivered_total",
			Help: "Frames queued to sessions.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ws_frames_dropped_total",
			Help: "Frames dropped because a session send buffer was full.",
		}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ws_send_errors_total",
			Help: "Realtime send failures by reason.",
		}, []string{"reason"}),
		connRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connection_requests_total",
			Help: "Connection graph operations by action and outcome.",
		}, []string{"action", "outcome"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "REST request latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.activeSessions,
		m.onlineUsers,
		m.sessionsTotal,
		m.messagesSent,
		m.deliveries,
		m.dropped,
		m.sendErrors,
		m.connRequests,
		m.httpLatency,
	)
	return m
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.sessionsTotal.WithLabelValues("ok").Inc()
}

func (m *Metrics) SessionRejected() {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues("rejected").Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

func (m *Metrics) MessageSent(channel string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(channel).Inc()
}

func (m *Metrics) Delivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deliveries.Add(float64(n))
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) SendError(reason string) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) ConnectionOp(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.connRequests.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
