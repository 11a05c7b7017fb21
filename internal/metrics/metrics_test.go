package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.SessionOpened()
	m.SessionClosed()
	m.SessionRejected()
	m.MessageSent("ws")
	m.Delivered(3)
	m.Dropped()
	m.SendError("storage")
	m.ConnectionOp("request", nil)
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	m.SetOnlineUsers(1)
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))

	m.MessageSent("ws")
	m.MessageSent("rest")
	m.MessageSent("ws")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesSent.WithLabelValues("ws")))

	m.Delivered(2)
	m.Delivered(0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries))

	m.ConnectionOp("accept", errors.New("x"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connRequests.WithLabelValues("accept", "error")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(503))
}
