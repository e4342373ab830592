package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMembership(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMembership("post_like", "add", "ok")
	c.RecordMembership("post_like", "add", "ok")
	c.RecordMembership("post_like", "add", "conflict")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.membership.WithLabelValues("post_like", "add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.membership.WithLabelValues("post_like", "add", "conflict")))
}

func TestRecordAuth(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordAuth("login", "unauthenticated")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", "unauthenticated")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveRequest(http.MethodGet, "/routes", 200, 20*time.Millisecond)
	c.RecordAuth("refresh", "ok")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cragbase_http_request_duration_seconds")
	assert.Contains(t, string(body), `cragbase_auth_events_total{event="refresh",outcome="ok"} 1`)
}
