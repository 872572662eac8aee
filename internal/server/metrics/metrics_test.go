package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordLogin(OutcomeSuccess)
	m.RecordLogin(OutcomeSuccess)
	m.RecordLogin(OutcomeInvalidCredentials)
	m.RecordRefresh(OutcomeReuse)
	m.RecordLogout()
	m.RecordGateRejection(GateRequired, "missing_token")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues(OutcomeReuse)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateRejections.WithLabelValues(GateRequired, "missing_token")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordLogin(OutcomeSuccess)
		m.RecordRefresh(OutcomeSuccess)
		m.RecordLogout()
		m.RecordGateRejection(GateOptional, "invalid_token")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordLogout()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vidtube_auth_logouts_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
