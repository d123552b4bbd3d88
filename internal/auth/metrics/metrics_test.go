package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/stretchr/testify/require"
)

func TestCountersAreExposed(t *testing.T) {
	before := testutil.ToFloat64(metrics.Logins.WithLabelValues(metrics.OutcomeSuccess))
	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	require.InDelta(t, before+1, testutil.ToFloat64(metrics.Logins.WithLabelValues(metrics.OutcomeSuccess)), 0)

	metrics.CodesIssued.Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "smartplant_auth_logins_total")
	require.Contains(t, string(body), "smartplant_auth_codes_issued_total")
}
