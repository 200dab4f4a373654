package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.SignedResponses.WithLabelValues("metadata").Inc()
	m.SignedResponses.WithLabelValues("metadata").Inc()
	m.RejectedRequests.WithLabelValues("hash_mismatch").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SignedResponses.WithLabelValues("metadata")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RejectedRequests.WithLabelValues("hash_mismatch")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_signed_responses_total")
	assert.Contains(t, names, "test_rejected_requests_total")
}

func TestNew_MetricsServer(t *testing.T) {
	srv, err := New("oracle", "127.0.0.1:0")
	require.NoError(t, err)
	require.NotNil(t, srv.Metrics())
	srv.Metrics().FetchedBytes.Observe(2048)
}
