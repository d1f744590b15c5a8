package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/arkflow-dev/gozeebe/metrics"
)

func TestPrometheusSinkTracksCountersByJobType(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(reg)

	sink.JobsActivated("charge", 3)
	sink.JobCompleted("charge")
	sink.JobCompleted("charge")
	sink.JobFailed("charge")
	sink.JobThrown("refund")
	sink.SetInFlight("charge", 2)
	sink.ObservePollBackoff("charge", 250*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()+"|"+labelValue(m, "job_type")] = metricValue(m)
		}
	}

	require.Equal(t, float64(3), values["zbworker_jobs_activated_total|charge"])
	require.Equal(t, float64(2), values["zbworker_jobs_completed_total|charge"])
	require.Equal(t, float64(1), values["zbworker_jobs_failed_total|charge"])
	require.Equal(t, float64(1), values["zbworker_jobs_thrown_total|refund"])
	require.Equal(t, float64(2), values["zbworker_jobs_in_flight|charge"])
}

func labelValue(m *io_prometheus_client.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func metricValue(m *io_prometheus_client.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}
