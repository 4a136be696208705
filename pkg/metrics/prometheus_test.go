package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordAnalysis("sts", "up")
	r.RecordAnalysis("sts", "up")
	r.RecordAnomalies("ipca", 3)
	r.RecordAnomalies("ipca", 0)
	r.RecordLastValue("ipca", 4.62)
	r.RecordObservationSent("store", "ipca")
	r.RecordError("store")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("sts", "up")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.anomalies.WithLabelValues("ipca")))
	assert.Equal(t, 4.62, testutil.ToFloat64(r.lastValue.WithLabelValues("ipca")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.observationsSent.WithLabelValues("store", "ipca")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("store")))
}
