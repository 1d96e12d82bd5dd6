package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("insightflow", reg, nil)

	c.ObserveStep("clarifier", "ok", 10*time.Millisecond)
	c.ObserveStep("clarifier", "ok", 5*time.Millisecond)
	c.ObserveStep("reviewer", "error", time.Millisecond)
	c.RecordSuspension("human_response")
	c.RecordOutcome("approved")
	c.RecordFailure("")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.stepsTotal.WithLabelValues("clarifier", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.stepsTotal.WithLabelValues("reviewer", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.suspensionsTotal.WithLabelValues("human_response")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.outcomesTotal.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.failuresTotal.WithLabelValues("unknown")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveStep("n", "ok", time.Second)
		c.RecordSuspension("n")
		c.RecordOutcome("approved")
		c.RecordFailure("STEP_FAILURE")
	})
}
