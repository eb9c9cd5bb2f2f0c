package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RunCompleted("sequential", "output", 120*time.Millisecond)
	r.RunCompleted("sequential", "failed", 50*time.Millisecond)
	r.TurnAppended("sequential")
	r.TurnAppended("sequential")
	r.HandoffRequested()
	r.ResponderCall("ok", 30*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.runsTotal.WithLabelValues("sequential", "output")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.runsTotal.WithLabelValues("sequential", "failed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.turnsAppended.WithLabelValues("sequential")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.handoffsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecorder_NilIsNoOp(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.RunCompleted("sequential", "output", time.Second)
		r.TurnAppended("sequential")
		r.HandoffRequested()
		r.ResponderCall("ok", time.Second)
	})
}
