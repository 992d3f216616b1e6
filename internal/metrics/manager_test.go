package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	t.Parallel()

	m, reg := NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.CounterFrames.WithLabelValues(PoseLabel(true)).Add(3)
	m.CounterFrames.WithLabelValues(PoseLabel(false)).Inc()
	m.CounterReps.WithLabelValues("squats").Inc()
	m.CounterHoldSeconds.WithLabelValues("planks").Add(1.5)
	m.CounterJobs.WithLabelValues("squats", StatusOK).Inc()
	m.GaugeActiveJobs.Inc()
	m.HistJobDuration.WithLabelValues("squats").Observe(0.2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterFrames.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFrames.WithLabelValues("false")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.CounterHoldSeconds.WithLabelValues("planks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GaugeActiveJobs))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["fitness_test_vision_frames_total"] || names["fitness_test_vision_frames"])
	assert.True(t, names["fitness_test_vision_job_duration_seconds"])
	assert.True(t, names["fitness_test_vision_active_jobs"])
}

func TestNewManager_SeparateRegistries(t *testing.T) {
	t.Parallel()

	// Two managers on separate registries must not collide.
	a := NewTestManager()
	b := NewTestManager()
	a.CounterDetectorErr.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CounterDetectorErr))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CounterDetectorErr))
}
