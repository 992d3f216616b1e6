package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job status label values.
const (
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
	StatusRejected  = "rejected"
	LabelPose       = "true"
	LabelPoseAbsent = "false"
)

type Manager struct {
	// counters
	CounterFrames      *prometheus.CounterVec
	CounterReps        *prometheus.CounterVec
	CounterHoldSeconds *prometheus.CounterVec
	CounterJobs        *prometheus.CounterVec
	CounterDetectorErr prometheus.Counter
	CounterCacheHits   prometheus.Counter

	// gauges
	GaugeActiveJobs prometheus.Gauge

	// histograms
	HistJobDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("fitness", "test_vision", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitness", "test_vision", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "The total number of frames read",
	}, []string{"pose_detected"})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "repetitions",
		Help:      "The total number of completed repetitions",
	}, []string{"exercise"})
	counterHoldSeconds := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "hold_seconds",
		Help:      "Total seconds spent in a hold position",
	}, []string{"exercise"})
	counterJobs := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "jobs",
		Help:      "The total number of analysis jobs by outcome",
	}, []string{"exercise", "status"})
	counterDetectorErr := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "detector_errors",
		Help:      "Pose detector failures treated as frames without a pose",
	})
	counterCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "detection_cache_hits",
		Help:      "Pose detections served from the memoization cache",
	})

	gaugeActiveJobs := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_jobs",
		Help:      "Current number of running analysis jobs",
	})

	histJobDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "job_duration_seconds",
		Help:      "Wall-clock duration of a single analysis job in seconds",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"exercise"})

	return &Manager{
		CounterFrames:      counterFrames,
		CounterReps:        counterReps,
		CounterHoldSeconds: counterHoldSeconds,
		CounterJobs:        counterJobs,
		CounterDetectorErr: counterDetectorErr,
		CounterCacheHits:   counterCacheHits,
		GaugeActiveJobs:    gaugeActiveJobs,
		HistJobDuration:    histJobDuration,
	}
}

// PoseLabel returns the pose_detected label value for a frame.
func PoseLabel(detected bool) string {
	if detected {
		return LabelPose
	}
	return LabelPoseAbsent
}
