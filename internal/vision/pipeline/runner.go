package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abdulrehhhhman/fitness-ai/internal/config"
	"github.com/abdulrehhhhman/fitness-ai/internal/metrics"
	"github.com/abdulrehhhhman/fitness-ai/internal/timeutil"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

// Job is one video to analyse.
type Job struct {
	ID       string // generated when empty
	Name     string // display name, e.g. the input path
	Exercise string
	Source   l1source.FrameSource
}

// JobResult is the outcome of one Job. Result may be set together with Err
// when the run was aborted part way. Elapsed is wall-clock time and is kept
// out of the deterministic AnalysisResult.
type JobResult struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name,omitempty"`
	Exercise string                 `json:"exercise"`
	Result   *vision.AnalysisResult `json:"result,omitempty"`
	Err      error                  `json:"-"`
	Error    string                 `json:"error,omitempty"`
	Elapsed  time.Duration          `json:"elapsed_ns"`
}

// Status classifies the job outcome for metrics and reporting.
func (r JobResult) Status() string {
	switch {
	case r.Err == nil:
		return metrics.StatusOK
	case errors.Is(r.Err, vision.ErrAnalysisAborted):
		return metrics.StatusAborted
	case errors.Is(r.Err, vision.ErrUnsupportedExercise):
		return metrics.StatusRejected
	default:
		return metrics.StatusFailed
	}
}

// Runner executes jobs concurrently, each with its own detector lease and
// its own Analyzer run.
type Runner struct {
	tuning  *config.TuningConfig
	pool    *l1source.DetectorPool
	metrics *metrics.Manager
	clock   timeutil.Clock
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock replaces the clock used for elapsed times.
func WithClock(c timeutil.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// NewRunner returns a Runner leasing detectors from pool.
func NewRunner(tuning *config.TuningConfig, pool *l1source.DetectorPool, m *metrics.Manager, opts ...RunnerOption) *Runner {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	r := &Runner{tuning: tuning, pool: pool, metrics: m, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes jobs with at most max_concurrent_jobs in flight and returns
// their results in job order. A failing job does not cancel the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.tuning.GetMaxConcurrentJobs())
	for i := range jobs {
		g.Go(func() error {
			results[i] = r.RunOne(ctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunOne executes a single job synchronously.
func (r *Runner) RunOne(ctx context.Context, job Job) (res JobResult) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	res = JobResult{ID: job.ID, Name: job.Name, Exercise: job.Exercise}

	if r.metrics != nil {
		r.metrics.GaugeActiveJobs.Inc()
		defer r.metrics.GaugeActiveJobs.Dec()
	}
	start := r.clock.Now()
	defer func() {
		res.Elapsed = r.clock.Since(start)
		if r.metrics != nil {
			r.metrics.CounterJobs.WithLabelValues(job.Exercise, res.Status()).Inc()
			r.metrics.HistJobDuration.WithLabelValues(job.Exercise).Observe(res.Elapsed.Seconds())
		}
	}()

	if timeout := r.tuning.GetJobTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res.Result, res.Err = r.analyze(ctx, job)
	if res.Err != nil {
		res.Error = res.Err.Error()
		opsf("job %s (%s): %v", job.ID, job.Name, res.Err)
	} else {
		diagf("job %s (%s) done", job.ID, job.Name)
	}
	return res
}

func (r *Runner) analyze(ctx context.Context, job Job) (*vision.AnalysisResult, error) {
	// Reject unknown exercises before waiting for a detector.
	if _, err := vision.ParseExercise(job.Exercise); err != nil {
		return nil, err
	}
	if job.Source == nil {
		return nil, fmt.Errorf("%w: no source", vision.ErrUnreadableStream)
	}

	det, err := r.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w waiting for detector: %w", vision.ErrAnalysisAborted, err)
		}
		return nil, err
	}
	defer r.pool.Release(det)

	return NewAnalyzer(r.tuning, det, r.metrics).Analyze(ctx, job.Source, job.Exercise)
}
