package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/abdulrehhhhman/fitness-ai/internal/config"
	"github.com/abdulrehhhhman/fitness-ai/internal/metrics"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l2angles"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l3form"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l4motion"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l5summary"
)

// Analyzer analyses one video at a time with a single detector. It holds
// no per-video state, so sequential Analyze calls are independent; it must
// not be used from several goroutines at once because the detector is
// not shared safely.
type Analyzer struct {
	tuning   *config.TuningConfig
	detector l1source.PoseDetector
	metrics  *metrics.Manager
}

// NewAnalyzer returns an Analyzer. A nil tuning config uses the defaults;
// a nil metrics manager disables metrics.
func NewAnalyzer(tuning *config.TuningConfig, detector l1source.PoseDetector, m *metrics.Manager) *Analyzer {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Analyzer{tuning: tuning, detector: detector, metrics: m}
}

// Analyze reads src to the end and returns the aggregate result for the
// named exercise.
//
// Errors:
//   - vision.ErrUnsupportedExercise before src is opened
//   - vision.ErrUnreadableStream if src cannot be opened or yields no frame
//   - vision.ErrAnalysisAborted, together with the partial result, if ctx
//     is cancelled mid-stream
//
// A source error after at least one frame ends the stream early and is
// logged; the result covers the frames read so far.
func (a *Analyzer) Analyze(ctx context.Context, src l1source.FrameSource, exercise string) (*vision.AnalysisResult, error) {
	ex, err := vision.ParseExercise(exercise)
	if err != nil {
		return nil, err
	}
	cfg, err := ex.Config()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w before start: %w", vision.ErrAnalysisAborted, err)
	}

	if err := src.Open(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", vision.ErrUnreadableStream, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			opsf("close frame source: %v", cerr)
		}
	}()

	r := a.newRun(cfg)
	for {
		if err := ctx.Err(); err != nil {
			return r.abort(err)
		}

		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return r.abort(ctx.Err())
			}
			if r.agg.TotalFrames() == 0 {
				if errors.Is(err, io.EOF) {
					return nil, fmt.Errorf("%w: no frames", vision.ErrUnreadableStream)
				}
				return nil, fmt.Errorf("%w: %w", vision.ErrUnreadableStream, err)
			}
			if !errors.Is(err, io.EOF) {
				opsf("%s: stream ended early after %d frames: %v", cfg.Exercise, r.agg.TotalFrames(), err)
			}
			break
		}

		if err := r.observe(ctx, frame); err != nil {
			return r.abort(err)
		}
	}

	res := r.finish(false)
	diagf("%s: %d frames, %d with pose, reps=%d hold=%.2fs avg=%.3f",
		cfg.Exercise, res.TotalFrames, res.FramesWithPose, res.RepCount(), res.HoldSeconds(), res.AverageFormScore)
	return res, nil
}

// run is the per-video state of one Analyze call.
type run struct {
	a   *Analyzer
	cfg vision.ExerciseConfig

	reps *l4motion.RepCounter
	hold *l4motion.HoldTracker
	agg  *l5summary.Aggregator

	lastTimestamp float64
}

func (a *Analyzer) newRun(cfg vision.ExerciseConfig) *run {
	r := &run{
		a:   a,
		cfg: cfg,
		agg: l5summary.New(cfg, a.tuning.GetRecordFrames()),
	}
	switch cfg.Kind {
	case vision.KindHold:
		r.hold = l4motion.NewHoldTracker(cfg, a.tuning.GetHoldMinAngle(), a.tuning.GetHoldMaxAngle(), a.tuning.GetHoldQualityWindow())
	default:
		r.reps = l4motion.NewRepCounter(cfg, a.tuning.GetRepThresholdUp(), a.tuning.GetRepThresholdDown())
	}
	return r
}

// observe processes one frame. It only fails when ctx is done.
func (r *run) observe(ctx context.Context, frame l1source.RawFrame) error {
	if frame.Index <= 0 {
		frame.Index = r.agg.TotalFrames() + 1
	}
	r.lastTimestamp = frame.Timestamp
	fa := vision.FrameAnalysis{FrameNumber: frame.Index, Timestamp: frame.Timestamp}

	kp, ok, err := r.a.detector.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		opsf("%s: frame %d: pose detection failed: %v", r.cfg.Exercise, frame.Index, err)
		if m := r.a.metrics; m != nil {
			m.CounterDetectorErr.Inc()
		}
		ok = false
	}
	if m := r.a.metrics; m != nil {
		m.CounterFrames.WithLabelValues(metrics.PoseLabel(ok)).Inc()
	}
	if !ok {
		tracef("%s: frame %d: no pose", r.cfg.Exercise, frame.Index)
		r.agg.AddFrame(fa)
		return nil
	}

	angles := l2angles.Compute(kp, r.cfg)
	score := l3form.Evaluate(kp, angles, r.cfg)
	r.agg.AddFeedback(l3form.Events(frame.Index, frame.Timestamp, score, r.a.tuning.GetWarningScore())...)

	obs := l4motion.Observation{FrameNumber: frame.Index, Timestamp: frame.Timestamp, Angles: angles, Score: score}
	if r.reps != nil {
		if ev := r.reps.Observe(obs); ev != nil {
			tracef("%s: frame %d: rep %d quality=%.2f", r.cfg.Exercise, frame.Index, ev.RepNumber, ev.FormQuality)
			r.agg.AddRep(*ev)
			if m := r.a.metrics; m != nil {
				m.CounterReps.WithLabelValues(string(r.cfg.Exercise)).Inc()
			}
		}
	} else {
		in, closed := r.hold.Observe(obs)
		fa.InPosition = in
		if closed != nil {
			r.addHold(*closed)
		}
	}

	fa.PoseDetected = true
	fa.Angles = angles
	fa.FormScore = score.Score
	r.agg.AddFrame(fa)
	if r.reps != nil {
		tracef("%s: frame %d: score=%.2f primary=%.1f position=%s reps=%d", r.cfg.Exercise, frame.Index,
			score.Score, r.reps.Primary(angles), r.reps.Position(), r.reps.Count())
	} else {
		tracef("%s: frame %d: score=%.2f in_position=%t angles=%v", r.cfg.Exercise, frame.Index, score.Score, fa.InPosition, angles)
	}
	return nil
}

func (r *run) addHold(s vision.HoldSession) {
	tracef("%s: hold %.2fs-%.2fs quality=%.2f", r.cfg.Exercise, s.StartTime, *s.EndTime, s.FormQuality)
	r.agg.AddHold(s)
	if m := r.a.metrics; m != nil {
		m.CounterHoldSeconds.WithLabelValues(string(r.cfg.Exercise)).Add(s.Duration)
	}
}

// finish closes an open hold at the last frame read and builds the result.
func (r *run) finish(partial bool) *vision.AnalysisResult {
	if r.hold != nil {
		if s := r.hold.Finish(r.lastTimestamp); s != nil {
			r.addHold(*s)
		}
	}
	return r.agg.Result(partial)
}

func (r *run) abort(cause error) (*vision.AnalysisResult, error) {
	res := r.finish(true)
	opsf("%s: analysis aborted after %d frames: %v", r.cfg.Exercise, res.TotalFrames, cause)
	return res, fmt.Errorf("%w after %d frames: %w", vision.ErrAnalysisAborted, res.TotalFrames, cause)
}
