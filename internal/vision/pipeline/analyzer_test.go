package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulrehhhhman/fitness-ai/internal/config"
	"github.com/abdulrehhhhman/fitness-ai/internal/metrics"
	"github.com/abdulrehhhhman/fitness-ai/internal/testutil"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	det, err := l1source.NewLandmarkDetector()
	require.NoError(t, err)
	return NewAnalyzer(config.DefaultTuningConfig(), det, nil)
}

func squats(angles ...float64) []vision.KeypointFrame {
	out := make([]vision.KeypointFrame, len(angles))
	for i, a := range angles {
		out[i] = testutil.SquatPose(a)
	}
	return out
}

func planks(angles ...float64) []vision.KeypointFrame {
	out := make([]vision.KeypointFrame, len(angles))
	for i, a := range angles {
		out[i] = testutil.PlankPose(a)
	}
	return out
}

// recordingSource fails the test if it is ever opened.
type recordingSource struct {
	l1source.FrameSource
	opened bool
}

func (s *recordingSource) Open(ctx context.Context) error {
	s.opened = true
	return s.FrameSource.Open(ctx)
}

func TestAnalyze_SquatSingleRep(t *testing.T) {
	t.Parallel()

	src := testutil.Source(t, 30, squats(170, 170, 85, 85, 170, 170)...)
	res, err := newAnalyzer(t).Analyze(context.Background(), src, "squats")
	require.NoError(t, err)

	assert.Equal(t, vision.Squats, res.Exercise)
	assert.Equal(t, 6, res.TotalFrames)
	assert.Equal(t, 6, res.FramesWithPose)
	require.NotNil(t, res.TotalReps)
	assert.Equal(t, 1, *res.TotalReps)
	require.Len(t, res.Repetitions, 1)
	rep := res.Repetitions[0]
	assert.Equal(t, 1, rep.RepNumber)
	assert.InDelta(t, 5.0/30, rep.Timestamp, 1e-12)
	assert.InDelta(t, 0.9, rep.FormQuality, 1e-12)
	assert.Equal(t, []string{"Squat deeper for better range of motion"}, rep.Feedback)

	assert.Nil(t, res.HoldDuration)
	assert.Empty(t, res.HoldSessions)
	require.NotNil(t, res.ConsistencyScore)
	assert.Equal(t, 1.0, *res.ConsistencyScore)
	require.NotNil(t, res.BestRepQuality)
	assert.InDelta(t, 0.9, *res.BestRepQuality, 1e-12)

	// Four standing frames at 0.9 and two bottom frames at 1.0.
	assert.InDelta(t, (4*0.9+2*1.0)/6, res.AverageFormScore, 1e-12)
	assert.Equal(t, []string{"Excellent form overall!", "Completed 1 repetitions"}, res.OverallFeedback)

	require.Len(t, res.FormFeedback, 4)
	for _, fb := range res.FormFeedback {
		assert.Equal(t, vision.SeverityInfo, fb.Severity)
		assert.Contains(t, []int{1, 2, 5, 6}, fb.FrameNumber)
	}
	assert.False(t, res.Partial)
	assert.Nil(t, res.Frames)
}

func TestAnalyze_PlankSingleSession(t *testing.T) {
	t.Parallel()

	src := testutil.Source(t, 30, planks(150, 165, 175, 175, 150)...)
	res, err := newAnalyzer(t).Analyze(context.Background(), src, "planks")
	require.NoError(t, err)

	assert.Nil(t, res.TotalReps)
	assert.Empty(t, res.Repetitions)
	require.Len(t, res.HoldSessions, 1)
	s := res.HoldSessions[0]
	assert.InDelta(t, 2.0/30, s.StartTime, 1e-12)
	require.NotNil(t, s.EndTime)
	assert.InDelta(t, 5.0/30, *s.EndTime, 1e-12)
	assert.InDelta(t, 3.0/30, s.Duration, 1e-12)
	assert.InDelta(t, 1.0, s.FormQuality, 1e-12)
	assert.Empty(t, s.Feedback)

	require.NotNil(t, res.HoldDuration)
	assert.InDelta(t, 0.1, *res.HoldDuration, 1e-12)
	assert.Nil(t, res.ConsistencyScore)
	assert.Nil(t, res.BestRepQuality)
	assert.Equal(t, []string{"Excellent form overall!", "Held plank for 0.1 seconds total"}, res.OverallFeedback)

	// Frames 1 and 5 have a bent back: 0.7 is not below the warning score.
	require.Len(t, res.FormFeedback, 2)
	assert.Equal(t, "Straighten your back", res.FormFeedback[0].Message)
	assert.Equal(t, vision.SeverityInfo, res.FormFeedback[0].Severity)
	assert.Equal(t, 5, res.FormFeedback[1].FrameNumber)
}

func TestAnalyze_PlankOpenAtEnd(t *testing.T) {
	t.Parallel()

	// The final frame has no pose; the session closes at its timestamp.
	frames := append(planks(150, 170, 172), nil)
	res, err := newAnalyzer(t).Analyze(context.Background(), testutil.Source(t, 10, frames...), "planks")
	require.NoError(t, err)

	require.Len(t, res.HoldSessions, 1)
	s := res.HoldSessions[0]
	assert.InDelta(t, 0.2, s.StartTime, 1e-12)
	assert.InDelta(t, 0.4, *s.EndTime, 1e-12)
	assert.InDelta(t, 0.2, s.Duration, 1e-12)
	assert.Equal(t, 4, res.TotalFrames)
	assert.Equal(t, 3, res.FramesWithPose)
}

func TestAnalyze_NoPoseAnywhere(t *testing.T) {
	t.Parallel()

	for _, e := range vision.Exercises() {
		src := testutil.Source(t, 30, nil, nil, nil)
		res, err := newAnalyzer(t).Analyze(context.Background(), src, string(e))
		require.NoError(t, err, e)
		assert.Equal(t, 3, res.TotalFrames, e)
		assert.Equal(t, 0, res.FramesWithPose, e)
		assert.Equal(t, 0.0, res.AverageFormScore, e)
		assert.Empty(t, res.FormFeedback, e)
		assert.Empty(t, res.Repetitions, e)
		assert.Empty(t, res.HoldSessions, e)
		if e.Kind() == vision.KindHold {
			require.NotNil(t, res.HoldDuration, e)
			assert.Equal(t, 0.0, *res.HoldDuration, e)
			assert.Nil(t, res.TotalReps, e)
		} else {
			require.NotNil(t, res.TotalReps, e)
			assert.Equal(t, 0, *res.TotalReps, e)
			assert.Nil(t, res.HoldDuration, e)
		}
	}
}

func TestAnalyze_UnsupportedExerciseBeforeOpen(t *testing.T) {
	t.Parallel()

	src := &recordingSource{FrameSource: testutil.Source(t, 30, squats(170)...)}
	res, err := newAnalyzer(t).Analyze(context.Background(), src, "burpees")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, vision.ErrUnsupportedExercise)
	assert.False(t, src.opened)
}

func TestAnalyze_UnreadableStream(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	ctx := context.Background()
	decode := errors.New("decoder gave up")

	tests := []struct {
		name string
		src  l1source.FrameSource
	}{
		{"open fails", testutil.FailingSource{}},
		{"empty", testutil.Source(t, 30)},
		{"first read fails", &testutil.ErrAfterSource{FrameSource: testutil.Source(t, 30, squats(170)...), Err: decode}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(ctx, tt.src, "squats")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, vision.ErrUnreadableStream)
		})
	}
}

func TestAnalyze_MidStreamErrorEndsStream(t *testing.T) {
	t.Parallel()

	src := &testutil.ErrAfterSource{
		FrameSource: testutil.Source(t, 30, squats(170, 80, 170, 80, 170)...),
		Limit:       3,
		Err:         errors.New("corrupt frame"),
	}
	res, err := newAnalyzer(t).Analyze(context.Background(), src, "squats")
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalFrames)
	assert.Equal(t, 1, res.RepCount())
	assert.False(t, res.Partial)
}

func TestAnalyze_DetectorErrorCountsAsNoPose(t *testing.T) {
	t.Parallel()

	frames := squats(170, 80, 170)
	det := &testutil.ScriptedDetector{Frames: frames, Errs: map[int]error{2: errors.New("model crashed")}}
	m, _ := metrics.NewTestManagerAndRegistry()
	a := NewAnalyzer(config.DefaultTuningConfig(), det, m)

	res, err := a.Analyze(context.Background(), l1source.NewPayloadSource(30, nil, nil, nil), "squats")
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalFrames)
	assert.Equal(t, 2, res.FramesWithPose)
	assert.Equal(t, 0, res.RepCount(), "the DOWN frame was lost")
	assert.Equal(t, 3, det.Calls())
}

func TestAnalyze_CancelledMidStreamReturnsPartial(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &testutil.HookSource{
		FrameSource: testutil.Source(t, 30, planks(165, 170, 175, 175, 175, 175)...),
		Before: func(n int) {
			if n == 4 {
				cancel()
			}
		},
	}
	res, err := newAnalyzer(t).Analyze(ctx, src, "planks")
	require.Error(t, err)
	assert.ErrorIs(t, err, vision.ErrAnalysisAborted)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, res)
	assert.True(t, res.Partial)
	assert.Equal(t, 3, res.TotalFrames)
	require.Len(t, res.HoldSessions, 1)
	assert.InDelta(t, 2.0/30, res.HoldSessions[0].Duration, 1e-12)
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &recordingSource{FrameSource: testutil.Source(t, 30, squats(170)...)}
	_, err := newAnalyzer(t).Analyze(ctx, src, "squats")
	assert.ErrorIs(t, err, vision.ErrAnalysisAborted)
	assert.False(t, src.opened)
}

func TestAnalyze_RoundTripDeterministic(t *testing.T) {
	t.Parallel()

	tuning := config.DefaultTuningConfig()
	record := true
	tuning.RecordFrames = &record
	det, err := l1source.NewLandmarkDetector()
	require.NoError(t, err)
	a := NewAnalyzer(tuning, det, nil)

	frames := append(squats(170, 150, 85, 60, 100, 175, 175, 88, 130, 179), nil, testutil.SquatPoseLR(150, 120))
	src := testutil.Source(t, 24, frames...)

	first, err := a.Analyze(context.Background(), src, "squats")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), src, "squats")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
	assert.Len(t, first.Frames, 12)
	assert.False(t, first.Frames[10].PoseDetected)
	assert.Equal(t, 2, first.RepCount())
}

func TestAnalyze_ResultProperties(t *testing.T) {
	t.Parallel()

	tuning := config.DefaultTuningConfig()
	record := true
	tuning.RecordFrames = &record
	det, err := l1source.NewLandmarkDetector()
	require.NoError(t, err)
	a := NewAnalyzer(tuning, det, nil)

	var frames []vision.KeypointFrame
	for i := 0; i < 120; i++ {
		angle := 60 + float64((i*37)%125)
		switch i % 7 {
		case 3:
			frames = append(frames, nil)
		case 5:
			frames = append(frames, testutil.SquatPoseLR(angle, angle-30))
		default:
			frames = append(frames, testutil.SquatPose(angle))
		}
	}

	for _, e := range []string{"squats", "lunges", "pushups", "planks"} {
		res, err := a.Analyze(context.Background(), testutil.Source(t, 30, frames...), e)
		require.NoError(t, err, e)

		assert.GreaterOrEqual(t, res.AverageFormScore, 0.0)
		assert.LessOrEqual(t, res.AverageFormScore, 1.0)
		for _, f := range res.Frames {
			assert.GreaterOrEqual(t, f.FormScore, 0.0)
			assert.LessOrEqual(t, f.FormScore, 1.0)
		}
		if res.ConsistencyScore != nil {
			assert.GreaterOrEqual(t, *res.ConsistencyScore, 0.0)
			assert.LessOrEqual(t, *res.ConsistencyScore, 1.0)
		}
		for i, rep := range res.Repetitions {
			assert.Equal(t, i+1, rep.RepNumber)
		}
		if vision.Exercise(e).Kind() == vision.KindHold {
			assert.Nil(t, res.TotalReps)
		} else {
			assert.Empty(t, res.HoldSessions)
			assert.Nil(t, res.HoldDuration)
		}
	}
}

func TestAnalyze_WarningSeverity(t *testing.T) {
	t.Parallel()

	// A shallow lunge scores 0.9, below a raised warning threshold.
	tuning := config.DefaultTuningConfig()
	warn := 0.95
	tuning.WarningScore = &warn
	det, err := l1source.NewLandmarkDetector()
	require.NoError(t, err)

	src := testutil.Source(t, 30, testutil.SquatPoseLR(130, 150), testutil.LungePose(150, 170))
	res, err := NewAnalyzer(tuning, det, nil).Analyze(context.Background(), src, "lunges")
	require.NoError(t, err)
	require.NotEmpty(t, res.FormFeedback)
	for _, fb := range res.FormFeedback {
		assert.Equal(t, "Lunge deeper for better activation", fb.Message)
		assert.Equal(t, vision.SeverityWarning, fb.Severity)
	}
}

func TestAnalyze_Metrics(t *testing.T) {
	t.Parallel()

	m, reg := metrics.NewTestManagerAndRegistry()
	det, err := l1source.NewLandmarkDetector()
	require.NoError(t, err)
	a := NewAnalyzer(nil, det, m)

	src := testutil.Source(t, 30, append(squats(170, 80, 170), nil)...)
	_, err = a.Analyze(context.Background(), src, "squats")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[f.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 4.0, values["fitness_test_vision_frames"])
	assert.Equal(t, 1.0, values["fitness_test_vision_repetitions"])
}

func TestAnalyze_LogsDetectorFailures(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	SetLogger(logger)
	defer SetLogger(nil)

	det := &testutil.ScriptedDetector{Errs: map[int]error{1: errors.New("model crashed")}}
	_, err := NewAnalyzer(nil, det, nil).Analyze(context.Background(), l1source.NewPayloadSource(30, nil), "squats")
	require.NoError(t, err)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["component"] == "pipeline" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning from the pipeline component")
}

func TestAnalyze_TracesRepState(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	SetLogger(logger)
	defer SetLogger(nil)

	src := testutil.Source(t, 30, squats(170, 85, 170)...)
	_, err := newAnalyzer(t).Analyze(context.Background(), src, "squats")
	require.NoError(t, err)

	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.TraceLevel {
			msgs = append(msgs, e.Message)
		}
	}
	assert.Contains(t, msgs, "squats: frame 2: score=1.00 primary=85.0 position=down reps=0")
	assert.Contains(t, msgs, "squats: frame 3: score=0.90 primary=170.0 position=up reps=1")
}
