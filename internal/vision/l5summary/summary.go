// Package l5summary owns Layer 5 (Summary): folding per-frame and per-event
// outputs of one run into an AnalysisResult.
package l5summary

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// Overall feedback thresholds on the average form score.
const (
	excellentScore = 0.8
	goodScore      = 0.6
)

// Aggregator collects the outputs of a single run. It is not safe for
// concurrent use.
type Aggregator struct {
	cfg    vision.ExerciseConfig
	record bool

	totalFrames    int
	framesWithPose int
	scores         []float64

	reps     []vision.RepEvent
	sessions []vision.HoldSession
	feedback []vision.FormFeedback
	frames   []vision.FrameAnalysis
}

// New returns an aggregator for cfg. When record is set every frame is kept
// in the result.
func New(cfg vision.ExerciseConfig, record bool) *Aggregator {
	return &Aggregator{cfg: cfg, record: record}
}

// AddFrame counts one frame read from the source. Only frames with a pose
// contribute to the average form score.
func (a *Aggregator) AddFrame(fa vision.FrameAnalysis) {
	a.totalFrames++
	if fa.PoseDetected {
		a.framesWithPose++
		a.scores = append(a.scores, fa.FormScore)
	}
	if a.record {
		a.frames = append(a.frames, fa)
	}
}

// AddFeedback appends timestamped feedback events in arrival order.
func (a *Aggregator) AddFeedback(events ...vision.FormFeedback) {
	a.feedback = append(a.feedback, events...)
}

// AddRep records a completed repetition.
func (a *Aggregator) AddRep(ev vision.RepEvent) {
	a.reps = append(a.reps, ev)
}

// AddHold records a closed hold session.
func (a *Aggregator) AddHold(s vision.HoldSession) {
	a.sessions = append(a.sessions, s)
}

// TotalFrames returns the number of frames added so far.
func (a *Aggregator) TotalFrames() int { return a.totalFrames }

// Result builds the AnalysisResult. partial marks a run that stopped before
// the end of its stream.
func (a *Aggregator) Result(partial bool) *vision.AnalysisResult {
	r := &vision.AnalysisResult{
		Exercise:         a.cfg.Exercise,
		TotalFrames:      a.totalFrames,
		FramesWithPose:   a.framesWithPose,
		Repetitions:      []vision.RepEvent{},
		HoldSessions:     []vision.HoldSession{},
		AverageFormScore: AverageScore(a.scores),
		FormFeedback:     append([]vision.FormFeedback{}, a.feedback...),
		Partial:          partial,
	}
	if a.record {
		r.Frames = append([]vision.FrameAnalysis{}, a.frames...)
	}

	switch a.cfg.Kind {
	case vision.KindHold:
		r.HoldSessions = append(r.HoldSessions, a.sessions...)
		total := 0.0
		for _, s := range a.sessions {
			total += s.Duration
		}
		r.HoldDuration = &total
	default:
		r.Repetitions = append(r.Repetitions, a.reps...)
		n := len(a.reps)
		r.TotalReps = &n

		qualities := make([]float64, n)
		for i, ev := range a.reps {
			qualities[i] = ev.FormQuality
		}
		r.ConsistencyScore = Consistency(qualities)
		r.BestRepQuality = Best(qualities)
	}

	r.OverallFeedback = OverallFeedback(a.cfg.Label, r)
	return r
}

// AverageScore is the mean of scores, or 0 when there are none.
func AverageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, nil)
}

// Consistency is 1 minus the population standard deviation of the rep
// qualities, clamped to [0,1]. It is nil without reps.
func Consistency(qualities []float64) *float64 {
	if len(qualities) == 0 {
		return nil
	}
	c := 1 - stat.PopStdDev(qualities, nil)
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return &c
}

// Best is the highest rep quality, or nil without reps.
func Best(qualities []float64) *float64 {
	if len(qualities) == 0 {
		return nil
	}
	b := floats.Max(qualities)
	return &b
}

// OverallFeedback summarises a result in plain sentences: a form verdict
// followed by a rep count or hold duration line when there is one.
func OverallFeedback(label string, r *vision.AnalysisResult) []string {
	var out []string
	switch {
	case r.AverageFormScore > excellentScore:
		out = append(out, "Excellent form overall!")
	case r.AverageFormScore > goodScore:
		out = append(out, "Good form with room for improvement")
	default:
		out = append(out, "Focus on form - quality over quantity")
	}

	if n := r.RepCount(); n > 0 {
		out = append(out, fmt.Sprintf("Completed %d repetitions", n))
	}
	if d := r.HoldSeconds(); d > 0 {
		out = append(out, fmt.Sprintf("Held %s for %.1f seconds total", label, d))
	}
	return out
}
