// Package l3form owns Layer 3 (Form): per-frame quality scoring against an
// exercise's rule table.
package l3form

import (
	"math"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// Evaluate scores one frame. The score starts at 1, each violated rule
// subtracts its penalty in table order, and the result is floored at 0.
// Rules whose angles or keypoints are missing are skipped.
func Evaluate(frame vision.KeypointFrame, angles vision.AngleSet, cfg vision.ExerciseConfig) vision.FrameScore {
	score := 1.0
	feedback := make([]string, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		if !Violated(rule, frame, angles) {
			continue
		}
		score -= rule.Penalty
		feedback = append(feedback, rule.Message)
	}
	return vision.FrameScore{Score: math.Max(0, score), Feedback: feedback}
}

// Violated reports whether rule fires for the frame.
func Violated(rule vision.Rule, frame vision.KeypointFrame, angles vision.AngleSet) bool {
	switch rule.Check {
	case vision.CheckAngleGap:
		if len(rule.Angles) != 2 {
			return false
		}
		a, okA := angles[rule.Angles[0]]
		b, okB := angles[rule.Angles[1]]
		return okA && okB && math.Abs(a-b) > rule.Threshold
	case vision.CheckAbove:
		m, ok := mean(angles, rule.Angles)
		return ok && m > rule.Threshold
	case vision.CheckBelow:
		m, ok := mean(angles, rule.Angles)
		return ok && m < rule.Threshold
	case vision.CheckLower:
		lower, okL := frame.Get(rule.Keypoints[0])
		upper, okU := frame.Get(rule.Keypoints[1])
		return okL && okU && lower.Y > upper.Y
	}
	return false
}

func mean(angles vision.AngleSet, names []string) (float64, bool) {
	if len(names) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, n := range names {
		v, ok := angles[n]
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(names)), true
}

// Severity classifies feedback for a frame with the given score.
func Severity(score, warningScore float64) vision.Severity {
	if score < warningScore {
		return vision.SeverityWarning
	}
	return vision.SeverityInfo
}

// Events expands a frame score into one timestamped event per message.
func Events(frameNumber int, timestamp float64, fs vision.FrameScore, warningScore float64) []vision.FormFeedback {
	if len(fs.Feedback) == 0 {
		return nil
	}
	sev := Severity(fs.Score, warningScore)
	out := make([]vision.FormFeedback, len(fs.Feedback))
	for i, msg := range fs.Feedback {
		out[i] = vision.FormFeedback{FrameNumber: frameNumber, Timestamp: timestamp, Message: msg, Severity: sev}
	}
	return out
}
