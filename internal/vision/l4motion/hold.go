package l4motion

import (
	"gonum.org/v1/gonum/stat"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// defaultHoldQuality is reported for a session whose score window is empty.
const defaultHoldQuality = 0.5

// HoldTracker accumulates contiguous hold sessions. A frame is in position
// when the hold angle lies strictly inside (min, max).
//
// While in position the tracker keeps the last window scores of the
// current session. The frame that breaks the hold does not contribute to
// the session's quality or feedback.
type HoldTracker struct {
	min, max float64
	angle    string
	window   int

	open     bool
	start    float64
	scores   []float64
	feedback []string
	seen     map[string]bool
}

// NewHoldTracker returns a tracker for cfg. A window below 1 is treated as 1.
func NewHoldTracker(cfg vision.ExerciseConfig, min, max float64, window int) *HoldTracker {
	if window < 1 {
		window = 1
	}
	return &HoldTracker{min: min, max: max, angle: cfg.HoldAngle, window: window}
}

// InPosition reports whether angles place the frame in the hold band. A
// missing hold angle is never in position.
func (h *HoldTracker) InPosition(angles vision.AngleSet) bool {
	a, ok := angles[h.angle]
	return ok && a > h.min && a < h.max
}

// Observe feeds one frame. It reports whether the frame is in position and
// returns the session closed by this frame, if any. Closed sessions are
// handed to the caller and not retained.
func (h *HoldTracker) Observe(obs Observation) (bool, *vision.HoldSession) {
	in := h.InPosition(obs.Angles)

	switch {
	case in && !h.open:
		h.open = true
		h.start = obs.Timestamp
		h.scores = h.scores[:0]
		h.feedback = nil
		h.seen = make(map[string]bool)
		h.accumulate(obs.Score)
	case in:
		h.accumulate(obs.Score)
	case h.open:
		return false, h.close(obs.Timestamp)
	}
	return in, nil
}

// Finish closes an open session at lastTimestamp, the timestamp of the last
// frame read. It returns nil when no session was open.
func (h *HoldTracker) Finish(lastTimestamp float64) *vision.HoldSession {
	if !h.open {
		return nil
	}
	return h.close(lastTimestamp)
}

// Open reports whether a session is in progress.
func (h *HoldTracker) Open() bool { return h.open }

func (h *HoldTracker) accumulate(fs vision.FrameScore) {
	if len(h.scores) == h.window {
		copy(h.scores, h.scores[1:])
		h.scores = h.scores[:h.window-1]
	}
	h.scores = append(h.scores, fs.Score)

	// First-seen order keeps feedback deterministic.
	for _, msg := range fs.Feedback {
		if !h.seen[msg] {
			h.seen[msg] = true
			h.feedback = append(h.feedback, msg)
		}
	}
}

func (h *HoldTracker) close(end float64) *vision.HoldSession {
	quality := defaultHoldQuality
	if len(h.scores) > 0 {
		quality = stat.Mean(h.scores, nil)
	}

	endTime := end
	s := vision.HoldSession{
		StartTime:   h.start,
		EndTime:     &endTime,
		Duration:    end - h.start,
		FormQuality: quality,
		Feedback:    append([]string{}, h.feedback...),
	}
	h.open = false
	h.feedback = nil
	h.seen = nil
	return &s
}
