// Package l4motion owns Layer 4 (Motion): state threaded across frames.
//
// RepCounter drives the UP/DOWN state machine that counts repetitions for
// rep exercises. HoldTracker opens and closes hold sessions for timed
// exercises. Both are single-video, single-goroutine state and must be
// created fresh for every run; frames must be observed in source order.
package l4motion

import "github.com/abdulrehhhhman/fitness-ai/internal/vision"

// Observation is one frame with a detected pose, as seen by the trackers.
type Observation struct {
	FrameNumber int
	Timestamp   float64
	Angles      vision.AngleSet
	Score       vision.FrameScore
}
