package vision

// Keypoint is a single body landmark. X and Y are normalized image
// coordinates in [0,1] with Y growing downwards; Z is an optional relative
// depth. Visibility is the detector's confidence in [0,1].
type Keypoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Visibility float64  `json:"visibility"`
}

// KeypointFrame maps keypoint names (see the Keypoint* constants) to the
// landmarks detected in one video frame. A frame without a detected pose is
// represented by the absence of a KeypointFrame, not by an empty map.
type KeypointFrame map[string]Keypoint

// Get returns the named keypoint and whether it is present.
func (f KeypointFrame) Get(name string) (Keypoint, bool) {
	kp, ok := f[name]
	return kp, ok
}

// AngleSet maps angle names (e.g. "left_knee", "back_angle") to degrees in
// [0,180].
type AngleSet map[string]float64

// FrameScore is the form evaluation of a single frame.
type FrameScore struct {
	Score    float64  `json:"score"`    // [0,1]
	Feedback []string `json:"feedback"` // one message per violated rule, in rule order
}

// Severity classifies a timestamped feedback event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// FormFeedback is a single timestamped correction emitted for a frame.
type FormFeedback struct {
	FrameNumber int      `json:"frame_number"`
	Timestamp   float64  `json:"timestamp"` // seconds from start of video
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
}

// RepEvent records one completed repetition.
type RepEvent struct {
	RepNumber   int      `json:"rep_number"` // 1-based, strictly increasing
	Timestamp   float64  `json:"timestamp"`  // frame at which the rep completed
	FormQuality float64  `json:"form_quality"`
	Feedback    []string `json:"feedback"`
}

// HoldSession records one contiguous period spent in the hold position.
// EndTime is nil only while the session is still open.
type HoldSession struct {
	StartTime   float64  `json:"start_time"`
	EndTime     *float64 `json:"end_time,omitempty"`
	Duration    float64  `json:"duration"`
	FormQuality float64  `json:"form_quality"`
	Feedback    []string `json:"feedback"`
}

// Closed reports whether the session has an end time.
func (s HoldSession) Closed() bool {
	return s.EndTime != nil
}

// FrameAnalysis is the per-frame record kept when frame recording is enabled.
type FrameAnalysis struct {
	FrameNumber  int      `json:"frame_number"`
	Timestamp    float64  `json:"timestamp"`
	PoseDetected bool     `json:"pose_detected"`
	Angles       AngleSet `json:"key_angles,omitempty"`
	FormScore    float64  `json:"form_score"`
	InPosition   bool     `json:"in_position"`
}

// AnalysisResult is the aggregate outcome of analysing one video for one
// exercise.
//
// For rep-based exercises TotalReps is set and HoldDuration/HoldSessions
// are empty; for hold-based exercises the reverse holds. ConsistencyScore
// and BestRepQuality are nil when no repetition was completed.
type AnalysisResult struct {
	Exercise       Exercise `json:"exercise_type"`
	TotalFrames    int      `json:"total_frames"`
	FramesWithPose int      `json:"frames_with_pose"`

	TotalReps    *int     `json:"total_reps,omitempty"`
	HoldDuration *float64 `json:"hold_duration,omitempty"`

	Repetitions  []RepEvent    `json:"repetitions"`
	HoldSessions []HoldSession `json:"hold_sessions"`

	AverageFormScore float64        `json:"average_form_score"`
	ConsistencyScore *float64       `json:"consistency_score,omitempty"`
	BestRepQuality   *float64       `json:"best_rep_quality,omitempty"`
	OverallFeedback  []string       `json:"overall_feedback"`
	FormFeedback     []FormFeedback `json:"form_feedback"`

	Frames []FrameAnalysis `json:"frames,omitempty"`

	// Partial is set when the run was aborted before the end of the stream.
	Partial bool `json:"partial,omitempty"`
}

// RepCount returns the number of completed repetitions, or 0 for hold
// exercises.
func (r *AnalysisResult) RepCount() int {
	if r == nil || r.TotalReps == nil {
		return 0
	}
	return *r.TotalReps
}

// HoldSeconds returns the total hold duration, or 0 for rep exercises.
func (r *AnalysisResult) HoldSeconds() float64 {
	if r == nil || r.HoldDuration == nil {
		return 0
	}
	return *r.HoldDuration
}
