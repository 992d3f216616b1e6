package vision

import "strings"

// Keypoint names produced by the detector boundary.
const (
	KeypointNose          = "nose"
	KeypointLeftShoulder  = "left_shoulder"
	KeypointRightShoulder = "right_shoulder"
	KeypointLeftElbow     = "left_elbow"
	KeypointRightElbow    = "right_elbow"
	KeypointLeftWrist     = "left_wrist"
	KeypointRightWrist    = "right_wrist"
	KeypointLeftHip       = "left_hip"
	KeypointRightHip      = "right_hip"
	KeypointLeftKnee      = "left_knee"
	KeypointRightKnee     = "right_knee"
	KeypointLeftAnkle     = "left_ankle"
	KeypointRightAnkle    = "right_ankle"
)

// Angle names that are not simply the vertex keypoint name.
const (
	AngleBody      = "body_angle"
	AngleBack      = "back_angle"
	AngleFrontKnee = "front_knee"
	AngleBackKnee  = "back_knee"
)

// Exercise identifies one of the supported exercise types.
type Exercise string

const (
	Squats  Exercise = "squats"
	Pushups Exercise = "pushups"
	Lunges  Exercise = "lunges"
	Planks  Exercise = "planks"
)

// Kind separates repetition-counted exercises from timed holds.
type Kind int

const (
	KindReps Kind = iota
	KindHold
)

func (k Kind) String() string {
	switch k {
	case KindReps:
		return "reps"
	case KindHold:
		return "hold"
	default:
		return "unknown"
	}
}

// AngleSpec declares one joint angle as the angle at Vertex between the
// segments Vertex→A and Vertex→B.
type AngleSpec struct {
	Name   string
	A      string
	Vertex string
	B      string
}

// RuleCheck selects how a Rule is evaluated.
type RuleCheck int

const (
	// CheckAngleGap fires when |Angles[0] − Angles[1]| > Threshold.
	CheckAngleGap RuleCheck = iota
	// CheckAbove fires when the mean of Angles is > Threshold.
	CheckAbove
	// CheckBelow fires when the mean of Angles is < Threshold.
	CheckBelow
	// CheckLower fires when Keypoints[0] sits lower in the image than
	// Keypoints[1] (larger Y).
	CheckLower
)

// Rule is one form check with its fixed penalty.
type Rule struct {
	Code      string
	Check     RuleCheck
	Angles    []string
	Keypoints [2]string
	Threshold float64
	Penalty   float64
	Message   string
}

// ExerciseConfig is the immutable analysis table for one exercise. Callers
// must treat the slices as read-only.
type ExerciseConfig struct {
	Exercise Exercise
	Kind     Kind
	Label    string // human name used in summaries

	// Angles lists the joint angles computed for every frame, in order.
	Angles []AngleSpec

	// PrimaryAngles are averaged into the scalar that drives the rep
	// state machine (KindReps only). A missing angle counts as
	// PrimaryFallback degrees.
	PrimaryAngles   []string
	PrimaryFallback float64

	// HoldAngle decides whether a frame is in the hold position (KindHold only).
	HoldAngle string

	// Rules are evaluated in order; penalties are subtracted in that order.
	Rules []Rule
}

var exerciseOrder = []Exercise{Squats, Pushups, Lunges, Planks}

// The lunge front leg is always the left leg. Detecting which leg leads is
// not attempted; mirror the capture if the right leg is in front.
var exerciseTable = map[Exercise]ExerciseConfig{
	Squats: {
		Exercise: Squats,
		Kind:     KindReps,
		Label:    "squat",
		Angles: []AngleSpec{
			{Name: KeypointLeftKnee, A: KeypointLeftHip, Vertex: KeypointLeftKnee, B: KeypointLeftAnkle},
			{Name: KeypointRightKnee, A: KeypointRightHip, Vertex: KeypointRightKnee, B: KeypointRightAnkle},
			{Name: KeypointLeftHip, A: KeypointLeftShoulder, Vertex: KeypointLeftHip, B: KeypointLeftKnee},
		},
		PrimaryAngles:   []string{KeypointLeftKnee, KeypointRightKnee},
		PrimaryFallback: 180,
		Rules: []Rule{
			{Code: "knees_misaligned", Check: CheckAngleGap, Angles: []string{KeypointLeftKnee, KeypointRightKnee}, Threshold: 15, Penalty: 0.2, Message: "Keep knees aligned"},
			{Code: "not_deep_enough", Check: CheckAbove, Angles: []string{KeypointLeftKnee, KeypointRightKnee}, Threshold: 120, Penalty: 0.1, Message: "Squat deeper for better range of motion"},
			{Code: "too_deep", Check: CheckBelow, Angles: []string{KeypointLeftKnee, KeypointRightKnee}, Threshold: 70, Penalty: 0.1, Message: "Don't squat too deep"},
			{Code: "keep_chest_up", Check: CheckLower, Keypoints: [2]string{KeypointLeftShoulder, KeypointLeftHip}, Penalty: 0.2, Message: "Keep chest up and back straight"},
		},
	},
	Pushups: {
		Exercise: Pushups,
		Kind:     KindReps,
		Label:    "push-up",
		Angles: []AngleSpec{
			{Name: KeypointLeftElbow, A: KeypointLeftShoulder, Vertex: KeypointLeftElbow, B: KeypointLeftWrist},
			{Name: KeypointRightElbow, A: KeypointRightShoulder, Vertex: KeypointRightElbow, B: KeypointRightWrist},
			{Name: AngleBody, A: KeypointLeftShoulder, Vertex: KeypointLeftHip, B: KeypointLeftAnkle},
		},
		PrimaryAngles:   []string{KeypointLeftElbow, KeypointRightElbow},
		PrimaryFallback: 180,
		Rules: []Rule{
			{Code: "elbows_misaligned", Check: CheckAngleGap, Angles: []string{KeypointLeftElbow, KeypointRightElbow}, Threshold: 20, Penalty: 0.2, Message: "Keep elbows aligned"},
			{Code: "hips_sagging", Check: CheckBelow, Angles: []string{AngleBody}, Threshold: 160, Penalty: 0.3, Message: "Keep body straight - no sagging hips"},
			{Code: "hips_too_high", Check: CheckAbove, Angles: []string{AngleBody}, Threshold: 190, Penalty: 0.2, Message: "Lower your hips"},
		},
	},
	Lunges: {
		Exercise: Lunges,
		Kind:     KindReps,
		Label:    "lunge",
		Angles: []AngleSpec{
			{Name: AngleFrontKnee, A: KeypointLeftHip, Vertex: KeypointLeftKnee, B: KeypointLeftAnkle},
			{Name: AngleBackKnee, A: KeypointRightHip, Vertex: KeypointRightKnee, B: KeypointRightAnkle},
		},
		PrimaryAngles:   []string{AngleFrontKnee},
		PrimaryFallback: 180,
		Rules: []Rule{
			{Code: "knee_too_far_forward", Check: CheckBelow, Angles: []string{AngleFrontKnee}, Threshold: 80, Penalty: 0.2, Message: "Don't let front knee go too far forward"},
			{Code: "lunge_deeper", Check: CheckAbove, Angles: []string{AngleFrontKnee}, Threshold: 110, Penalty: 0.1, Message: "Lunge deeper for better activation"},
		},
	},
	Planks: {
		Exercise: Planks,
		Kind:     KindHold,
		Label:    "plank",
		Angles: []AngleSpec{
			{Name: AngleBack, A: KeypointLeftShoulder, Vertex: KeypointLeftHip, B: KeypointLeftAnkle},
			{Name: KeypointLeftElbow, A: KeypointLeftShoulder, Vertex: KeypointLeftElbow, B: KeypointLeftWrist},
		},
		HoldAngle: AngleBack,
		Rules: []Rule{
			{Code: "straighten_back", Check: CheckBelow, Angles: []string{AngleBack}, Threshold: 160, Penalty: 0.3, Message: "Straighten your back"},
			{Code: "dont_arch_back", Check: CheckAbove, Angles: []string{AngleBack}, Threshold: 190, Penalty: 0.2, Message: "Don't arch your back"},
			{Code: "lower_hips", Check: CheckLower, Keypoints: [2]string{KeypointLeftShoulder, KeypointLeftHip}, Penalty: 0.2, Message: "Lower your hips"},
		},
	},
}

// Exercises returns the supported exercises in a stable order.
func Exercises() []Exercise {
	out := make([]Exercise, len(exerciseOrder))
	copy(out, exerciseOrder)
	return out
}

// ParseExercise resolves an identifier such as "squats" (case and
// surrounding whitespace are ignored).
func ParseExercise(s string) (Exercise, error) {
	e := Exercise(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := exerciseTable[e]; !ok {
		return "", &UnsupportedExerciseError{Exercise: s}
	}
	return e, nil
}

// Lookup returns the analysis table for e.
func Lookup(e Exercise) (ExerciseConfig, bool) {
	cfg, ok := exerciseTable[e]
	return cfg, ok
}

// Config returns the analysis table for e or an *UnsupportedExerciseError.
func (e Exercise) Config() (ExerciseConfig, error) {
	cfg, ok := exerciseTable[e]
	if !ok {
		return ExerciseConfig{}, &UnsupportedExerciseError{Exercise: string(e)}
	}
	return cfg, nil
}

// Kind returns the exercise kind; unknown exercises report KindReps.
func (e Exercise) Kind() Kind {
	return exerciseTable[e].Kind
}

func (e Exercise) String() string { return string(e) }
