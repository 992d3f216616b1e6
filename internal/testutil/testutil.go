// Package testutil provides shared test utilities and fixtures.
//
// The pose builders return keypoint frames whose joint angles are chosen by
// the caller, so tests can script exact angle sequences without a detector.
package testutil

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

const segment = 0.3

func point(x, y float64) vision.Keypoint {
	return vision.Keypoint{X: x, Y: y, Visibility: 1}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// leg returns hip and ankle around a knee so that the hip–knee–ankle angle
// is theta degrees. The shin points straight down.
func leg(knee vision.Keypoint, theta float64) (hip, ankle vision.Keypoint) {
	ankle = point(knee.X, knee.Y+segment)
	hip = point(knee.X+segment*math.Sin(rad(theta)), knee.Y+segment*math.Cos(rad(theta)))
	return hip, ankle
}

// SquatPose returns a frame whose knees both bend at kneeAngle degrees with
// the shoulders above the hips.
func SquatPose(kneeAngle float64) vision.KeypointFrame {
	return SquatPoseLR(kneeAngle, kneeAngle)
}

// SquatPoseLR is SquatPose with independent left and right knee angles.
func SquatPoseLR(left, right float64) vision.KeypointFrame {
	lKnee := point(0.4, 0.6)
	rKnee := point(0.6, 0.6)
	lHip, lAnkle := leg(lKnee, left)
	rHip, rAnkle := leg(rKnee, right)
	return vision.KeypointFrame{
		vision.KeypointNose:          point(lHip.X, lHip.Y-0.35),
		vision.KeypointLeftShoulder:  point(lHip.X, lHip.Y-0.25),
		vision.KeypointRightShoulder: point(rHip.X, rHip.Y-0.25),
		vision.KeypointLeftHip:       lHip,
		vision.KeypointRightHip:      rHip,
		vision.KeypointLeftKnee:      lKnee,
		vision.KeypointRightKnee:     rKnee,
		vision.KeypointLeftAnkle:     lAnkle,
		vision.KeypointRightAnkle:    rAnkle,
	}
}

// LungePose returns a frame with the left (front) knee at front degrees and
// the right knee at back degrees.
func LungePose(front, back float64) vision.KeypointFrame {
	return SquatPoseLR(front, back)
}

// PushupPose returns a side-on frame with both elbows at elbowAngle degrees
// and a straight shoulder–hip–ankle line.
func PushupPose(elbowAngle float64) vision.KeypointFrame {
	elbow := point(0.3, 0.55)
	wrist := point(elbow.X, elbow.Y+0.15)
	shoulder := point(elbow.X+0.15*math.Sin(rad(elbowAngle)), elbow.Y+0.15*math.Cos(rad(elbowAngle)))
	return vision.KeypointFrame{
		vision.KeypointLeftShoulder:  shoulder,
		vision.KeypointRightShoulder: shoulder,
		vision.KeypointLeftElbow:     elbow,
		vision.KeypointRightElbow:    elbow,
		vision.KeypointLeftWrist:     wrist,
		vision.KeypointRightWrist:    wrist,
		vision.KeypointLeftHip:       point(shoulder.X+0.3, shoulder.Y),
		vision.KeypointLeftAnkle:     point(shoulder.X+0.6, shoulder.Y),
	}
}

// PlankPose returns a side-on frame whose shoulder–hip–ankle angle is
// backAngle degrees, with the shoulders never below the hips.
func PlankPose(backAngle float64) vision.KeypointFrame {
	hip := point(0.5, 0.5)
	ankle := point(0.9, 0.5)
	shoulder := point(hip.X+segment*math.Cos(rad(backAngle)), hip.Y-segment*math.Sin(rad(backAngle)))
	elbow := point(shoulder.X, shoulder.Y+0.2)
	return vision.KeypointFrame{
		vision.KeypointLeftShoulder: shoulder,
		vision.KeypointLeftElbow:    elbow,
		vision.KeypointLeftWrist:    point(elbow.X-0.1, elbow.Y),
		vision.KeypointLeftHip:      hip,
		vision.KeypointLeftAnkle:    ankle,
	}
}

// Source encodes frames as landmark payloads in a replayable source at fps.
// A nil frame becomes a frame without a pose.
func Source(t testing.TB, fps float64, frames ...vision.KeypointFrame) *l1source.SliceSource {
	t.Helper()
	payloads := make([][]byte, len(frames))
	for i, f := range frames {
		p, err := l1source.EncodeLandmarks(f)
		if err != nil {
			t.Fatalf("encode frame %d: %v", i+1, err)
		}
		payloads[i] = p
	}
	return l1source.NewPayloadSource(fps, payloads...)
}

// ScriptedDetector returns Frames[Index-1] for each raw frame, ignoring
// the payload. Errs injects a detection error by frame index.
type ScriptedDetector struct {
	Frames []vision.KeypointFrame
	Errs   map[int]error

	mu    sync.Mutex
	calls int
}

func (d *ScriptedDetector) Detect(ctx context.Context, f l1source.RawFrame) (vision.KeypointFrame, bool, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := d.Errs[f.Index]; err != nil {
		return nil, false, err
	}
	i := f.Index - 1
	if i < 0 || i >= len(d.Frames) || d.Frames[i] == nil {
		return nil, false, nil
	}
	return d.Frames[i], true, nil
}

// Calls returns how many times Detect ran.
func (d *ScriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// ErrOpen is returned by FailingSource.Open.
var ErrOpen = errors.New("cannot open source")

// FailingSource cannot be opened.
type FailingSource struct{}

func (FailingSource) Open(context.Context) error { return ErrOpen }
func (FailingSource) Next(context.Context) (l1source.RawFrame, error) {
	return l1source.RawFrame{}, ErrOpen
}
func (FailingSource) Close() error { return nil }

// HookSource wraps a source and calls Before with the 1-based number of the
// frame about to be read. Tests use it to cancel a run mid-stream.
type HookSource struct {
	l1source.FrameSource
	Before func(n int)

	n int
}

func (s *HookSource) Next(ctx context.Context) (l1source.RawFrame, error) {
	s.n++
	if s.Before != nil {
		s.Before(s.n)
	}
	return s.FrameSource.Next(ctx)
}

// ErrAfterSource returns Err instead of the frame after Limit frames.
type ErrAfterSource struct {
	l1source.FrameSource
	Limit int
	Err   error

	n int
}

func (s *ErrAfterSource) Next(ctx context.Context) (l1source.RawFrame, error) {
	if s.n >= s.Limit {
		return l1source.RawFrame{}, s.Err
	}
	s.n++
	return s.FrameSource.Next(ctx)
}
