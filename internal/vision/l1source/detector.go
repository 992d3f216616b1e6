package l1source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// PoseDetector turns a raw frame into named keypoints. ok is false when no
// pose was found. Implementations need not be safe for concurrent use;
// callers lease them through a DetectorPool.
type PoseDetector interface {
	Detect(ctx context.Context, frame RawFrame) (kp vision.KeypointFrame, ok bool, err error)
}

// HealthChecker is implemented by detectors that can self-test.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// landmarkIndex maps the 33-point landmark topology to keypoint names.
var landmarkIndex = []struct {
	idx  int
	name string
}{
	{0, vision.KeypointNose},
	{11, vision.KeypointLeftShoulder},
	{12, vision.KeypointRightShoulder},
	{13, vision.KeypointLeftElbow},
	{14, vision.KeypointRightElbow},
	{15, vision.KeypointLeftWrist},
	{16, vision.KeypointRightWrist},
	{23, vision.KeypointLeftHip},
	{24, vision.KeypointRightHip},
	{25, vision.KeypointLeftKnee},
	{26, vision.KeypointRightKnee},
	{27, vision.KeypointLeftAnkle},
	{28, vision.KeypointRightAnkle},
}

// minLandmarks is the shortest landmark array that covers every keypoint.
const minLandmarks = 29

// LandmarkDetector decodes pre-computed pose landmarks carried in the frame
// payload. It accepts either a map of keypoint name to landmark or the raw
// 33-entry landmark array, from which the 13 named keypoints are taken.
// Unknown names in a map are dropped.
type LandmarkDetector struct{}

// NewLandmarkDetector returns a LandmarkDetector. It satisfies
// DetectorFactory.
func NewLandmarkDetector() (PoseDetector, error) {
	return LandmarkDetector{}, nil
}

func (LandmarkDetector) Detect(ctx context.Context, frame RawFrame) (vision.KeypointFrame, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	kp, err := DecodeLandmarks(frame.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	if len(kp) == 0 {
		return nil, false, nil
	}
	return kp, true, nil
}

// HealthCheck decodes a built-in probe frame and verifies every keypoint
// comes back.
func (d LandmarkDetector) HealthCheck(ctx context.Context) error {
	probe := make([]vision.Keypoint, 33)
	for i := range probe {
		probe[i] = vision.Keypoint{X: 0.5, Y: float64(i) / 33, Visibility: 1}
	}
	payload, err := json.Marshal(probe)
	if err != nil {
		return err
	}
	kp, ok, err := d.Detect(ctx, RawFrame{Index: 1, Payload: payload})
	if err != nil {
		return fmt.Errorf("probe detection failed: %w", err)
	}
	if !ok || len(kp) != len(landmarkIndex) {
		return fmt.Errorf("probe detection returned %d of %d keypoints", len(kp), len(landmarkIndex))
	}
	return nil
}

var knownKeypoints = func() map[string]bool {
	m := make(map[string]bool, len(landmarkIndex))
	for _, l := range landmarkIndex {
		m[l.name] = true
	}
	return m
}()

// DecodeLandmarks parses a landmark payload. A nil, null, empty map or empty
// array payload decodes to an empty frame.
func DecodeLandmarks(payload []byte) (vision.KeypointFrame, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var named map[string]vision.Keypoint
		if err := json.Unmarshal(trimmed, &named); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLandmarks, err)
		}
		out := make(vision.KeypointFrame, len(named))
		for name, kp := range named {
			if knownKeypoints[name] {
				out[name] = kp
			}
		}
		return out, nil
	case '[':
		var list []vision.Keypoint
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLandmarks, err)
		}
		if len(list) == 0 {
			return nil, nil
		}
		if len(list) < minLandmarks {
			return nil, fmt.Errorf("%w: landmark array has %d entries, need %d", ErrMalformedLandmarks, len(list), minLandmarks)
		}
		out := make(vision.KeypointFrame, len(landmarkIndex))
		for _, l := range landmarkIndex {
			out[l.name] = list[l.idx]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unexpected leading %q", ErrMalformedLandmarks, trimmed[0])
	}
}

// EncodeLandmarks renders a KeypointFrame as a named landmark payload.
// A nil frame encodes to nil.
func EncodeLandmarks(kp vision.KeypointFrame) ([]byte, error) {
	if kp == nil {
		return nil, nil
	}
	return json.Marshal(map[string]vision.Keypoint(kp))
}
