// Package l2angles owns Layer 2 (Angles): joint angles computed from a
// keypoint frame according to an exercise's angle table.
package l2angles

import (
	"math"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// Compute returns exactly the angles cfg declares for frame. An angle whose
// keypoints are missing or degenerate is 0.
func Compute(frame vision.KeypointFrame, cfg vision.ExerciseConfig) vision.AngleSet {
	out := make(vision.AngleSet, len(cfg.Angles))
	for _, spec := range cfg.Angles {
		out[spec.Name] = angleFor(frame, spec)
	}
	return out
}

func angleFor(frame vision.KeypointFrame, spec vision.AngleSpec) float64 {
	a, okA := frame.Get(spec.A)
	v, okV := frame.Get(spec.Vertex)
	b, okB := frame.Get(spec.B)
	if !okA || !okV || !okB {
		return 0
	}
	return Angle(a, v, b)
}

// Angle returns the angle at vertex between vertex→a and vertex→b in
// degrees, using the image plane only. Zero-length segments yield 0.
func Angle(a, vertex, b vision.Keypoint) float64 {
	ax, ay := a.X-vertex.X, a.Y-vertex.Y
	bx, by := b.X-vertex.X, b.Y-vertex.Y

	na := math.Hypot(ax, ay)
	nb := math.Hypot(bx, by)
	if na == 0 || nb == 0 {
		return 0
	}

	cos := (ax*bx + ay*by) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	deg := math.Acos(cos) * 180 / math.Pi
	if math.IsNaN(deg) {
		return 0
	}
	return deg
}
