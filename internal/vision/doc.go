// Package vision holds the shared data model of the exercise analysis
// pipeline: keypoints, angle sets, per-frame scores, repetition and hold
// events, and the aggregate AnalysisResult.
//
// The per-exercise configuration (angle triples, primary angles, form
// rules) lives here as immutable data keyed by the closed Exercise enum.
// Layer packages consume it in order:
//
//	l1source  frame sources and the pose detector boundary
//	l2angles  joint angle computation
//	l3form    per-frame form scoring
//	l4motion  repetition state machine and hold tracking
//	l5summary aggregation into an AnalysisResult
//
// Dependency rule: this package imports no layer package. pipeline is the
// composition root that wires the layers together.
package vision
