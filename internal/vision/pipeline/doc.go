// Package pipeline is the composition root of the vision data model.
//
// It wires the layers together for one video (Analyzer) and runs many
// videos concurrently against a pooled set of pose detectors (Runner):
//
//	l1source → l2angles → l3form → l4motion → l5summary
//
// Per-video state lives in a run value created for each Analyze call and is
// never shared. Frames are processed strictly in source order.
package pipeline
