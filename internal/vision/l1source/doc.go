// Package l1source owns Layer 1 (Sources) of the vision data model.
//
// Responsibilities: reading raw frames from a frame source (JSON-lines
// keypoint captures, in-memory slices, stored captures) and turning a raw
// frame into a named KeypointFrame through the PoseDetector boundary.
// Detector instances are leased from a DetectorPool and may be wrapped in a
// CachingDetector that memoizes detections by payload hash.
//
// Dependency rule: L1 depends only on the vision root package.
package l1source
