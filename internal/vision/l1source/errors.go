package l1source

import "errors"

var (
	errNotOpen = errors.New("frame source not open")

	// ErrMalformedFrame is returned by Next when a capture line cannot be
	// decoded. The stream ends at that frame.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrMalformedLandmarks is returned by a detector for a payload that is
	// neither a named landmark map nor a landmark array.
	ErrMalformedLandmarks = errors.New("malformed landmark payload")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("detector pool closed")
)
