package vision

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedExercise is returned before any frame is read when the
	// requested exercise is not one of the configured types.
	ErrUnsupportedExercise = errors.New("unsupported exercise")

	// ErrUnreadableStream is returned when a frame source cannot be opened
	// or yields no frame at all.
	ErrUnreadableStream = errors.New("unreadable frame stream")

	// ErrAnalysisAborted is returned together with a partial result when the
	// run is cancelled mid-stream.
	ErrAnalysisAborted = errors.New("analysis aborted")
)

// UnsupportedExerciseError carries the rejected exercise identifier.
// It matches ErrUnsupportedExercise under errors.Is.
type UnsupportedExerciseError struct {
	Exercise string
}

func (e *UnsupportedExerciseError) Error() string {
	return fmt.Sprintf("%s: %q (supported: %v)", ErrUnsupportedExercise, e.Exercise, Exercises())
}

func (e *UnsupportedExerciseError) Is(target error) bool {
	return target == ErrUnsupportedExercise
}
