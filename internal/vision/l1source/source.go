package l1source

import (
	"context"
	"io"
)

// RawFrame is one undecoded frame as read from a source.
type RawFrame struct {
	// Index is the 1-based frame number in source order.
	Index int
	// Timestamp is seconds from the start of the video. Sources derive it
	// as Index/fps when the capture does not carry one.
	Timestamp float64
	// Payload is the detector input. A nil payload is a frame in which no
	// pose can be found.
	Payload []byte
}

// FrameSource yields raw frames in order. Next returns io.EOF after the
// last frame. Any other error from Next ends the stream at that point.
type FrameSource interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (RawFrame, error)
	Close() error
}

// FrameTimestamp derives a timestamp from a 1-based frame number.
func FrameTimestamp(index int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(index) / fps
}

// SliceSource replays an in-memory list of frames.
type SliceSource struct {
	frames []RawFrame
	pos    int
	opened bool
}

// NewSliceSource returns a source over frames. The slice is not copied.
func NewSliceSource(frames []RawFrame) *SliceSource {
	return &SliceSource{frames: frames}
}

// NewPayloadSource numbers payloads from 1 and timestamps them at fps.
func NewPayloadSource(fps float64, payloads ...[]byte) *SliceSource {
	frames := make([]RawFrame, len(payloads))
	for i, p := range payloads {
		frames[i] = RawFrame{Index: i + 1, Timestamp: FrameTimestamp(i+1, fps), Payload: p}
	}
	return NewSliceSource(frames)
}

func (s *SliceSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pos = 0
	s.opened = true
	return nil
}

func (s *SliceSource) Next(ctx context.Context) (RawFrame, error) {
	if !s.opened {
		return RawFrame{}, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return RawFrame{}, err
	}
	if s.pos >= len(s.frames) {
		return RawFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *SliceSource) Close() error {
	s.opened = false
	return nil
}

// Len returns the number of frames in the source.
func (s *SliceSource) Len() int { return len(s.frames) }
