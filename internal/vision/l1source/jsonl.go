package l1source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLineBytes bounds a single capture line. A 33-landmark frame is well
// under 8 KiB; the margin allows extra metadata.
const maxLineBytes = 1 << 20

// frameRecord is one line of a keypoint capture:
//
//	{"frame": 12, "timestamp": 0.4, "landmarks": {...} | [...] | null}
//
// frame and timestamp are optional. Frame numbers may start at 0 or 1 and
// must increase; a stream numbered from 0 is shifted to 1-based.
type frameRecord struct {
	Frame     *int                `json:"frame,omitempty"`
	Timestamp *float64            `json:"timestamp,omitempty"`
	Landmarks jsoniter.RawMessage `json:"landmarks"`
}

// JSONLSource reads a JSON-lines keypoint capture. Blank lines are skipped.
type JSONLSource struct {
	path string
	fps  float64

	r       io.Reader
	file    *os.File
	scanner *bufio.Scanner
	line    int
	last    int  // index of the previous frame
	offset  int  // 1 when the stream is numbered from 0
	based   bool // offset has been decided
}

// NewJSONLFile returns a source that opens path on Open.
func NewJSONLFile(path string, fps float64) *JSONLSource {
	return &JSONLSource{path: filepath.Clean(path), fps: fps}
}

// NewJSONLReader returns a source reading from r. Close does not close r.
func NewJSONLReader(r io.Reader, fps float64) *JSONLSource {
	return &JSONLSource{r: r, fps: fps}
}

func (s *JSONLSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := s.r
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("open capture %s: %w", s.path, err)
		}
		s.file = f
		r = f
	}
	s.scanner = bufio.NewScanner(r)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	s.line = 0
	s.last = 0
	s.offset = 0
	s.based = false
	return nil
}

func (s *JSONLSource) Next(ctx context.Context) (RawFrame, error) {
	if s.scanner == nil {
		return RawFrame{}, errNotOpen
	}
	for {
		if err := ctx.Err(); err != nil {
			return RawFrame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return RawFrame{}, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return RawFrame{}, io.EOF
		}
		s.line++
		text := bytes.TrimSpace(s.scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var rec frameRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return RawFrame{}, fmt.Errorf("%w: line %d: %v", ErrMalformedFrame, s.line, err)
		}
		return s.toRawFrame(rec)
	}
}

// toRawFrame numbers the frame. A missing frame number continues from the
// previous frame.
func (s *JSONLSource) toRawFrame(rec frameRecord) (RawFrame, error) {
	idx := s.last + 1
	if rec.Frame != nil {
		if !s.based {
			s.based = true
			if *rec.Frame == 0 && s.last == 0 {
				s.offset = 1
			}
		}
		idx = *rec.Frame + s.offset
	}
	if idx <= s.last {
		return RawFrame{}, fmt.Errorf("%w: line %d: frame %d does not follow frame %d",
			ErrMalformedFrame, s.line, idx-s.offset, s.last-s.offset)
	}
	s.last = idx
	frame := RawFrame{Index: idx, Timestamp: FrameTimestamp(idx, s.fps)}
	if rec.Timestamp != nil {
		frame.Timestamp = *rec.Timestamp
	}
	if len(rec.Landmarks) > 0 && !bytes.Equal(rec.Landmarks, []byte("null")) {
		// The scanner reuses its buffer.
		frame.Payload = append([]byte(nil), rec.Landmarks...)
	}
	return frame, nil
}

func (s *JSONLSource) Close() error {
	s.scanner = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// EncodeFrame renders one capture line for the given frame.
func EncodeFrame(index int, timestamp *float64, payload []byte) ([]byte, error) {
	rec := frameRecord{Frame: &index, Timestamp: timestamp, Landmarks: payload}
	if len(payload) == 0 {
		rec.Landmarks = jsoniter.RawMessage("null")
	}
	return json.Marshal(rec)
}
