package l1source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src FrameSource) ([]RawFrame, error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, src.Open(ctx))
	defer src.Close()

	var frames []RawFrame
	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

func TestJSONLSource_TimestampsAndPayloads(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"frame":1,"landmarks":{"nose":{"x":0.5,"y":0.1,"visibility":1}}}`,
		``,
		`{"frame":2,"landmarks":null}`,
		`{"timestamp":0.5}`,
		`{"landmarks":{"nose":{"x":0.5,"y":0.2,"visibility":0.9}}}`,
	}, "\n")

	frames, err := readAll(t, NewJSONLReader(strings.NewReader(input), 10))
	require.NoError(t, err)
	require.Len(t, frames, 4)

	assert.Equal(t, 1, frames[0].Index)
	assert.InDelta(t, 0.1, frames[0].Timestamp, 1e-12)
	assert.NotNil(t, frames[0].Payload)

	assert.Equal(t, 2, frames[1].Index)
	assert.Nil(t, frames[1].Payload, "null landmarks mean no pose")

	// Missing frame numbers fall back to the read count.
	assert.Equal(t, 3, frames[2].Index)
	assert.Equal(t, 0.5, frames[2].Timestamp, "explicit timestamp wins")
	assert.Nil(t, frames[2].Payload)

	assert.Equal(t, 4, frames[3].Index)
	assert.InDelta(t, 0.4, frames[3].Timestamp, 1e-12)
}

func TestJSONLSource_ZeroBasedFrameNumbers(t *testing.T) {
	t.Parallel()

	input := "{\"frame\":0}\n{\"frame\":1}\n{}\n{\"frame\":3}\n"
	frames, err := readAll(t, NewJSONLReader(strings.NewReader(input), 10))
	require.NoError(t, err)
	require.Len(t, frames, 4)

	for i, f := range frames {
		assert.Equal(t, i+1, f.Index)
		assert.InDelta(t, float64(i+1)/10, f.Timestamp, 1e-12)
	}
}

func TestJSONLSource_FrameNumbersMustIncrease(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"repeated":       "{\"frame\":1}\n{\"frame\":2}\n{\"frame\":2}\n",
		"backwards":      "{\"frame\":1}\n{\"frame\":3}\n{\"frame\":2}\n",
		"zero after one": "{\"frame\":1}\n{}\n{\"frame\":0}\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			frames, err := readAll(t, NewJSONLReader(strings.NewReader(input), 30))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFrame)
			assert.Contains(t, err.Error(), "line 3")
			assert.Len(t, frames, 2)
		})
	}
}

func TestJSONLSource_MalformedLineEndsStream(t *testing.T) {
	t.Parallel()

	input := "{\"frame\":1}\n{not json\n{\"frame\":3}\n"
	frames, err := readAll(t, NewJSONLReader(strings.NewReader(input), 30))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFrame)
	assert.Contains(t, err.Error(), "line 2")
	assert.Len(t, frames, 1)
}

func TestJSONLSource_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capture.jsonl")
	line, err := EncodeFrame(1, nil, []byte(`{"nose":{"x":0.1,"y":0.2,"visibility":1}}`))
	require.NoError(t, err)
	empty, err := EncodeFrame(2, nil, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(append(line, '\n'), empty...), 0o644))

	frames, err := readAll(t, NewJSONLFile(path, 30))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Nil(t, frames[1].Payload)

	kp, err := DecodeLandmarks(frames[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 0.1, kp["nose"].X)
}

func TestJSONLSource_OpenMissingFile(t *testing.T) {
	t.Parallel()

	src := NewJSONLFile(filepath.Join(t.TempDir(), "missing.jsonl"), 30)
	err := src.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, src.Close())
}

func TestJSONLSource_NextBeforeOpen(t *testing.T) {
	t.Parallel()

	_, err := NewJSONLReader(strings.NewReader(""), 30).Next(context.Background())
	assert.Error(t, err)
}

func TestJSONLSource_Cancelled(t *testing.T) {
	t.Parallel()

	src := NewJSONLReader(strings.NewReader("{\"frame\":1}\n"), 30)
	require.NoError(t, src.Open(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSliceSource(t *testing.T) {
	t.Parallel()

	src := NewPayloadSource(2, []byte("a"), nil, []byte("c"))
	assert.Equal(t, 3, src.Len())

	frames, err := readAll(t, src)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, 3, frames[2].Index)
	assert.Equal(t, 1.5, frames[2].Timestamp)

	// Re-opening rewinds.
	again, err := readAll(t, src)
	require.NoError(t, err)
	assert.Equal(t, frames, again)
}

func TestFrameTimestamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, FrameTimestamp(30, 30))
	assert.Equal(t, 0.0, FrameTimestamp(5, 0))
}
