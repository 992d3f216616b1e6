package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

// CaptureSource replays a stored capture in frame order. It implements
// l1source.FrameSource.
type CaptureSource struct {
	store *Store
	id    string

	capture Capture
	rows    *sql.Rows
}

// Source returns a frame source over the capture with the given id. A
// missing capture is reported by Open.
func (s *Store) Source(id string) *CaptureSource {
	return &CaptureSource{store: s, id: id}
}

// Capture returns the metadata loaded by Open.
func (c *CaptureSource) Capture() Capture { return c.capture }

func (c *CaptureSource) Open(ctx context.Context) error {
	if err := c.Close(); err != nil {
		return err
	}
	meta, err := c.store.Get(ctx, c.id)
	if err != nil {
		return err
	}
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT frame_number, timestamp, landmarks FROM capture_frames WHERE capture_id = ? ORDER BY frame_number`, c.id)
	if err != nil {
		return fmt.Errorf("query frames of %s: %w", c.id, err)
	}
	c.capture = meta
	c.rows = rows
	return nil
}

func (c *CaptureSource) Next(ctx context.Context) (l1source.RawFrame, error) {
	if c.rows == nil {
		return l1source.RawFrame{}, fmt.Errorf("capture %s: source not open", c.id)
	}
	if err := ctx.Err(); err != nil {
		return l1source.RawFrame{}, err
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return l1source.RawFrame{}, err
		}
		return l1source.RawFrame{}, io.EOF
	}

	var f l1source.RawFrame
	var landmarks sql.NullString
	if err := c.rows.Scan(&f.Index, &f.Timestamp, &landmarks); err != nil {
		return l1source.RawFrame{}, fmt.Errorf("scan frame: %w", err)
	}
	if landmarks.Valid {
		f.Payload = []byte(landmarks.String)
	}
	return f, nil
}

func (c *CaptureSource) Close() error {
	if c.rows == nil {
		return nil
	}
	err := multierr.Append(c.rows.Err(), c.rows.Close())
	c.rows = nil
	return err
}
