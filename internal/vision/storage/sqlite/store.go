// Package sqlite stores recorded keypoint captures so they can be replayed
// through the analysis pipeline without the original capture file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

// ErrCaptureNotFound is returned for an unknown capture id.
var ErrCaptureNotFound = errors.New("capture not found")

// Capture is the stored metadata of one recorded video.
type Capture struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Exercise   string    `json:"exercise,omitempty"`
	FPS        float64   `json:"fps"`
	FrameCount int       `json:"frame_count"`
	PoseFrames int       `json:"pose_frames"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a SQLite-backed capture store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the store at path and applies pending
// migrations. Use ":memory:" for a private in-memory store.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, multierr.Append(fmt.Errorf("open capture store %s: %w", path, err), db.Close())
	}

	s := &Store{db: db, now: time.Now}
	if err := s.MigrateUp(); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import reads src to the end and stores every frame as a new capture.
// Unlike analysis, any source error aborts the import.
func (s *Store) Import(ctx context.Context, name, exercise string, fps float64, src l1source.FrameSource) (c Capture, err error) {
	if err := src.Open(ctx); err != nil {
		return Capture{}, fmt.Errorf("open source: %w", err)
	}
	defer func() { err = multierr.Append(err, src.Close()) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Capture{}, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreDone(tx.Rollback()))
		}
	}()

	c = Capture{ID: uuid.NewString(), Name: name, Exercise: exercise, FPS: fps, CreatedAt: s.now().UTC().Truncate(time.Millisecond)}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO captures (capture_id, name, exercise, fps, frame_count, created_unix_ms) VALUES (?, ?, ?, ?, 0, ?)`,
		c.ID, c.Name, c.Exercise, c.FPS, c.CreatedAt.UnixMilli()); err != nil {
		return Capture{}, fmt.Errorf("insert capture: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO capture_frames (capture_id, frame_number, timestamp, landmarks) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Capture{}, err
	}
	defer stmt.Close()

	for {
		frame, nerr := src.Next(ctx)
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			err = fmt.Errorf("read frame %d: %w", c.FrameCount+1, nerr)
			return Capture{}, err
		}
		var landmarks any
		if len(frame.Payload) > 0 {
			landmarks = string(frame.Payload)
			c.PoseFrames++
		}
		if _, err = stmt.ExecContext(ctx, c.ID, frame.Index, frame.Timestamp, landmarks); err != nil {
			return Capture{}, fmt.Errorf("insert frame %d: %w", frame.Index, err)
		}
		c.FrameCount++
	}

	if _, err = tx.ExecContext(ctx, `UPDATE captures SET frame_count = ? WHERE capture_id = ?`, c.FrameCount, c.ID); err != nil {
		return Capture{}, err
	}
	if err = tx.Commit(); err != nil {
		return Capture{}, err
	}
	return c, nil
}

const captureColumns = `c.capture_id, c.name, c.exercise, c.fps, c.frame_count, c.created_unix_ms,
	(SELECT COUNT(*) FROM capture_frames f WHERE f.capture_id = c.capture_id AND f.landmarks IS NOT NULL)`

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (Capture, error) {
	var c Capture
	var createdMs int64
	if err := row.Scan(&c.ID, &c.Name, &c.Exercise, &c.FPS, &c.FrameCount, &createdMs, &c.PoseFrames); err != nil {
		return Capture{}, err
	}
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	return c, nil
}

// Get returns one capture's metadata.
func (s *Store) Get(ctx context.Context, id string) (Capture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+captureColumns+` FROM captures c WHERE c.capture_id = ?`, id)
	c, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, fmt.Errorf("%w: %s", ErrCaptureNotFound, id)
	}
	return c, err
}

// List returns all captures, oldest first.
func (s *Store) List(ctx context.Context) (out []Capture, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+captureColumns+` FROM captures c ORDER BY c.created_unix_ms, c.capture_id`)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, rows.Close()) }()

	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a capture and its frames.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreDone(tx.Rollback()))
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM capture_frames WHERE capture_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM captures WHERE capture_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("%w: %s", ErrCaptureNotFound, id)
		return err
	}
	return tx.Commit()
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
