package l1source

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
)

// DetectorFactory builds one detector instance for a pool.
type DetectorFactory func() (PoseDetector, error)

// DetectorPool hands out exclusive leases on a fixed set of detectors.
type DetectorPool struct {
	all  []PoseDetector
	free chan PoseDetector

	closeOnce sync.Once
	done      chan struct{}
}

// NewDetectorPool builds size detectors with factory. If any construction
// fails, the detectors built so far are closed.
func NewDetectorPool(size int, factory DetectorFactory) (*DetectorPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("detector pool size must be at least 1, got %d", size)
	}
	p := &DetectorPool{
		all:  make([]PoseDetector, 0, size),
		free: make(chan PoseDetector, size),
		done: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		d, err := factory()
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("create detector %d: %w", i, err), p.closeAll())
		}
		p.all = append(p.all, d)
		p.free <- d
	}
	return p, nil
}

// Acquire blocks until a detector is free, ctx is done or the pool closes.
func (p *DetectorPool) Acquire(ctx context.Context) (PoseDetector, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case d := <-p.free:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

// Release returns a detector obtained from Acquire.
func (p *DetectorPool) Release(d PoseDetector) {
	if d == nil {
		return
	}
	select {
	case p.free <- d:
	default:
		// Not one of ours or released twice.
	}
}

// Size returns the number of detectors in the pool.
func (p *DetectorPool) Size() int { return len(p.all) }

// HealthCheck runs HealthCheck on one leased detector, if it supports it.
func (p *DetectorPool) HealthCheck(ctx context.Context) error {
	d, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(d)
	if hc, ok := d.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Close stops new leases and closes every detector implementing io.Closer.
func (p *DetectorPool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.closeAll()
	})
	return err
}

func (p *DetectorPool) closeAll() error {
	var err error
	for _, d := range p.all {
		if c, ok := d.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
