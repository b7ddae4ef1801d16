package cropwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/swdee/go-cropwatch/postprocess"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// ErrPoolClosed is returned when detecting on a Pool that has been closed
var ErrPoolClosed = errors.New("detector pool closed")

// Pool is a simple pool of the same Model loaded multiple times so concurrent
// sessions can run inference without sharing a Detector instance.  A Pool is
// itself a Detector and safe for concurrent use.
type Pool struct {
	// pool of detectors
	detectors chan Detector
	// size of pool
	size int
	// mu guards closing against detectors being returned
	mu       sync.Mutex
	isClosed bool
	closed   chan struct{}
}

// NewPool creates a new detector pool of the given size, calling newDetector
// once for each slot
func NewPool(size int, newDetector func(i int) (Detector, error)) (*Pool, error) {

	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{
		detectors: make(chan Detector, size),
		size:      size,
		closed:    make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		d, err := newDetector(i)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, fmt.Errorf("error creating detector %d: %w", i, err)
		}

		// attach to pool
		p.Return(d)
	}

	return p, nil
}

// Size returns the number of detectors in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get a detector from the pool, blocking until one is free or ctx is done
func (p *Pool) Get(ctx context.Context) (Detector, error) {
	select {
	case d := <-p.detectors:
		return d, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return a detector to the pool
func (p *Pool) Return(d Detector) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		// pool closed while detector was in use
		_ = d.Close()
		return
	}

	select {
	case p.detectors <- d:
	default:
		// pool is full
		_ = d.Close()
	}
}

// Detect runs detection using the next free detector in the pool
func (p *Pool) Detect(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error) {

	d, err := p.Get(ctx)

	if err != nil {
		return nil, err
	}

	defer p.Return(d)

	return d.Detect(ctx, frame, frameIndex)
}

// Close the pool and all idle detectors in it.  Detectors in use are closed
// when they are returned.
func (p *Pool) Close() error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		return nil
	}

	p.isClosed = true
	close(p.closed)

	var err error

	for {
		select {
		case d := <-p.detectors:
			err = multierr.Append(err, d.Close())
		default:
			return err
		}
	}
}
