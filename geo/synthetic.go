package geo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultReference is the fixed reference point synthetic locations are
// generated around
var DefaultReference = Point{Lat: 16.4419, Lon: 80.6220}

// DefaultOffset is the default maximum synthetic offset on each axis in
// degrees, roughly 555 metres
const DefaultOffset = 0.005

// Synthetic returns the reference point perturbed by an independent uniform
// random value in [-offset, +offset] on each axis
type Synthetic struct {
	ref    Point
	offset float64
	mu     sync.Mutex
	rnd    *rand.Rand
}

// NewSynthetic returns a Synthetic resolver around ref.  The random source is
// seeded from the clock.
func NewSynthetic(ref Point, offset float64) (*Synthetic, error) {
	seed := uint64(time.Now().UnixNano())
	return NewSyntheticSeeded(ref, offset, seed, seed>>1)
}

// NewSyntheticSeeded returns a Synthetic resolver with a deterministic random
// sequence
func NewSyntheticSeeded(ref Point, offset float64, seed1, seed2 uint64) (*Synthetic, error) {

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference point: %w", err)
	}

	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %f", offset)
	}

	return &Synthetic{
		ref:    ref,
		offset: offset,
		rnd:    rand.New(rand.NewPCG(seed1, seed2)),
	}, nil
}

// NewSyntheticMeters returns a Synthetic resolver whose offset is given as a
// ground distance in metres, converted to degrees of latitude at ref
func NewSyntheticMeters(ref Point, meters float64) (*Synthetic, error) {

	if meters < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %f", meters)
	}

	north := ref.Offset(meters/1000, 0)

	return NewSynthetic(ref, north.Lat-ref.Lat)
}

// Resolve returns a new random point near the reference.  It never fails.
func (s *Synthetic) Resolve(ctx context.Context) (Point, error) {

	s.mu.Lock()
	dLat := (s.rnd.Float64()*2 - 1) * s.offset
	dLon := (s.rnd.Float64()*2 - 1) * s.offset
	s.mu.Unlock()

	return Point{Lat: s.ref.Lat + dLat, Lon: s.ref.Lon + dLon}, nil
}

// Centre returns the reference point
func (s *Synthetic) Centre() (Point, bool) {
	return s.ref, true
}

// Offset returns the maximum offset in degrees
func (s *Synthetic) Offset() float64 {
	return s.offset
}
