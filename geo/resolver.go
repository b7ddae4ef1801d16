package geo

import (
	"context"
	"errors"
)

// ErrNoFix is returned by a Resolver when no location is available for a
// detection.  Callers skip geo-tagging the detection rather than failing.
var ErrNoFix = errors.New("no location fix available")

// Resolver assigns a location to an accepted detection.  Resolve is called
// once per accepted detection.
type Resolver interface {
	Resolve(ctx context.Context) (Point, error)
}

// Centre is implemented by resolvers that can suggest where a map of their
// points should be centred
type Centre interface {
	Centre() (Point, bool)
}
