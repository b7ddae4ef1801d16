package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const latestFixKey = "latest"

// TelemetryConfig holds the timing settings of a Telemetry resolver
type TelemetryConfig struct {
	// Timeout is how long Resolve waits for a fix when none is held
	Timeout time.Duration
	// MaxAge is how long a fix stays usable after it was read.  Zero keeps
	// the latest fix forever.
	MaxAge time.Duration
}

// DefaultTelemetryConfig returns a 5 second timeout with fixes usable for
// 2 seconds
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Timeout: 5 * time.Second,
		MaxAge:  2 * time.Second,
	}
}

// Telemetry resolves locations from live GPS fixes.  Run reads fixes from
// the source in the background into a latest-fix cell so a slow receiver
// never stalls frame processing for longer than Timeout.
type Telemetry struct {
	src    FixSource
	cfg    TelemetryConfig
	logger *zap.Logger
	fixes  *cache.Cache

	mu sync.Mutex
	// notify is closed and replaced each time a fix is stored
	notify   chan struct{}
	first    Point
	hasFirst bool
}

// NewTelemetry returns a Telemetry resolver reading from src
func NewTelemetry(src FixSource, cfg TelemetryConfig, logger *zap.Logger) *Telemetry {

	expiry := cfg.MaxAge

	if expiry <= 0 {
		expiry = cache.NoExpiration
	}

	return &Telemetry{
		src:    src,
		cfg:    cfg,
		logger: logger.Named("telemetry"),
		// no janitor, expired fixes are never returned by Get
		fixes:  cache.New(expiry, 0),
		notify: make(chan struct{}),
	}
}

// Run reads fixes until ctx is cancelled or the source fails.  The source is
// closed when Run returns.  A failed link is logged and Run returns nil, the
// last fix then ages out and Resolve reports ErrNoFix.
func (t *Telemetry) Run(ctx context.Context) error {

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			// unblock the pending read
			_ = t.src.Close()
		case <-stop:
		}
	}()

	defer t.src.Close()

	for {
		p, err := t.src.Next()

		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, ErrMalformedSentence) {
			t.logger.Warn("Skipping telemetry message", zap.Error(err))
			continue
		}

		if err != nil {
			t.logger.Warn("Telemetry link lost", zap.Error(err))
			return nil
		}

		t.store(p)
	}
}

func (t *Telemetry) store(p Point) {

	t.mu.Lock()
	defer t.mu.Unlock()

	t.fixes.SetDefault(latestFixKey, p)

	if !t.hasFirst {
		t.first = p
		t.hasFirst = true
		t.logger.Info("First telemetry fix", zap.Stringer("location", p))
	}

	close(t.notify)
	t.notify = make(chan struct{})
}

// Latest returns the most recent fix if it is younger than MaxAge
func (t *Telemetry) Latest() (Point, bool) {

	v, ok := t.fixes.Get(latestFixKey)

	if !ok {
		return Point{}, false
	}

	return v.(Point), true
}

// Resolve returns the latest fix, or waits up to Timeout for the next one.
// ErrNoFix is returned when no fix arrives in time.
func (t *Telemetry) Resolve(ctx context.Context) (Point, error) {

	// take the notify channel before checking so a fix stored in between
	// is not missed
	t.mu.Lock()
	wait := t.notify
	t.mu.Unlock()

	if p, ok := t.Latest(); ok {
		return p, nil
	}

	timer := time.NewTimer(t.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-wait:
		if p, ok := t.Latest(); ok {
			return p, nil
		}
		return Point{}, ErrNoFix

	case <-timer.C:
		return Point{}, ErrNoFix

	case <-ctx.Done():
		return Point{}, fmt.Errorf("%w: %w", ErrNoFix, ctx.Err())
	}
}

// Centre returns the first fix read, if any
func (t *Telemetry) Centre() (Point, bool) {

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.first, t.hasFirst
}
