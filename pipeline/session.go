// Package pipeline runs the per session frame loop: detect, filter, annotate,
// then geo-tag and record each accepted detection in the session ledger
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cropwatch "github.com/swdee/go-cropwatch"
	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/metrics"
	"github.com/swdee/go-cropwatch/postprocess"
	"github.com/swdee/go-cropwatch/render"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// State is the lifecycle state of a Session
type State int32

const (
	Idle State = iota
	FrameLoop
	Finalize
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameLoop:
		return "frame_loop"
	case Finalize:
		return "finalize"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Config holds the collaborators of a Session
type Config struct {
	// Detector is shared between sessions, use a cropwatch.Pool when the
	// detector is not safe for concurrent use
	Detector cropwatch.Detector
	// Resolver assigns a location to each accepted detection
	Resolver geo.Resolver
	// Table is the disease table detections are filtered against
	Table disease.Table
	// Threshold is the confidence a detection must exceed
	Threshold float64
	// Annotator draws the frames, nil uses the default presentation
	Annotator *render.Annotator
	// Metrics may be nil
	Metrics *metrics.Pipeline
	// Logger may be nil
	Logger *zap.Logger
	// OnRecord, if set, is called with the session id and each new ledger
	// entry, eg: to publish it
	OnRecord func(session string, e ledger.Entry)
}

// Session is one end-to-end run of the pipeline over one image, video or
// live stream.  A Session owns its ledger and is run once.
type Session struct {
	id     string
	cfg    Config
	ledger *ledger.Ledger
	logger *zap.Logger
	state  atomic.Int32
}

// NewSession returns an Idle session
func NewSession(cfg Config) (*Session, error) {

	if cfg.Detector == nil {
		return nil, fmt.Errorf("session needs a detector")
	}

	if cfg.Resolver == nil {
		return nil, fmt.Errorf("session needs a location resolver")
	}

	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0,1], got %v", cfg.Threshold)
	}

	if cfg.Table.Len() == 0 {
		return nil, fmt.Errorf("session needs a disease table")
	}

	if cfg.Annotator == nil {
		cfg.Annotator = render.NewAnnotator()
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	id := uuid.NewString()

	return &Session{
		id:     id,
		cfg:    cfg,
		ledger: ledger.New(cfg.Table),
		logger: cfg.Logger.Named("pipeline").With(zap.String("session", id)),
	}, nil
}

// ID returns the unique session id
func (s *Session) ID() string {
	return s.id
}

// Ledger returns the session ledger
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run reads every frame from src, processes it and writes the result to sink
// until the source is exhausted, the sink returns ErrStop or ctx is
// cancelled.  Cancellation is checked between frames.  The sink is closed
// before Run returns, the source is left to the caller.  Only a fatal error
// is returned, per frame failures are logged and the loop continues.
func (s *Session) Run(ctx context.Context, src Source, sink FrameSink) (*Report, error) {

	if !s.state.CompareAndSwap(int32(Idle), int32(FrameLoop)) {
		return nil, fmt.Errorf("session %s already run", s.id)
	}

	if sink == nil {
		sink = MultiSink{}
	}

	if src == nil {
		s.fail(sink)
		return nil, fmt.Errorf("%w: no source", ErrSourceUnavailable)
	}

	report := &Report{
		SessionID: s.id,
		Threshold: s.cfg.Threshold,
		Started:   time.Now(),
	}

	s.logger.Info("Session started")

	frame := gocv.NewMat()
	defer frame.Close()

	for index := 0; ; index++ {

		if err := ctx.Err(); err != nil {
			s.logger.Info("Session cancelled", zap.Error(err))
			break
		}

		err := src.Read(&frame)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if src.Kind() == SingleImage {
				s.cfg.Metrics.RecordFrame(metrics.OutcomeFatal, 0)
				s.fail(sink)
				return nil, fmt.Errorf("frame %d: %w", index, err)
			}

			if !errors.Is(err, ErrDecode) {
				// a failed grab from a live source ends the stream
				s.logger.Warn("Frame source failed, ending stream",
					zap.Int("frame", index), zap.Error(err))
				break
			}

			s.logger.Warn("Skipping undecodable frame", zap.Int("frame", index), zap.Error(err))
			s.cfg.Metrics.RecordFrame(metrics.OutcomeSkipped, 0)
			report.Frames++
			report.Skipped++

			res := FrameResult{Index: index, Outcome: Skipped, Annotated: gocv.NewMat(), Err: err}
			stop := s.write(sink, &res)
			res.Close()

			if stop {
				break
			}

			continue
		}

		// cancellation is only observed between frames so a frame in flight
		// finishes its detection and ledger writes
		res := s.ProcessFrame(context.WithoutCancel(ctx), index, frame)

		report.Frames++

		if res.Outcome == Skipped {
			report.Skipped++
		}

		stop := s.write(sink, &res)
		res.Close()

		if stop {
			break
		}
	}

	s.setState(Finalize)

	if err := sink.Close(); err != nil {
		s.logger.Warn("Error flushing output", zap.Error(err))
	}

	report.Entries = s.ledger.All()
	report.Summary = s.ledger.Summary()
	report.Finished = time.Now()

	s.setState(Done)
	s.cfg.Metrics.RecordSession(metrics.StatusCompleted)

	s.logger.Info("Session finished",
		zap.Int("frames", report.Frames),
		zap.Int("skipped", report.Skipped),
		zap.Int("recorded", len(report.Entries)))

	return report, nil
}

// write passes res to the sink and reports whether the sink asked to stop
func (s *Session) write(sink FrameSink, res *FrameResult) bool {

	err := sink.Write(res)

	if errors.Is(err, ErrStop) {
		s.logger.Info("Stop requested", zap.Int("frame", res.Index))
		return true
	}

	if err != nil {
		s.logger.Warn("Error writing frame output", zap.Int("frame", res.Index), zap.Error(err))
	}

	return false
}

func (s *Session) fail(sink FrameSink) {

	_ = sink.Close()

	s.setState(Failed)
	s.cfg.Metrics.RecordSession(metrics.StatusFailed)
}

// ProcessFrame runs detection, filtering and annotation on one frame, then
// resolves a location for and records each accepted detection.  It never
// fails, per frame problems are reported in the FrameResult.  The frame is
// not modified.
func (s *Session) ProcessFrame(ctx context.Context, index int, frame gocv.Mat) FrameResult {

	start := time.Now()
	log := s.logger.With(zap.Int("frame", index))

	res := FrameResult{Index: index}

	dets, err := s.cfg.Detector.Detect(ctx, frame, index)

	if err != nil {
		log.Warn("Detection failed, forwarding frame unannotated", zap.Error(err))

		res.Outcome = Skipped
		res.Annotated = frame.Clone()
		res.Err = fmt.Errorf("%w: %w", ErrDetection, err)

		s.cfg.Metrics.RecordFrame(metrics.OutcomeSkipped, time.Since(start))

		return res
	}

	res.Detections = dets
	res.Accepted = postprocess.Filter(dets, s.cfg.Table, s.cfg.Threshold)

	s.cfg.Metrics.RecordDetections(len(res.Accepted), len(dets)-len(res.Accepted))

	// visual side
	ann, err := s.cfg.Annotator.Annotate(frame, res.Accepted)

	res.Annotated = ann.Frame
	res.Disease = ann.Disease
	res.Remedy = ann.Remedy

	if err != nil {
		log.Warn("Annotation failed, using unannotated frame", zap.Error(err))
		res.Err = fmt.Errorf("%w: %w", ErrAnnotation, err)
	}

	// data side, one location per accepted detection
	for _, acc := range res.Accepted {

		loc, err := s.cfg.Resolver.Resolve(ctx)

		if err != nil {
			log.Warn("No location for detection, not recorded",
				zap.String("label", acc.Label), zap.Error(err))

			res.Untagged++
			s.cfg.Metrics.RecordLocationUnavailable()

			continue
		}

		entry, err := s.ledger.Record(acc, loc)

		if err != nil {
			log.Warn("Could not record detection", zap.String("label", acc.Label), zap.Error(err))
			continue
		}

		res.Recorded = append(res.Recorded, entry)
		s.cfg.Metrics.RecordLedgerEntry()

		log.Debug("Recorded detection",
			zap.String("label", acc.Label),
			zap.Float64("confidence", acc.Confidence),
			zap.Stringer("location", loc))

		if s.cfg.OnRecord != nil {
			s.cfg.OnRecord(s.id, entry)
		}
	}

	res.Outcome = Processed
	s.cfg.Metrics.RecordFrame(metrics.OutcomeProcessed, time.Since(start))

	return res
}
