package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	cropwatch "github.com/swdee/go-cropwatch"
	"github.com/swdee/go-cropwatch/conf"
	"github.com/swdee/go-cropwatch/detector"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/metrics"
	"github.com/swdee/go-cropwatch/mqtt"
	"github.com/swdee/go-cropwatch/pipeline"
	"github.com/swdee/go-cropwatch/postprocess"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app holds the state shared by the sub commands once settings are loaded
type app struct {
	v        *viper.Viper
	settings *conf.Settings
	logger   *zap.Logger
}

// newDetector returns a pool of the configured detector
func (a *app) newDetector() (*cropwatch.Pool, error) {

	d := a.settings.Detector

	switch d.Kind {
	case "remote":
		return cropwatch.NewPool(d.PoolSize, func(int) (cropwatch.Detector, error) {
			return detector.NewRemote(d.URL, nil), nil
		})

	case "onnx":
		profile, err := cropwatch.LookupProfile(a.settings.Crop)

		if err != nil {
			return nil, err
		}

		model := profile.Model
		if d.Model != "" {
			model = d.Model
		}

		labelFile := profile.Labels
		if d.Labels != "" {
			labelFile = d.Labels
		}

		labels, err := cropwatch.LoadLabels(labelFile)

		if err != nil {
			return nil, fmt.Errorf("error loading labels for %s: %w", profile.Name, err)
		}

		a.logger.Info("Loading model",
			zap.String("crop", profile.Name),
			zap.String("model", model),
			zap.Int("instances", d.PoolSize))

		return cropwatch.NewPool(d.PoolSize, func(int) (cropwatch.Detector, error) {
			return detector.NewONNX(detector.ONNXConfig{
				Model:     model,
				Labels:    labels,
				InputSize: d.InputSize,
				Params: postprocess.YOLOv8Params{
					BoxThreshold:    float32(d.BoxThreshold),
					NMSThreshold:    float32(d.NMSThreshold),
					MaxObjectNumber: postprocess.YOLOv8DefaultParams().MaxObjectNumber,
				},
			})
		})

	default:
		return nil, fmt.Errorf("unknown detector kind %q", d.Kind)
	}
}

// newResolver returns the configured location resolver.  A telemetry
// resolver reads fixes on g until its context is done or the link drops.  Only
// failing to dial is returned as an error.
func (a *app) newResolver(ctx context.Context, g *errgroup.Group) (geo.Resolver, error) {

	loc := a.settings.Location

	switch loc.Mode {
	case "synthetic":
		syn, err := geo.NewSynthetic(loc.Reference, loc.Offset)

		if err != nil {
			return nil, err
		}

		return syn, nil

	case "telemetry":
		src, err := geo.DialNMEA(ctx, loc.Telemetry, loc.Baud)

		if err != nil {
			return nil, err
		}

		tel := geo.NewTelemetry(src, geo.TelemetryConfig{
			Timeout: loc.Timeout,
			MaxAge:  loc.MaxAge,
		}, a.logger)

		g.Go(func() error {
			return tel.Run(ctx)
		})

		return tel, nil

	default:
		return nil, fmt.Errorf("unknown location mode %q", loc.Mode)
	}
}

// newPublisher connects to the MQTT broker when publishing is enabled, it
// returns nil otherwise
func (a *app) newPublisher(ctx context.Context) (*mqtt.Publisher, error) {

	m := a.settings.MQTT

	if !m.Enabled {
		return nil, nil
	}

	cfg := mqtt.DefaultConfig()
	cfg.Broker = m.Broker
	cfg.Topic = m.Topic
	cfg.Username = m.Username
	cfg.Password = m.Password

	if m.ClientID != "" {
		cfg.ClientID = m.ClientID
	}

	pub, err := mqtt.NewPublisher(cfg, a.logger)

	if err != nil {
		return nil, err
	}

	if err := pub.Connect(ctx); err != nil {
		return nil, err
	}

	return pub, nil
}

// sessionOptions are the per command parts of a session
type sessionOptions struct {
	source  pipeline.Source
	sinks   pipeline.MultiSink
	centre  geo.Point
	summary bool
}

// runSession runs one pipeline session with the configured detector,
// resolver and reporting, then writes the summary and map artifact
func (a *app) runSession(ctx context.Context, open func(ctx context.Context, g *errgroup.Group, res geo.Resolver) (sessionOptions, error)) (err error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// stops the telemetry reader once the session is over
	defer func() {
		cancel()
		err = multierr.Append(err, g.Wait())
	}()

	det, err := a.newDetector()

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, det.Close())
	}()

	res, err := a.newResolver(gctx, g)

	if err != nil {
		return err
	}

	table, err := a.settings.DiseaseTable()

	if err != nil {
		return err
	}

	pub, err := a.newPublisher(gctx)

	if err != nil {
		return err
	}

	var onRecord func(string, ledger.Entry)

	if pub != nil {
		defer pub.Close()
		onRecord = pub.Recorder(gctx)
	}

	m, err := metrics.NewPipeline(prometheus.NewRegistry())

	if err != nil {
		return err
	}

	opts, err := open(gctx, g, res)

	if err != nil {
		return err
	}

	defer opts.source.Close()

	sess, err := pipeline.NewSession(pipeline.Config{
		Detector:  det,
		Resolver:  res,
		Table:     table,
		Threshold: a.settings.Threshold,
		Metrics:   m,
		Logger:    a.logger,
		OnRecord:  onRecord,
	})

	if err != nil {
		return err
	}

	report, err := sess.Run(gctx, opts.source, opts.sinks)

	if err != nil {
		return err
	}

	if opts.summary {
		if err := report.WriteSummary(os.Stdout); err != nil {
			return err
		}
	}

	return a.saveMap(report, res, opts.centre)
}

// saveMap writes the map artifact centred on the first telemetry fix, or
// the given centre for synthetic locations
func (a *app) saveMap(report *pipeline.Report, res geo.Resolver, centre geo.Point) error {

	out := a.settings.Output

	if out.Map == "" {
		return nil
	}

	if c, ok := res.(geo.Centre); ok {
		if p, ok := c.Centre(); ok {
			centre = p
		}
	}

	err := report.SaveMap(pipeline.MapOptions{
		Path:   out.Map,
		Format: out.MapFormat,
		Centre: centre,
		Region: out.Region,
		Margin: out.RegionMargin,
	})

	if err != nil {
		return err
	}

	a.logger.Info("Map saved", zap.String("path", out.Map), zap.Int("markers", len(report.Entries)))

	return nil
}

// frameSinks returns the video and window sinks selected by the settings
func (a *app) frameSinks(title string, fps float64, forceWindow, hold bool) pipeline.MultiSink {

	var sinks pipeline.MultiSink

	out := a.settings.Output

	if out.Video != "" {
		sinks = append(sinks, pipeline.NewVideoSink(out.Video, out.Codec, fps))
	}

	if out.Display || forceWindow {
		sinks = append(sinks, pipeline.NewWindowSink(title, hold))
	}

	return sinks
}
