package conf

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks the settings are usable, returning every problem found
func (s *Settings) Validate() error {

	var err error

	if s.Threshold < 0 || s.Threshold > 1 {
		err = multierr.Append(err, fmt.Errorf("threshold must be in [0,1], got %v", s.Threshold))
	}

	switch s.Detector.Kind {
	case "onnx":
		if s.Detector.InputSize <= 0 {
			err = multierr.Append(err, fmt.Errorf("detector input size must be positive"))
		}
	case "remote":
		if s.Detector.URL == "" {
			err = multierr.Append(err, fmt.Errorf("remote detector needs a url"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown detector kind %q, expected onnx or remote", s.Detector.Kind))
	}

	if s.Detector.PoolSize < 1 {
		err = multierr.Append(err, fmt.Errorf("detector pool size must be at least 1"))
	}

	switch s.Location.Mode {
	case "synthetic":
		if e := s.Location.Reference.Validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("location reference: %w", e))
		}
		if s.Location.Offset < 0 {
			err = multierr.Append(err, fmt.Errorf("location offset must not be negative"))
		}
	case "telemetry":
		if s.Location.Telemetry == "" {
			err = multierr.Append(err, fmt.Errorf("telemetry mode needs a telemetry address"))
		}
		if s.Location.Timeout <= 0 {
			err = multierr.Append(err, fmt.Errorf("telemetry timeout must be positive"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown location mode %q, expected synthetic or telemetry", s.Location.Mode))
	}

	switch s.Output.MapFormat {
	case "", "html", "png":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown map format %q, expected html or png", s.Output.MapFormat))
	}

	if s.Output.RegionMargin < 0 {
		err = multierr.Append(err, fmt.Errorf("region margin must not be negative"))
	}

	if len(s.Output.Codec) != 4 {
		err = multierr.Append(err, fmt.Errorf("video codec must be a four character code, got %q", s.Output.Codec))
	}

	if s.MQTT.Enabled && (s.MQTT.Broker == "" || s.MQTT.Topic == "") {
		err = multierr.Append(err, fmt.Errorf("mqtt needs a broker and topic when enabled"))
	}

	return err
}
