// Package conf loads the cropwatch settings from defaults, an optional YAML
// config file, CROPWATCH_ environment variables and command line flags
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/logging"
)

// EnvPrefix is the prefix of environment variables overriding settings,
// eg: CROPWATCH_THRESHOLD=0.5 or CROPWATCH_LOCATION_MODE=telemetry
const EnvPrefix = "CROPWATCH"

// Settings holds every cropwatch setting
type Settings struct {
	// Threshold is the confidence a detection must exceed to be accepted
	Threshold float64 `mapstructure:"threshold"`
	// Crop selects the model profile, paddy or groundnut
	Crop string `mapstructure:"crop"`
	// Diseases is an optional YAML file replacing the default disease table
	Diseases string `mapstructure:"diseases"`

	Detector DetectorSettings `mapstructure:"detector"`
	Location LocationSettings `mapstructure:"location"`
	Output   OutputSettings   `mapstructure:"output"`
	Server   ServerSettings   `mapstructure:"server"`
	MQTT     MQTTSettings     `mapstructure:"mqtt"`
	Log      logging.Config   `mapstructure:"log"`
}

// DetectorSettings configures the object detector
type DetectorSettings struct {
	// Kind is onnx for a local model or remote for an inference service
	Kind string `mapstructure:"kind"`
	// Model overrides the model file of the crop profile
	Model string `mapstructure:"model"`
	// Labels overrides the labels file of the crop profile
	Labels string `mapstructure:"labels"`
	// URL of the remote inference service
	URL          string  `mapstructure:"url"`
	InputSize    int     `mapstructure:"inputsize"`
	BoxThreshold float64 `mapstructure:"boxthreshold"`
	NMSThreshold float64 `mapstructure:"nmsthreshold"`
	// PoolSize is the number of detector instances shared by sessions
	PoolSize int `mapstructure:"poolsize"`
}

// LocationSettings configures how detections are geo-tagged
type LocationSettings struct {
	// Mode is synthetic or telemetry
	Mode string `mapstructure:"mode"`
	// Reference is the centre of synthetic locations
	Reference geo.Point `mapstructure:"reference"`
	// Offset is the maximum synthetic offset in degrees on each axis
	Offset float64 `mapstructure:"offset"`
	// Telemetry is tcp://host:port or a serial device path
	Telemetry string        `mapstructure:"telemetry"`
	Baud      uint          `mapstructure:"baud"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxAge    time.Duration `mapstructure:"maxage"`
}

// OutputSettings configures session artifacts
type OutputSettings struct {
	// Map is the path of the map artifact, empty to disable
	Map string `mapstructure:"map"`
	// MapFormat is html or png, empty to use the Map file extension
	MapFormat string `mapstructure:"mapformat"`
	// Region outlines the enclosing region on the map
	Region bool `mapstructure:"region"`
	// RegionMargin expands the region in degrees
	RegionMargin float64 `mapstructure:"regionmargin"`
	// Video is the path annotated video is written to, empty to disable
	Video string `mapstructure:"video"`
	// Codec is the FourCC code of written video
	Codec string `mapstructure:"codec"`
	// Display shows annotated frames in a window
	Display bool `mapstructure:"display"`
}

// ServerSettings configures the HTTP server
type ServerSettings struct {
	Listen string `mapstructure:"listen"`
	// MaxBodyMB limits the size of uploaded images and videos
	MaxBodyMB int `mapstructure:"maxbodymb"`
}

// MQTTSettings configures publishing of ledger entries
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"clientid"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load reads the settings into v.  When configFile is empty a config.yaml in
// the working directory or $HOME/.config/cropwatch is used if present.
func Load(v *viper.Viper, configFile string) (*Settings, error) {

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cropwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}

	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// DiseaseTable returns the configured disease table
func (s *Settings) DiseaseTable() (disease.Table, error) {

	if s.Diseases == "" {
		return disease.Default(), nil
	}

	return disease.LoadFile(s.Diseases)
}
