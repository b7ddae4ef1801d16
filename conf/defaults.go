package conf

import (
	"time"

	"github.com/spf13/viper"
	"github.com/swdee/go-cropwatch/geo"
)

func setDefaults(v *viper.Viper) {

	v.SetDefault("threshold", 0.7)
	v.SetDefault("crop", "paddy")
	v.SetDefault("diseases", "")

	v.SetDefault("detector.kind", "onnx")
	v.SetDefault("detector.model", "")
	v.SetDefault("detector.labels", "")
	v.SetDefault("detector.url", "http://localhost:8000/detect")
	v.SetDefault("detector.inputsize", 640)
	v.SetDefault("detector.boxthreshold", 0.25)
	v.SetDefault("detector.nmsthreshold", 0.45)
	v.SetDefault("detector.poolsize", 1)

	v.SetDefault("location.mode", "synthetic")
	v.SetDefault("location.reference.lat", geo.DefaultReference.Lat)
	v.SetDefault("location.reference.lon", geo.DefaultReference.Lon)
	v.SetDefault("location.offset", geo.DefaultOffset)
	v.SetDefault("location.telemetry", "tcp://127.0.0.1:10110")
	v.SetDefault("location.baud", 9600)
	v.SetDefault("location.timeout", 5*time.Second)
	v.SetDefault("location.maxage", 2*time.Second)

	v.SetDefault("output.map", "detections_map.html")
	v.SetDefault("output.mapformat", "")
	v.SetDefault("output.region", true)
	v.SetDefault("output.regionmargin", 0.0)
	v.SetDefault("output.video", "")
	v.SetDefault("output.codec", "mp4v")
	v.SetDefault("output.display", false)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.maxbodymb", 64)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "cropwatch/detections")
	v.SetDefault("mqtt.clientid", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsize", 10)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxage", 28)
}
