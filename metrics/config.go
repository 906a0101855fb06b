package metrics

import (
	"time"

	"github.com/golang/glog"
	"github.com/vrischmann/go-metrics-influxdb"
)

// InfluxConfig configures periodic export of the registry to InfluxDB. Hosts
// embedding the SDK in test harnesses leave this disabled.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Database string
	Username string
	Password string
	Interval time.Duration
}

// SetupInflux starts the background exporter when enabled. The exporter goes
// down with the process; there is nothing to stop.
func (m *Metrics) SetupInflux(cfg InfluxConfig) {
	if !cfg.Enabled {
		return
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	glog.Infof("exporting SDK metrics to influx at %s every %s", cfg.Host, interval)
	go influxdb.InfluxDB(
		m.MetricsRegistry,
		interval,
		cfg.Host,
		cfg.Database,
		cfg.Username,
		cfg.Password,
	)
}
