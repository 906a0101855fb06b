package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/position"
)

// Configuration holds every tunable of the SDK core. Hosts load it once at
// init and hand it to each ad unit; it is read-only afterwards.
type Configuration struct {
	// Endpoint is the ad server URL. The placement id is appended as a query
	// parameter on each request.
	Endpoint  string `mapstructure:"endpoint"`
	UserAgent string `mapstructure:"user_agent"`

	// LoadTimeoutMS bounds the whole load: fetch, VAST chain, templating. An
	// unfinished load past this fails with Timeout.
	LoadTimeoutMS uint64 `mapstructure:"load_timeout_ms"`

	VAST       VAST                  `mapstructure:"vast"`
	AdDefaults map[string]AdDefaults `mapstructure:"ad_defaults"`
	Tracking   Tracking              `mapstructure:"tracking"`
	Metrics    Metrics               `mapstructure:"metrics"`
}

type VAST struct {
	MaxWrapperDepth int `mapstructure:"max_wrapper_depth"`
	CacheSizeBytes  int `mapstructure:"cache_size_bytes"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// AdDefaults is the configured fallback placement for one ad type, applied
// when neither an override nor the server supplies a position or size.
type AdDefaults struct {
	Position string `mapstructure:"position"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
}

type Tracking struct {
	PollIntervalMS int `mapstructure:"poll_interval_ms"`

	// DefaultSkipOffsetSeconds applies when a video creative declares no
	// skipoffset. Negative disables the skip button for such creatives.
	DefaultSkipOffsetSeconds int `mapstructure:"default_skip_offset_seconds"`
}

type Metrics struct {
	Influx Influx `mapstructure:"influx"`
}

type Influx struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

func (cfg *Configuration) validate() error {
	var errs []error

	if cfg.Endpoint == "" {
		errs = append(errs, errors.New("config: endpoint is required"))
	}
	if cfg.LoadTimeoutMS == 0 {
		errs = append(errs, errors.New("config: load_timeout_ms must be positive"))
	}
	if cfg.VAST.MaxWrapperDepth < 1 || cfg.VAST.MaxWrapperDepth > 10 {
		errs = append(errs, fmt.Errorf("config: vast.max_wrapper_depth must be in [1, 10], got %d", cfg.VAST.MaxWrapperDepth))
	}
	if cfg.Tracking.PollIntervalMS <= 0 {
		errs = append(errs, errors.New("config: tracking.poll_interval_ms must be positive"))
	}
	for name, def := range cfg.AdDefaults {
		if adTypeFromName(name) == nil {
			errs = append(errs, fmt.Errorf("config: ad_defaults has unknown ad type %q", name))
		}
		if def.Width <= 0 || def.Height <= 0 {
			errs = append(errs, fmt.Errorf("config: ad_defaults.%s size must be positive", name))
		}
	}

	return errors.Join(errs...)
}

// LoadTimeout is LoadTimeoutMS as a duration.
func (cfg *Configuration) LoadTimeout() time.Duration {
	return time.Duration(cfg.LoadTimeoutMS) * time.Millisecond
}

// PollInterval is Tracking.PollIntervalMS as a duration.
func (cfg *Configuration) PollInterval() time.Duration {
	return time.Duration(cfg.Tracking.PollIntervalMS) * time.Millisecond
}

// CacheTTL is VAST.CacheTTLSeconds as a duration.
func (cfg *Configuration) CacheTTL() time.Duration {
	return time.Duration(cfg.VAST.CacheTTLSeconds) * time.Second
}

// PositionDefaults converts the configured ad type defaults into the form the
// position engine consumes.
func (cfg *Configuration) PositionDefaults() map[creative.AdType]position.Defaults {
	out := make(map[creative.AdType]position.Defaults, len(cfg.AdDefaults))
	for name, def := range cfg.AdDefaults {
		adType := adTypeFromName(name)
		if adType == nil {
			continue
		}
		out[*adType] = position.Defaults{
			Position: position.FromString(def.Position),
			Width:    def.Width,
			Height:   def.Height,
		}
	}
	return out
}

func adTypeFromName(name string) *creative.AdType {
	for _, t := range []creative.AdType{creative.AdTypeImage, creative.AdTypeVideo, creative.AdTypeNative} {
		if t.String() == strings.ToLower(name) {
			adType := t
			return &adType
		}
	}
	return nil
}

// New validates the config loaded into v and returns it.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	glog.Infof("config loaded: endpoint=%s timeout=%s wrapper_depth=%d",
		c.Endpoint, c.LoadTimeout(), c.VAST.MaxWrapperDepth)
	return &c, nil
}

// SetupViper sets the default config values and wires environment overrides
// with the PBM prefix. Pass the config filename without extension, or "" to
// skip file loading.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("user_agent", "prebid-mobile-core")
	v.SetDefault("load_timeout_ms", 30000)

	v.SetDefault("vast.max_wrapper_depth", 5)
	v.SetDefault("vast.cache_size_bytes", 512*1024)
	v.SetDefault("vast.cache_ttl_seconds", 300)

	v.SetDefault("ad_defaults.image.position", "below_the_fold")
	v.SetDefault("ad_defaults.image.width", 320)
	v.SetDefault("ad_defaults.image.height", 50)
	v.SetDefault("ad_defaults.video.position", "full_screen")
	v.SetDefault("ad_defaults.video.width", 640)
	v.SetDefault("ad_defaults.video.height", 480)
	v.SetDefault("ad_defaults.native.position", "above_the_fold")
	v.SetDefault("ad_defaults.native.width", 300)
	v.SetDefault("ad_defaults.native.height", 250)

	v.SetDefault("tracking.poll_interval_ms", 250)
	v.SetDefault("tracking.default_skip_offset_seconds", -1)

	v.SetDefault("metrics.influx.enabled", false)
	v.SetDefault("metrics.influx.interval_seconds", 60)

	v.SetEnvPrefix("PBM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}
