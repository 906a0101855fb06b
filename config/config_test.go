package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/position"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetupViper(v, "")
	v.Set("endpoint", "http://ads.example/bid")
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := New(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.LoadTimeout())
	assert.Equal(t, 5, cfg.VAST.MaxWrapperDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.False(t, cfg.Metrics.Influx.Enabled)
}

func TestPositionDefaults(t *testing.T) {
	cfg, err := New(newTestViper())
	require.NoError(t, err)

	defaults := cfg.PositionDefaults()
	require.Len(t, defaults, 3)

	assert.Equal(t, position.Defaults{Position: position.BelowTheFold, Width: 320, Height: 50}, defaults[creative.AdTypeImage])
	assert.Equal(t, position.Defaults{Position: position.FullScreen, Width: 640, Height: 480}, defaults[creative.AdTypeVideo])
	assert.Equal(t, position.Defaults{Position: position.AboveTheFold, Width: 300, Height: 250}, defaults[creative.AdTypeNative])
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(v *viper.Viper)
		valid bool
	}{
		{"defaults_with_endpoint", func(v *viper.Viper) {}, true},
		{"missing_endpoint", func(v *viper.Viper) { v.Set("endpoint", "") }, false},
		{"zero_timeout", func(v *viper.Viper) { v.Set("load_timeout_ms", 0) }, false},
		{"wrapper_depth_too_high", func(v *viper.Viper) { v.Set("vast.max_wrapper_depth", 50) }, false},
		{"wrapper_depth_zero", func(v *viper.Viper) { v.Set("vast.max_wrapper_depth", 0) }, false},
		{"bad_ad_type", func(v *viper.Viper) { v.Set("ad_defaults.banner.width", 100) }, false},
		{"bad_poll_interval", func(v *viper.Viper) { v.Set("tracking.poll_interval_ms", -1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper()
			tt.mod(v)
			_, err := New(v)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
