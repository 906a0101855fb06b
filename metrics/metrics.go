package metrics

import (
	"time"

	metrics "github.com/rcrowley/go-metrics"

	"github.com/prebid/prebid-mobile-core/errortypes"
)

// Metrics instruments the ad pipeline with go-metrics instruments.
// Implementations of go-metrics are threadsafe, so one Metrics serves every
// concurrently active ad instance.
type Metrics struct {
	MetricsRegistry metrics.Registry

	AdRequestMeter   metrics.Meter
	AdDisplayedMeter metrics.Meter
	AdLoadTimer      metrics.Timer

	// One failure meter per host-facing error code, so dashboards can split
	// network trouble from unparseable creatives.
	adFailureMeters map[int]metrics.Meter
	adFailureOther  metrics.Meter

	VastWrapperMeter    metrics.Meter
	RenderFallbackMeter metrics.Meter

	TrackingFiredMeter  metrics.Meter
	TrackingFailedMeter metrics.Meter
}

// NewMetrics registers every instrument on the given registry. Use
// metrics.NewRegistry() in production or metrics.NewPrefixedRegistry for
// multi-tenant hosts.
func NewMetrics(registry metrics.Registry) *Metrics {
	m := &Metrics{
		MetricsRegistry:     registry,
		AdRequestMeter:      metrics.GetOrRegisterMeter("ad.requests", registry),
		AdDisplayedMeter:    metrics.GetOrRegisterMeter("ad.displayed", registry),
		AdLoadTimer:         metrics.GetOrRegisterTimer("ad.load_time", registry),
		adFailureOther:      metrics.GetOrRegisterMeter("ad.failures.other", registry),
		VastWrapperMeter:    metrics.GetOrRegisterMeter("vast.wrapper_fetches", registry),
		RenderFallbackMeter: metrics.GetOrRegisterMeter("render.fallback_used", registry),
		TrackingFiredMeter:  metrics.GetOrRegisterMeter("tracking.fired", registry),
		TrackingFailedMeter: metrics.GetOrRegisterMeter("tracking.failed", registry),
	}

	m.adFailureMeters = map[int]metrics.Meter{
		errortypes.InvalidURLErrorCode:      metrics.GetOrRegisterMeter("ad.failures.invalid_url", registry),
		errortypes.InvalidResponseErrorCode: metrics.GetOrRegisterMeter("ad.failures.invalid_response", registry),
		errortypes.NetworkErrorCode:         metrics.GetOrRegisterMeter("ad.failures.network", registry),
		errortypes.TimeoutErrorCode:         metrics.GetOrRegisterMeter("ad.failures.timeout", registry),
		errortypes.UnknownErrorCode:         metrics.GetOrRegisterMeter("ad.failures.unknown", registry),
	}

	return m
}

// RecordAdRequest marks the start of one ad load.
func (m *Metrics) RecordAdRequest() {
	m.AdRequestMeter.Mark(1)
}

// RecordAdDisplayed marks a successful terminal state with its load latency.
func (m *Metrics) RecordAdDisplayed(loadTime time.Duration) {
	m.AdDisplayedMeter.Mark(1)
	m.AdLoadTimer.Update(loadTime)
}

// RecordAdFailure marks a failed terminal state by host-facing error code.
func (m *Metrics) RecordAdFailure(code int) {
	if meter, ok := m.adFailureMeters[code]; ok {
		meter.Mark(1)
		return
	}
	m.adFailureOther.Mark(1)
}
