package tracking

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/prebid/prebid-mobile-core/macros"
	"github.com/prebid/prebid-mobile-core/metrics"
)

// Pinger delivers tracking beacons: fire-and-forget GETs with VAST macros
// expanded. Beacons are idempotent measurement pixels, so a couple of retries
// are safe and worth it on flaky mobile networks.
type Pinger struct {
	ctx      context.Context
	client   *retryablehttp.Client
	provider macros.Provider
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

// NewPinger builds a pinger for one ad instance. The context should be the ad
// instance's: cancelling it silences every pending beacon. assetURI feeds the
// [ASSETURI] macro. metricsEngine may be nil in tests.
func NewPinger(ctx context.Context, assetURI string, metricsEngine *metrics.Metrics) *Pinger {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil

	return &Pinger{
		ctx:      ctx,
		client:   client,
		provider: macros.NewProvider(assetURI),
		metrics:  metricsEngine,
	}
}

// SetPlayhead updates the [CONTENTPLAYHEAD] macro for subsequent beacons.
func (p *Pinger) SetPlayhead(seconds int) {
	p.provider.SetPlayhead(seconds)
}

// Fire delivers every URL asynchronously. Failures are logged and counted but
// never propagate; a lost beacon must not affect playback.
func (p *Pinger) Fire(urls []string) {
	if len(urls) == 0 {
		return
	}

	expanded := make([]string, len(urls))
	for i, u := range urls {
		expanded[i] = macros.Replace(u, p.provider)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for _, u := range expanded {
			p.deliver(u)
		}
	}()
}

// FireError delivers VAST error pixels with [ERRORCODE] set.
func (p *Pinger) FireError(urls []string, code int) {
	p.provider.SetErrorCode(code)
	p.Fire(urls)
}

// Wait blocks until every fired beacon has been delivered or abandoned.
// Mainly for tests and orderly shutdown.
func (p *Pinger) Wait() {
	p.wg.Wait()
}

func (p *Pinger) deliver(url string) {
	if p.ctx.Err() != nil {
		return
	}

	req, err := retryablehttp.NewRequestWithContext(p.ctx, http.MethodGet, url, nil)
	if err != nil {
		glog.Warningf("dropping malformed tracking url %q: %v", url, err)
		p.markFailed()
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if p.ctx.Err() == nil {
			glog.Warningf("tracking beacon %s failed: %v", url, err)
			p.markFailed()
		}
		return
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		glog.Warningf("tracking beacon %s returned status %d", url, resp.StatusCode)
		p.markFailed()
		return
	}

	if p.metrics != nil {
		p.metrics.TrackingFiredMeter.Mark(1)
	}
}

func (p *Pinger) markFailed() {
	if p.metrics != nil {
		p.metrics.TrackingFailedMeter.Mark(1)
	}
}
