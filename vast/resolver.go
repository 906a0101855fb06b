package vast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/golang/glog"

	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/macros"
	"github.com/prebid/prebid-mobile-core/metrics"
)

// VAST error codes reported through the [ERRORCODE] macro on error pixels.
const (
	errorCodeUndefined   = 900
	errorCodeWrapperNoAd = 303
)

// DefaultMaxWrapperDepth bounds otherwise-unbounded ad-chain cycles.
const DefaultMaxWrapperDepth = 5

// Fetcher retrieves the body of a wrapper's VASTAdTagURI. Implemented by
// util/httputil.Fetcher in production and stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options tune a Resolver. The zero value gets the default wrapper depth and
// no fetch cache.
type Options struct {
	MaxWrapperDepth int

	// CacheBytes > 0 enables a freecache-backed cache of wrapper fetches, so
	// placements resolving the same chain within CacheTTL share one fetch.
	CacheBytes int
	CacheTTL   time.Duration

	// Metrics counts wrapper fetches when set.
	Metrics *metrics.Metrics
}

// Resolver flattens a VAST document into a playable creative, following
// Wrapper chains level by level. Wrapper fetches are strictly sequential:
// each level's URL is only known once the previous level resolves.
type Resolver struct {
	fetcher  Fetcher
	maxDepth int
	cache    *freecache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

func NewResolver(fetcher Fetcher, opts Options) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		maxDepth: opts.MaxWrapperDepth,
		metrics:  opts.Metrics,
	}
	if r.maxDepth <= 0 {
		r.maxDepth = DefaultMaxWrapperDepth
	}
	if opts.CacheBytes > 0 {
		r.cache = freecache.NewCache(opts.CacheBytes)
		r.cacheTTL = opts.CacheTTL
	}
	return r
}

// chainContext accumulates state while walking a wrapper chain. It exists
// only during resolution and is discarded once an InLine document is reached.
type chainContext struct {
	impressionURLs []string
	errorURLs      []string
	depthExceeded  bool
}

// Resolve parses doc and follows its wrapper chain to a flat creative.
//
// Impression and Error URLs accumulate across all traversed levels in
// traversal order. Failures discard everything accumulated so far: a partial
// chain never fires partial impressions. Error taxonomy: fetch failure =>
// NetworkError (from the fetcher), malformed XML, missing VASTAdTagURI,
// missing media file, or depth beyond the ceiling => InvalidResponse.
func (r *Resolver) Resolve(ctx context.Context, doc string) (*creative.VAST, error) {
	chain := &chainContext{}
	out, err := r.resolve(ctx, []byte(doc), 0, chain)
	if err != nil {
		code := errorCodeUndefined
		if chain.depthExceeded {
			code = errorCodeWrapperNoAd
		}
		r.fireErrorPixels(chain.errorURLs, code)
	}
	return out, err
}

// fireErrorPixels delivers the error URLs collected so far, best effort. The
// load is already failing, so delivery runs detached with its own deadline.
func (r *Resolver) fireErrorPixels(urls []string, code int) {
	if len(urls) == 0 {
		return
	}

	provider := macros.NewProvider("")
	provider.SetErrorCode(code)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, u := range urls {
			if _, err := r.fetcher.Fetch(ctx, macros.Replace(u, provider)); err != nil {
				glog.V(2).Infof("VAST error pixel %s failed: %v", u, err)
			}
		}
	}()
}

func (r *Resolver) resolve(ctx context.Context, doc []byte, depth int, chain *chainContext) (*creative.VAST, error) {
	parsed, err := Parse(doc)
	if err != nil {
		return nil, &errortypes.InvalidResponse{Message: fmt.Sprintf("malformed VAST XML at wrapper depth %d: %v", depth, err)}
	}

	if len(parsed.Ads) == 0 {
		return nil, &errortypes.InvalidResponse{Message: fmt.Sprintf("VAST document at wrapper depth %d contains no ad", depth)}
	}
	ad := parsed.Ads[0]

	switch {
	case ad.Wrapper != nil:
		return r.resolveWrapper(ctx, ad.Wrapper, depth, chain)
	case ad.InLine != nil:
		return buildCreative(ad.InLine, chain)
	default:
		return nil, &errortypes.InvalidResponse{Message: fmt.Sprintf("VAST ad at wrapper depth %d has neither InLine nor Wrapper", depth)}
	}
}

func (r *Resolver) resolveWrapper(ctx context.Context, w *Wrapper, depth int, chain *chainContext) (*creative.VAST, error) {
	chain.impressionURLs = append(chain.impressionURLs, cleanURLs(w.Impression)...)
	chain.errorURLs = append(chain.errorURLs, cleanURLs(w.Error)...)

	uri := strings.TrimSpace(w.VASTAdTagURI)
	if uri == "" {
		return nil, &errortypes.InvalidResponse{Message: fmt.Sprintf("VAST wrapper at depth %d has no VASTAdTagURI", depth)}
	}

	if depth+1 > r.maxDepth {
		chain.depthExceeded = true
		return nil, &errortypes.InvalidResponse{Message: "maximum wrapper depth reached"}
	}

	body, err := r.fetchTag(ctx, uri)
	if err != nil {
		return nil, err
	}

	glog.V(2).Infof("resolved VAST wrapper level %d via %s", depth+1, uri)
	return r.resolve(ctx, body, depth+1, chain)
}

func (r *Resolver) fetchTag(ctx context.Context, uri string) ([]byte, error) {
	if r.cache != nil {
		if body, err := r.cache.Get([]byte(uri)); err == nil {
			return body, nil
		}
	}

	body, err := r.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.VastWrapperMeter.Mark(1)
	}

	if r.cache != nil {
		if err := r.cache.Set([]byte(uri), body, int(r.cacheTTL.Seconds())); err != nil {
			glog.Warningf("failed to cache VAST tag %s: %v", uri, err)
		}
	}

	return body, nil
}

func buildCreative(inline *InLine, chain *chainContext) (*creative.VAST, error) {
	linear := firstLinear(inline.Creatives)
	if linear == nil {
		return nil, &errortypes.InvalidResponse{Message: "VAST InLine has no linear creative"}
	}

	mediaURL := firstMediaURL(linear.MediaFiles)
	if mediaURL == "" {
		return nil, &errortypes.InvalidResponse{Message: "VAST linear creative has no media file"}
	}

	out := &creative.VAST{
		MediaURL:        mediaURL,
		DurationSeconds: ParseDurationToSeconds(linear.Duration),
		ImpressionURLs:  append(chain.impressionURLs, cleanURLs(inline.Impression)...),
		ErrorURLs:       append(chain.errorURLs, cleanURLs(inline.Error)...),
	}

	if offset, ok := parseSkipOffset(linear.SkipOffset, out.DurationSeconds); ok {
		out.SkipOffsetSeconds = offset
		out.HasSkipOffset = true
	}

	if linear.TrackingEvents != nil {
		for _, tracking := range linear.TrackingEvents.Tracking {
			url := strings.TrimSpace(tracking.URL)
			if url == "" {
				continue
			}
			switch tracking.Event {
			case "start":
				out.StartURLs = append(out.StartURLs, url)
			case "firstQuartile":
				out.FirstQuartileURLs = append(out.FirstQuartileURLs, url)
			case "midpoint":
				out.MidpointURLs = append(out.MidpointURLs, url)
			case "thirdQuartile":
				out.ThirdQuartileURLs = append(out.ThirdQuartileURLs, url)
			case "complete":
				out.CompleteURLs = append(out.CompleteURLs, url)
			case "skip":
				out.SkipURLs = append(out.SkipURLs, url)
			}
		}
	}

	if linear.VideoClicks != nil {
		out.ClickThroughURL = strings.TrimSpace(linear.VideoClicks.ClickThrough)
		out.ClickTrackingURLs = cleanURLs(linear.VideoClicks.ClickTracking)
	}

	return out, nil
}

func firstMediaURL(files *MediaFiles) string {
	if files == nil {
		return ""
	}
	for _, f := range files.MediaFile {
		if url := strings.TrimSpace(f.URL); url != "" {
			return url
		}
	}
	return ""
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
