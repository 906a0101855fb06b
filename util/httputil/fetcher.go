package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/prebid/prebid-mobile-core/errortypes"
)

const defaultMaxBodyBytes = 10 << 20

// Fetcher issues outbound GET requests on behalf of the SDK core and maps
// transport-level failures onto the errortypes taxonomy, so callers never have
// to inspect *url.Error or response codes themselves.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewFetcher wraps client. A nil client uses http.DefaultClient. Per-request
// deadlines come from the context, not from the client.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:       client,
		userAgent:    userAgent,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Fetch GETs rawURL and returns the response body.
//
// Error mapping: malformed URL => InvalidURL, context deadline => Timeout,
// any other transport failure or a non-2xx status => NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &errortypes.InvalidURL{Message: fmt.Sprintf("invalid fetch url %q", rawURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &errortypes.InvalidURL{Message: fmt.Sprintf("invalid fetch url %q: %v", rawURL, err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("fetch of %s timed out", parsed.Host)}
		}
		return nil, &errortypes.NetworkError{Message: fmt.Sprintf("fetch of %s failed: %v", parsed.Host, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errortypes.NetworkError{Message: fmt.Sprintf("fetch of %s returned status %d", parsed.Host, resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &errortypes.Timeout{Message: fmt.Sprintf("fetch of %s timed out reading body", parsed.Host)}
		}
		return nil, &errortypes.NetworkError{Message: fmt.Sprintf("fetch of %s failed reading body: %v", parsed.Host, err)}
	}

	return body, nil
}
