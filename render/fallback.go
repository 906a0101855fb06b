package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/prebid/prebid-mobile-core/metrics"
)

// TextureSink is the host-side display primitive for the fallback surface: a
// static texture filling the ad's rectangle.
type TextureSink interface {
	SetTexture(image []byte)
	Clear()
}

// FallbackSurface is the constrained Surface for platforms without an
// embedded browser. It extracts the first displayable image from the markup,
// fetches it asynchronously, and shows it as a static texture. Tapping the
// surface dispatches OnMessage with the click target instead of navigating.
type FallbackSurface struct {
	sink     TextureSink
	listener Listener
	client   *retryablehttp.Client

	// Metrics, when set, counts how often a placement fell back to static
	// texture rendering.
	Metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	clickURL string
	visible  bool
	margins  [4]int
}

// NewFallbackSurface builds a surface drawing into sink. A nil listener
// discards callbacks.
func NewFallbackSurface(sink TextureSink, listener Listener) *FallbackSurface {
	if listener == nil {
		listener = NopListener{}
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.Logger = nil

	ctx, cancel := context.WithCancel(context.Background())
	return &FallbackSurface{
		sink:     sink,
		listener: listener,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Load scans markup for a displayable image and fetches it in the background.
// OnLoaded fires once the texture is set; fetch failures surface through
// OnHTTPError. Markup with no usable image fails immediately.
func (s *FallbackSurface) Load(markup, baseURL string) error {
	s.listener.OnStarted(baseURL)
	if s.Metrics != nil {
		s.Metrics.RenderFallbackMeter.Mark(1)
	}

	imageURL, ok := ExtractImageURL(markup)
	if !ok {
		msg := "no displayable image in markup"
		s.listener.OnError(msg)
		return fmt.Errorf("fallback renderer: %s", msg)
	}

	s.clickURL = ExtractClickURL(markup, imageURL)

	go s.fetchTexture(imageURL)
	return nil
}

func (s *FallbackSurface) fetchTexture(imageURL string) {
	req, err := retryablehttp.NewRequestWithContext(s.ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		s.listener.OnHTTPError(fmt.Sprintf("invalid image url %q: %v", imageURL, err))
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if s.ctx.Err() != nil {
			return // surface destroyed, stay silent
		}
		s.listener.OnHTTPError(fmt.Sprintf("image fetch failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.listener.OnHTTPError(fmt.Sprintf("image fetch returned status %d", resp.StatusCode))
		return
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		s.listener.OnHTTPError(fmt.Sprintf("image read failed: %v", err))
		return
	}

	if s.ctx.Err() != nil {
		return
	}

	s.sink.SetTexture(image)
	s.listener.OnLoaded(imageURL)
}

func (s *FallbackSurface) SetVisible(visible bool) {
	s.visible = visible
	if !visible {
		s.sink.Clear()
	}
}

func (s *FallbackSurface) SetMargins(left, top, right, bottom int) {
	s.margins = [4]int{left, top, right, bottom}
}

// EvaluateScript is a no-op; there is no script engine on this backend.
func (s *FallbackSurface) EvaluateScript(js string) error {
	glog.V(2).Info("fallback surface dropping script evaluation")
	return nil
}

// Click reports a tap on the texture. Navigation is the host's business; the
// surface only forwards the click target.
func (s *FallbackSurface) Click() {
	if s.clickURL != "" {
		s.listener.OnMessage(s.clickURL)
	}
}

// Destroy cancels any in-flight image fetch and blanks the texture. No
// callback fires after Destroy returns.
func (s *FallbackSurface) Destroy() {
	s.cancel()
	s.sink.Clear()
}
