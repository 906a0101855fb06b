package adunit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang/glog"

	"github.com/prebid/prebid-mobile-core/config"
	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/envelope"
	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/markup"
	"github.com/prebid/prebid-mobile-core/metrics"
	"github.com/prebid/prebid-mobile-core/native"
	"github.com/prebid/prebid-mobile-core/position"
	"github.com/prebid/prebid-mobile-core/render"
	"github.com/prebid/prebid-mobile-core/tracking"
	"github.com/prebid/prebid-mobile-core/util/httputil"
	"github.com/prebid/prebid-mobile-core/vast"
)

// AdRequest describes one ad the host wants to show.
type AdRequest struct {
	PlacementID string
	AdType      creative.AdType

	// PositionOverride pins the placement regardless of what the server
	// declares. Unknown means no override.
	PositionOverride position.Position
}

// Dependencies are the collaborators one ad unit needs. Listener is required;
// everything else has a usable default.
type Dependencies struct {
	Listener EventListener

	// Surface renders HTML and native creatives. Video ads never touch it.
	Surface render.Surface

	// Override, when set, is offered the raw creative before templating.
	Override RenderOverride

	// Metrics may be shared across every ad unit in the process. Nil disables
	// instrumentation.
	Metrics *metrics.Metrics

	// Resolver may be shared so concurrent placements reuse one wrapper-fetch
	// cache. Nil builds a private resolver from the configuration.
	Resolver *vast.Resolver

	Fetcher *httputil.Fetcher
}

// AdUnit loads and presents a single ad. One instance serves one load; hosts
// construct a fresh unit per refresh. All exported methods are safe to call
// from any goroutine.
type AdUnit struct {
	id      string
	cfg     *config.Configuration
	request AdRequest

	listener EventListener
	surface  render.Surface
	override RenderOverride
	metrics  *metrics.Metrics
	fetcher  *httputil.Fetcher
	resolver *vast.Resolver
	engine   *position.Engine

	lifeCtx    context.Context
	lifeCancel context.CancelFunc

	loadOnce  sync.Once
	terminal  sync.Once
	loadStart time.Time

	mu         sync.Mutex
	silenced   bool
	loaded     bool
	loadCancel context.CancelFunc
	result     *creative.Creative
	decision   position.Decision
	tracker    *tracking.Tracker
	poller     *tracking.Poller
	pinger     *tracking.Pinger
}

// New builds an ad unit. It performs no I/O; call Load to start the pipeline.
func New(cfg *config.Configuration, request AdRequest, deps Dependencies) (*AdUnit, error) {
	if cfg == nil {
		return nil, errors.New("adunit: configuration is required")
	}
	if request.PlacementID == "" {
		return nil, errors.New("adunit: placement id is required")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("adunit: generating instance id: %w", err)
	}

	listener := deps.Listener
	if listener == nil {
		listener = NopEventListener{}
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = httputil.NewFetcher(nil, cfg.UserAgent)
	}

	resolver := deps.Resolver
	if resolver == nil {
		resolver = vast.NewResolver(fetcher, vast.Options{
			MaxWrapperDepth: cfg.VAST.MaxWrapperDepth,
			CacheBytes:      cfg.VAST.CacheSizeBytes,
			CacheTTL:        cfg.CacheTTL(),
			Metrics:         deps.Metrics,
		})
	}

	lifeCtx, lifeCancel := context.WithCancel(context.Background())

	return &AdUnit{
		id:         id.String(),
		cfg:        cfg,
		request:    request,
		listener:   listener,
		surface:    deps.Surface,
		override:   deps.Override,
		metrics:    deps.Metrics,
		fetcher:    fetcher,
		resolver:   resolver,
		engine:     position.NewEngine(cfg.PositionDefaults()),
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
	}, nil
}

// ID is the unique instance id, mainly for log correlation.
func (u *AdUnit) ID() string { return u.id }

// Creative returns the resolved creative, nil before a successful load.
func (u *AdUnit) Creative() *creative.Creative {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result
}

// Decision returns the placement decision for the loaded ad. Hosts read it
// when OnAdDisplayed fires and apply the size to their view hierarchy.
func (u *AdUnit) Decision() position.Decision {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.decision
}

// Load runs the full pipeline: fetch, envelope decode, classification,
// type-specific resolution, placement arbitration, templating, and handoff to
// the render surface. It reports the outcome through the EventListener and
// never returns an error; a second call is a no-op.
//
// The whole load is bounded by the configured timeout. An unfinished load
// past the deadline fails with the timeout error code.
func (u *AdUnit) Load(ctx context.Context) {
	u.loadOnce.Do(func() {
		u.loadStart = time.Now()
		if u.metrics != nil {
			u.metrics.RecordAdRequest()
		}
		u.emit(func(l EventListener) { l.OnAdLoading(u.request.PlacementID) })

		loadCtx, cancel := context.WithTimeout(mergeLifetime(ctx, u.lifeCtx), u.cfg.LoadTimeout())
		u.mu.Lock()
		u.loadCancel = cancel
		u.mu.Unlock()
		u.watchDeadline(loadCtx)

		if err := u.load(loadCtx); err != nil {
			u.fail(err)
		}
	})
}

func (u *AdUnit) load(ctx context.Context) error {
	requestURL, err := u.requestURL()
	if err != nil {
		return err
	}

	body, err := u.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		return err
	}

	env, err := envelope.Decode(body)
	if err != nil {
		return err
	}

	serverPos := loadServerPosition()
	if env.HasPosition {
		storeServerPosition(env.Position)
		serverPos = env.Position
	}

	switch creative.Classify(env.Content) {
	case creative.KindVAST:
		return u.loadVideo(ctx, env, serverPos)
	case creative.KindNative:
		return u.loadNative(env, serverPos)
	default:
		return u.loadHTML(env, serverPos)
	}
}

func (u *AdUnit) loadVideo(ctx context.Context, env *envelope.Envelope, serverPos position.Position) error {
	v, err := u.resolver.Resolve(ctx, env.Content)
	if err != nil {
		return err
	}

	decision := u.engine.Resolve(position.Signals{
		AdType:         creative.AdTypeVideo,
		ManualOverride: u.request.PositionOverride,
		ServerDeclared: serverPos,
		DeclaredWidth:  env.Width,
		DeclaredHeight: env.Height,
	})

	pinger := tracking.NewPinger(u.lifeCtx, v.MediaURL, u.metrics)
	tracker := tracking.NewTracker(v, pinger, videoEvents{u}, u.cfg.Tracking.DefaultSkipOffsetSeconds)

	u.mu.Lock()
	u.result = &creative.Creative{Kind: creative.KindVAST, VAST: v}
	u.decision = decision
	u.pinger = pinger
	u.tracker = tracker
	u.mu.Unlock()

	u.markLoaded()
	return nil
}

func (u *AdUnit) loadNative(env *envelope.Envelope, serverPos position.Position) error {
	n, err := native.Parse(env.Content)
	if err != nil {
		return err
	}

	decision := u.engine.Resolve(position.Signals{
		AdType:         creative.AdTypeNative,
		ManualOverride: u.request.PositionOverride,
		ServerDeclared: serverPos,
		DeclaredWidth:  env.Width,
		DeclaredHeight: env.Height,
	})

	u.mu.Lock()
	u.result = &creative.Creative{Kind: creative.KindNative, Native: n}
	u.decision = decision
	u.mu.Unlock()

	if u.tryOverride(env.Content, creative.AdTypeNative, decision.Position) {
		return nil
	}
	return u.present(markup.BuildNative(n, decision))
}

func (u *AdUnit) loadHTML(env *envelope.Envelope, serverPos position.Position) error {
	content := creative.UnwrapDocumentWrite(env.Content)

	adType := u.request.AdType
	if adType != creative.AdTypeImage && adType != creative.AdTypeVideo {
		adType = creative.AdTypeImage
	}

	decision := u.engine.Resolve(position.Signals{
		AdType:         adType,
		ManualOverride: u.request.PositionOverride,
		ServerDeclared: serverPos,
		DeclaredWidth:  env.Width,
		DeclaredHeight: env.Height,
		Markup:         content,
	})

	h := &creative.HTML{Markup: content}
	if imageURL, ok := render.ExtractImageURL(content); ok {
		h.ClickURL = render.ExtractClickURL(content, imageURL)
	}

	u.mu.Lock()
	u.result = &creative.Creative{Kind: creative.KindHTML, HTML: h}
	u.decision = decision
	u.mu.Unlock()

	if u.tryOverride(content, adType, decision.Position) {
		return nil
	}
	return u.present(markup.BuildHTML(h, decision))
}

func (u *AdUnit) tryOverride(raw string, adType creative.AdType, pos position.Position) bool {
	if u.override == nil {
		return false
	}
	if !u.override.TryRenderOverride(u.request.PlacementID, raw, adType, pos) {
		return false
	}
	glog.V(2).Infof("placement %s rendered by host override", u.request.PlacementID)
	u.markLoaded()
	u.markDisplayed()
	return true
}

func (u *AdUnit) present(doc string) error {
	if u.surface == nil {
		return &errortypes.Unknown{Message: "no render surface configured"}
	}
	return u.surface.Load(doc, u.cfg.Endpoint)
}

// SurfaceEvents adapts this unit to the render surface callback contract.
// The host wires it as the listener of the surface it passed in Dependencies.
func (u *AdUnit) SurfaceEvents() render.Listener {
	return surfaceEvents{u}
}

// BeginPlayback attaches the host's media player to the tracking state
// machine and starts progress polling. Only valid for a loaded video ad.
func (u *AdUnit) BeginPlayback(source tracking.ProgressSource) error {
	u.mu.Lock()
	tracker := u.tracker
	u.mu.Unlock()

	if tracker == nil {
		return errors.New("adunit: no video creative loaded")
	}

	poller := tracking.NewPoller(u.cfg.PollInterval(), source, tracker)

	u.mu.Lock()
	u.poller = poller
	u.mu.Unlock()

	poller.Start(u.lifeCtx)
	u.markDisplayed()
	return nil
}

// ClickVideo registers a video click and returns the click-through URL for
// the host to open in the system browser.
func (u *AdUnit) ClickVideo() string {
	u.mu.Lock()
	tracker := u.tracker
	u.mu.Unlock()

	if tracker == nil {
		return ""
	}
	target := tracker.Click()
	u.emit(func(l EventListener) { l.OnAdClicked(u.request.PlacementID) })
	return target
}

// SkipVideo skips playback if the skip threshold has passed.
func (u *AdUnit) SkipVideo() bool {
	u.mu.Lock()
	tracker, poller := u.tracker, u.poller
	u.mu.Unlock()

	if tracker == nil || !tracker.Skip() {
		return false
	}
	if poller != nil {
		poller.Stop()
	}
	u.emit(func(l EventListener) { l.OnVideoAdSkipped(u.request.PlacementID) })
	return true
}

// ReportVideoError fires the creative's VAST error pixels with the given VAST
// error code. Hosts call it when the media player fails on the resolved media.
func (u *AdUnit) ReportVideoError(code int) {
	u.mu.Lock()
	result, pinger := u.result, u.pinger
	u.mu.Unlock()

	if result == nil || result.VAST == nil || pinger == nil {
		return
	}
	pinger.FireError(result.VAST.ErrorURLs, code)
}

// Close reports a user-initiated close and then destroys the unit.
func (u *AdUnit) Close() {
	u.emit(func(l EventListener) { l.OnAdClosed(u.request.PlacementID) })
	u.Destroy()
}

// Destroy cancels everything in flight. No callback fires after it returns:
// pending fetches abort, queued beacons are abandoned, and late surface
// events are dropped.
func (u *AdUnit) Destroy() {
	u.mu.Lock()
	u.silenced = true
	poller := u.poller
	u.mu.Unlock()

	u.lifeCancel()
	if poller != nil {
		poller.Stop()
	}
	if u.surface != nil {
		u.surface.SetVisible(false)
	}
}

func (u *AdUnit) requestURL() (string, error) {
	parsed, err := url.Parse(u.cfg.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &errortypes.InvalidURL{Message: fmt.Sprintf("bad ad server endpoint %q", u.cfg.Endpoint)}
	}

	query := parsed.Query()
	query.Set("placement_id", u.request.PlacementID)
	query.Set("ad_type", u.request.AdType.String())
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// watchDeadline fails the load if the deadline expires before the unit
// reaches a loaded or terminal state.
func (u *AdUnit) watchDeadline(ctx context.Context) {
	go func() {
		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		u.mu.Lock()
		loaded := u.loaded
		u.mu.Unlock()
		if !loaded {
			u.fail(&errortypes.Timeout{Message: fmt.Sprintf("ad load exceeded %s", u.cfg.LoadTimeout())})
		}
	}()
}

func (u *AdUnit) markLoaded() {
	u.mu.Lock()
	already := u.loaded
	u.loaded = true
	cancel := u.loadCancel
	u.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if already {
		return
	}
	u.emit(func(l EventListener) { l.OnAdLoaded(u.request.PlacementID) })
}

func (u *AdUnit) markDisplayed() {
	u.terminal.Do(func() {
		if u.metrics != nil {
			u.metrics.RecordAdDisplayed(time.Since(u.loadStart))
		}
		u.emit(func(l EventListener) { l.OnAdDisplayed(u.request.PlacementID) })
	})
}

func (u *AdUnit) fail(err error) {
	u.mu.Lock()
	cancel := u.loadCancel
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	u.terminal.Do(func() {
		code := errortypes.ReadCode(err)
		if u.metrics != nil {
			u.metrics.RecordAdFailure(code)
		}
		glog.Errorf("placement %s failed with code %d: %v", u.request.PlacementID, code, err)
		u.emit(func(l EventListener) { l.OnAdFailed(u.request.PlacementID, code, err.Error()) })
	})
}

func (u *AdUnit) emit(fn func(EventListener)) {
	u.mu.Lock()
	silenced := u.silenced
	u.mu.Unlock()
	if silenced {
		return
	}
	fn(u.listener)
}

// surfaceEvents forwards render surface callbacks into the unit's lifecycle.
type surfaceEvents struct {
	u *AdUnit
}

func (s surfaceEvents) OnStarted(url string) {
	glog.V(2).Infof("placement %s surface loading %s", s.u.request.PlacementID, url)
}

func (s surfaceEvents) OnLoaded(string) {
	s.u.markLoaded()
	if s.u.surface != nil {
		s.u.surface.SetVisible(true)
	}
	s.u.markDisplayed()
}

func (s surfaceEvents) OnError(message string) {
	s.u.fail(&errortypes.Unknown{Message: message})
}

func (s surfaceEvents) OnHTTPError(message string) {
	s.u.fail(&errortypes.NetworkError{Message: message})
}

// OnMessage carries an intercepted click-through from the page.
func (s surfaceEvents) OnMessage(message string) {
	u := s.u
	u.emit(func(l EventListener) { l.OnAdClicked(u.request.PlacementID) })

	u.mu.Lock()
	result := u.result
	u.mu.Unlock()

	if result != nil && result.Kind == creative.KindNative && result.Native.CTAText != "" {
		u.emit(func(l EventListener) {
			l.OnInstallButtonClicked(u.request.PlacementID, result.Native.CTAText)
		})
	}
	glog.V(2).Infof("placement %s click-through to %s", u.request.PlacementID, message)
}

// videoEvents forwards tracker transitions to the host listener.
type videoEvents struct {
	u *AdUnit
}

func (v videoEvents) OnVideoStarted() {
	v.u.emit(func(l EventListener) { l.OnVideoAdStarted(v.u.request.PlacementID) })
}

func (v videoEvents) OnVideoCompleted() {
	v.u.emit(func(l EventListener) { l.OnVideoAdCompleted(v.u.request.PlacementID) })
}

func (v videoEvents) OnVideoSkippable() {
	v.u.emit(func(l EventListener) { l.OnVideoAdSkippable(v.u.request.PlacementID) })
}

// mergeLifetime derives a context cancelled when either the caller's context
// or the unit's lifetime ends.
func mergeLifetime(ctx, life context.Context) context.Context {
	merged, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-life.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged
}
