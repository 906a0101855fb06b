package adunit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-mobile-core/config"
	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/position"
)

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingListener) record(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingListener) count(e string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.events {
		if got == e {
			n++
		}
	}
	return n
}

func (r *recordingListener) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingListener) OnAdLoading(string)   { r.record("loading") }
func (r *recordingListener) OnAdLoaded(string)    { r.record("loaded") }
func (r *recordingListener) OnAdDisplayed(string) { r.record("displayed") }
func (r *recordingListener) OnAdClicked(string)   { r.record("clicked") }
func (r *recordingListener) OnAdClosed(string)    { r.record("closed") }
func (r *recordingListener) OnAdFailed(_ string, code int, _ string) {
	r.record(fmt.Sprintf("failed:%d", code))
}
func (r *recordingListener) OnVideoAdStarted(string)   { r.record("video_started") }
func (r *recordingListener) OnVideoAdCompleted(string) { r.record("video_completed") }
func (r *recordingListener) OnVideoAdSkipped(string)   { r.record("video_skipped") }
func (r *recordingListener) OnVideoAdSkippable(string) { r.record("video_skippable") }
func (r *recordingListener) OnInstallButtonClicked(_ string, buttonText string) {
	r.record("install:" + buttonText)
}

type fakeSurface struct {
	mu        sync.Mutex
	loadCalls int
	doc       string
	visible   bool
}

func (f *fakeSurface) Load(markup, baseURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	f.doc = markup
	return nil
}

func (f *fakeSurface) SetVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = visible
}

func (f *fakeSurface) SetMargins(left, top, right, bottom int) {}

func (f *fakeSurface) EvaluateScript(string) error { return nil }

func (f *fakeSurface) document() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

func (f *fakeSurface) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls
}

func testConfig(t *testing.T, endpoint string, overrides map[string]interface{}) *config.Configuration {
	t.Helper()
	v := viper.New()
	config.SetupViper(v, "")
	v.Set("endpoint", endpoint)
	for key, value := range overrides {
		v.Set(key, value)
	}
	cfg, err := config.New(v)
	require.NoError(t, err)
	return cfg
}

func envelopeBody(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(fields)
	require.NoError(t, err)
	return body
}

func TestLoadHTMLBanner(t *testing.T) {
	storeServerPosition(position.Unknown)

	body := envelopeBody(t, map[string]interface{}{
		"adm":      `<a href="http://landing.example"><img src="http://cdn/banner.png" width="320" height="50"></a>`,
		"position": int(position.BelowTheFold),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p1", r.URL.Query().Get("placement_id"))
		w.Write(body)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	surface := &fakeSurface{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1", AdType: creative.AdTypeImage}, Dependencies{
		Listener: listener,
		Surface:  surface,
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())
	require.Equal(t, 1, surface.calls(), "markup must reach the surface")
	assert.Contains(t, surface.document(), "banner.png")

	unit.SurfaceEvents().OnLoaded(srv.URL)

	assert.Equal(t, []string{"loading", "loaded", "displayed"}, listener.all())
	require.NotNil(t, unit.Creative())
	assert.Equal(t, creative.KindHTML, unit.Creative().Kind)

	d := unit.Decision()
	assert.Equal(t, position.BelowTheFold, d.Position)
	assert.Equal(t, 320, d.Width)
	assert.Equal(t, 50, d.Height)
}

func TestLoadHTMLHeaderClampsHeight(t *testing.T) {
	storeServerPosition(position.Unknown)

	body := envelopeBody(t, map[string]interface{}{
		"adm":      `<img src="http://cdn/tall.png" width="300" height="250">`,
		"position": int(position.Header),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1", AdType: creative.AdTypeImage}, Dependencies{
		Listener: listener,
		Surface:  &fakeSurface{},
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	d := unit.Decision()
	assert.Equal(t, position.Header, d.Position)
	assert.Equal(t, 300, d.Width)
	assert.Equal(t, 50, d.Height, "header strips are clamped")
}

func TestLoadNativeAndInstallClick(t *testing.T) {
	storeServerPosition(position.Unknown)

	nativePayload := `{"title":"Great App","description":"Try it","installButtonText":"Install","clickUrl":"http://store.example/app"}`
	body := envelopeBody(t, map[string]interface{}{"adm": nativePayload})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	surface := &fakeSurface{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1", AdType: creative.AdTypeNative}, Dependencies{
		Listener: listener,
		Surface:  surface,
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())
	require.Equal(t, 1, surface.calls())
	assert.Contains(t, surface.document(), "Great App")

	events := unit.SurfaceEvents()
	events.OnLoaded(srv.URL)
	events.OnMessage("http://store.example/app")

	assert.Equal(t, 1, listener.count("clicked"))
	assert.Equal(t, 1, listener.count("install:Install"))

	require.NotNil(t, unit.Creative().Native)
	assert.Equal(t, "Great App", unit.Creative().Native.Title)
}

func TestLoadVideo(t *testing.T) {
	storeServerPosition(position.Unknown)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	vastDoc := fmt.Sprintf(`<VAST version="3.0"><Ad><InLine>
		<Impression>%s/imp</Impression>
		<Creatives><Creative><Linear>
			<Duration>00:00:20</Duration>
			<MediaFiles><MediaFile>http://cdn/v.mp4</MediaFile></MediaFiles>
		</Linear></Creative></Creatives>
	</InLine></Ad></VAST>`, srv.URL)

	mux.HandleFunc("/ad", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(vastDoc))
	})
	mux.HandleFunc("/imp", func(w http.ResponseWriter, r *http.Request) {})

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL+"/ad", map[string]interface{}{
		"tracking.poll_interval_ms": 5,
	}), AdRequest{PlacementID: "p1", AdType: creative.AdTypeVideo}, Dependencies{
		Listener: listener,
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())
	require.Equal(t, 1, listener.count("loaded"))
	require.NotNil(t, unit.Creative().VAST)
	assert.Equal(t, "http://cdn/v.mp4", unit.Creative().VAST.MediaURL)
	assert.Equal(t, position.FullScreen, unit.Decision().Position, "video is always full screen")

	var mu sync.Mutex
	pos := 0.0
	require.NoError(t, unit.BeginPlayback(progressFunc(func() (float64, float64) {
		mu.Lock()
		defer mu.Unlock()
		pos += 5
		return pos, 20
	})))

	assert.Equal(t, 1, listener.count("displayed"))
	assert.Eventually(t, func() bool {
		return listener.count("video_completed") == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, listener.count("video_started"))
}

func TestServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1"}, Dependencies{Listener: listener})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	assert.Equal(t, 1, listener.count(fmt.Sprintf("failed:%d", errortypes.NetworkErrorCode)))
	assert.Equal(t, 0, listener.count("displayed"))
}

func TestEmptyResponseFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1"}, Dependencies{Listener: listener})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	assert.Equal(t, 1, listener.count(fmt.Sprintf("failed:%d", errortypes.InvalidResponseErrorCode)))
}

func TestLoadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL, map[string]interface{}{
		"load_timeout_ms": 50,
	}), AdRequest{PlacementID: "p1"}, Dependencies{Listener: listener})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	assert.Eventually(t, func() bool {
		return listener.count(fmt.Sprintf("failed:%d", errortypes.TimeoutErrorCode)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDestroySilencesCallbacks(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	listener := &recordingListener{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1"}, Dependencies{Listener: listener})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		unit.Load(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return listener.count("loading") == 1 }, time.Second, 5*time.Millisecond)
	unit.Destroy()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load did not abort after destroy")
	}

	assert.Equal(t, []string{"loading"}, listener.all(), "no callback after destroy")
}

type acceptingOverride struct {
	mu      sync.Mutex
	calls   int
	gotType creative.AdType
	gotPos  position.Position
}

func (o *acceptingOverride) TryRenderOverride(_, _ string, adType creative.AdType, pos position.Position) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.gotType = adType
	o.gotPos = pos
	return true
}

func TestRenderOverrideSkipsSurface(t *testing.T) {
	storeServerPosition(position.Unknown)

	body := envelopeBody(t, map[string]interface{}{"adm": `<div>markup</div>`})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	listener := &recordingListener{}
	surface := &fakeSurface{}
	override := &acceptingOverride{}
	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{PlacementID: "p1", AdType: creative.AdTypeImage}, Dependencies{
		Listener: listener,
		Surface:  surface,
		Override: override,
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	assert.Equal(t, 0, surface.calls(), "override owns rendering")
	assert.Equal(t, []string{"loading", "loaded", "displayed"}, listener.all())

	override.mu.Lock()
	defer override.mu.Unlock()
	assert.Equal(t, 1, override.calls)
	assert.Equal(t, creative.AdTypeImage, override.gotType)
}

func TestServerPositionCacheSharedAcrossInstances(t *testing.T) {
	storeServerPosition(position.Unknown)

	var requests int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		n := requests
		mu.Unlock()
		if n == 1 {
			w.Write(envelopeBody(t, map[string]interface{}{
				"adm":      `<div>first</div>`,
				"position": int(position.Footer),
			}))
			return
		}
		w.Write(envelopeBody(t, map[string]interface{}{"adm": `<div>second</div>`}))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL, nil)

	first, err := New(cfg, AdRequest{PlacementID: "p1", AdType: creative.AdTypeImage}, Dependencies{
		Listener: &recordingListener{},
		Surface:  &fakeSurface{},
	})
	require.NoError(t, err)
	defer first.Destroy()
	first.Load(context.Background())
	assert.Equal(t, position.Footer, first.Decision().Position)

	second, err := New(cfg, AdRequest{PlacementID: "p2", AdType: creative.AdTypeImage}, Dependencies{
		Listener: &recordingListener{},
		Surface:  &fakeSurface{},
	})
	require.NoError(t, err)
	defer second.Destroy()
	second.Load(context.Background())

	assert.Equal(t, position.Footer, second.Decision().Position, "cached server position applies")
}

func TestManualOverrideBeatsServer(t *testing.T) {
	storeServerPosition(position.Unknown)

	body := envelopeBody(t, map[string]interface{}{
		"adm":      `<div>banner</div>`,
		"position": int(position.Footer),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	unit, err := New(testConfig(t, srv.URL, nil), AdRequest{
		PlacementID:      "p1",
		AdType:           creative.AdTypeImage,
		PositionOverride: position.Sidebar,
	}, Dependencies{
		Listener: &recordingListener{},
		Surface:  &fakeSurface{},
	})
	require.NoError(t, err)
	defer unit.Destroy()

	unit.Load(context.Background())

	assert.Equal(t, position.Sidebar, unit.Decision().Position)
}

type progressFunc func() (float64, float64)

func (f progressFunc) Progress() (float64, float64) { return f() }
