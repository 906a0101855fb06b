package tracking

import (
	"sync"

	"github.com/golang/glog"

	"github.com/prebid/prebid-mobile-core/creative"
)

// Listener receives the video lifecycle transitions the host cares about.
type Listener interface {
	OnVideoStarted()
	OnVideoCompleted()
	OnVideoSkippable()
}

// NopListener discards every video lifecycle callback.
type NopListener struct{}

func (NopListener) OnVideoStarted()   {}
func (NopListener) OnVideoCompleted() {}
func (NopListener) OnVideoSkippable() {}

// trackingState is the set of fired flags for one ad instance. Monotonic:
// every flag only ever transitions false to true.
type trackingState struct {
	impression    bool
	start         bool
	firstQuartile bool
	midpoint      bool
	thirdQuartile bool
	complete      bool
	skippable     bool
	skipped       bool
	clicked       bool
}

// Tracker drives the playback tracking state machine for one video creative.
// It consumes a monotonic progress signal and fires each tracking event
// exactly once at its threshold, no matter how often polling re-observes a
// crossed threshold.
//
// OnProgress is called from the progress poller; Click and Skip from the UI.
// The mutex keeps the exactly-once guarantee across both.
type Tracker struct {
	mu       sync.Mutex
	vast     *creative.VAST
	pinger   *Pinger
	listener Listener

	skipOffsetSeconds int
	state             trackingState
}

// NewTracker builds a tracker. defaultSkipOffset applies when the creative
// declares none; a negative value disables the skip button entirely.
func NewTracker(vast *creative.VAST, pinger *Pinger, listener Listener, defaultSkipOffset int) *Tracker {
	if listener == nil {
		listener = NopListener{}
	}

	offset := defaultSkipOffset
	if vast.HasSkipOffset {
		offset = vast.SkipOffsetSeconds
	}

	return &Tracker{
		vast:              vast,
		pinger:            pinger,
		listener:          listener,
		skipOffsetSeconds: offset,
	}
}

// OnProgress consumes one progress observation, in seconds. Every threshold
// crossed since the last observation fires in order: impression, start, first
// quartile, midpoint, third quartile, complete.
func (t *Tracker) OnProgress(positionSeconds, durationSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.complete {
		return
	}

	if !t.state.impression {
		t.state.impression = true
		t.pinger.Fire(t.vast.ImpressionURLs)
	}

	if !t.state.start && positionSeconds >= 0 {
		t.state.start = true
		glog.V(2).Infof("video playback started, duration %.1fs", durationSeconds)
		t.pinger.Fire(t.vast.StartURLs)
		t.listener.OnVideoStarted()
	}

	t.pinger.SetPlayhead(int(positionSeconds))

	if durationSeconds > 0 {
		progress := positionSeconds / durationSeconds

		if !t.state.firstQuartile && progress >= 0.25 {
			t.state.firstQuartile = true
			t.pinger.Fire(t.vast.FirstQuartileURLs)
		}
		if !t.state.midpoint && progress >= 0.5 {
			t.state.midpoint = true
			t.pinger.Fire(t.vast.MidpointURLs)
		}
		if !t.state.thirdQuartile && progress >= 0.75 {
			t.state.thirdQuartile = true
			t.pinger.Fire(t.vast.ThirdQuartileURLs)
		}
		if !t.state.complete && progress >= 1 {
			t.state.complete = true
			t.pinger.Fire(t.vast.CompleteURLs)
			t.listener.OnVideoCompleted()
		}
	}

	if !t.state.skippable && t.skipOffsetSeconds >= 0 && positionSeconds >= float64(t.skipOffsetSeconds) {
		t.state.skippable = true
		t.listener.OnVideoSkippable()
	}
}

// Click fires the click tracking set once and returns the click-through URL
// for the host to open. Subsequent clicks return the URL without re-firing.
func (t *Tracker) Click() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.clicked {
		t.state.clicked = true
		t.pinger.Fire(t.vast.ClickTrackingURLs)
	}
	return t.vast.ClickThroughURL
}

// Skip fires the skip tracking set once. Skipping after completion or before
// the skip threshold is ignored.
func (t *Tracker) Skip() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.skippable || t.state.skipped || t.state.complete {
		return false
	}
	t.state.skipped = true
	t.pinger.Fire(t.vast.SkipURLs)
	return true
}

// IsSkippable reports whether playback has passed the skip offset.
func (t *Tracker) IsSkippable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.skippable
}

// Done reports whether playback finished or was skipped; the poller stops
// observing once this is true.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.complete || t.state.skipped
}
