package adunit

import (
	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/position"
)

// EventListener is implemented by the host application. Each ad instance
// reports exactly one terminal outcome: a sequence ending in OnAdDisplayed,
// or a single OnAdFailed.
type EventListener interface {
	OnAdLoading(placementID string)
	OnAdLoaded(placementID string)
	OnAdDisplayed(placementID string)
	OnAdClicked(placementID string)
	OnAdClosed(placementID string)
	OnAdFailed(placementID string, errorCode int, message string)

	OnVideoAdStarted(placementID string)
	OnVideoAdCompleted(placementID string)
	OnVideoAdSkipped(placementID string)
	OnVideoAdSkippable(placementID string)

	OnInstallButtonClicked(placementID string, buttonText string)
}

// NopEventListener discards every event. Embed it to implement only the
// callbacks a host cares about.
type NopEventListener struct{}

func (NopEventListener) OnAdLoading(string)                  {}
func (NopEventListener) OnAdLoaded(string)                   {}
func (NopEventListener) OnAdDisplayed(string)                {}
func (NopEventListener) OnAdClicked(string)                  {}
func (NopEventListener) OnAdClosed(string)                   {}
func (NopEventListener) OnAdFailed(string, int, string)      {}
func (NopEventListener) OnVideoAdStarted(string)             {}
func (NopEventListener) OnVideoAdCompleted(string)           {}
func (NopEventListener) OnVideoAdSkipped(string)             {}
func (NopEventListener) OnVideoAdSkippable(string)           {}
func (NopEventListener) OnInstallButtonClicked(string, string) {}

// RenderOverride lets the host take over rendering for a placement. It is
// checked exactly once per ad, before default HTML templating; returning true
// skips the SDK's own render surface entirely.
type RenderOverride interface {
	TryRenderOverride(placementID, markup string, adType creative.AdType, pos position.Position) bool
}
