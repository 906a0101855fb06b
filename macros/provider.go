package macros

import (
	"math/rand"
	"net/url"
	"strconv"
	"time"
)

// The VAST URL macros the SDK expands before firing a tracking or error
// beacon. Measurement vendors key cache busting and playhead reporting off
// these, so unexpanded macros make beacons useless.
const (
	MacroKeyTimestamp       = "TIMESTAMP"
	MacroKeyCacheBusting    = "CACHEBUSTING"
	MacroKeyContentPlayhead = "CONTENTPLAYHEAD"
	MacroKeyAssetURI        = "ASSETURI"
	MacroKeyErrorCode       = "ERRORCODE"
)

// Provider resolves macro keys to values for one ad instance.
type Provider interface {
	// GetMacro returns the macro value for the given macro key, or the empty
	// string when the macro has no value yet.
	GetMacro(key string) string
	// SetPlayhead records the current playback position for [CONTENTPLAYHEAD].
	SetPlayhead(seconds int)
	// SetErrorCode records the VAST error code for [ERRORCODE] on error pixels.
	SetErrorCode(code int)
}

type macroProvider struct {
	macros map[string]string
}

// NewProvider builds a provider for one ad instance. assetURI is the media
// URL being played and may be empty for non-video ads.
func NewProvider(assetURI string) Provider {
	p := &macroProvider{macros: map[string]string{}}
	p.macros[MacroKeyAssetURI] = url.QueryEscape(assetURI)
	return p
}

func (p *macroProvider) GetMacro(key string) string {
	switch key {
	case MacroKeyTimestamp:
		return strconv.FormatInt(time.Now().Unix(), 10)
	case MacroKeyCacheBusting:
		return strconv.Itoa(10000000 + rand.Intn(90000000))
	}
	return p.macros[key]
}

func (p *macroProvider) SetPlayhead(seconds int) {
	p.macros[MacroKeyContentPlayhead] = formatPlayhead(seconds)
}

func (p *macroProvider) SetErrorCode(code int) {
	p.macros[MacroKeyErrorCode] = strconv.Itoa(code)
}

func formatPlayhead(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
