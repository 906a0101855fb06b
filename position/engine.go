package position

import (
	"github.com/golang/glog"

	"github.com/prebid/prebid-mobile-core/creative"
)

// headerFooterMaxHeight caps banner strips pinned to a screen edge. Taller
// strips cover host content, so the clamp applies regardless of declared size.
const headerFooterMaxHeight = 50

// Defaults is the configured fallback placement and size for one ad type.
type Defaults struct {
	Position Position
	Width    int
	Height   int
}

// Decision is the final placement for one ad instance. It is recomputed every
// time a new signal arrives and the caller re-applies it to the live surface.
type Decision struct {
	Position Position
	Width    int
	Height   int
}

// Signals collects the competing placement inputs for one resolution pass.
// Zero values mean "signal absent".
type Signals struct {
	AdType         creative.AdType
	ManualOverride Position
	ServerDeclared Position
	DeclaredWidth  int
	DeclaredHeight int
	Markup         string
}

// Engine arbitrates position and size. It is stateless and safe for
// concurrent use by independent ad instances.
type Engine struct {
	defaults map[creative.AdType]Defaults
}

func NewEngine(defaults map[creative.AdType]Defaults) *Engine {
	return &Engine{defaults: defaults}
}

// Resolve combines the signals into one Decision.
//
// Position priority: video is always full screen, then manual override, then
// the server-declared position, then the ad type's configured default, then
// Unknown. Size resolves independently: declared dimensions win over
// dimensions extracted from markup, which win over the type default.
func (e *Engine) Resolve(s Signals) Decision {
	d := Decision{Position: e.resolvePosition(s)}
	d.Width, d.Height = e.resolveSize(s)

	if d.Position == Header || d.Position == Footer {
		if d.Height > headerFooterMaxHeight {
			glog.V(2).Infof("clamping %s ad height %d to %d", d.Position, d.Height, headerFooterMaxHeight)
			d.Height = headerFooterMaxHeight
		}
	}

	return d
}

func (e *Engine) resolvePosition(s Signals) Position {
	if s.AdType == creative.AdTypeVideo {
		return FullScreen
	}
	if s.ManualOverride != Unknown {
		return s.ManualOverride
	}
	if s.ServerDeclared != Unknown {
		return s.ServerDeclared
	}
	return e.defaults[s.AdType].Position
}

func (e *Engine) resolveSize(s Signals) (int, int) {
	if s.DeclaredWidth > 0 && s.DeclaredHeight > 0 {
		return s.DeclaredWidth, s.DeclaredHeight
	}

	if s.Markup != "" {
		if dims, ok := ExtractDimensions(s.Markup); ok {
			return dims.Width, dims.Height
		}
	}

	def := e.defaults[s.AdType]
	return def.Width, def.Height
}
