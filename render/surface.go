package render

// Surface is the contract every renderer must satisfy. The production
// implementation wraps a platform WebView; the fallback in this package
// serves platforms with no embedded browser at all.
type Surface interface {
	// Load hands the surface a complete markup document. baseURL resolves
	// relative references inside the markup.
	Load(markup, baseURL string) error

	SetVisible(visible bool)

	// SetMargins positions the surface inside its host container, in pixels.
	SetMargins(left, top, right, bottom int)

	// EvaluateScript runs js in the page. Constrained backends may no-op.
	EvaluateScript(js string) error
}

// Listener receives surface lifecycle callbacks. OnMessage carries messages
// posted from the page, which is how click-throughs are intercepted instead
// of letting the surface navigate.
type Listener interface {
	OnStarted(url string)
	OnLoaded(url string)
	OnError(message string)
	OnHTTPError(message string)
	OnMessage(message string)
}

// NopListener discards every callback. Embed it when only some callbacks
// matter.
type NopListener struct{}

func (NopListener) OnStarted(string)   {}
func (NopListener) OnLoaded(string)    {}
func (NopListener) OnError(string)     {}
func (NopListener) OnHTTPError(string) {}
func (NopListener) OnMessage(string)   {}
