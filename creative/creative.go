package creative

// AdType describes the kind of placement an ad request was made for, analogous
// to OpenRTB's banner/video/native imp split.
type AdType int

const (
	AdTypeImage AdType = iota
	AdTypeVideo
	AdTypeNative
)

func (t AdType) String() string {
	switch t {
	case AdTypeImage:
		return "image"
	case AdTypeVideo:
		return "video"
	case AdTypeNative:
		return "native"
	}
	return "unknown"
}

// Kind tags the live variant of a Creative.
type Kind int

const (
	KindHTML Kind = iota
	KindNative
	KindVAST
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindNative:
		return "native"
	case KindVAST:
		return "vast"
	}
	return "unknown"
}

// HTML is a raw-markup creative. ClickURL is only populated when a click
// target could be extracted from the markup (used by the fallback renderer).
type HTML struct {
	Markup   string
	ClickURL string
}

// Native carries the semantic fields of an OpenRTB native creative.
type Native struct {
	Title        string
	Description  string
	IconURL      string
	MainImageURL string
	CTAText      string
	ClickURL     string
	Advertiser   string
}

// VAST is a fully resolved video creative: all wrapper levels flattened, with
// the tracking URL sets for each playback event.
type VAST struct {
	MediaURL        string
	ClickThroughURL string
	DurationSeconds int

	// SkipOffsetSeconds is only meaningful when HasSkipOffset is set; a
	// declared offset of 0 means immediately skippable, which is distinct
	// from no declaration at all.
	SkipOffsetSeconds int
	HasSkipOffset     bool

	ImpressionURLs    []string
	StartURLs         []string
	FirstQuartileURLs []string
	MidpointURLs      []string
	ThirdQuartileURLs []string
	CompleteURLs      []string
	SkipURLs          []string
	ClickTrackingURLs []string
	ErrorURLs         []string
}

// Creative is the resolved, renderable ad payload. Exactly one variant is
// non-nil, selected by Kind, and the value never changes once constructed.
type Creative struct {
	Kind   Kind
	HTML   *HTML
	Native *Native
	VAST   *VAST
}
