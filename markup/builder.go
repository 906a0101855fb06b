package markup

import (
	"fmt"
	"html"
	"strings"

	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/position"
)

// layoutClass picks the document structure; sizeClass only scales fonts and
// paddings. The two vary independently.
type layoutClass int

const (
	layoutCard layoutClass = iota
	layoutLargeImage
	layoutHorizontal
	layoutVerticalCompact
)

type sizeClass int

const (
	sizeSmall sizeClass = iota
	sizeNormal
	sizeLarge
)

type sizeStyle struct {
	titleFont int
	bodyFont  int
	padding   int
}

var sizeStyles = map[sizeClass]sizeStyle{
	sizeSmall:  {titleFont: 12, bodyFont: 10, padding: 4},
	sizeNormal: {titleFont: 16, bodyFont: 13, padding: 8},
	sizeLarge:  {titleFont: 22, bodyFont: 16, padding: 16},
}

// BuildNative renders a native creative into one self-contained, responsive
// HTML document for the given placement. All creative text is HTML-escaped;
// ad content must never be able to break out of the document structure.
func BuildNative(n *creative.Native, d position.Decision) string {
	esc := escapedNative(n)
	style := sizeStyles[classifySize(d)]
	fit := imageFit(d)

	var b strings.Builder
	writeHead(&b, style, fit)

	switch classifyLayout(d.Position) {
	case layoutLargeImage:
		b.WriteString(`<div class="ad large">`)
		if esc.MainImageURL != "" {
			fmt.Fprintf(&b, `<img class="main" src="%s" alt="">`, esc.MainImageURL)
		}
		b.WriteString(`<div class="text">`)
		writeTitleBlock(&b, esc)
		fmt.Fprintf(&b, `<p class="desc">%s</p>`, esc.Description)
		writeCTA(&b, esc)
		b.WriteString(`</div></div>`)

	case layoutHorizontal:
		// Edge strips stay in one row; the height clamp upstream keeps them
		// out of the host's content area.
		b.WriteString(`<div class="ad row">`)
		if esc.IconURL != "" {
			fmt.Fprintf(&b, `<img class="icon" src="%s" alt="">`, esc.IconURL)
		}
		writeTitleBlock(&b, esc)
		writeCTA(&b, esc)
		b.WriteString(`</div>`)

	case layoutVerticalCompact:
		b.WriteString(`<div class="ad column">`)
		if esc.IconURL != "" {
			fmt.Fprintf(&b, `<img class="icon" src="%s" alt="">`, esc.IconURL)
		}
		writeTitleBlock(&b, esc)
		writeCTA(&b, esc)
		b.WriteString(`</div>`)

	default:
		b.WriteString(`<div class="ad card">`)
		if esc.MainImageURL != "" {
			fmt.Fprintf(&b, `<img class="main" src="%s" alt="">`, esc.MainImageURL)
		}
		writeTitleBlock(&b, esc)
		fmt.Fprintf(&b, `<p class="desc">%s</p>`, esc.Description)
		writeCTA(&b, esc)
		b.WriteString(`</div>`)
	}

	b.WriteString(`</body></html>`)
	return b.String()
}

// BuildHTML wraps a raw-markup creative in the same responsive shell so both
// creative kinds hand the render surface a complete document.
func BuildHTML(h *creative.HTML, d position.Decision) string {
	if isCompleteDocument(h.Markup) {
		return h.Markup
	}

	var b strings.Builder
	writeHead(&b, sizeStyles[classifySize(d)], imageFit(d))
	b.WriteString(h.Markup)
	b.WriteString(`</body></html>`)
	return b.String()
}

func isCompleteDocument(markup string) bool {
	lower := strings.ToLower(markup)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

func classifyLayout(p position.Position) layoutClass {
	switch p {
	case position.FullScreen:
		return layoutLargeImage
	case position.Header, position.Footer:
		return layoutHorizontal
	case position.Sidebar:
		return layoutVerticalCompact
	default:
		return layoutCard
	}
}

func classifySize(d position.Decision) sizeClass {
	switch {
	case d.Width >= 600 && d.Height >= 400:
		return sizeLarge
	case d.Width < 200 || d.Height < 80:
		return sizeSmall
	default:
		return sizeNormal
	}
}

// imageFit avoids visible distortion: a slot squashed past 2:1 either way
// letterboxes the image instead of cropping it.
func imageFit(d position.Decision) string {
	if d.Width <= 0 || d.Height <= 0 {
		return "cover"
	}
	ratio := float64(d.Width) / float64(d.Height)
	if ratio > 2 || ratio < 0.5 {
		return "contain"
	}
	return "cover"
}

type escaped struct {
	Title        string
	Description  string
	IconURL      string
	MainImageURL string
	CTAText      string
	ClickURL     string
	Advertiser   string
}

func escapedNative(n *creative.Native) escaped {
	return escaped{
		Title:        html.EscapeString(n.Title),
		Description:  html.EscapeString(n.Description),
		IconURL:      html.EscapeString(n.IconURL),
		MainImageURL: html.EscapeString(n.MainImageURL),
		CTAText:      html.EscapeString(n.CTAText),
		ClickURL:     html.EscapeString(n.ClickURL),
		Advertiser:   html.EscapeString(n.Advertiser),
	}
}

func writeHead(b *strings.Builder, style sizeStyle, fit string) {
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width,initial-scale=1">`)
	fmt.Fprintf(b, `<style>
html,body{margin:0;padding:0;width:100%%;height:100%%;font-family:sans-serif}
.ad{box-sizing:border-box;width:100%%;height:100%%;padding:%dpx;overflow:hidden;background:#fff}
.ad.row{display:flex;flex-direction:row;align-items:center;gap:%dpx}
.ad.column,.ad.card,.ad.large{display:flex;flex-direction:column;gap:%dpx}
.title{font-size:%dpx;font-weight:bold;margin:0}
.advertiser,.desc{font-size:%dpx;color:#555;margin:0}
img.icon{width:40px;height:40px;object-fit:cover;flex-shrink:0}
img.main{width:100%%;flex:1;min-height:0;object-fit:%s}
a.cta{font-size:%dpx;background:#1a73e8;color:#fff;text-decoration:none;padding:%dpx %dpx;border-radius:4px;align-self:flex-start;white-space:nowrap}
.ad.row a.cta{margin-left:auto;align-self:center}
</style></head><body>`,
		style.padding, style.padding, style.padding,
		style.titleFont, style.bodyFont, fit,
		style.bodyFont, style.padding/2+2, style.padding,
	)
}

func writeTitleBlock(b *strings.Builder, esc escaped) {
	b.WriteString(`<div class="titles">`)
	fmt.Fprintf(b, `<p class="title">%s</p>`, esc.Title)
	if esc.Advertiser != "" {
		fmt.Fprintf(b, `<p class="advertiser">%s</p>`, esc.Advertiser)
	}
	b.WriteString(`</div>`)
}

func writeCTA(b *strings.Builder, esc escaped) {
	href := esc.ClickURL
	if href == "" {
		// Keep the button renderable; the surface intercepts navigation and a
		// missing click-through is a no-op.
		href = "#"
	}
	fmt.Fprintf(b, `<a class="cta" href="%s">%s</a>`, href, esc.CTAText)
}
