package position

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Dimensions is a width/height pair scraped from ad markup.
type Dimensions struct {
	Width  int
	Height int
}

var (
	styleWidthRE  = regexp.MustCompile(`(?i)width\s*:\s*(\d+)(?:px)?`)
	styleHeightRE = regexp.MustCompile(`(?i)height\s*:\s*(\d+)(?:px)?`)
)

// ExtractDimensions scrapes a plausible creative size out of markup.
//
// Priority: inline CSS width:/height: declarations, then <iframe>
// width/height attributes, then <img> width/height attributes. 1x1 pairs are
// tracking pixels at every tier and are always skipped.
func ExtractDimensions(markup string) (Dimensions, bool) {
	if dims, ok := fromStyles(markup); ok {
		return dims, true
	}
	if dims, ok := fromTagAttributes(markup, "iframe"); ok {
		return dims, true
	}
	if dims, ok := fromTagAttributes(markup, "img"); ok {
		return dims, true
	}
	return Dimensions{}, false
}

func fromStyles(markup string) (Dimensions, bool) {
	widths := styleWidthRE.FindAllStringSubmatch(markup, -1)
	heights := styleHeightRE.FindAllStringSubmatch(markup, -1)

	for i := 0; i < len(widths) && i < len(heights); i++ {
		w, errW := strconv.Atoi(widths[i][1])
		h, errH := strconv.Atoi(heights[i][1])
		if errW != nil || errH != nil {
			continue
		}
		if isTrackingPixel(w, h) || w <= 0 || h <= 0 {
			continue
		}
		return Dimensions{Width: w, Height: h}, true
	}

	return Dimensions{}, false
}

func fromTagAttributes(markup, tag string) (Dimensions, bool) {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return Dimensions{}, false
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}

		token := tokenizer.Token()
		if token.Data != tag {
			continue
		}

		var w, h int
		for _, attr := range token.Attr {
			v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(attr.Val), "px"))
			if err != nil {
				continue
			}
			switch attr.Key {
			case "width":
				w = v
			case "height":
				h = v
			}
		}

		if w > 0 && h > 0 && !isTrackingPixel(w, h) {
			return Dimensions{Width: w, Height: h}, true
		}
	}
}

func isTrackingPixel(w, h int) bool {
	return w == 1 && h == 1
}
