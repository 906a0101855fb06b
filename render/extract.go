package render

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	backgroundImageRE = regexp.MustCompile(`(?i)background(?:-image)?\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	genericURLRE      = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	rawImageURLRE     = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+\.(?:png|jpe?g|gif|webp|bmp)(?:\?[^\s"'<>)]*)?`)
)

// ExtractImageURL finds the image a constrained renderer should display for
// markup it cannot actually render.
//
// Priority: CSS background-image, any other CSS url(...), the first
// non-tracking-pixel <img src>, then a raw URL with an image-file extension
// as last resort.
func ExtractImageURL(markup string) (string, bool) {
	if m := backgroundImageRE.FindStringSubmatch(markup); m != nil {
		if url := cleanCandidate(m[1]); url != "" {
			return url, true
		}
	}

	if m := genericURLRE.FindStringSubmatch(markup); m != nil {
		if url := cleanCandidate(m[1]); url != "" {
			return url, true
		}
	}

	src, pixelURLs := scanImgTags(markup)
	if src != "" {
		return src, true
	}

	for _, m := range rawImageURLRE.FindAllString(markup, -1) {
		if _, isPixel := pixelURLs[m]; !isPixel {
			return m, true
		}
	}

	return "", false
}

// ExtractClickURL picks the click target for the fallback renderer: the first
// anchor href, else imageURL so tapping the texture still goes somewhere.
func ExtractClickURL(markup, imageURL string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return imageURL
		}
		if tokenType != html.StartTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "href" {
				if href := cleanCandidate(attr.Val); href != "" {
					return href
				}
			}
		}
	}
}

// scanImgTags walks <img> tags and returns the first src that is not a 1x1
// tracking pixel, plus the set of pixel URLs seen so the raw-URL tier can
// avoid resurrecting them.
func scanImgTags(markup string) (string, map[string]struct{}) {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var first string
	pixels := make(map[string]struct{})

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return first, pixels
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}

		token := tokenizer.Token()
		if token.Data != "img" {
			continue
		}

		var src string
		w, h := -1, -1
		for _, attr := range token.Attr {
			switch attr.Key {
			case "src":
				src = cleanCandidate(attr.Val)
			case "width":
				w = parseDim(attr.Val)
			case "height":
				h = parseDim(attr.Val)
			}
		}

		if src == "" {
			continue
		}
		if w == 1 && h == 1 {
			pixels[src] = struct{}{}
			continue
		}
		if first == "" {
			first = src
		}
	}
}

func parseDim(v string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return -1
	}
	return n
}

func cleanCandidate(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" || strings.HasPrefix(url, "data:") || strings.HasPrefix(url, "javascript:") || url == "#" {
		return ""
	}
	return url
}
