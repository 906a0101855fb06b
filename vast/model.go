package vast

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// VAST is the document root. Only the elements the SDK consumes are modeled;
// unknown elements are ignored by encoding/xml.
type VAST struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr"`
	Ads     []Ad     `xml:"Ad"`
}

// Ad holds either an InLine (playable) or a Wrapper (pointer to the next
// document in an ad-network chain).
type Ad struct {
	ID      string   `xml:"id,attr"`
	InLine  *InLine  `xml:"InLine"`
	Wrapper *Wrapper `xml:"Wrapper"`
}

type InLine struct {
	AdSystem   string     `xml:"AdSystem"`
	AdTitle    string     `xml:"AdTitle"`
	Advertiser string     `xml:"Advertiser"`
	Error      []string   `xml:"Error"`
	Impression []string   `xml:"Impression"`
	Creatives  *Creatives `xml:"Creatives"`
}

type Wrapper struct {
	AdSystem     string     `xml:"AdSystem"`
	VASTAdTagURI string     `xml:"VASTAdTagURI"`
	Error        []string   `xml:"Error"`
	Impression   []string   `xml:"Impression"`
	Creatives    *Creatives `xml:"Creatives"`
}

type Creatives struct {
	Creative []Creative `xml:"Creative"`
}

type Creative struct {
	ID     string  `xml:"id,attr"`
	Linear *Linear `xml:"Linear"`
}

type Linear struct {
	SkipOffset     string          `xml:"skipoffset,attr"`
	Duration       string          `xml:"Duration"`
	TrackingEvents *TrackingEvents `xml:"TrackingEvents"`
	MediaFiles     *MediaFiles     `xml:"MediaFiles"`
	VideoClicks    *VideoClicks    `xml:"VideoClicks"`
}

type TrackingEvents struct {
	Tracking []Tracking `xml:"Tracking"`
}

type Tracking struct {
	Event string `xml:"event,attr"`
	URL   string `xml:",chardata"`
}

type MediaFiles struct {
	MediaFile []MediaFile `xml:"MediaFile"`
}

type MediaFile struct {
	Delivery string `xml:"delivery,attr"`
	Type     string `xml:"type,attr"`
	Width    int    `xml:"width,attr"`
	Height   int    `xml:"height,attr"`
	URL      string `xml:",chardata"`
}

type VideoClicks struct {
	ClickThrough  string   `xml:"ClickThrough"`
	ClickTracking []string `xml:"ClickTracking"`
}

// Parse unmarshals a VAST document. CDATA wrappers and surrounding whitespace
// are handled by encoding/xml; callers still need to trim URL values.
func Parse(doc []byte) (*VAST, error) {
	var v VAST
	if err := xml.Unmarshal(doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// firstLinear returns the first Linear creative in the container, which is the
// one the SDK plays. VAST sequencing of multiple creatives is not supported.
func firstLinear(c *Creatives) *Linear {
	if c == nil {
		return nil
	}
	for i := range c.Creative {
		if c.Creative[i].Linear != nil {
			return c.Creative[i].Linear
		}
	}
	return nil
}

// ParseDurationToSeconds parses a VAST duration (HH:MM:SS or HH:MM:SS.mmm)
// into whole seconds. Returns 0 for anything unparseable.
func ParseDurationToSeconds(duration string) int {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0
	}

	if dot := strings.IndexByte(duration, '.'); dot >= 0 {
		duration = duration[:dot]
	}

	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0
	}

	var total int
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}

	return total
}

// parseSkipOffset resolves a skipoffset attribute to seconds. Both the
// HH:MM:SS form and the percentage form ("25%") are accepted; percentages
// need a known duration and are otherwise ignored. The second return reports
// whether an offset was resolved.
func parseSkipOffset(offset string, durationSeconds int) (int, bool) {
	offset = strings.TrimSpace(offset)
	if offset == "" {
		return 0, false
	}

	if strings.HasSuffix(offset, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(offset, "%"))
		if err != nil || pct < 0 || pct > 100 || durationSeconds <= 0 {
			return 0, false
		}
		return durationSeconds * pct / 100, true
	}

	if strings.Count(offset, ":") == 2 {
		if secs := ParseDurationToSeconds(offset); secs > 0 {
			return secs, true
		}
		return 0, false
	}

	return 0, false
}
