package native

import (
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/native1"
	nativeResponse "github.com/prebid/openrtb/v20/native1/response"

	"github.com/prebid/prebid-mobile-core/creative"
	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/util/jsonutil"
)

// Asset roles by the fixed id convention used by the ad server. Unknown ids
// are ignored, not errors.
const (
	assetIDCTAText     = 1
	assetIDTitle       = 2
	assetIDIcon        = 3
	assetIDMainImage   = 4
	assetIDDescription = 6
)

const defaultCTAText = "Learn more"

// flatCreative is the legacy flat response shape, predating the OpenRTB
// payload. Ad servers are inconsistent about which one they send.
type flatCreative struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	IconURL           string `json:"iconUrl"`
	MainImageURL      string `json:"mainImageUrl"`
	InstallButtonText string `json:"installButtonText"`
	CTAText           string `json:"ctaText"`
	ClickURL          string `json:"clickUrl"`
	Advertiser        string `json:"advertiser"`
}

// Parse maps a native JSON payload onto a creative.
//
// The strict OpenRTB shape ({"native":{"assets":[...],"link":{...}}}) is
// tried first; if it is missing or malformed, the legacy flat shape is tried
// before giving up with InvalidResponse.
func Parse(content string) (*creative.Native, error) {
	data := []byte(content)

	if parsed, err := parseOpenRTB(data); err == nil {
		return parsed, nil
	} else {
		glog.V(2).Infof("strict native parse failed, trying flat shape: %v", err)
	}

	if parsed, err := parseFlat(data); err == nil {
		return parsed, nil
	}

	return nil, &errortypes.InvalidResponse{Message: "content is neither an OpenRTB native payload nor a flat native creative"}
}

func parseOpenRTB(data []byte) (*creative.Native, error) {
	payload, dataType, _, err := jsonparser.Get(data, "native")
	if err != nil || dataType != jsonparser.Object {
		return nil, &errortypes.InvalidResponse{Message: "no native object in payload"}
	}

	var resp nativeResponse.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &errortypes.InvalidResponse{Message: "malformed native object: " + err.Error()}
	}

	out := &creative.Native{
		ClickURL: strings.TrimSpace(resp.Link.URL),
	}

	for _, asset := range resp.Assets {
		if asset.ID == nil {
			continue
		}
		switch *asset.ID {
		case assetIDCTAText:
			out.CTAText = assetText(asset)
		case assetIDTitle:
			if asset.Title != nil {
				out.Title = asset.Title.Text
			}
		case assetIDIcon:
			if asset.Img != nil {
				out.IconURL = asset.Img.URL
			}
		case assetIDMainImage:
			if asset.Img != nil {
				out.MainImageURL = asset.Img.URL
			}
		case assetIDDescription:
			out.Description = assetText(asset)
		}

		if asset.Data != nil && asset.Data.Type == native1.DataAssetTypeSponsored {
			out.Advertiser = asset.Data.Value
		}
	}

	finishCreative(out)
	return out, nil
}

// assetText reads the text payload of an asset that may arrive as either a
// title or a data asset; servers use both for CTA and description fields.
func assetText(asset nativeResponse.Asset) string {
	if asset.Title != nil && asset.Title.Text != "" {
		return asset.Title.Text
	}
	if asset.Data != nil {
		return asset.Data.Value
	}
	return ""
}

func parseFlat(data []byte) (*creative.Native, error) {
	var flat flatCreative
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, &errortypes.InvalidResponse{Message: "malformed flat native creative: " + err.Error()}
	}

	if flat.Title == "" {
		return nil, &errortypes.InvalidResponse{Message: "flat native creative has no title"}
	}

	cta := flat.InstallButtonText
	if cta == "" {
		cta = flat.CTAText
	}

	out := &creative.Native{
		Title:        flat.Title,
		Description:  flat.Description,
		IconURL:      flat.IconURL,
		MainImageURL: flat.MainImageURL,
		CTAText:      cta,
		ClickURL:     strings.TrimSpace(flat.ClickURL),
		Advertiser:   flat.Advertiser,
	}

	finishCreative(out)
	return out, nil
}

// finishCreative applies the shared post-processing: the CTA default and one
// unescape pass over every text field, since servers double-encode native
// payloads the same way they double-encode markup.
func finishCreative(out *creative.Native) {
	out.Title = jsonutil.Unescape(out.Title)
	out.Description = jsonutil.Unescape(out.Description)
	out.CTAText = jsonutil.Unescape(out.CTAText)
	out.Advertiser = jsonutil.Unescape(out.Advertiser)
	out.IconURL = jsonutil.Unescape(out.IconURL)
	out.MainImageURL = jsonutil.Unescape(out.MainImageURL)
	out.ClickURL = jsonutil.Unescape(out.ClickURL)

	if out.CTAText == "" {
		out.CTAText = defaultCTAText
	}
}
