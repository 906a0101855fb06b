package envelope

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"

	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/position"
	"github.com/prebid/prebid-mobile-core/util/jsonutil"
)

// Envelope is the decoded ad-server response: the creative content plus the
// optional position and size the server declared for it. It is consumed once
// by the resolution pipeline and then discarded.
type Envelope struct {
	Content     string
	Position    position.Position
	HasPosition bool
	Width       int
	Height      int
}

// Decode unwraps a raw response body.
//
// Three shapes are tried in order: the nested envelope
// {"adm":{"adm":"...","position":n},"position":n,"width":n,"height":n}, the
// flat envelope {"adm":"..."}, and finally the body verbatim as markup. A
// recovered adm string gets one explicit unescape pass; ad servers
// double-encode markup, and skipping it yields literally-escaped HTML.
//
// The nested envelope's position wins over the outer one.
func Decode(body []byte) (*Envelope, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &errortypes.InvalidResponse{Message: "empty ad server response"}
	}

	env := &Envelope{}

	admRaw, admType, _, admErr := jsonparser.Get(body, "adm")
	switch {
	case admErr == nil && admType == jsonparser.Object:
		innerRaw, innerType, _, innerErr := jsonparser.Get(admRaw, "adm")
		if innerErr != nil || innerType != jsonparser.String {
			glog.Warningf("nested envelope without inner adm string, treating body as markup")
			env.Content = string(body)
			break
		}
		env.Content = jsonutil.Unescape(string(innerRaw))
		readPosition(env, admRaw)
		if !env.HasPosition {
			readPosition(env, body)
		}
		readSize(env, body)

	case admErr == nil && admType == jsonparser.String:
		env.Content = jsonutil.Unescape(string(admRaw))
		readPosition(env, body)
		readSize(env, body)

	default:
		// Not an envelope at all. The body is the markup.
		env.Content = string(body)
	}

	if strings.TrimSpace(env.Content) == "" {
		return nil, &errortypes.InvalidResponse{Message: "no ad markup in response"}
	}

	return env, nil
}

func readPosition(env *Envelope, data []byte) {
	v, err := jsonparser.GetInt(data, "position")
	if err != nil {
		return
	}
	env.Position = position.FromInt(int(v))
	env.HasPosition = true
}

func readSize(env *Envelope, data []byte) {
	if w, err := jsonparser.GetInt(data, "width"); err == nil && w > 0 {
		env.Width = int(w)
	}
	if h, err := jsonparser.GetInt(data, "height"); err == nil && h > 0 {
		env.Height = int(h)
	}
}
