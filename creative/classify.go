package creative

import (
	"regexp"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/prebid/prebid-mobile-core/util/jsonutil"
)

var documentWriteRE = regexp.MustCompile(`(?is)^\s*document\.write\s*\(\s*(.*?)\s*\)\s*;?\s*$`)

// Classify inspects decoded ad content and reports which creative kind it is.
//
// The checks run in a fixed order: anything containing "<VAST" is a video
// document no matter what surrounds it, then JSON payloads carrying either an
// OpenRTB "native" object or the legacy flat native fields, and everything
// else is HTML or plain markup.
func Classify(content string) Kind {
	if containsVASTTag(content) {
		return KindVAST
	}

	if looksLikeNative(content) {
		return KindNative
	}

	return KindHTML
}

func containsVASTTag(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<vast")
}

// looksLikeNative reports whether content is a JSON object with an OpenRTB
// "native" sub-object, or the legacy flat shape identified by a string "title"
// field. The full parse happens later in the native package; this only routes.
func looksLikeNative(content string) bool {
	data := []byte(strings.TrimSpace(content))
	if len(data) == 0 || data[0] != '{' {
		return false
	}

	if _, dataType, _, err := jsonparser.Get(data, "native"); err == nil && dataType == jsonparser.Object {
		return true
	}

	if _, err := jsonparser.GetString(data, "title"); err == nil {
		return true
	}

	return false
}

// UnwrapDocumentWrite peels a document.write("...") wrapper off markup,
// returning the inner content with its quoting and escape layer removed. Ad
// networks ship these wrappers when the same creative is reused from script
// tags. Content without the wrapper is returned unchanged.
func UnwrapDocumentWrite(content string) string {
	m := documentWriteRE.FindStringSubmatch(content)
	if m == nil {
		return content
	}

	inner := strings.TrimSpace(m[1])
	if len(inner) >= 2 {
		if (inner[0] == '"' && inner[len(inner)-1] == '"') || (inner[0] == '\'' && inner[len(inner)-1] == '\'') {
			inner = inner[1 : len(inner)-1]
		}
	}

	return jsonutil.Unescape(inner)
}
