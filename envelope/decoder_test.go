package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-mobile-core/errortypes"
	"github.com/prebid/prebid-mobile-core/position"
	"github.com/prebid/prebid-mobile-core/util/jsonutil"
)

func TestDecodeNestedEnvelope(t *testing.T) {
	body := `{"adm":{"adm":"<div id=\"ad\">hi<\/div>","position":4},"position":2,"width":320,"height":50}`

	env, err := Decode([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, `<div id="ad">hi</div>`, env.Content)
	assert.True(t, env.HasPosition)
	assert.Equal(t, position.Header, env.Position, "nested position wins over outer")
	assert.Equal(t, 320, env.Width)
	assert.Equal(t, 50, env.Height)
}

func TestDecodeNestedPositionFallsBackToOuter(t *testing.T) {
	body := `{"adm":{"adm":"<div>x</div>"},"position":5}`

	env, err := Decode([]byte(body))

	require.NoError(t, err)
	assert.True(t, env.HasPosition)
	assert.Equal(t, position.Footer, env.Position)
}

func TestDecodeFlatEnvelope(t *testing.T) {
	body := `{"adm":"{\"native\":{\"assets\":[]}}","position":4}`

	env, err := Decode([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, `{"native":{"assets":[]}}`, env.Content)
	assert.True(t, env.HasPosition)
	assert.Equal(t, position.Header, env.Position)
}

func TestDecodeVerbatimBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"raw_html", `<div>raw html</div>`},
		{"malformed_json", `{"adm": <<<`},
		{"json_without_adm", `{"foo":"bar"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.body, env.Content)
			assert.False(t, env.HasPosition)
		})
	}
}

func TestDecodeUnicodeEscapes(t *testing.T) {
	body := `{"adm":"\u5e83\u544a<br\/>"}`

	env, err := Decode([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, "広告<br/>", env.Content)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"whitespace", "  \n "},
		{"empty_adm", `{"adm":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, errortypes.InvalidResponseErrorCode, errortypes.ReadCode(err))
		})
	}
}

// The unescape step must round-trip: re-escaping the decoded content yields
// the markup the server originally embedded.
func TestDecodeUnescapeRoundTrip(t *testing.T) {
	original := `<div class="ad">line1` + "\n" + `line2</div>`
	body := `{"adm":{"adm":"` + jsonutil.Escape(original) + `"}}`

	env, err := Decode([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, original, env.Content)
	assert.Equal(t, jsonutil.Escape(original), jsonutil.Escape(env.Content))
}
