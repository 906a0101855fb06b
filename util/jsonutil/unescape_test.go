package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no_escapes", `<div>plain</div>`, `<div>plain</div>`},
		{"quote", `<a href=\"http://x\">`, `<a href="http://x">`},
		{"slash", `http:\/\/cdn.example.com\/ad.js`, `http://cdn.example.com/ad.js`},
		{"newline_tab", `line1\n\tline2`, "line1\n\tline2"},
		{"carriage_return", `a\rb`, "a\rb"},
		{"backslash", `c:\\ads`, `c:\ads`},
		{"unicode_bmp", `caf\u00e9`, "café"},
		{"unicode_cjk", `\u5e83\u544a`, "広告"},
		{"surrogate_pair", `\ud83d\ude00`, "😀"},
		{"unpaired_surrogate", `\ud83dx`, "\uFFFDx"},
		{"truncated_unicode", `end\u00`, `end\u00`},
		{"trailing_backslash", `oops\`, `oops\`},
		{"unknown_escape", `\q`, `\q`},
		{"empty", ``, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unescape(tt.input))
		})
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	samples := []string{
		`<div class="ad" style='x'>&copy;</div>`,
		"multi\nline\twith\rcontrol",
		`nested \"quotes\" survive`,
	}

	for _, s := range samples {
		assert.Equal(t, Unescape(Escape(s)), Unescape(Escape(Unescape(Escape(s)))))
		assert.Equal(t, s, Unescape(Escape(s)))
	}
}
