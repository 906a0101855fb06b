package jsonutil

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unescape resolves JSON string escapes in s: the two-character sequences
// \" \\ \/ \n \r \t \b \f and the six-character \uXXXX form, including
// UTF-16 surrogate pairs. Ad servers routinely double-encode markup, so the
// payload recovered from an envelope may still carry a literal escape layer
// that the JSON decoder never saw.
//
// Invalid or truncated escapes are passed through verbatim rather than
// rejected; a creative with one bad escape should still render.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		switch s[i+1] {
		case '"', '\\', '/':
			b.WriteByte(s[i+1])
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'u':
			r, size, ok := decodeUnicodeEscape(s[i:])
			if !ok {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(r)
			i += size
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// Escape applies the inverse of Unescape to the characters JSON requires to be
// escaped inside a string value. Used by tests to verify the round-trip and by
// callers embedding markup back into JSON documents.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// decodeUnicodeEscape decodes a \uXXXX sequence at the start of s, consuming a
// following low surrogate when the first code unit is a high surrogate.
// Returns the decoded rune, the number of input bytes consumed, and whether
// the sequence was valid.
func decodeUnicodeEscape(s string) (rune, int, bool) {
	u, ok := parseHex4(s)
	if !ok {
		return 0, 0, false
	}

	if !utf16.IsSurrogate(u) {
		return u, 6, true
	}

	if u2, ok2 := parseHex4(s[6:]); ok2 {
		if combined := utf16.DecodeRune(u, u2); combined != utf8.RuneError {
			return combined, 12, true
		}
	}

	// Unpaired surrogate: emit the replacement character but keep going.
	return utf8.RuneError, 6, true
}

func parseHex4(s string) (rune, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}

	var u rune
	for _, c := range []byte(s[2:6]) {
		u <<= 4
		switch {
		case c >= '0' && c <= '9':
			u |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			u |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			u |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}

	return u, true
}
