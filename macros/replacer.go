package macros

import "strings"

// Replace expands every [MACRO] token in trackingURL using the provider.
// Unknown macros are left untouched so vendor-specific macros survive for the
// ad server to expand on its side.
func Replace(trackingURL string, provider Provider) string {
	if !strings.ContainsRune(trackingURL, '[') {
		return trackingURL
	}

	var b strings.Builder
	b.Grow(len(trackingURL))

	for {
		open := strings.IndexByte(trackingURL, '[')
		if open < 0 {
			b.WriteString(trackingURL)
			break
		}
		close := strings.IndexByte(trackingURL[open:], ']')
		if close < 0 {
			b.WriteString(trackingURL)
			break
		}
		close += open

		b.WriteString(trackingURL[:open])
		key := trackingURL[open+1 : close]
		if value := provider.GetMacro(key); value != "" {
			b.WriteString(value)
		} else {
			b.WriteString(trackingURL[open : close+1])
		}
		trackingURL = trackingURL[close+1:]
	}

	return b.String()
}
