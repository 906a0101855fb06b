package macros

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace(t *testing.T) {
	p := NewProvider("http://cdn/video.mp4")
	p.SetPlayhead(95)
	p.SetErrorCode(303)

	out := Replace("http://t.example/e?pos=[CONTENTPLAYHEAD]&asset=[ASSETURI]&code=[ERRORCODE]", p)

	assert.Equal(t, "http://t.example/e?pos=00:01:35&asset=http%3A%2F%2Fcdn%2Fvideo.mp4&code=303", out)
}

func TestReplaceTimestampAndCacheBusting(t *testing.T) {
	p := NewProvider("")

	out := Replace("http://t.example/i?ts=[TIMESTAMP]&cb=[CACHEBUSTING]", p)

	require.NotContains(t, out, "[TIMESTAMP]")
	require.NotContains(t, out, "[CACHEBUSTING]")

	parts := strings.Split(out, "cb=")
	require.Len(t, parts, 2)
	cb, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cb, 10000000)
	assert.Less(t, cb, 100000000)
}

func TestReplaceLeavesUnknownMacros(t *testing.T) {
	p := NewProvider("")

	out := Replace("http://t.example/i?v=[VENDOR_THING]&x=[", p)

	assert.Contains(t, out, "[VENDOR_THING]")
	assert.True(t, strings.HasSuffix(out, "x=["))
}

func TestReplaceNoMacros(t *testing.T) {
	assert.Equal(t, "http://plain", Replace("http://plain", NewProvider("")))
}

func TestFormatPlayhead(t *testing.T) {
	assert.Equal(t, "00:00:00", formatPlayhead(0))
	assert.Equal(t, "00:00:00", formatPlayhead(-3))
	assert.Equal(t, "01:01:05", formatPlayhead(3665))
}
