package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fragment stripped", "https://example.com/docs#section-2", "https://example.com/docs"},
		{"trailing slash stripped", "https://example.com/docs/", "https://example.com/docs"},
		{"host lowercased", "https://Example.COM/docs", "https://example.com/docs"},
		{"unlisted site loses all params", "https://example.com/page?utm_source=mail&id=42", "https://example.com/page"},
		{"tracking stripped on listed site", "https://www.youtube.com/watch?v=abc&utm_campaign=x", "https://www.youtube.com/watch?v=abc"},
		{"identity param kept", "https://www.google.com/search?q=golang&gclid=123", "https://www.google.com/search?q=golang"},
		{"subdomain matches listed site", "https://music.youtube.com/watch?v=abc&feature=share", "https://music.youtube.com/watch?v=abc"},
		{"root slash", "https://example.com/", "https://example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeURL(tc.in))
		})
	}
}

func TestNormalizeURL_DistinctIdentities(t *testing.T) {
	a := NormalizeURL("https://www.youtube.com/watch?v=first")
	b := NormalizeURL("https://www.youtube.com/watch?v=second")
	require.NotEqual(t, a, b, "different videos must never be conflated")

	c := NormalizeURL("https://www.google.com/search?q=go")
	d := NormalizeURL("https://www.google.com/search?q=rust")
	require.NotEqual(t, c, d, "different searches must never be conflated")
}

func TestNormalizeURL_Unparseable(t *testing.T) {
	require.Equal(t, "::notaurl::", NormalizeURL("::notaurl::"))
}
