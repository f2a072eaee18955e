// Package dedup finds and removes duplicate live tabs by comparing
// normalized URLs.
package dedup

import (
	"net/url"
	"strings"
)

// identityParams lists, per site, the query parameters that distinguish one
// page from another. The policy is whitelist-not-blacklist: sites not
// listed here lose every query parameter, so two differently-parameterized
// URLs on an unknown site count as the same page. Hosts match by suffix
// with a leading "www." stripped first.
var identityParams = map[string][]string{
	"youtube.com":       {"v", "list"},
	"youtu.be":          {},
	"google.com":        {"q", "tbm"},
	"bing.com":          {"q"},
	"duckduckgo.com":    {"q"},
	"amazon.com":        {"dp", "k"},
	"github.com":        {"q", "tab"},
	"stackoverflow.com": {"q"},
	"reddit.com":        {"q"},
	"ebay.com":          {"_nkw"},
	"twitch.tv":         {"video"},
}

// NormalizeURL reduces a URL to its duplicate-comparison key: lowercase
// scheme and host, fragment dropped, trailing slash dropped, and query
// parameters cut down to the site's identity parameters. Unparseable input
// is returned as-is so it only ever matches itself.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	keep := identityParamsFor(u.Host)
	if len(keep) == 0 {
		u.RawQuery = ""
		return u.String()
	}
	q := u.Query()
	kept := url.Values{}
	for _, p := range keep {
		if vs, ok := q[p]; ok {
			kept[p] = vs
		}
	}
	u.RawQuery = kept.Encode()
	return u.String()
}

func identityParamsFor(host string) []string {
	host = strings.TrimPrefix(host, "www.")
	for site, params := range identityParams {
		if host == site || strings.HasSuffix(host, "."+site) {
			return params
		}
	}
	return nil
}
