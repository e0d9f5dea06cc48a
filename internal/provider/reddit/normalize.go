package reddit

import (
	"net/url"
	"strings"
)

// IsThreadURL reports whether raw points at a reddit host over http(s).
func IsThreadURL(raw string) bool {
	_, err := NormalizeURL(raw)
	return err == nil
}

// NormalizeURL turns a thread URL into its top-sorted JSON endpoint.
// Query, fragment, trailing slashes and any existing .json suffix are removed.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &InvalidURLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InvalidURLError{URL: raw, Reason: "scheme must be http or https"}
	}
	host := strings.ToLower(u.Hostname())
	if host != "reddit.com" && !strings.HasSuffix(host, ".reddit.com") {
		return "", &InvalidURLError{URL: raw, Reason: "not a reddit.com URL"}
	}

	path := strings.TrimRight(u.Path, "/")
	path = strings.TrimSuffix(path, ".json")
	path = strings.TrimRight(path, "/")
	if !strings.Contains(path, "/comments/") {
		return "", &InvalidURLError{URL: raw, Reason: "not a thread URL"}
	}

	u.Path = path + ".json"
	u.RawPath = ""
	u.RawQuery = "sort=top"
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
