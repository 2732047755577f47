package content

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var errNotWebURL = errors.New("must be an absolute http or https URL")

// NormalizeVideoURL returns a canonical representation of a video address.
//
//   - Surrounding whitespace is trimmed
//   - Only absolute http and https URLs with a host are accepted
//   - Scheme and host are lower-cased
//   - Default ports (http:80, https:443) are dropped
//   - An empty path becomes "/"
//
// Query and fragment are kept untouched: players read start offsets and
// embed flags from them.
func NormalizeVideoURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("could not parse URL: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errNotWebURL
	}

	host := strings.ToLower(u.Host)
	if h, port, err := net.SplitHostPort(host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			host = h
			if strings.Contains(h, ":") {
				host = "[" + h + "]"
			}
		}
	}
	u.Host = host

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
