package content_test

import (
	"qrportal/internal/content"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeVideoURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
		ok   bool
	}{
		{
			name: "lowercase scheme and host; add root path",
			in:   "HTTPS://Videos.Example.COM",
			out:  "https://videos.example.com/",
			ok:   true,
		},
		{
			name: "remove default https port",
			in:   "https://example.com:443/embed/1",
			out:  "https://example.com/embed/1",
			ok:   true,
		},
		{
			name: "keep non-default port",
			in:   "http://example.com:8080/v.mp4",
			out:  "http://example.com:8080/v.mp4",
			ok:   true,
		},
		{
			name: "ipv6 host with default port",
			in:   "http://[2001:db8::1]:80/a",
			out:  "http://[2001:db8::1]/a",
			ok:   true,
		},
		{
			name: "query and fragment are kept",
			in:   "https://example.com/embed/1?autoplay=1&start=30#t=1m",
			out:  "https://example.com/embed/1?autoplay=1&start=30#t=1m",
			ok:   true,
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "  https://example.com/v  ",
			out:  "https://example.com/v",
			ok:   true,
		},
		{
			name: "relative URL is rejected",
			in:   "/videos/1",
			ok:   false,
		},
		{
			name: "other schemes are rejected",
			in:   "javascript:alert(1)",
			ok:   false,
		},
		{
			name: "missing host is rejected",
			in:   "https:///video",
			ok:   false,
		},
		{
			name: "invalid url returns error",
			in:   "http://exa mple.com",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := content.NormalizeVideoURL(tc.in)
			if !tc.ok {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.out, got)
		})
	}
}
