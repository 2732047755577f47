package scanresolver

import (
	"context"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"strings"

	whatwgurl "github.com/nlnwa/whatwg-url/url"
	"go.uber.org/zap"
)

// routeMarkers are the path segments of in-app content pages.
var routeMarkers = []string{"/video/", "/quiz/"} //nolint: gochecknoglobals

// Classify decides where decoded text leads. Text carrying a content route
// marker that parses as an absolute URL maps to the in-app path of that URL;
// everything else, including marker text that fails to parse, is external.
func Classify(text string) domain.NavigationTarget {
	if !hasRouteMarker(text) {
		return domain.NavigationTarget{Kind: domain.NavigationExternal, Value: text}
	}

	path, ok := absolutePath(text)
	if !ok {
		return domain.NavigationTarget{Kind: domain.NavigationExternal, Value: text}
	}

	return domain.NavigationTarget{Kind: domain.NavigationInternal, Value: path}
}

func hasRouteMarker(text string) bool {
	for _, m := range routeMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}

	return false
}

// absolutePath returns the pathname of text parsed as a WHATWG URL without a
// base, the way browsers parse scanned links. Dot segments are removed and
// query and fragment are dropped.
func absolutePath(text string) (string, bool) {
	u, err := whatwgurl.Parse(text)
	if err != nil {
		return "", false
	}

	return u.Pathname(), true
}

// Resolve turns decoded text into navigation. Internal targets are handed to
// the router and close the scanning UI; external targets go to the opener.
func (r *Resolver) Resolve(ctx context.Context, text string) domain.NavigationTarget {
	target := Classify(text)

	r.mu.Lock()
	r.lastResult = text
	r.lastTarget = &target
	r.mu.Unlock()

	logger.Info(ctx, "resolved scan result",
		zap.String("kind", string(target.Kind)),
		zap.String("value", target.Value))

	if target.IsInternal() {
		r.router.Navigate(ctx, target.Value)
		if r.options.OnClose != nil {
			r.options.OnClose(ctx)
		}

		return target
	}

	r.opener.Open(ctx, target.Value)

	return target
}
