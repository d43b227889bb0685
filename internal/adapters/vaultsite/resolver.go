package vaultsite

import (
	"net/url"
	"strings"
)

const mediaParam = "mediaId"

// ResolveDownloadURL normalizes a scraped form action into the absolute
// payload URL. Shapes handled, in order: empty (synthesize the default
// endpoint on the origin), protocol-relative ("//host/..."), host-relative
// ("/path"), already absolute. The media id always ends up as a query
// parameter exactly once.
func ResolveDownloadURL(formAction, mediaID, origin string) string {
	origin = strings.TrimRight(origin, "/")

	var resolved string
	switch {
	case formAction == "":
		resolved = origin + "/download"
	case strings.HasPrefix(formAction, "//"):
		resolved = originScheme(origin) + ":" + formAction
	case strings.HasPrefix(formAction, "/"):
		resolved = origin + formAction
	default:
		resolved = formAction
	}

	return ensureMediaParam(resolved, mediaID)
}

func ensureMediaParam(rawURL, mediaID string) string {
	if strings.Contains(rawURL, mediaParam+"=") {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + mediaParam + "=" + url.QueryEscape(mediaID)
}

func originScheme(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Scheme != "" {
		return u.Scheme
	}
	return "https"
}
