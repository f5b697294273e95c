package folio

import (
	"net/url"
	"path"
	"strings"
)

// BuildURL joins a base URL with path segments. Without segments the result
// ends in a slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) == 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsoluteURL resolves a site-relative URL against base. URLs that already
// carry a scheme, such as the mirror of a headless post, are returned as is.
func AbsoluteURL(base, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return BuildURL(base, ref)
}
