package folio

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// absoluteURL resolves a site-relative link such as /public/uploads/x.jpg
// against base. Absolute links are returned unchanged.
func absoluteURL(base, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return BuildURL(base, link)
}

// Excerpt returns the first max runes of s with whitespace collapsed,
// followed by an ellipsis when truncated.
func Excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
