// Package sites maps raw window titles to tracked site ids.
package sites

import "strings"

// Matcher decides which tracked site, if any, a window title belongs to.
// Matching is a best-effort substring heuristic: browser window titles
// usually carry the site name ("Watch Later - YouTube - Mozilla Firefox"),
// so a title matches a site when it contains either the full site id or the
// id without its ".com" suffix ("youtube.com" or "youtube"). Only the .com
// suffix is stripped; a shorter label like "news" for news.ycombinator.com
// would match far too much.
type Matcher struct {
	sites []candidate
}

type candidate struct {
	id    string
	full  string
	label string
}

// NewMatcher builds a matcher for the given tracked site ids.
func NewMatcher(siteIDs []string) *Matcher {
	m := &Matcher{sites: make([]candidate, 0, len(siteIDs))}

	for _, id := range siteIDs {
		lower := strings.ToLower(strings.TrimSpace(id))
		if lower == "" {
			continue
		}

		label := strings.TrimSuffix(lower, ".com")
		if label == lower {
			label = ""
		}

		m.sites = append(m.sites, candidate{id: id, full: lower, label: label})
	}

	return m
}

// Match returns the tracked site id the window title belongs to. An empty
// title never matches.
func (m *Matcher) Match(windowTitle string) (string, bool) {
	title := strings.ToLower(windowTitle)
	if strings.TrimSpace(title) == "" {
		return "", false
	}

	for _, c := range m.sites {
		if strings.Contains(title, c.full) {
			return c.id, true
		}
		if c.label != "" && strings.Contains(title, c.label) {
			return c.id, true
		}
	}

	return "", false
}
