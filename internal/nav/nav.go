// Package nav holds the navigation entries and computes the header controls.
package nav

import (
	"zone.digit.host/internal/paths"
	"zone.digit.host/internal/view"
)

// Link pairs a navigation label with a path pattern and the view it mounts.
// Labels and patterns are expected to be unique within a list.
type Link struct {
	Label string
	// To is a path or a path pattern; a "/*" suffix covers all sub-paths.
	To   string
	View view.Provider
}

// Control is one rendered navigation entry.
type Control struct {
	Label  string
	Href   string
	Active bool
}

// Href returns the target of link under basename. Wildcard patterns link to
// their base path.
func Href(basename string, link Link) string {
	return paths.For(basename, paths.Base(link.To))
}

// Header returns one control per link, in order. The control whose href equals
// location is active. When none does, the first wildcard link whose base
// covers location is active instead. At most one control is active.
func Header(links []Link, basename, location string) []Control {
	controls := make([]Control, 0, len(links))
	for _, link := range links {
		controls = append(controls, Control{Label: link.Label, Href: Href(basename, link)})
	}
	if i := activeIndex(links, controls, basename, location); i >= 0 {
		controls[i].Active = true
	}
	return controls
}

func activeIndex(links []Link, controls []Control, basename, location string) int {
	for i, c := range controls {
		if c.Href == location {
			return i
		}
	}
	rest, ok := paths.Strip(basename, location)
	if !ok {
		return -1
	}
	for i, link := range links {
		if paths.IsWildcard(link.To) && paths.Match(link.To, rest) {
			return i
		}
	}
	return -1
}
