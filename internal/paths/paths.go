// Package paths resolves navigation targets against the mount prefix and
// matches locations against route patterns.
package paths

import "strings"

// Wildcard is the pattern suffix meaning "this location and all sub-paths".
const Wildcard = "/*"

// For returns the href of to under basename. A root target maps to the
// basename itself so mounted apps do not get a trailing slash.
func For(basename, to string) string {
	if basename == "" {
		return to
	}
	if to == "/" {
		return basename
	}
	return basename + to
}

// Strip removes basename from location. Locations outside the mount prefix
// are reported with ok == false.
func Strip(basename, location string) (rest string, ok bool) {
	if basename == "" {
		return location, true
	}
	if location == basename {
		return "/", true
	}
	if strings.HasPrefix(location, basename+"/") {
		return location[len(basename):], true
	}
	return "", false
}

// Base returns the pattern with any wildcard suffix removed. "/*" becomes "/".
func Base(pattern string) string {
	if !strings.HasSuffix(pattern, Wildcard) {
		return pattern
	}
	base := strings.TrimSuffix(pattern, Wildcard)
	if base == "" {
		return "/"
	}
	return base
}

// IsWildcard reports whether pattern ends in the wildcard suffix.
func IsWildcard(pattern string) bool {
	return strings.HasSuffix(pattern, Wildcard)
}

// Match reports whether path is selected by pattern. Plain patterns match
// exactly, ignoring a trailing slash. Wildcard patterns match their base and
// everything below it, but not siblings sharing a name prefix ("/aboutx").
func Match(pattern, path string) bool {
	path = clean(path)
	if !IsWildcard(pattern) {
		return clean(pattern) == path
	}
	base := clean(Base(pattern))
	if base == "/" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// Rest returns the part of path below the pattern's base, always starting
// with "/". For a plain pattern it is "/".
func Rest(pattern, path string) string {
	if !IsWildcard(pattern) {
		return "/"
	}
	path = clean(path)
	base := clean(Base(pattern))
	if base == "/" {
		return path
	}
	if rest := strings.TrimPrefix(path, base); rest != "" {
		return rest
	}
	return "/"
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}
