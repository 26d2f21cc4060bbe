package audio

import (
	"net/url"
	"path"
	"strings"
)

// StreamPath is the route local files are served from.
const StreamPath = "/api/audio/"

// NormalizeLocator rewrites a file:// reference into a streamable URL under base.
//
// Only the final path element of the file reference is kept. Any other locator is
// returned unchanged.
func NormalizeLocator(base, locator string) string {
	name := FilenameFromLocator(locator)
	if name == "" {
		return locator
	}
	return strings.TrimRight(base, "/") + StreamPath + url.PathEscape(name)
}

// FilenameFromLocator returns the file name a file:// reference points at, or "".
func FilenameFromLocator(locator string) string {
	rest, ok := strings.CutPrefix(locator, "file://")
	if !ok {
		return ""
	}

	name := path.Base(rest)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// FileLocator builds the file:// reference stored for a library file.
func FileLocator(filename string) string {
	return "file:///" + url.PathEscape(path.Base(filename))
}
