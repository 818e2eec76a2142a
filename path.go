package sift

import (
	"fmt"
	"strings"
)

const pathSep = "."

// Path names a queryable attribute or relationship as a dot-separated
// chain of relationship names, optionally ending in an attribute name.
// "age" addresses an attribute of the entity in scope; "department.name"
// first traverses the department relationship. Paths are always relative
// to the scope they appear in: inside a Join block they resolve from the
// joined entity, everywhere else from the root.
type Path string

// ParsePath checks that s is a well-formed path: non-empty, with no empty
// segment. It does not check that the segments exist anywhere; that is the
// backend's job during compilation.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return "", fmt.Errorf("sift: empty path")
	}
	for _, seg := range strings.Split(s, pathSep) {
		if seg == "" {
			return "", fmt.Errorf("sift: path %q has an empty segment", s)
		}
	}
	return Path(s), nil
}

// Segments splits the path into its segment names, in traversal order.
func (p Path) Segments() []string {
	return strings.Split(string(p), pathSep)
}

// child extends a path prefix by one segment.
func child(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + pathSep + seg
}

// rebase anchors a scope-relative path at the scope's absolute prefix.
func rebase(prefix string, p Path) Path {
	if prefix == "" {
		return p
	}
	return Path(prefix + pathSep + string(p))
}
