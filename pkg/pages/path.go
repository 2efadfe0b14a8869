// Package pages maps hierarchical page paths onto the identity directory's
// organization tree and holds page content in memory. Every page is backed
// one-to-one by a directory organization whose fully-qualified name is
// "{root-org-name}/{segment}/{segment}/...".
package pages

import "strings"

// PagePath is the ordered list of non-empty path segments identifying a
// page. The empty path is the root page.
type PagePath []string

// ParsePath splits a request path into segments, ignoring extra slashes.
func ParsePath(raw string) PagePath {
	parts := strings.Split(raw, "/")
	path := make(PagePath, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			path = append(path, part)
		}
	}
	return path
}

// Parent returns the path with the last segment removed. The root path is
// its own parent.
func (p PagePath) Parent() PagePath {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// String renders the path with "/" separators, without a leading slash.
func (p PagePath) String() string {
	return strings.Join(p, "/")
}

// OrgName returns the fully-qualified directory organization name for this
// path under the given root org name.
func (p PagePath) OrgName(rootName string) string {
	if len(p) == 0 {
		return rootName
	}
	return rootName + "/" + strings.Join(p, "/")
}
