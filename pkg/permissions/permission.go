// Package permissions defines the three-level page permission model and the
// guards that enforce it. Permissions are stored in the identity directory
// as group memberships within the page's organization: a user's permission
// set on a page is exactly the set of recognized group names the directory
// reports for them there.
package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Permission is one of the three fixed access levels. The string value
// doubles as the directory group name. No hierarchy is implied: admin does
// not grant read or write at this layer.
type Permission string

const (
	Read  Permission = "read"
	Write Permission = "write"
	Admin Permission = "admin"
)

// Descriptions are the human-readable group descriptions used when the
// groups are provisioned in the directory. Kept separate from the values
// themselves; they are presentation metadata, not part of the model.
var Descriptions = map[Permission]string{
	Read:  "Allowed to read page contents",
	Write: "Allowed to update page contents",
	Admin: "Allowed to manage user permissions and create subpages",
}

// All returns the three permissions in stable order
func All() []Permission {
	return []Permission{Read, Write, Admin}
}

// Parse maps a group name to a Permission, rejecting unknown names
func Parse(s string) (Permission, error) {
	switch Permission(s) {
	case Read, Write, Admin:
		return Permission(s), nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Set is an unordered set of permissions
type Set map[Permission]struct{}

// NewSet builds a set from the given permissions
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// FromGroupNames builds a set from directory group names. Unrecognized
// names are dropped rather than failing the whole computation; the
// directory may grow group kinds this service does not know about.
func FromGroupNames(names []string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		if p, err := Parse(name); err == nil {
			s[p] = struct{}{}
		}
	}
	return s
}

// Has reports whether the set contains p
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// ContainsAll reports whether every permission in required is in s
func (s Set) ContainsAll(required Set) bool {
	for p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// GroupNames returns the set as sorted directory group names
func (s Set) GroupNames() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// String renders the set as its sorted group names
func (s Set) String() string {
	return fmt.Sprintf("%v", s.GroupNames())
}

// MarshalJSON encodes the set as a sorted array of group names
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.GroupNames())
}

// UnmarshalJSON decodes an array of group names, rejecting unknown names.
// Unlike FromGroupNames this is strict: these arrays come from API clients,
// not from the directory.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	out := make(Set, len(names))
	for _, name := range names {
		p, err := Parse(name)
		if err != nil {
			return err
		}
		out[p] = struct{}{}
	}
	*s = out
	return nil
}
