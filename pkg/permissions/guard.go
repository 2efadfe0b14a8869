package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/pages"
)

// ErrNoCredentials is the guard failure for anonymous requests, surfaced as
// 401 at the HTTP edge.
var ErrNoCredentials = errors.New("requires user credentials")

// ForbiddenError is the guard failure for authenticated users whose actual
// permission set does not cover the requirement. It carries both sets so
// error responses can say what was missing.
type ForbiddenError struct {
	Required Set
	Actual   Set
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("missing permissions: requires %s, has %s", e.Required, e.Actual)
}

// Guard checks one fixed required permission set against a user's actual
// permissions on a page. Guards are pure and reusable: construct one per
// distinct requirement at startup and share it across requests.
type Guard struct {
	dir      directory.Client
	required Set
}

// NewGuard creates a guard for the given required set
func NewGuard(dir directory.Client, required Set) *Guard {
	return &Guard{dir: dir, required: required}
}

// Required returns the permission set this guard enforces
func (g *Guard) Required() Set {
	return g.required
}

// Check enforces the guard, in fixed order: missing credentials fail with
// ErrNoCredentials before anything else, an unresolved page fails with
// pages.ErrNotFound before membership is consulted, and only then is the
// actual permission set fetched and compared. On success the actual set is
// returned so callers can reuse it.
func (g *Guard) Check(ctx context.Context, userID auth.UserID, pageID pages.PageID) (Set, error) {
	if userID == "" {
		return nil, ErrNoCredentials
	}
	if pageID == "" {
		return nil, pages.ErrNotFound
	}

	actual, err := getPermissions(ctx, g.dir, userID, pageID)
	if err != nil {
		return nil, err
	}
	if !actual.ContainsAll(g.required) {
		return nil, &ForbiddenError{Required: g.required, Actual: actual}
	}
	return actual, nil
}

// getPermissions fetches the user's actual permission set on a page. Either
// argument being absent yields the empty set, never an error.
func getPermissions(ctx context.Context, dir directory.Client, userID auth.UserID, pageID pages.PageID) (Set, error) {
	if userID == "" || pageID == "" {
		return NewSet(), nil
	}
	groups, err := dir.ListPersonGroups(ctx, string(pageID), string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups for user %s on page %s: %w", userID, pageID, err)
	}
	return FromGroupNames(groups), nil
}
