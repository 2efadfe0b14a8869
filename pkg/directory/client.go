// Package directory is the client for the external identity directory that
// owns all persons, group memberships and the organization hierarchy. The
// rest of the service treats it as a remote collaborator: calls may be slow
// or fail, and failures propagate as *APIError rather than being retried
// here.
package directory

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the directory reports that the requested
// person, organization or handle does not exist.
var ErrNotFound = errors.New("directory: not found")

// APIError is a non-404 failure reported by the directory API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client is the narrow set of directory operations this service needs.
// Every call is scoped to an organization; the directory enforces that the
// person or group referenced belongs to that org.
type Client interface {
	// ListPersons lists persons in an org, optionally filtered to a single
	// handle in "type:value" form.
	ListPersons(ctx context.Context, orgID string, handle string) ([]Person, error)

	// UpsertPerson creates a person, or replaces the record of an existing
	// person matched by handles. Groups are a full replacement.
	UpsertPerson(ctx context.Context, orgID string, req PersonUpsert) (*Person, error)

	// DeletePerson detaches a person from an org entirely.
	DeletePerson(ctx context.Context, orgID, personID string) error

	// GetPersonHandles returns the person's contact handles.
	GetPersonHandles(ctx context.Context, orgID, personID string) ([]Handle, error)

	// ListPersonOrganizations lists every organization the person belongs
	// to, with fully-qualified names.
	ListPersonOrganizations(ctx context.Context, orgID, personID string) ([]Organization, error)

	// ListPersonGroups returns the raw group names of a person within an
	// org. A person that is not a member of the org yields an empty slice,
	// not an error.
	ListPersonGroups(ctx context.Context, orgID, personID string) ([]string, error)

	// SetPersonGroups replaces the person's group set within orgID. The
	// person's handles are re-fetched from the root org so the upsert
	// matches the existing record.
	SetPersonGroups(ctx context.Context, orgID, personID string, groups []string) error

	// CreateGroup creates a group in an org. Creating a group that already
	// exists is not an error.
	CreateGroup(ctx context.Context, orgID, name, description string) error

	// ListSubOrganizations returns the ids of the org's immediate
	// sub-organizations.
	ListSubOrganizations(ctx context.Context, orgID string) ([]string, error)

	// CreateSubOrganization creates a child org under parentOrgID.
	CreateSubOrganization(ctx context.Context, parentOrgID string, req SubOrganizationCreate) (*Organization, error)

	// GetPersonAttributes reads a person's attributes from a named bucket.
	GetPersonAttributes(ctx context.Context, orgID, personID, bucket string) (map[string]string, error)

	// SetPersonAttributes writes a person's attributes into a named bucket.
	SetPersonAttributes(ctx context.Context, orgID, personID, bucket string, attrs map[string]string) error

	// MintToken mints a bearer token for a person. Used only by startup
	// provisioning, never by request-time logic.
	MintToken(ctx context.Context, orgID, personID string) (string, error)
}
